package storage

import "time"

// Run is one archived analysis run. Fraud and FraudPercent are those of the
// aggregate over all entities.
type Run struct {
	ID           string
	Year         int
	Source       string
	StartedAt    time.Time
	Entities     int
	Findings     int
	Fraud        float64
	FraudPercent float64
}

// FindingRow is a finding joined with its run and entity.
type FindingRow struct {
	RunID    string
	Year     int
	Source   string
	EntityID string
	Name     string
	Kind     string
	Digit    int
	Fields   string
	Total    int
	Chi      float64
	Score    float64
	// Window bounds, -1 for findings over a whole sample set.
	WindowStart int
	WindowEnd   int
}

// Change captures how an entity's fraud percentage moved between two runs
// of the same year and source.
type Change struct {
	EntityID   string
	Name       string
	Before     float64
	After      float64
	ChangeType string // added | updated | removed
}

// YearStats summarizes the archived runs of one year and source.
type YearStats struct {
	Year         int
	Source       string
	RunCount     int
	FindingCount int
	MaxPercent   float64
	LastRun      time.Time
}

// FindingFilter controls selection when listing findings.
type FindingFilter struct {
	// RunID selects one run; empty means the latest run.
	RunID    string
	Year     int
	Kind     string
	MinScore float64
	Limit    int
}
