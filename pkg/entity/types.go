package entity

import (
	"time"

	"github.com/benfordscope/benfordscope/pkg/benford"
)

// TotalID keys the aggregate of all entities in the output document.
const TotalID = "00"

// NoWinner marks an entity without a declared winner.
const NoWinner = -1

// Record is one normalized entity (state, country) as produced by ingestion.
type Record struct {
	ID            string
	Name          string
	Votes         int64
	AbsenteeVotes int64
	Electoral     int
	Candidates    []Candidate
	Counties      []CountyRecord
	Series        []Snapshot
}

// Candidate is one line of an entity's results.
type Candidate struct {
	Key      string
	Party    string
	Votes    int64
	Absentee int64
	Winner   bool
}

// CountyRecord holds the results of one county, keyed by candidate key.
type CountyRecord struct {
	FIPS    string
	Name    string
	Votes   int64
	Results map[string]int64
}

// Snapshot is one cumulative report of a time series: the share of Votes
// held by each candidate key at Timestamp.
type Snapshot struct {
	Shares    map[string]float64
	Votes     int64
	Timestamp time.Time
}

// Tally holds vote counts by category.
type Tally struct {
	Dem   int64 `json:"dem"`
	Rep   int64 `json:"rep"`
	Other int64 `json:"other"`
	Total int64 `json:"total"`
}

// Add returns the field-wise sum of t and o.
func (t Tally) Add(o Tally) Tally {
	return Tally{
		Dem:   t.Dem + o.Dem,
		Rep:   t.Rep + o.Rep,
		Other: t.Other + o.Other,
		Total: t.Total + o.Total,
	}
}

func (t *Tally) add(field int, v int64) {
	switch field {
	case benford.FieldDem:
		t.Dem += v
	case benford.FieldRep:
		t.Rep += v
	case benford.FieldOther:
		t.Other += v
	case benford.FieldTotal:
		t.Total += v
	}
}

// DigitScore is the best chi-square/score pair seen for one digit position.
type DigitScore struct {
	Chi   float64 `json:"chi"`
	Score float64 `json:"score"`
}

// Anomaly flag bits, set per field-selection slot.
const (
	FlagCrossSection uint8 = 1 << iota
	FlagTimeSeries
)

// Result is the analysis outcome of one entity.
type Result struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Votes        Tally             `json:"votes"`
	Absentee     Tally             `json:"absentee"`
	Fraud        float64           `json:"fraud"`
	CrossSection [2]DigitScore     `json:"cross_section"`
	TimeSeries   [2]DigitScore     `json:"time_series"`
	FraudPercent float64           `json:"fraud_percent"`
	Flags        [4]uint8          `json:"flags"`
	Findings     []benford.Finding `json:"findings"`
	Winner       int               `json:"winner"`
	Electoral    int               `json:"electoral"`
}

func newResult(id, name string) *Result {
	return &Result{
		ID:       id,
		Name:     name,
		Findings: []benford.Finding{},
		Winner:   NoWinner,
	}
}

// ApplyAggregate stores the headline score and damped percentage.
func (r *Result) ApplyAggregate(a benford.Aggregate) {
	r.Fraud = a.Best
	r.FraudPercent = a.Percent
}

// Scores returns the per-digit best scores of a test kind. Windowed findings
// share the time-series slots.
func (r *Result) Scores(kind benford.Kind) *[2]DigitScore {
	if kind == benford.KindCrossSection {
		return &r.CrossSection
	}
	return &r.TimeSeries
}

// County is one cross-sectional sample.
type County struct {
	Values benford.Sample
	FIPS   string
	Name   string
}

// Samples strips the identifiers off counties.
func Samples(counties []County) []benford.Sample {
	out := make([]benford.Sample, len(counties))
	for i, c := range counties {
		out[i] = c.Values
	}
	return out
}
