// Package benford scores how well the leading digits of a set of counts
// follow Benford's Law and localizes anomalies inside a time series.
//
// Everything in this package is a pure function of its inputs: nothing is
// mutated in place and no I/O is performed.
package benford

import (
	"fmt"
	"math"
)

// Field indices of a Sample.
const (
	FieldDem = iota
	FieldRep
	FieldOther
	FieldTotal
)

// Sample is one row of counts: candidate A, candidate B, other parties and
// the total, in that order.
type Sample [4]int64

// Kind identifies which kind of test produced a Finding.
type Kind int

const (
	KindCrossSection Kind = iota
	KindTimeSeries
	KindWindow
)

var kindNames = [...]string{"cross-section", "time-series", "window"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name so that persisted findings stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finding kind %q", s)
}

// Window locates a windowed finding inside its time series. End is exclusive;
// EndTime and EndCumulative describe the last snapshot inside the window.
type Window struct {
	Start           int    `json:"start"`
	End             int    `json:"end"`
	StartTime       int64  `json:"start_time"`
	EndTime         int64  `json:"end_time"`
	StartCumulative Sample `json:"start_cumulative"`
	EndCumulative   Sample `json:"end_cumulative"`
}

// Finding is one recorded digit test. It is never modified after creation.
type Finding struct {
	Kind   Kind    `json:"kind"`
	Digit  int     `json:"digit"`
	Fields []int   `json:"fields"`
	Total  int     `json:"total"`
	Chi    float64 `json:"chi"`
	Score  float64 `json:"score"`
	Counts [10]int `json:"counts"`
	Window *Window `json:"window,omitempty"`
}

// NewFinding records the outcome of a test. The chi-square value is
// truncated to two decimals.
func NewFinding(kind Kind, position int, fields []int, res Result) Finding {
	return Finding{
		Kind:   kind,
		Digit:  position,
		Fields: append([]int(nil), fields...),
		Total:  res.Total,
		Chi:    Truncate2(res.Chi),
		Score:  res.Score,
		Counts: res.Counts,
	}
}

// Truncate2 drops everything past the second decimal. It never rounds up.
func Truncate2(x float64) float64 {
	return math.Floor(x*100) / 100
}
