// Package ballots counts mail-ballot requests from the Pennsylvania
// Department of State "2020 General Election Mail Ballot Requests" export
// and runs the digit test over the per-county request totals.
package ballots

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/benfordscope/benfordscope/internal/utils"
	"github.com/benfordscope/benfordscope/pkg/benford"
)

// DefaultFile is the export's file name inside the data folder.
const DefaultFile = "2020_General_Election_Mail_Ballot_Requests_Department_of_State.csv"

// Column layout of the export.
const (
	colCounty = 0
	colParty  = 1
	// ballot returned date
	colReturned = 7
)

var dateColumns = []int{2, 4, 5, 6, colReturned}

type CountyStats struct {
	Requested    int64 `json:"requested"`
	Returned     int64 `json:"returned"`
	DemRequested int64 `json:"dem_requested"`
	DemReturned  int64 `json:"dem_returned"`
	RepRequested int64 `json:"rep_requested"`
	RepReturned  int64 `json:"rep_returned"`
}

type PartyStats struct {
	Requested int64 `json:"requested"`
	Returned  int64 `json:"returned"`
}

type DateCount struct {
	Date  string
	Count int64
}

type Stats struct {
	Counties  map[string]*CountyStats
	Parties   map[string]*PartyStats
	Dates     map[string]int64
	Requested int64
	Returned  int64
}

// Test is one digit test over the per-county request totals.
type Test struct {
	Field    int
	Position int
	Result   benford.Result
}

// Count reads the export. The header row and every row whose party is not
// D or R are skipped.
func Count(r io.Reader) (*Stats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	stats := &Stats{
		Counties: make(map[string]*CountyStats),
		Parties:  make(map[string]*PartyStats),
		Dates:    make(map[string]int64),
	}

	for i := 0; ; i++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i == 0 || len(row) <= colReturned {
			continue
		}
		party := row[colParty]
		if party != "D" && party != "R" {
			continue
		}
		for _, c := range dateColumns {
			row[c] = fixDate(row[c])
		}

		county := stats.Counties[row[colCounty]]
		if county == nil {
			county = &CountyStats{}
			stats.Counties[row[colCounty]] = county
		}
		ps := stats.Parties[party]
		if ps == nil {
			ps = &PartyStats{}
			stats.Parties[party] = ps
		}
		isDem := party == "D"

		county.Requested++
		if isDem {
			county.DemRequested++
		} else {
			county.RepRequested++
		}
		ps.Requested++
		stats.Requested++

		if date := row[colReturned]; date != "" {
			county.Returned++
			if isDem {
				county.DemReturned++
			} else {
				county.RepReturned++
			}
			ps.Returned++
			stats.Returned++
			stats.Dates[date]++
		}

		if i%10000 == 0 {
			utils.Log.Debugf("[pa] %d %s", i, strings.Join(row, ", "))
		}
	}
	return stats, nil
}

// fixDate turns MM/DD/YYYY into YYYY/MM/DD so dates sort lexically.
func fixDate(date string) string {
	items := strings.Split(date, "/")
	if len(items) != 3 {
		return date
	}
	return strings.Join([]string{items[2], items[0], items[1]}, "/")
}

// CountyNames returns the counties in alphabetical order.
func (s *Stats) CountyNames() []string {
	names := make([]string, 0, len(s.Counties))
	for name := range s.Counties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedDates returns the returned-ballot counts in date order.
func (s *Stats) SortedDates() []DateCount {
	out := make([]DateCount, 0, len(s.Dates))
	for date, n := range s.Dates {
		out = append(out, DateCount{Date: date, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Samples lays the county request counts out as digit-test samples.
func (s *Stats) Samples() []benford.Sample {
	names := s.CountyNames()
	out := make([]benford.Sample, len(names))
	for i, name := range names {
		c := s.Counties[name]
		out[i] = benford.Sample{c.DemRequested, c.RepRequested, 0, c.Requested}
	}
	return out
}

// Tests runs both digit positions over the Democratic, Republican and total
// request counts per county.
func (s *Stats) Tests() []Test {
	samples := s.Samples()
	var tests []Test
	for position := 1; position <= 2; position++ {
		for _, field := range []int{benford.FieldDem, benford.FieldRep, benford.FieldTotal} {
			tests = append(tests, Test{
				Field:    field,
				Position: position,
				Result:   benford.Test(samples, []int{field}, position),
			})
		}
	}
	return tests
}
