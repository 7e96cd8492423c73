package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/benfordscope/benfordscope/pkg/entity"
)

var covidColumns = []string{"date", "state", "fips", "cases"}

// ParseCovid reads cumulative case counts in the layout of the New York
// Times us-states.csv (date,state,fips,cases,deaths) and returns one record
// per region, in order of first appearance. Each row becomes a snapshot of
// the region's time series; rows that cannot be parsed are skipped.
func ParseCovid(r io.Reader) ([]entity.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range covidColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, name)
		}
	}

	var records []entity.Record
	index := make(map[string]int)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(row) < len(header) {
			continue
		}

		date, err := time.Parse("2006-01-02", row[cols["date"]])
		if err != nil {
			continue
		}
		cases, err := strconv.ParseInt(row[cols["cases"]], 10, 64)
		if err != nil {
			continue
		}

		name := NormalizeRegion(row[cols["state"]])
		id := row[cols["fips"]]
		if id == "" {
			id = name
		}

		i, ok := index[id]
		if !ok {
			i = len(records)
			index[id] = i
			records = append(records, entity.Record{ID: id, Name: name})
		}
		rec := &records[i]
		rec.Votes = cases
		rec.Series = append(rec.Series, entity.Snapshot{Votes: cases, Timestamp: date})
	}
	return records, nil
}
