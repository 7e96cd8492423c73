// Package ingest turns source datasets into normalized entity records.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/benfordscope/benfordscope/pkg/entity"
)

var (
	ErrMalformed = errors.New("malformed document")
	ErrNoRaces   = errors.New("no races found")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadElection reads and parses an election results document.
func LoadElection(path string) ([]entity.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := ParseElection(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseElection accepts the results document wrapped as {"data": {"races":
// [...]}}, as {"races": [...]} or as a bare array of races.
func ParseElection(data []byte) ([]entity.Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		if inner := root.Get("data"); inner.Exists() {
			root = inner
		}
	}
	if root.IsObject() {
		if races := root.Get("races"); races.Exists() {
			root = races
		}
	}
	if !root.IsArray() {
		return nil, ErrNoRaces
	}

	var records []entity.Record
	root.ForEach(func(_, race gjson.Result) bool {
		records = append(records, parseRace(race))
		return true
	})
	return records, nil
}

func parseRace(race gjson.Result) entity.Record {
	rec := entity.Record{
		ID:            race.Get("state_id").String(),
		Name:          CleanName(race.Get("state_name").String()),
		Votes:         race.Get("votes").Int(),
		AbsenteeVotes: race.Get("absentee_votes").Int(),
		Electoral:     int(race.Get("electoral_votes").Int()),
	}

	candidates := race.Get("candidates")
	if !candidates.Exists() {
		candidates = race.Get("results")
	}
	candidates.ForEach(func(_, c gjson.Result) bool {
		votes := c.Get("votes").Int()
		if votes == 0 {
			votes = c.Get("vote_count").Int()
		}
		rec.Candidates = append(rec.Candidates, entity.Candidate{
			Key:      c.Get("candidate_key").String(),
			Party:    c.Get("party_id").String(),
			Votes:    votes,
			Absentee: c.Get("absentee_votes").Int(),
			Winner:   c.Get("winner").Bool(),
		})
		return true
	})

	race.Get("counties").ForEach(func(_, c gjson.Result) bool {
		county := entity.CountyRecord{
			FIPS:    c.Get("fips").String(),
			Name:    CleanName(c.Get("name").String()),
			Votes:   c.Get("votes").Int(),
			Results: make(map[string]int64),
		}
		c.Get("results").ForEach(func(key, value gjson.Result) bool {
			county.Results[key.String()] = value.Int()
			return true
		})
		rec.Counties = append(rec.Counties, county)
		return true
	})

	race.Get("timeseries").ForEach(func(_, s gjson.Result) bool {
		snap := entity.Snapshot{
			Votes:  s.Get("votes").Int(),
			Shares: make(map[string]float64),
		}
		if ts, err := time.Parse(time.RFC3339, s.Get("timestamp").String()); err == nil {
			snap.Timestamp = ts
		}
		s.Get("vote_shares").ForEach(func(key, value gjson.Result) bool {
			snap.Shares[key.String()] = value.Float()
			return true
		})
		rec.Series = append(rec.Series, snap)
		return true
	})

	return rec
}
