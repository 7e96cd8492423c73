// Package entity turns normalized ingestion records into per-entity result
// records, county samples and time-series deltas.
package entity

import (
	"sort"

	"github.com/benfordscope/benfordscope/pkg/benford"
)

// Assemble builds the result record and county samples of rec. Candidates
// with an unknown party are ignored. When the source omits the total (or
// absentee total) it is back-filled from the candidate sums.
func Assemble(rec Record, parties *PartyTable) (*Result, []County) {
	r := newResult(rec.ID, rec.Name)
	r.Electoral = rec.Electoral
	r.Votes.Total = rec.Votes
	r.Absentee.Total = rec.AbsenteeVotes

	missingVotes := rec.Votes == 0
	missingAbsentees := rec.AbsenteeVotes == 0

	for _, c := range rec.Candidates {
		field, ok := PartyField(c.Party)
		if !ok {
			continue
		}
		field = parties.Register(c.Key, field)
		if c.Winner {
			r.Winner = field
		}

		r.Votes.add(field, c.Votes)
		if missingVotes {
			r.Votes.Total += c.Votes
		}
		r.Absentee.add(field, c.Absentee)
		if missingAbsentees {
			r.Absentee.Total += c.Absentee
		}
	}

	counties := make([]County, 0, len(rec.Counties))
	for _, cr := range rec.Counties {
		c := County{FIPS: cr.FIPS, Name: cr.Name}
		c.Values[benford.FieldTotal] = cr.Votes
		for _, key := range sortedKeys(cr.Results) {
			if field, ok := parties.Lookup(key); ok {
				c.Values[field] = cr.Results[key]
			}
		}
		counties = append(counties, c)
	}
	return r, counties
}

// BuildDeltas differences the cumulative snapshots of a time series. The
// delta of a candidate is its new rounded share of the votes minus the last
// share recorded for it, so corrections in the source can make it negative.
func BuildDeltas(series []Snapshot, parties *PartyTable) []benford.Point {
	points := make([]benford.Point, 0, len(series))
	var prev, cumul benford.Sample

	for _, snap := range series {
		var p benford.Point
		cumul[benford.FieldTotal] = snap.Votes

		for _, key := range sortedKeys(snap.Shares) {
			field, ok := parties.Lookup(key)
			if !ok {
				continue
			}
			value := int64(snap.Shares[key]*float64(snap.Votes) + 0.5)
			delta := value - prev[field]
			p.Values[field] = delta
			cumul[field] += delta
			prev[field] = value
		}

		p.Values[benford.FieldTotal] = snap.Votes - prev[benford.FieldTotal]
		prev[benford.FieldTotal] = snap.Votes
		if !snap.Timestamp.IsZero() {
			p.Time = snap.Timestamp.Unix()
		}
		p.Cumulative = cumul
		points = append(points, p)
	}
	return points
}

// Sum adds up the vote tallies of every result into one aggregate record.
func Sum(results []*Result) *Result {
	total := newResult(TotalID, "")
	for _, r := range results {
		total.Votes = total.Votes.Add(r.Votes)
		total.Absentee = total.Absentee.Add(r.Absentee)
		total.Electoral += r.Electoral
	}
	return total
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
