package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const electionDoc = `{
  "data": {
    "races": [
      {
        "state_id": "PA",
        "state_name": "<b>Pennsylvania</b>",
        "votes": 1000,
        "absentee_votes": 200,
        "electoral_votes": 20,
        "candidates": [
          {"candidate_key": "bidenj", "party_id": "democrat", "votes": 520, "absentee_votes": 150, "winner": true},
          {"candidate_key": "trumpd", "party_id": "republican", "votes": 460, "absentee_votes": 40},
          {"candidate_key": "jorgensenj", "party_id": "libertarian", "vote_count": 20}
        ],
        "counties": [
          {"fips": "42001", "name": "Adams", "votes": 100, "results": {"bidenj": 40, "trumpd": 58, "jorgensenj": 2}}
        ],
        "timeseries": [
          {"vote_shares": {"bidenj": 0.5, "trumpd": 0.48}, "votes": 500, "timestamp": "2020-11-04T01:02:03Z"},
          {"vote_shares": {"bidenj": 0.52, "trumpd": 0.46}, "votes": 1000, "timestamp": "bogus"}
        ]
      }
    ]
  }
}`

func TestParseElection(t *testing.T) {
	records, err := ParseElection([]byte(electionDoc))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "PA", rec.ID)
	assert.Equal(t, "Pennsylvania", rec.Name)
	assert.Equal(t, int64(1000), rec.Votes)
	assert.Equal(t, int64(200), rec.AbsenteeVotes)
	assert.Equal(t, 20, rec.Electoral)

	require.Len(t, rec.Candidates, 3)
	assert.True(t, rec.Candidates[0].Winner)
	assert.Equal(t, int64(150), rec.Candidates[0].Absentee)
	assert.Equal(t, int64(20), rec.Candidates[2].Votes, "vote_count fallback")

	require.Len(t, rec.Counties, 1)
	assert.Equal(t, int64(58), rec.Counties[0].Results["trumpd"])

	require.Len(t, rec.Series, 2)
	assert.Equal(t, time.Date(2020, 11, 4, 1, 2, 3, 0, time.UTC), rec.Series[0].Timestamp.UTC())
	assert.True(t, rec.Series[1].Timestamp.IsZero())
	assert.InDelta(t, 0.46, rec.Series[1].Shares["trumpd"], 1e-9)
}

func TestParseElectionShapes(t *testing.T) {
	for name, doc := range map[string]string{
		"races":   `{"races": [{"state_id": "AK"}]}`,
		"array":   `[{"state_id": "AK"}]`,
		"bom":     "\xEF\xBB\xBF" + `[{"state_id": "AK"}]`,
		"results": `[{"state_id": "AK", "results": [{"candidate_key": "x", "votes": 3}]}]`,
	} {
		records, err := ParseElection([]byte(doc))
		require.NoError(t, err, name)
		require.Len(t, records, 1, name)
		assert.Equal(t, "AK", records[0].ID, name)
	}
}

func TestParseElectionErrors(t *testing.T) {
	_, err := ParseElection([]byte(`{"data": {"nothing": 1}}`))
	assert.True(t, errors.Is(err, ErrNoRaces))

	_, err = ParseElection([]byte(`{"data": `))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestLoadElection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2020-president-data.json")
	require.NoError(t, os.WriteFile(path, []byte(electionDoc), 0o644))

	records, err := LoadElection(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = LoadElection(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseCovid(t *testing.T) {
	csv := strings.Join([]string{
		"date,state,fips,cases,deaths",
		"2020-03-01,Washington,53,10,1",
		"2020-03-01,New York,36,1,0",
		"2020-03-02,Washington,53,18,2",
		"not-a-date,Washington,53,20,2",
		"2020-03-03,Virgin Islands,,4,0",
		"2020-03-04,Washington,53,xx,2",
	}, "\n")

	records, err := ParseCovid(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "53", records[0].ID)
	assert.Equal(t, int64(18), records[0].Votes)
	require.Len(t, records[0].Series, 2)
	assert.Equal(t, int64(10), records[0].Series[0].Votes)

	assert.Equal(t, "U.S. Virgin Islands", records[2].ID)
	assert.Equal(t, "U.S. Virgin Islands", records[2].Name)
}

func TestParseCovidMissingColumn(t *testing.T) {
	_, err := ParseCovid(strings.NewReader("date,state,deaths\n"))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "St. Mary's", CleanName("  <span>St.   Mary&#39;s</span> "))
	assert.Equal(t, "United States", NormalizeRegion("USA"))
	assert.Equal(t, "Ohio", NormalizeRegion(" Ohio "))
}
