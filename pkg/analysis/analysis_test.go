package analysis

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benfordscope/benfordscope/pkg/benford"
	"github.com/benfordscope/benfordscope/pkg/entity"
)

func benfordValue(i int) int64 {
	phi := (1 + math.Sqrt(5)) / 2
	return int64(math.Pow(10, 3+math.Mod(float64(i)*phi, 1)))
}

func candidates() []entity.Candidate {
	return []entity.Candidate{
		{Key: "bidenj", Party: "democrat", Votes: 2000000, Winner: true},
		{Key: "trumpd", Party: "republican", Votes: 1900000},
		{Key: "jorgensenj", Party: "libertarian", Votes: 50000},
	}
}

// nineCounties reports counties whose counts all start with 9.
func nineCounties(n int) []entity.CountyRecord {
	out := make([]entity.CountyRecord, n)
	for i := range out {
		out[i] = entity.CountyRecord{
			FIPS:  fmt.Sprintf("99%03d", i),
			Name:  fmt.Sprintf("County %d", i),
			Votes: 20000,
			Results: map[string]int64{
				"bidenj":     int64(9000 + i),
				"trumpd":     int64(9100 + i),
				"jorgensenj": int64(900 + i),
			},
		}
	}
	return out
}

// splitSeries reports 400 snapshots whose total increments follow Benford's
// Law for the first half and all start with 9 in the second half.
func splitSeries() []entity.Snapshot {
	t0 := time.Date(2020, 11, 4, 0, 0, 0, 0, time.UTC)
	out := make([]entity.Snapshot, 400)
	var votes int64
	for i := range out {
		if i < 200 {
			votes += benfordValue(i)
		} else {
			votes += 9000 + int64(i)
		}
		out[i] = entity.Snapshot{Votes: votes, Timestamp: t0.Add(time.Duration(i) * time.Minute), Shares: map[string]float64{}}
	}
	return out
}

type countingRecorder struct {
	tests, findings, isolations int
}

func (c *countingRecorder) ObserveTest(benford.Kind, int, benford.Result) { c.tests++ }
func (c *countingRecorder) ObserveFinding(benford.Finding)                { c.findings++ }
func (c *countingRecorder) ObserveIsolation(benford.Isolation)            { c.isolations++ }

func TestRunEntityWithoutData(t *testing.T) {
	rep := Run([]entity.Record{{ID: "AK", Candidates: candidates()}}, Config{})

	require.Equal(t, []string{"AK"}, rep.Order)
	r := rep.Results["AK"]
	assert.Equal(t, 0.0, r.Fraud)
	assert.Equal(t, 0.0, r.FraudPercent)
	assert.Empty(t, r.Findings)
	assert.Equal(t, entity.Tally{Dem: 2000000, Rep: 1900000, Other: 50000, Total: 3950000}, r.Votes)
	assert.Equal(t, [4]uint8{}, r.Flags)
	assert.Len(t, rep.Lines, 8, "one line per cross-sectional test")
}

func TestRunCrossSection(t *testing.T) {
	rec := entity.Record{ID: "ZZ", Candidates: candidates(), Counties: nineCounties(300)}
	rep := Run([]entity.Record{rec}, Config{})
	r := rep.Results["ZZ"]

	assert.Equal(t, benford.MaxScore, r.Fraud)
	assert.Equal(t, benford.MaxScore, r.CrossSection[0].Score)
	assert.Greater(t, r.CrossSection[0].Chi, 0.0)
	for slot := 0; slot < 4; slot++ {
		assert.Equal(t, entity.FlagCrossSection, r.Flags[slot], "slot %d", slot)
	}

	// Every selection scores at both digit positions.
	assert.Len(t, r.Findings, 8)
	for _, f := range r.Findings {
		assert.Equal(t, benford.KindCrossSection, f.Kind)
	}
	// The two leading 300-sample findings, damped by 120.
	assert.Equal(t, 0.83, r.FraudPercent)
	assert.Contains(t, rep.Lines[0], "FRAUD")
	assert.True(t, strings.HasPrefix(rep.Lines[0], "CN  0 1 [0]   ZZ 300"))
}

func TestRunLocalizesTimeSeries(t *testing.T) {
	rec := entity.Record{ID: "GA", Candidates: candidates(), Series: splitSeries()}
	rec2 := rec

	recorder := &countingRecorder{}
	var streamed []string
	rep := Run([]entity.Record{rec}, Config{Recorder: recorder, OnLine: func(l string) { streamed = append(streamed, l) }})
	r := rep.Results["GA"]

	var windows []benford.Finding
	for _, f := range r.Findings {
		if f.Kind == benford.KindWindow {
			windows = append(windows, f)
		}
	}
	require.Len(t, windows, 4, "two halves for each digit position")
	for _, w := range windows[:2] {
		assert.Equal(t, 1, w.Digit)
	}
	assert.Equal(t, 0.0, windows[0].Score)
	assert.Equal(t, benford.MaxScore, windows[1].Score)
	assert.Equal(t, 200, windows[1].Window.Start)
	assert.Equal(t, 400, windows[1].Window.End)

	assert.Equal(t, entity.FlagTimeSeries, r.Flags[benford.FieldTotal])
	assert.Equal(t, benford.MaxScore, r.TimeSeries[0].Score)
	assert.Equal(t, benford.MaxScore, r.TimeSeries[1].Score)
	assert.Equal(t, benford.MaxScore, r.Fraud)
	// 400 + 200 samples at the top score.
	assert.Equal(t, 0.83, r.FraudPercent)

	assert.Equal(t, 8+6, recorder.tests)
	assert.Equal(t, 2, recorder.isolations)
	assert.Equal(t, len(r.Findings), recorder.findings)
	assert.Equal(t, rep.Lines, streamed)

	// 200-snapshot windows pass the lenient sample threshold only.
	var windowLines []string
	for _, l := range rep.Lines {
		if strings.HasPrefix(l, "  W") {
			windowLines = append(windowLines, l)
			assert.NotContains(t, l, "FRAUD")
		}
	}
	require.NotEmpty(t, windowLines)
	assert.Contains(t, windowLines[1], "2* 200-400 200")
	assert.Contains(t, windowLines[1], "0.999999 fraud . [")

	again := Run([]entity.Record{rec2}, Config{})
	assert.Equal(t, rep.Results, again.Results, "runs are deterministic")
	assert.Equal(t, rep.Lines, again.Lines)
}

func TestIsolateMarksSaturatedWindows(t *testing.T) {
	points := make([]benford.Point, 100)
	for i := range points {
		points[i] = benford.Point{Values: benford.Sample{0, 0, 0, 9000 + int64(i)}, Time: int64(i)}
	}
	a := &runner{log: nopLogger{}, parties: entity.NewPartyTable()}
	r := &entity.Result{}

	a.isolate(0, "XX", r, points, []int{benford.FieldTotal}, 1)

	require.Len(t, a.lines, 2, "both halves grow to the whole series")
	for _, l := range a.lines {
		assert.True(t, strings.HasPrefix(l, "  W  0 1 [3]   XX 2    0-100 100"), l)
		// No label and an insufficient-sample marker after the top score.
		assert.Contains(t, l, "0.999999         [0 0 0 0 0 0 0 0 0 100]")
	}
	assert.Empty(t, r.Findings)
}

func TestRunTotals(t *testing.T) {
	records := []entity.Record{
		{ID: "AK", Candidates: candidates()},
		{ID: "AL", Candidates: candidates(), Votes: 4000000},
		{ID: "AK", Candidates: candidates()[:1]},
	}
	rep := Run(records, Config{})

	assert.Equal(t, []string{"AK", "AL"}, rep.Order)
	assert.Equal(t, int64(2000000), rep.Results["AK"].Votes.Total, "the last duplicate wins")
	assert.Equal(t, entity.TotalID, rep.Total.ID)
	assert.Equal(t, int64(6000000), rep.Total.Votes.Total)
	assert.Equal(t, int64(4000000), rep.Total.Votes.Dem)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "FRAUD", label(benford.Result{Score: 0.95, Enough: true, Enough2: true}))
	assert.Equal(t, "fraud", label(benford.Result{Score: 0.95, Enough: true}))
	assert.Equal(t, "     ", label(benford.Result{Score: 0.95}))
	assert.Equal(t, "     ", label(benford.Result{Score: 0.9, Enough: true, Enough2: true}))
	assert.Equal(t, "[012]", selection([]int{0, 1, 2}))
	assert.Equal(t, "0.999999", scoreText(benford.MaxScore))
}
