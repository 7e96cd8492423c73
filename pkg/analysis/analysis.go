// Package analysis runs every digit test over a set of entities, refines
// suspicious time series with the sliding-window isolator and keeps an audit
// line for each test performed.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benfordscope/benfordscope/pkg/benford"
	"github.com/benfordscope/benfordscope/pkg/entity"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Recorder is told about every test, finding and isolation of a run.
type Recorder interface {
	ObserveTest(kind benford.Kind, position int, res benford.Result)
	ObserveFinding(f benford.Finding)
	ObserveIsolation(iso benford.Isolation)
}

// Config holds the optional collaborators of Run.
type Config struct {
	Log      Logger   // optional; nil = no logging
	Recorder Recorder // optional

	// OnLine is called for every audit line as it is produced. Nil = no callback.
	OnLine func(line string)
}

// Report is the outcome of one run.
type Report struct {
	Results map[string]*entity.Result
	Order   []string // entity ids in input order
	Total   *entity.Result
	Lines   []string
}

// Ordered returns the results in input order.
func (r *Report) Ordered() []*entity.Result {
	out := make([]*entity.Result, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Results[id])
	}
	return out
}

var (
	crossSelections  = [][]int{{benford.FieldDem}, {benford.FieldRep}, {benford.FieldOther}, {benford.FieldDem, benford.FieldRep, benford.FieldOther}}
	seriesSelections = [][]int{{benford.FieldDem}, {benford.FieldRep}, {benford.FieldTotal}}
)

type runner struct {
	cfg     Config
	log     Logger
	parties *entity.PartyTable
	lines   []string
}

// Run analyses records in order. Entities are independent except for the
// candidate party table, which is shared across the run.
func Run(records []entity.Record, cfg Config) *Report {
	a := &runner{cfg: cfg, log: cfg.Log, parties: entity.NewPartyTable()}
	if a.log == nil {
		a.log = nopLogger{}
	}

	rep := &Report{Results: make(map[string]*entity.Result, len(records))}
	for i, rec := range records {
		r := a.analyse(i, rec)
		if _, dup := rep.Results[rec.ID]; dup {
			a.log.Warnf("Duplicate entity %q, keeping the last one", rec.ID)
		} else {
			rep.Order = append(rep.Order, rec.ID)
		}
		rep.Results[rec.ID] = r
		a.log.Debugf("%d %s fraud=%v percent=%v findings=%d", i, rec.ID, r.Fraud, r.FraudPercent, len(r.Findings))
	}

	rep.Total = entity.Sum(rep.Ordered())
	rep.Lines = a.lines
	a.log.Infof("Analysed %d entities, %d candidates known", len(rep.Order), a.parties.Len())
	return rep
}

func (a *runner) analyse(i int, rec entity.Record) *entity.Result {
	r, counties := entity.Assemble(rec, a.parties)

	samples := entity.Samples(counties)
	for position := 1; position <= 2; position++ {
		for slot, fields := range crossSelections {
			res := benford.Test(samples, fields, position)
			a.observe(benford.KindCrossSection, position, res)
			a.logf("CN %2d %d %-5s %s %3d %6.2f %-8s %s %s %v",
				i, position, selection(fields), rec.ID, res.Total, res.Chi, scoreText(res.Score), label(res), res.Reliability().Marker(), res.Counts)
			if !res.Enough {
				continue
			}
			if res.Score > 0 {
				r.Flags[slot] |= entity.FlagCrossSection
				raise(r, benford.KindCrossSection, position, res)
			}
			if res.Score > 0 || len(fields) > 1 {
				a.record(r, benford.NewFinding(benford.KindCrossSection, position, fields, res))
			}
		}
	}
	r.ApplyAggregate(benford.Combine(r.Findings))

	if len(rec.Series) == 0 {
		return r
	}

	points := entity.BuildDeltas(rec.Series, a.parties)
	deltas := benford.Samples(points)
	for position := 1; position <= 2; position++ {
		for _, fields := range seriesSelections {
			res := benford.Test(deltas, fields, position)
			a.observe(benford.KindTimeSeries, position, res)
			a.logf("TS %2d %d %-5s %s %3d %6.2f %-8s %s %s %v",
				i, position, selection(fields), rec.ID, res.Total, res.Chi, scoreText(res.Score), label(res), res.Reliability().Marker(), res.Counts)
			if !res.Enough {
				continue
			}
			if res.Score > 0 {
				r.Flags[fields[0]] |= entity.FlagTimeSeries
				raise(r, benford.KindTimeSeries, position, res)
			}
			if res.Score > 0 || fields[0] == benford.FieldTotal {
				a.record(r, benford.NewFinding(benford.KindTimeSeries, position, fields, res))
			}

			if benford.CanIsolate(res, len(points)) {
				a.isolate(i, rec.ID, r, points, fields, position)
			}
		}
	}
	r.ApplyAggregate(benford.Combine(r.Findings))
	return r
}

// isolate refines a suspicious time-series test and appends the localized
// findings, if any, to r.
func (a *runner) isolate(i int, id string, r *entity.Result, points []benford.Point, fields []int, position int) {
	iso := benford.Isolate(points, fields, position)
	if a.cfg.Recorder != nil {
		a.cfg.Recorder.ObserveIsolation(iso)
	}

	for _, p := range iso.Evaluated {
		adopted := " "
		if iso.Adopted != nil && iso.Adopted.Steps == p.Steps {
			adopted = "*"
		}
		for j, f := range p.Findings {
			res, w := p.Results[j], f.Window
			a.logf("  W %2d %d %-5s %s %d%s %3d-%3d %3d %6.2f %-8s %s %s %v %d -> %d %v -> %v",
				i, position, selection(fields), id, p.Steps, adopted, w.Start, w.End, f.Total, f.Chi, scoreText(f.Score),
				label(res), res.Reliability().Marker(), f.Counts, w.StartTime, w.EndTime, w.StartCumulative, w.EndCumulative)
		}
	}

	for _, f := range iso.Findings {
		a.record(r, f)
	}
}

func (a *runner) record(r *entity.Result, f benford.Finding) {
	r.Findings = append(r.Findings, f)
	if a.cfg.Recorder != nil {
		a.cfg.Recorder.ObserveFinding(f)
	}
}

func (a *runner) observe(kind benford.Kind, position int, res benford.Result) {
	if a.cfg.Recorder != nil {
		a.cfg.Recorder.ObserveTest(kind, position, res)
	}
}

func (a *runner) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	a.lines = append(a.lines, line)
	if a.cfg.OnLine != nil {
		a.cfg.OnLine(line)
	}
}

// raise keeps the highest score seen per test kind and digit position.
func raise(r *entity.Result, kind benford.Kind, position int, res benford.Result) {
	best := &r.Scores(kind)[position-1]
	if res.Score > best.Score {
		best.Chi = benford.Truncate2(res.Chi)
		best.Score = res.Score
	}
}

// label marks a reliable high score. Results that only pass the lenient
// sample threshold are marked in lower case.
func label(res benford.Result) string {
	if res.Score <= benford.AlertThreshold || !res.Enough {
		return "     "
	}
	if res.Enough2 {
		return "FRAUD"
	}
	return "fraud"
}

func scoreText(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func selection(fields []int) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	return "[" + strings.Join(parts, "") + "]"
}
