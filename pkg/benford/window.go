package benford

// Isolation tuning.
const (
	// DoubtThreshold is the whole-series score that triggers isolation.
	DoubtThreshold = 0.7
	// MinWindow is the reference window size, in snapshots.
	MinWindow = 250
	// SeriesFactor times MinWindow is the shortest series worth splitting.
	SeriesFactor = 1.3
	// StopEarlyMargin is how much three partitions must beat two by.
	StopEarlyMargin = 0.02
	// LocalizationSpread is the minimum highest-lowest gap of a localized anomaly.
	LocalizationSpread = 0.15
	// AlertThreshold gates which localized findings are reported.
	AlertThreshold = 0.9

	epsilon = 1e-9
)

// Point is one chronological snapshot of a time series.
type Point struct {
	Values     Sample
	Time       int64
	Cumulative Sample
}

// Samples returns the delta values of series.
func Samples(series []Point) []Sample {
	out := make([]Sample, len(series))
	for i, p := range series {
		out[i] = p.Values
	}
	return out
}

// Partitioning is the outcome of splitting a series into Steps intervals.
// Results holds the raw test result behind each finding, in the same order.
type Partitioning struct {
	Steps    int
	Findings []Finding
	Results  []Result
	Highest  float64
	Lowest   float64
}

// Localized reports whether the anomaly is concentrated in some partitions
// rather than spread evenly over the series.
func (p Partitioning) Localized() bool {
	return p.Highest-p.Lowest > LocalizationSpread
}

// Isolation is the outcome of Isolate.
type Isolation struct {
	// Evaluated holds every partitioning that was computed, in order.
	Evaluated []Partitioning
	// Adopted is the partitioning kept as the localized answer, if any.
	Adopted *Partitioning
	// Findings are the windowed findings to append to the entity.
	Findings []Finding
}

// CanIsolate reports whether a whole-series result is suspicious enough, and
// the series long enough, to look for where the anomaly sits.
func CanIsolate(whole Result, length int) bool {
	return whole.Enough && whole.Score >= DoubtThreshold && float64(length) >= SeriesFactor*MinWindow
}

// Isolate splits series into two, then possibly three, equal intervals and
// scores each one to find which part of the series carries the anomaly.
// Three partitions replace two only when their highest score is at least
// StopEarlyMargin better. Findings are only returned when the kept
// partitioning is localized and its highest score reaches AlertThreshold.
func Isolate(series []Point, fields []int, position int) Isolation {
	var out Isolation
	if len(series) < 2 || Buckets(position) == 0 {
		return out
	}

	samples := Samples(series)
	two := partition(series, samples, fields, position, 2)
	out.Evaluated = append(out.Evaluated, two)
	best := two

	if len(series) >= 3 && two.Highest+StopEarlyMargin <= MaxScore+epsilon {
		three := partition(series, samples, fields, position, 3)
		out.Evaluated = append(out.Evaluated, three)
		if three.Highest-two.Highest >= StopEarlyMargin-epsilon {
			best = three
		}
	}

	if !best.Localized() {
		return out
	}
	out.Adopted = &best
	if best.Highest >= AlertThreshold {
		out.Findings = best.Findings
	}
	return out
}

func partition(series []Point, samples []Sample, fields []int, position, steps int) Partitioning {
	n := len(series)
	want := EnoughThreshold(position)
	p := Partitioning{Steps: steps, Findings: make([]Finding, 0, steps), Results: make([]Result, 0, steps)}

	for i := 0; i < steps; i++ {
		start, end := pad(i*n/steps, (i+1)*n/steps, n, want)
		res, start, end := expand(samples, fields, position, start, end, want)

		f := NewFinding(KindWindow, position, fields, res)
		f.Window = &Window{
			Start:           start,
			End:             end,
			StartTime:       series[start].Time,
			EndTime:         series[end-1].Time,
			StartCumulative: series[start].Cumulative,
			EndCumulative:   series[end-1].Cumulative,
		}
		p.Findings = append(p.Findings, f)
		p.Results = append(p.Results, res)

		if i == 0 || res.Score > p.Highest {
			p.Highest = res.Score
		}
		if i == 0 || res.Score < p.Lowest {
			p.Lowest = res.Score
		}
	}
	return p
}

// pad grows [start, end) symmetrically towards want snapshots. Whatever is
// clipped at one series bound is added to the opposite edge.
func pad(start, end, n, want int) (int, int) {
	need := want - (end - start)
	if need <= 0 {
		return start, end
	}
	start -= need / 2
	end += need - need/2
	if start < 0 {
		end -= start
		start = 0
	}
	if end > n {
		start -= end - n
		end = n
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

// expand scores [start, end) and, while it holds fewer than want usable
// samples, grows it one snapshot at a time, alternating between the start
// and the end, until want is reached or both edges hit the series bounds.
func expand(samples []Sample, fields []int, position, start, end, want int) (Result, int, int) {
	n := len(samples)
	res := Test(samples[start:end], fields, position)
	backward := true
	for res.Total < want && (start > 0 || end < n) {
		if (backward && start > 0) || end == n {
			start--
		} else {
			end++
		}
		backward = !backward
		res = Test(samples[start:end], fields, position)
	}
	return res, start, end
}
