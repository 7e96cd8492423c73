package benford

import "sort"

// Damping is added to the sample count when computing the presentation
// percentage, so that a handful of samples cannot render as a sure thing.
const Damping = 120

// minCounts is indexed by digit position.
var minCounts = [...]int{0, 240, 270}

// MinTotal is the sample total a finding needs to count towards the
// aggregate. Windowed findings were already sized by the isolator and only
// need the lenient threshold.
func MinTotal(kind Kind, position int) int {
	if position < 1 || position >= len(minCounts) {
		return int(^uint(0) >> 1)
	}
	if kind == KindWindow {
		return EnoughThreshold(position)
	}
	return minCounts[position]
}

// Aggregate is the headline score of an entity.
type Aggregate struct {
	Best     float64
	Percent  float64
	Count    int
	Weighted float64
}

// Combine folds findings into one headline score. Findings with too few
// samples are ignored; the best one always counts and the runner-up only
// when it scores at least 90% of the best.
func Combine(findings []Finding) Aggregate {
	qualified := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Total >= MinTotal(f.Kind, f.Digit) {
			qualified = append(qualified, f)
		}
	}
	if len(qualified) == 0 {
		return Aggregate{}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].Score > qualified[j].Score
	})

	top := qualified[0]
	agg := Aggregate{
		Best:     top.Score,
		Count:    top.Total,
		Weighted: float64(top.Total) * top.Score,
	}
	if len(qualified) > 1 {
		if second := qualified[1]; second.Score >= 0.9*agg.Best {
			agg.Count += second.Total
			agg.Weighted += float64(second.Total) * second.Score
		}
	}
	agg.Percent = Truncate2(agg.Weighted / (Damping + float64(agg.Count)))
	return agg
}
