package benford

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func finding(kind Kind, digit, total int, score float64) Finding {
	return Finding{Kind: kind, Digit: digit, Fields: []int{0}, Total: total, Score: score}
}

func TestCombineEmpty(t *testing.T) {
	assert.Equal(t, Aggregate{}, Combine(nil))
}

func TestCombineFiltersSmallSamples(t *testing.T) {
	agg := Combine([]Finding{
		finding(KindCrossSection, 1, 239, 0.999),
		finding(KindCrossSection, 2, 269, 0.999),
		finding(KindTimeSeries, 1, 300, 0.8),
	})
	assert.Equal(t, 0.8, agg.Best)
	assert.Equal(t, 300, agg.Count)
}

func TestCombineWindowThreshold(t *testing.T) {
	agg := Combine([]Finding{
		finding(KindWindow, 1, 153, 0.99),
		finding(KindWindow, 2, 169, 0.999),
	})
	assert.Equal(t, 0.99, agg.Best)
	assert.Equal(t, 153, agg.Count)
}

func TestCombineRunnerUp(t *testing.T) {
	agg := Combine([]Finding{
		finding(KindCrossSection, 1, 300, 0.85),
		finding(KindCrossSection, 1, 400, 0.95),
		finding(KindTimeSeries, 1, 1000, 0.9),
	})
	assert.Equal(t, 0.95, agg.Best)
	assert.Equal(t, 1400, agg.Count, "the third finding is ignored")
	assert.InDelta(t, 400*0.95+1000*0.9, agg.Weighted, 1e-9)
	assert.Equal(t, 0.84, agg.Percent)
}

func TestCombineRunnerUpTooWeak(t *testing.T) {
	agg := Combine([]Finding{
		finding(KindCrossSection, 1, 500, 0.999),
		finding(KindCrossSection, 1, 5000, 0.85),
	})
	assert.Equal(t, 500, agg.Count)
	assert.Equal(t, 0.8, agg.Percent)
}

func TestCombineDampsSmallEntities(t *testing.T) {
	agg := Combine([]Finding{finding(KindCrossSection, 1, 240, 0.999999)})
	assert.Equal(t, 0.999999, agg.Best)
	assert.Equal(t, 0.66, agg.Percent)
}

func TestCombinePercentNeverExceedsBest(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	kinds := []Kind{KindCrossSection, KindTimeSeries, KindWindow}
	for i := 0; i < 500; i++ {
		findings := make([]Finding, rng.Intn(8))
		for j := range findings {
			score := 0.0
			if rng.Intn(3) > 0 {
				score = confidenceLevels[rng.Intn(len(confidenceLevels))]
			}
			findings[j] = finding(kinds[rng.Intn(len(kinds))], 1+rng.Intn(2), rng.Intn(5000), score)
		}
		agg := Combine(findings)
		assert.LessOrEqual(t, agg.Percent, agg.Best)
	}
}
