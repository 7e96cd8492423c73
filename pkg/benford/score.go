package benford

import (
	"math"
	"sort"
)

// Sample size multipliers of the valid bucket count.
const (
	enoughFactor  = 17
	enough2Factor = 27
)

// MaxScore is the highest confidence level of the lookup table.
const MaxScore = 0.999999

// https://en.wikipedia.org/wiki/Benford%27s_law
var secondDigit = [10]float64{0.12, 0.114, 0.109, 0.104, 0.10, 0.097, 0.093, 0.09, 0.088, 0.085}

var firstDigit = func() (dist [10]float64) {
	for d := 1; d < 10; d++ {
		dist[d] = math.Log10(1 + 1/float64(d))
	}
	return dist
}()

var confidenceLevels = []float64{
	0.75, 0.80, 0.85, 0.90, 0.925, 0.95, 0.975, 0.98, 0.99, 0.995, 0.9975, 0.998, 0.999, 0.9995, 0.9999, 0.99999, MaxScore,
}

// criticalValues[dof][i] is the chi-square value whose upper tail has
// probability 1-confidenceLevels[i] with dof degrees of freedom.
var criticalValues = [][]float64{
	//0.750  0.800   0.85   0.900   0.925   0.950   0.975   0.98   0.990   0.995  0.9975  0.998   0.999  0.9995  0.9999 0.99999 0.999999
	{},
	{1.323, 1.642, 2.07, 2.706, 3.170, 3.841, 5.024, 5.41, 6.635, 7.879, 9.14, 9.550, 10.828, 12.116, 15.137, 19.511, 23.928},
	{2.773, 3.219, 3.79, 4.605, 5.181, 5.991, 7.378, 7.82, 9.210, 10.597, 11.98, 12.429, 13.816, 15.202, 18.421, 23.026, 27.631},
	{4.108, 4.642, 5.32, 6.251, 6.905, 7.815, 9.348, 9.84, 11.345, 12.838, 14.32, 14.796, 16.266, 17.731, 21.108, 25.902, 30.665},
	{5.385, 5.989, 6.74, 7.779, 8.496, 9.488, 11.143, 11.67, 13.277, 14.860, 16.42, 16.924, 18.467, 19.998, 23.513, 28.473, 33.377},
	{6.626, 7.289, 8.12, 9.236, 10.008, 11.070, 12.833, 13.39, 15.086, 16.750, 18.39, 18.907, 20.515, 22.106, 25.745, 30.856, 35.888},
	{7.841, 8.558, 9.45, 10.645, 11.466, 12.592, 14.449, 15.03, 16.812, 18.548, 20.25, 20.791, 22.458, 24.104, 27.856, 33.107, 38.258},
	{9.037, 9.803, 10.75, 12.017, 12.883, 14.067, 16.013, 16.62, 18.475, 20.278, 22.04, 22.601, 24.322, 26.019, 29.878, 35.259, 40.522},
	{10.219, 11.030, 12.03, 13.362, 14.270, 15.507, 17.535, 18.17, 20.090, 21.955, 23.77, 24.352, 26.125, 27.869, 31.828, 37.332, 42.701},
	{11.389, 12.242, 13.29, 14.684, 15.631, 16.919, 19.023, 19.68, 21.666, 23.589, 25.46, 26.056, 27.877, 29.667, 33.720, 39.341, 44.811},
	{12.549, 13.442, 14.53, 15.987, 16.971, 18.307, 20.483, 21.16, 23.209, 25.188, 27.11, 27.722, 29.588, 31.421, 35.564, 41.296, 46.863},
}

// Reliability tells whether a result has enough samples to be trusted.
type Reliability int

const (
	Insufficient Reliability = iota
	Marginal
	Reliable
)

func (r Reliability) String() string {
	switch r {
	case Reliable:
		return "reliable"
	case Marginal:
		return "marginal"
	default:
		return "insufficient"
	}
}

// Marker is the one-character column used in the audit log.
func (r Reliability) Marker() string {
	switch r {
	case Reliable:
		return " "
	case Marginal:
		return "."
	default:
		return "X"
	}
}

// Result is the outcome of one conformance test.
type Result struct {
	Total   int
	Chi     float64
	Score   float64
	Counts  [10]int
	Enough  bool
	Enough2 bool
}

func (r Result) Reliability() Reliability {
	switch {
	case r.Enough2:
		return Reliable
	case r.Enough:
		return Marginal
	default:
		return Insufficient
	}
}

// Buckets returns how many digits can appear at position: 9 for the first
// significant digit, 10 for the second, 0 for anything else.
func Buckets(position int) int {
	switch position {
	case 1:
		return 9
	case 2:
		return 10
	}
	return 0
}

// Expected returns the Benford distribution of the digit at position.
func Expected(position int) [10]float64 {
	switch position {
	case 1:
		return firstDigit
	case 2:
		return secondDigit
	}
	return [10]float64{}
}

// EnoughThreshold is the lenient minimum sample count for position.
func EnoughThreshold(position int) int {
	return enoughFactor * Buckets(position)
}

// StrictThreshold is the strict minimum sample count for position.
func StrictThreshold(position int) int {
	return enough2Factor * Buckets(position)
}

// ChiSquare compares counts against the Benford distribution of position,
// over the valid buckets only.
func ChiSquare(counts [10]int, total int, position int) float64 {
	if total == 0 {
		return 0
	}
	dist := Expected(position)
	chi := 0.0
	for d := 10 - Buckets(position); d < 10; d++ {
		expect := dist[d] * float64(total)
		if expect == 0 {
			continue
		}
		diff := float64(counts[d]) - expect
		chi += diff * diff / expect
	}
	return chi
}

// Confidence maps a chi-square value to the highest confidence level whose
// critical value it exceeds, or 0 when it exceeds none.
func Confidence(chi float64, dof int) float64 {
	if dof < 1 || dof >= len(criticalValues) {
		return 0
	}
	row := criticalValues[dof]
	i := sort.Search(len(row), func(i int) bool { return row[i] >= chi })
	if i == 0 {
		return 0
	}
	return confidenceLevels[i-1]
}

// Score computes the conformance result of a digit-count vector.
func Score(counts [10]int, total int, position int) Result {
	buckets := Buckets(position)
	if buckets == 0 {
		return Result{Counts: counts, Total: total}
	}
	chi := ChiSquare(counts, total, position)
	return Result{
		Total:   total,
		Chi:     chi,
		Score:   Confidence(chi, buckets-1),
		Counts:  counts,
		Enough:  total >= enoughFactor*buckets,
		Enough2: total >= enough2Factor*buckets,
	}
}

// Test runs the extractor and the scorer on samples.
func Test(samples []Sample, fields []int, position int) Result {
	counts, total := CountDigits(samples, fields, position)
	return Score(counts, total, position)
}
