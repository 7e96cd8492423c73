package benford

import "strconv"

// CountDigits tallies the digit at position (1 = first significant digit,
// 2 = second) of every selected field of every sample. Values below 1 and
// values with fewer digits than position are skipped.
func CountDigits(samples []Sample, fields []int, position int) (counts [10]int, total int) {
	for _, s := range samples {
		for _, f := range fields {
			if f < 0 || f >= len(s) {
				continue
			}
			if d, ok := digitAt(s[f], position); ok {
				counts[d]++
				total++
			}
		}
	}
	return counts, total
}

func digitAt(v int64, position int) (int, bool) {
	if v < 1 || position < 1 {
		return 0, false
	}
	text := strconv.FormatInt(v, 10)
	if len(text) < position {
		return 0, false
	}
	return int(text[position-1] - '0'), true
}
