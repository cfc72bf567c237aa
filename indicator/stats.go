package indicator

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of the provided values. It reports false
// on an empty input rather than producing NaN.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	var sum float64
	for idx := range values {
		sum += values[idx]
	}

	return sum / float64(len(values)), true
}

// StdDev returns the population standard deviation of the provided values.
func StdDev(values []float64) (float64, bool) {
	mean, ok := Mean(values)
	if !ok {
		return 0, false
	}

	var sumSquares float64
	for idx := range values {
		diff := values[idx] - mean
		sumSquares += diff * diff
	}

	return math.Sqrt(sumSquares / float64(len(values))), true
}

// Slope returns the slope of the least squares line fit through the provided
// values against their indices.
func Slope(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}

	meanX := float64(n-1) / 2
	meanY, _ := Mean(values)

	var numerator, denominator float64
	for idx := range values {
		dx := float64(idx) - meanX
		numerator += dx * (values[idx] - meanY)
		denominator += dx * dx
	}

	if denominator == 0 {
		return 0, false
	}

	return numerator / denominator, true
}

// SpearmanRank returns the Spearman rank correlation between the two provided
// sequences. It reports false on mismatched, short or degenerate input.
func SpearmanRank(x []float64, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}

	rankX := ranks(x)
	rankY := ranks(y)

	meanX, _ := Mean(rankX)
	meanY, _ := Mean(rankY)

	var numerator, varX, varY float64
	for idx := range rankX {
		dx := rankX[idx] - meanX
		dy := rankY[idx] - meanY
		numerator += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		// A constant sequence has no rank ordering to correlate.
		return 0, false
	}

	return numerator / math.Sqrt(varX*varY), true
}

// ranks assigns fractional ranks to the provided values, averaging ties.
func ranks(values []float64) []float64 {
	indices := make([]int, len(values))
	for idx := range indices {
		indices[idx] = idx
	}
	sort.Slice(indices, func(a, b int) bool {
		return values[indices[a]] < values[indices[b]]
	})

	result := make([]float64, len(values))
	for pos := 0; pos < len(indices); {
		end := pos
		for end+1 < len(indices) && values[indices[end+1]] == values[indices[pos]] {
			end++
		}

		// Average the rank across the tied run.
		rank := float64(pos+end)/2 + 1
		for j := pos; j <= end; j++ {
			result[indices[j]] = rank
		}
		pos = end + 1
	}

	return result
}
