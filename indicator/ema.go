package indicator

import "github.com/araseong/altcoin-scalp-bot/shared"

// emaColumn computes an exponential moving average column over the provided
// values. The recursion is seeded by the first value, entries before the span
// has filled are left undefined.
func emaColumn(values []float64, span int) shared.Column {
	column := shared.NewColumn(len(values))
	if len(values) == 0 || span <= 0 {
		return column
	}

	alpha := 2 / float64(span+1)
	ema := values[0]
	for idx := range values {
		if idx > 0 {
			ema += alpha * (values[idx] - ema)
		}
		if idx >= span-1 {
			column.Set(idx, ema)
		}
	}

	return column
}

// SmoothEMA applies exponential smoothing to the provided values, seeded by
// the first value. The result has the same length as the input.
func SmoothEMA(values []float64, span int) []float64 {
	if len(values) == 0 || span <= 0 {
		return nil
	}

	alpha := 2 / float64(span+1)
	smoothed := make([]float64, len(values))
	smoothed[0] = values[0]
	for idx := 1; idx < len(values); idx++ {
		smoothed[idx] = smoothed[idx-1] + alpha*(values[idx]-smoothed[idx-1])
	}

	return smoothed
}
