package indicator

import "github.com/araseong/altcoin-scalp-bot/shared"

// atrColumn computes an average true range column using Wilder smoothing.
func atrColumn(candles []shared.Candlestick, window int) shared.Column {
	column := shared.NewColumn(len(candles))
	if len(candles) <= window {
		return column
	}

	var atr float64
	for idx := 1; idx < len(candles); idx++ {
		tr := candles[idx].TrueRange(candles[idx-1].Close)

		switch {
		case idx < window:
			atr += tr
			continue
		case idx == window:
			atr = (atr + tr) / float64(window)
		default:
			atr = (atr*float64(window-1) + tr) / float64(window)
		}

		column.Set(idx, atr)
	}

	return column
}

// bollingerColumns computes the upper and lower Bollinger bands, a rolling
// mean of closes offset by k population standard deviations.
func bollingerColumns(closes []float64, window int, k float64) (shared.Column, shared.Column) {
	upper := shared.NewColumn(len(closes))
	lower := shared.NewColumn(len(closes))

	for idx := window - 1; idx < len(closes); idx++ {
		segment := closes[idx-window+1 : idx+1]
		mean, ok := Mean(segment)
		if !ok {
			continue
		}
		stddev, ok := StdDev(segment)
		if !ok {
			continue
		}

		upper.Set(idx, mean+k*stddev)
		lower.Set(idx, mean-k*stddev)
	}

	return upper, lower
}

// keltnerColumns computes the upper and lower Keltner channel, a rolling mean
// of closes offset by a multiple of the average true range.
func keltnerColumns(closes []float64, atr shared.Column, window int, multiplier float64) (shared.Column, shared.Column) {
	upper := shared.NewColumn(len(closes))
	lower := shared.NewColumn(len(closes))

	for idx := window - 1; idx < len(closes); idx++ {
		atrValue, ok := atr.At(idx)
		if !ok {
			continue
		}
		mean, ok := Mean(closes[idx-window+1 : idx+1])
		if !ok {
			continue
		}

		upper.Set(idx, mean+multiplier*atrValue)
		lower.Set(idx, mean-multiplier*atrValue)
	}

	return upper, lower
}

// squeezeColumns derives the squeeze flag and squeeze release columns. A
// squeeze is on when the Bollinger bands sit strictly inside the Keltner
// channel, a release is the on to off transition between consecutive bars.
func squeezeColumns(bbUpper, bbLower, kcUpper, kcLower shared.Column) (shared.Column, shared.Column) {
	length := len(bbUpper.Values)
	squeeze := shared.NewColumn(length)
	release := shared.NewColumn(length)

	for idx := 0; idx < length; idx++ {
		bu, okBU := bbUpper.At(idx)
		bl, okBL := bbLower.At(idx)
		ku, okKU := kcUpper.At(idx)
		kl, okKL := kcLower.At(idx)
		if !okBU || !okBL || !okKU || !okKL {
			continue
		}

		var on float64
		if bu < ku && bl > kl {
			on = 1
		}
		squeeze.Set(idx, on)

		prev, ok := squeeze.At(idx - 1)
		if !ok {
			continue
		}

		var released float64
		if prev == 1 && on == 0 {
			released = 1
		}
		release.Set(idx, released)
	}

	return squeeze, release
}
