package indicator

import "github.com/araseong/altcoin-scalp-bot/shared"

// dmiColumns computes the +DI and -DI columns of the directional movement
// index using Wilder smoothing of the directional moves and true range.
func dmiColumns(candles []shared.Candlestick, window int) (shared.Column, shared.Column) {
	plusColumn := shared.NewColumn(len(candles))
	minusColumn := shared.NewColumn(len(candles))
	if len(candles) <= window {
		return plusColumn, minusColumn
	}

	var smoothedTR, smoothedPlusDM, smoothedMinusDM float64
	for idx := 1; idx < len(candles); idx++ {
		upMove := candles[idx].High - candles[idx-1].High
		downMove := candles[idx-1].Low - candles[idx].Low

		var plusDM, minusDM float64
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}

		tr := candles[idx].TrueRange(candles[idx-1].Close)

		switch {
		case idx < window:
			smoothedTR += tr
			smoothedPlusDM += plusDM
			smoothedMinusDM += minusDM
			continue
		case idx == window:
			smoothedTR += tr
			smoothedPlusDM += plusDM
			smoothedMinusDM += minusDM
		default:
			smoothedTR = smoothedTR - smoothedTR/float64(window) + tr
			smoothedPlusDM = smoothedPlusDM - smoothedPlusDM/float64(window) + plusDM
			smoothedMinusDM = smoothedMinusDM - smoothedMinusDM/float64(window) + minusDM
		}

		if smoothedTR == 0 {
			// A fully flat window carries no directional information.
			continue
		}

		plusColumn.Set(idx, 100*smoothedPlusDM/smoothedTR)
		minusColumn.Set(idx, 100*smoothedMinusDM/smoothedTR)
	}

	return plusColumn, minusColumn
}
