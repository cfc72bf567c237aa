package indicator

import "github.com/araseong/altcoin-scalp-bot/shared"

// rsiColumn computes a Wilder relative strength index column over the
// provided closes.
func rsiColumn(closes []float64, window int) shared.Column {
	column := shared.NewColumn(len(closes))
	if len(closes) <= window {
		return column
	}

	var avgGain, avgLoss float64
	for idx := 1; idx < len(closes); idx++ {
		change := closes[idx] - closes[idx-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		switch {
		case idx < window:
			avgGain += gain
			avgLoss += loss
			continue
		case idx == window:
			// Seed the smoothing with the simple average of the first window.
			avgGain = (avgGain + gain) / float64(window)
			avgLoss = (avgLoss + loss) / float64(window)
		default:
			avgGain = (avgGain*float64(window-1) + gain) / float64(window)
			avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		}

		column.Set(idx, rsiValue(avgGain, avgLoss))
	}

	return column
}

// rsiValue converts smoothed gains and losses to an RSI reading. A flat
// window yields the neutral reading rather than a division by zero.
func rsiValue(avgGain float64, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - (100 / (1 + rs))
	}
}

// obvColumn computes an on balance volume column, a running sum of volume
// signed by the close to close change. An unchanged close contributes zero.
func obvColumn(candles []shared.Candlestick) shared.Column {
	column := shared.NewColumn(len(candles))
	if len(candles) == 0 {
		return column
	}

	var obv float64
	column.Set(0, obv)
	for idx := 1; idx < len(candles); idx++ {
		switch {
		case candles[idx].Close > candles[idx-1].Close:
			obv += candles[idx].Volume
		case candles[idx].Close < candles[idx-1].Close:
			obv -= candles[idx].Volume
		}
		column.Set(idx, obv)
	}

	return column
}

// accDistColumn computes an accumulation/distribution column, a running sum
// of volume weighted by the close location within the bar range. The
// multiplier is clamped to zero when high equals low.
func accDistColumn(candles []shared.Candlestick) shared.Column {
	column := shared.NewColumn(len(candles))

	var accDist float64
	for idx := range candles {
		candleRange := candles[idx].High - candles[idx].Low
		if candleRange > 0 {
			multiplier := ((candles[idx].Close - candles[idx].Low) -
				(candles[idx].High - candles[idx].Close)) / candleRange
			accDist += multiplier * candles[idx].Volume
		}
		column.Set(idx, accDist)
	}

	return column
}
