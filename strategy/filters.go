package strategy

import (
	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/shared"
)

// spreadEpsilon absorbs float64 noise in the spread ratio so a spread
// sitting exactly at the ceiling is not rejected.
const spreadEpsilon = 1e-9

// SpreadOK reports whether the relative spread between the provided bid and
// ask sits within the configured ceiling. Instruments with a wider spread are
// rejected before any indicator work.
func SpreadOK(bid float64, ask float64, ceiling float64) bool {
	if bid <= 0 || ask <= 0 || ask < bid {
		return false
	}

	return (ask-bid)/bid <= ceiling+spreadEpsilon
}

// VolatilityRatio computes the ratio of standard deviation to mean of the
// absolute percentage returns over the trailing window bars. It reports
// false when the window cannot be evaluated. A too calm instrument is
// rejected by the caller to avoid false breakouts.
func VolatilityRatio(candles []shared.Candlestick, window int) (float64, bool) {
	if window <= 0 || len(candles) < window+1 {
		return 0, false
	}

	returns := make([]float64, 0, window)
	for idx := len(candles) - window; idx < len(candles); idx++ {
		prev := candles[idx-1].Close
		if prev == 0 {
			return 0, false
		}

		change := (candles[idx].Close - prev) / prev
		if change < 0 {
			change = -change
		}
		returns = append(returns, change)
	}

	mean, ok := indicator.Mean(returns)
	if !ok || mean == 0 {
		return 0, false
	}
	stddev, ok := indicator.StdDev(returns)
	if !ok {
		return 0, false
	}

	return stddev / mean, true
}
