package strategy

import (
	"fmt"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/shared"
)

// TrendEvaluator implements the trend following variant: moving average
// alignment with price above VWAP and directional index dominance, optionally
// confirmed by correlated, rising volume trend accumulators.
type TrendEvaluator struct {
	cfg *Config
}

// Ensure the trend evaluator implements the Evaluator interface.
var _ Evaluator = (*TrendEvaluator)(nil)

// Name returns the evaluator name.
func (e *TrendEvaluator) Name() string {
	return TrendEvaluatorName
}

// Entry fires when the fast, mid and slow EMAs are aligned, the latest close
// sits above VWAP and +DI dominates -DI, with an optional volume trend
// confirmation.
func (e *TrendEvaluator) Entry(series *shared.Series) (*EntryDecision, bool) {
	close, openTime, ok := lastClose(series)
	if !ok {
		return nil, false
	}

	emaShort, okShort := columnLast(series, indicator.ColEMAShort)
	emaMid, okMid := columnLast(series, indicator.ColEMAMid)
	emaLong, okLong := columnLast(series, indicator.ColEMALong)
	if !okShort || !okMid || !okLong {
		return nil, false
	}
	if emaShort <= emaMid || emaMid <= emaLong {
		return nil, false
	}

	vwap, ok := columnLast(series, indicator.ColVWAP)
	if !ok || close <= vwap {
		return nil, false
	}

	plusDI, okPlus := columnLast(series, indicator.ColPlusDI)
	minusDI, okMinus := columnLast(series, indicator.ColMinusDI)
	if !okPlus || !okMinus || plusDI <= minusDI {
		return nil, false
	}

	reasons := []string{
		fmt.Sprintf("ema alignment %.8f > %.8f > %.8f", emaShort, emaMid, emaLong),
		fmt.Sprintf("close %.8f above vwap %.8f", close, vwap),
		fmt.Sprintf("+di %.2f dominates -di %.2f", plusDI, minusDI),
	}

	if e.cfg.ConfirmTrend {
		correlation, ok := e.volumeTrendConfirmed(series)
		if !ok {
			return nil, false
		}
		reasons = append(reasons,
			fmt.Sprintf("obv/accumulation correlation %.2f at or above %.2f with positive slopes",
				correlation, e.cfg.CorrelationThreshold))
	}

	decision := &EntryDecision{
		Symbol:    series.Symbol,
		Price:     close,
		Reasons:   reasons,
		CreatedOn: openTime,
	}

	return decision, true
}

// Exit fires when OBV and +DI both decline monotonically over the trailing
// decline window, regardless of any other oscillator state, or on an RSI
// momentum reversal.
func (e *TrendEvaluator) Exit(series *shared.Series) (*ExitDecision, bool) {
	close, openTime, ok := lastClose(series)
	if !ok {
		return nil, false
	}

	obvDeclining := monotonicDecline(series, indicator.ColOBV, e.cfg.DeclineBars)
	diDeclining := monotonicDecline(series, indicator.ColPlusDI, e.cfg.DeclineBars)

	switch {
	case obvDeclining && diDeclining:
		decision := &ExitDecision{
			Symbol: series.Symbol,
			Price:  close,
			Reasons: []string{
				fmt.Sprintf("obv and +di declining monotonically over last %d bars", e.cfg.DeclineBars),
			},
			CreatedOn: openTime,
		}
		return decision, true

	default:
		rsi, ok := rsiReversal(series, e.cfg)
		if !ok {
			return nil, false
		}

		decision := &ExitDecision{
			Symbol: series.Symbol,
			Price:  close,
			Reasons: []string{
				fmt.Sprintf("rsi reversal: overbought above %.2f within last %d bars, now %.2f below %.2f",
					e.cfg.RSIHighThreshold, e.cfg.RSILookbackBars, rsi, e.cfg.RSILowThreshold),
			},
			CreatedOn: openTime,
		}
		return decision, true
	}
}

// volumeTrendConfirmed reports whether the smoothed volume trend accumulators
// correlate at or above the configured threshold with positive slopes over
// the trailing correlation window.
func (e *TrendEvaluator) volumeTrendConfirmed(series *shared.Series) (float64, bool) {
	obv, okOBV := trailingValues(series, indicator.ColOBV, e.cfg.CorrelationWindow)
	accDist, okAD := trailingValues(series, indicator.ColAccDist, e.cfg.CorrelationWindow)
	if !okOBV || !okAD {
		return 0, false
	}

	smoothedOBV := indicator.SmoothEMA(obv, e.cfg.TrendSmoothingSpan)
	smoothedAD := indicator.SmoothEMA(accDist, e.cfg.TrendSmoothingSpan)

	correlation, ok := indicator.SpearmanRank(smoothedOBV, smoothedAD)
	if !ok || correlation < e.cfg.CorrelationThreshold {
		return 0, false
	}

	obvSlope, ok := indicator.Slope(smoothedOBV)
	if !ok || obvSlope <= 0 {
		return 0, false
	}
	adSlope, ok := indicator.Slope(smoothedAD)
	if !ok || adSlope <= 0 {
		return 0, false
	}

	return correlation, true
}

// monotonicDecline reports whether the named column declined strictly across
// the trailing n bars. Undefined values never contribute to a decline.
func monotonicDecline(series *shared.Series, name string, n int) bool {
	values, ok := trailingValues(series, name, n)
	if !ok {
		return false
	}

	for idx := 1; idx < len(values); idx++ {
		if values[idx] >= values[idx-1] {
			return false
		}
	}

	return true
}

// trailingValues fetches the trailing n defined values of the named column.
func trailingValues(series *shared.Series, name string, n int) ([]float64, bool) {
	column, ok := series.Column(name)
	if !ok || n <= 0 {
		return nil, false
	}

	start := series.Len() - n
	if !column.DefinedFrom(start) {
		return nil, false
	}

	values := make([]float64, 0, n)
	for idx := start; idx < series.Len(); idx++ {
		value, _ := column.At(idx)
		values = append(values, value)
	}

	return values, true
}
