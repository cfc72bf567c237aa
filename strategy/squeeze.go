package strategy

import (
	"fmt"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/shared"
)

// SqueezeEvaluator implements the squeeze breakout variant: a volatility
// squeeze release combined with a break above the value area high, confirmed
// by RSI momentum.
type SqueezeEvaluator struct {
	cfg *Config
}

// Ensure the squeeze evaluator implements the Evaluator interface.
var _ Evaluator = (*SqueezeEvaluator)(nil)

// Name returns the evaluator name.
func (e *SqueezeEvaluator) Name() string {
	return SqueezeEvaluatorName
}

// Entry fires when the latest bar released a squeeze, closed above the value
// area high and carries RSI momentum at or above the entry threshold.
func (e *SqueezeEvaluator) Entry(series *shared.Series) (*EntryDecision, bool) {
	close, openTime, ok := lastClose(series)
	if !ok {
		return nil, false
	}

	release, ok := columnLast(series, indicator.ColSqueezeRelease)
	if !ok || release != 1 {
		return nil, false
	}

	vah, ok := columnLast(series, indicator.ColVAH)
	if !ok || close <= vah {
		return nil, false
	}

	rsi, ok := columnLast(series, indicator.ColRSI)
	if !ok || rsi < e.cfg.RSIEntryThreshold {
		return nil, false
	}

	decision := &EntryDecision{
		Symbol: series.Symbol,
		Price:  close,
		Reasons: []string{
			"squeeze released on the latest bar",
			fmt.Sprintf("close %.8f above value area high %.8f", close, vah),
			fmt.Sprintf("rsi %.2f at or above entry threshold %.2f", rsi, e.cfg.RSIEntryThreshold),
		},
		CreatedOn: openTime,
	}

	return decision, true
}

// Exit fires when an overbought RSI reading within the recent lookback is
// followed by a fall below the low threshold between consecutive bars.
func (e *SqueezeEvaluator) Exit(series *shared.Series) (*ExitDecision, bool) {
	close, openTime, ok := lastClose(series)
	if !ok {
		return nil, false
	}

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

// rsiReversal reports whether an RSI momentum reversal occurred: a reading at
// or above the high threshold within the recent lookback, followed by a fall
// below the low threshold between the previous and current bar. It returns
// the latest reading on a fire.
func rsiReversal(series *shared.Series, cfg *Config) (float64, bool) {
	column, ok := series.Column(indicator.ColRSI)
	if !ok {
		return 0, false
	}

	last := series.Len() - 1
	lookbackStart := last - cfg.RSILookbackBars + 1
	if !column.DefinedFrom(lookbackStart - 1) {
		return 0, false
	}

	var wasHigh bool
	for idx := lookbackStart; idx <= last; idx++ {
		if value, _ := column.At(idx); value >= cfg.RSIHighThreshold {
			wasHigh = true
			break
		}
	}
	if !wasHigh {
		return 0, false
	}

	prev, _ := column.At(last - 1)
	curr, _ := column.At(last)
	if prev < cfg.RSILowThreshold || curr >= cfg.RSILowThreshold {
		return 0, false
	}

	return curr, true
}

// columnLast fetches the most recent defined value of the named column.
func columnLast(series *shared.Series, name string) (float64, bool) {
	column, ok := series.Column(name)
	if !ok {
		return 0, false
	}

	return column.Last()
}
