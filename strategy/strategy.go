package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/araseong/altcoin-scalp-bot/shared"
)

// Evaluator names selectable through configuration.
const (
	SqueezeEvaluatorName = "squeeze"
	TrendEvaluatorName   = "trend"
)

// EntryDecision represents a decision to enter a position, carrying the
// basis needed to reconstruct the trade after the fact.
type EntryDecision struct {
	Symbol    string
	Price     float64
	Reasons   []string
	CreatedOn time.Time
}

// ExitDecision represents a decision to exit the open position.
type ExitDecision struct {
	Symbol    string
	Price     float64
	Reasons   []string
	CreatedOn time.Time
}

// Evaluator defines the requirements for evaluating entry and exit
// predicates over an indicator enriched series. An evaluator never fires
// while any consulted column is undefined for the bars it reads.
type Evaluator interface {
	// Name returns the evaluator name.
	Name() string
	// Entry evaluates the entry predicate against the most recent bars of
	// the provided series.
	Entry(series *shared.Series) (*EntryDecision, bool)
	// Exit evaluates the exit predicate against the most recent bars of
	// the provided series.
	Exit(series *shared.Series) (*ExitDecision, bool)
}

// Config represents the signal evaluation configuration.
type Config struct {
	// RSIEntryThreshold is the minimum RSI reading for a squeeze entry.
	RSIEntryThreshold float64
	// RSIHighThreshold is the overbought RSI reading armed before an exit.
	RSIHighThreshold float64
	// RSILowThreshold is the RSI reading whose downward cross fires an exit.
	RSILowThreshold float64
	// RSILookbackBars is the number of recent bars searched for an
	// overbought reading.
	RSILookbackBars int
	// CorrelationWindow is the trailing window for trend confirmation.
	CorrelationWindow int
	// CorrelationThreshold is the minimum Spearman rank correlation between
	// smoothed OBV and smoothed accumulation/distribution.
	CorrelationThreshold float64
	// ConfirmTrend toggles the volume trend confirmation for trend entries.
	ConfirmTrend bool
	// TrendSmoothingSpan is the smoothing span applied to the volume trend
	// accumulators before confirmation.
	TrendSmoothingSpan int
	// DeclineBars is the number of trailing bars whose monotonic decline in
	// OBV and +DI fires a trend exit.
	DeclineBars int
}

// DefaultConfig returns the default signal evaluation configuration.
func DefaultConfig() *Config {
	return &Config{
		RSIEntryThreshold:    65,
		RSIHighThreshold:     70,
		RSILowThreshold:      60,
		RSILookbackBars:      3,
		CorrelationWindow:    10,
		CorrelationThreshold: 0.6,
		ConfirmTrend:         true,
		TrendSmoothingSpan:   5,
		DeclineBars:          3,
	}
}

// Validate asserts the config has sane inputs.
func (c *Config) Validate() error {
	var errs error

	if c.RSIEntryThreshold <= 0 || c.RSIEntryThreshold >= 100 {
		errs = errors.Join(errs, fmt.Errorf("rsi entry threshold must be between 0 and 100"))
	}
	if c.RSIHighThreshold <= c.RSILowThreshold {
		errs = errors.Join(errs, fmt.Errorf("rsi high threshold must exceed the low threshold"))
	}
	if c.RSILookbackBars <= 0 {
		errs = errors.Join(errs, fmt.Errorf("rsi lookback bars must be positive"))
	}
	if c.CorrelationWindow < 2 {
		errs = errors.Join(errs, fmt.Errorf("correlation window must be at least 2"))
	}
	if c.CorrelationThreshold < -1 || c.CorrelationThreshold > 1 {
		errs = errors.Join(errs, fmt.Errorf("correlation threshold must be between -1 and 1"))
	}
	if c.TrendSmoothingSpan <= 0 {
		errs = errors.Join(errs, fmt.Errorf("trend smoothing span must be positive"))
	}
	if c.DeclineBars < 2 {
		errs = errors.Join(errs, fmt.Errorf("decline bars must be at least 2"))
	}

	return errs
}

// New initializes the named evaluator with the provided configuration.
func New(name string, cfg *Config) (Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating strategy config: %w", err)
	}

	switch name {
	case SqueezeEvaluatorName:
		return &SqueezeEvaluator{cfg: cfg}, nil
	case TrendEvaluatorName:
		return &TrendEvaluator{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown evaluator: %s", name)
	}
}

// lastClose fetches the close and open time of the most recent bar.
func lastClose(series *shared.Series) (float64, time.Time, bool) {
	if series.Len() == 0 {
		return 0, time.Time{}, false
	}

	candle := series.Candles[series.Len()-1]
	return candle.Close, candle.OpenTime, true
}
