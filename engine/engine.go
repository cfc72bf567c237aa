package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/position"
	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
	"github.com/rs/zerolog"
)

// State represents the state of the position lifecycle.
type State int

const (
	Idle State = iota
	Scanning
	Open
	Closing
)

// String stringifies the provided state.
func (s *State) String() string {
	switch *s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// EngineConfig represents the engine configuration.
type EngineConfig struct {
	// MarketData supplies candle history, movers, spreads and instrument metadata.
	MarketData shared.MarketData
	// Execution executes and cancels orders and queries account state.
	Execution shared.Execution
	// Evaluator evaluates entry and exit predicates over enriched series.
	Evaluator strategy.Evaluator
	// PersistClosedTrade persists the provided concluded trade. Failures are
	// logged, the engine never reads the journal back.
	PersistClosedTrade func(ctx context.Context, trade *position.Trade) error
	// IndicatorConfig is the indicator pipeline configuration.
	IndicatorConfig *indicator.Config
	// Interval is the candle interval driving decisions.
	Interval shared.Interval
	// CandleCount is the number of recent candles fetched per evaluation.
	CandleCount int
	// TopMoversLimit caps the number of candidates scanned per tick.
	TopMoversLimit int
	// Leverage is the leverage applied to entries.
	Leverage int
	// AllocationFraction is the fraction of the account balance allocated
	// per position.
	AllocationFraction float64
	// StopLossFraction is the fractional distance of the stop loss below the
	// entry price.
	StopLossFraction float64
	// TakeProfitATRMultiples are optional ATR offsets above the entry price
	// for limit take profit legs. The position quantity is split evenly
	// across the legs.
	TakeProfitATRMultiples []float64
	// SpreadCeiling is the maximum relative spread accepted for a candidate.
	SpreadCeiling float64
	// VolatilityWindow is the trailing window for the volatility filter.
	VolatilityWindow int
	// MinVolatilityRatio is the minimum volatility ratio accepted for a
	// candidate.
	MinVolatilityRatio float64
	// MaxStopRetries bounds stop loss placement retries before an
	// unprotected position is flattened.
	MaxStopRetries int
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *EngineConfig) Validate() error {
	var errs error

	if cfg.MarketData == nil {
		errs = errors.Join(errs, fmt.Errorf("market data port cannot be nil"))
	}
	if cfg.Execution == nil {
		errs = errors.Join(errs, fmt.Errorf("execution port cannot be nil"))
	}
	if cfg.Evaluator == nil {
		errs = errors.Join(errs, fmt.Errorf("evaluator cannot be nil"))
	}
	if cfg.IndicatorConfig == nil {
		errs = errors.Join(errs, fmt.Errorf("indicator config cannot be nil"))
	} else if err := cfg.IndicatorConfig.Validate(); err != nil {
		errs = errors.Join(errs, err)
	}
	if cfg.CandleCount <= 0 {
		errs = errors.Join(errs, fmt.Errorf("candle count must be positive"))
	}
	if cfg.IndicatorConfig != nil && cfg.CandleCount < cfg.IndicatorConfig.MinBars() {
		errs = errors.Join(errs, fmt.Errorf("candle count %d below required minimum %d",
			cfg.CandleCount, cfg.IndicatorConfig.MinBars()))
	}
	if cfg.TopMoversLimit <= 0 {
		errs = errors.Join(errs, fmt.Errorf("top movers limit must be positive"))
	}
	if cfg.Leverage <= 0 {
		errs = errors.Join(errs, fmt.Errorf("leverage must be positive"))
	}
	if cfg.AllocationFraction <= 0 || cfg.AllocationFraction > 1 {
		errs = errors.Join(errs, fmt.Errorf("allocation fraction must be between 0 and 1"))
	}
	if cfg.StopLossFraction <= 0 || cfg.StopLossFraction >= 1 {
		errs = errors.Join(errs, fmt.Errorf("stop loss fraction must be between 0 and 1"))
	}
	for _, multiple := range cfg.TakeProfitATRMultiples {
		if multiple <= 0 {
			errs = errors.Join(errs, fmt.Errorf("take profit atr multiples must be positive"))
		}
	}
	if cfg.SpreadCeiling <= 0 {
		errs = errors.Join(errs, fmt.Errorf("spread ceiling must be positive"))
	}
	if cfg.VolatilityWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("volatility window must be positive"))
	}
	if cfg.MinVolatilityRatio < 0 {
		errs = errors.Join(errs, fmt.Errorf("minimum volatility ratio cannot be negative"))
	}
	if cfg.MaxStopRetries <= 0 {
		errs = errors.Join(errs, fmt.Errorf("max stop retries must be positive"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Engine owns the single position lifecycle: idle, scanning, open, closing.
// It holds at most one open position across the whole instrument universe at
// any time.
type Engine struct {
	cfg         *EngineConfig
	state       State
	position    *position.Position
	missingStop bool
	stopRetries int
	pendingExit *strategy.ExitDecision
	meta        map[string]*shared.InstrumentMeta
}

// NewEngine initializes a new engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating engine config: %w", err)
	}

	return &Engine{
		cfg:  cfg,
		meta: make(map[string]*shared.InstrumentMeta),
	}, nil
}

// State returns the current lifecycle state of the engine.
func (e *Engine) State() State {
	return e.state
}

// RunOnce performs exactly one state machine step. It is idempotent to call
// repeatedly, returns normally on recoverable failures and never corrupts
// the lifecycle state mid transition.
func (e *Engine) RunOnce(ctx context.Context) error {
	switch e.state {
	case Open:
		e.monitorPosition(ctx)
	case Closing:
		e.resumeClose(ctx)
	default:
		e.scanAndEnter(ctx)
	}

	return nil
}

// instrumentMeta fetches the exchange constraints for the provided symbol,
// cached for the life of the run.
func (e *Engine) instrumentMeta(ctx context.Context, symbol string) (*shared.InstrumentMeta, error) {
	if meta, ok := e.meta[symbol]; ok {
		return meta, nil
	}

	meta, err := e.cfg.MarketData.InstrumentMeta(ctx, symbol)
	if err != nil {
		return nil, err
	}

	e.meta[symbol] = meta
	return meta, nil
}

// recentSeries fetches and enriches the most recent candle history for the
// provided symbol. It reports false when the data is unavailable or too
// short for the configured lookbacks.
func (e *Engine) recentSeries(ctx context.Context, symbol string) (*shared.Series, bool) {
	candles, err := e.cfg.MarketData.RecentCandles(ctx, symbol, e.cfg.Interval, e.cfg.CandleCount)
	switch {
	case errors.Is(err, shared.ErrDataUnavailable):
		e.cfg.Logger.Debug().Msgf("no candle data for %s, skipping", symbol)
		return nil, false
	case err != nil:
		e.cfg.Logger.Error().Msgf("fetching candles for %s: %v", symbol, err)
		return nil, false
	}

	if len(candles) < e.cfg.IndicatorConfig.MinBars() || len(candles) < e.cfg.VolatilityWindow+1 {
		e.cfg.Logger.Debug().Msgf("%s has %d candles, below required lookback", symbol, len(candles))
		return nil, false
	}

	series, err := shared.NewSeries(symbol, e.cfg.Interval, candles)
	if err != nil {
		e.cfg.Logger.Error().Msgf("building series for %s: %v", symbol, err)
		return nil, false
	}

	err = indicator.Enrich(series, e.cfg.IndicatorConfig)
	if err != nil {
		e.cfg.Logger.Error().Msgf("enriching series for %s: %v", symbol, err)
		return nil, false
	}

	return series, true
}
