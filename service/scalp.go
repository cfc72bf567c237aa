package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/araseong/altcoin-scalp-bot/engine"
	"github.com/araseong/altcoin-scalp-bot/exchange"
	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/journal"
	"github.com/araseong/altcoin-scalp-bot/position"
	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// ScalpConfig represents the configuration struct for the scalp service.
type ScalpConfig struct {
	// APIKey is the binance API key.
	APIKey string
	// APISecret is the binance API secret.
	APISecret string
	// ExchangeBaseURL optionally overrides the exchange REST endpoint.
	ExchangeBaseURL string
	// Evaluator is the name of the active signal evaluator.
	Evaluator string
	// Interval is the candle interval driving decisions.
	Interval shared.Interval
	// TickInterval is the pause between engine ticks.
	TickInterval time.Duration
	// JournalEndpoint is the optional trade journal database endpoint.
	JournalEndpoint string
	// JournalUser is the journal database user.
	JournalUser string
	// JournalPass is the journal database user pass.
	JournalPass string
	// IndicatorConfig is the indicator pipeline configuration.
	IndicatorConfig *indicator.Config
	// StrategyConfig is the signal evaluation configuration.
	StrategyConfig *strategy.Config
	// CandleCount is the number of recent candles fetched per evaluation.
	CandleCount int
	// TopMoversLimit caps the number of candidates scanned per tick.
	TopMoversLimit int
	// Leverage is the leverage applied to entries.
	Leverage int
	// AllocationFraction is the fraction of the balance allocated per position.
	AllocationFraction float64
	// StopLossFraction is the fractional stop loss distance below entry.
	StopLossFraction float64
	// TakeProfitATRMultiples are optional ATR offsets for take profit legs.
	TakeProfitATRMultiples []float64
	// SpreadCeiling is the maximum relative spread accepted for a candidate.
	SpreadCeiling float64
	// VolatilityWindow is the trailing window for the volatility filter.
	VolatilityWindow int
	// MinVolatilityRatio is the minimum accepted volatility ratio.
	MinVolatilityRatio float64
	// MaxStopRetries bounds stop loss placement retries.
	MaxStopRetries int
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config has sane inputs.
func (cfg *ScalpConfig) Validate() error {
	var errs error

	if cfg.APIKey == "" || cfg.APISecret == "" {
		errs = errors.Join(errs, fmt.Errorf("binance api credentials cannot be empty strings"))
	}
	if cfg.Evaluator == "" {
		errs = errors.Join(errs, fmt.Errorf("evaluator cannot be an empty string"))
	}
	if cfg.TickInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick interval must be positive"))
	}
	if cfg.IndicatorConfig == nil {
		errs = errors.Join(errs, fmt.Errorf("indicator config cannot be nil"))
	}
	if cfg.StrategyConfig == nil {
		errs = errors.Join(errs, fmt.Errorf("strategy config cannot be nil"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Scalp represents the futures scalping service.
type Scalp struct {
	cfg     *ScalpConfig
	engine  *engine.Engine
	journal *journal.Journal
	logger  *zerolog.Logger
	tickMtx sync.Mutex
}

// NewScalp initializes a new scalp service.
func NewScalp(ctx context.Context, cfg *ScalpConfig) (*Scalp, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating scalp config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "scalp").Logger()

	client, err := exchange.NewClient(&exchange.Config{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   cfg.ExchangeBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating exchange client: %w", err)
	}

	evaluator, err := strategy.New(cfg.Evaluator, cfg.StrategyConfig)
	if err != nil {
		return nil, fmt.Errorf("creating evaluator: %w", err)
	}

	var tradeJournal *journal.Journal
	persistClosedTrade := func(ctx context.Context, trade *position.Trade) error {
		return nil
	}
	if cfg.JournalEndpoint != "" {
		journalLogger := logger.With().Str("component", "journal").Logger()
		tradeJournal, err = journal.NewJournal(ctx, &journal.JournalConfig{
			Endpoint: cfg.JournalEndpoint,
			User:     cfg.JournalUser,
			Pass:     cfg.JournalPass,
			Logger:   &journalLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating trade journal: %w", err)
		}

		persistClosedTrade = tradeJournal.PersistClosedTrade
	}

	engineLogger := logger.With().Str("component", "engine").Logger()
	scalpEngine, err := engine.NewEngine(&engine.EngineConfig{
		MarketData:             client,
		Execution:              client,
		Evaluator:              evaluator,
		PersistClosedTrade:     persistClosedTrade,
		IndicatorConfig:        cfg.IndicatorConfig,
		Interval:               cfg.Interval,
		CandleCount:            cfg.CandleCount,
		TopMoversLimit:         cfg.TopMoversLimit,
		Leverage:               cfg.Leverage,
		AllocationFraction:     cfg.AllocationFraction,
		StopLossFraction:       cfg.StopLossFraction,
		TakeProfitATRMultiples: cfg.TakeProfitATRMultiples,
		SpreadCeiling:          cfg.SpreadCeiling,
		VolatilityWindow:       cfg.VolatilityWindow,
		MinVolatilityRatio:     cfg.MinVolatilityRatio,
		MaxStopRetries:         cfg.MaxStopRetries,
		Logger:                 &engineLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	service := &Scalp{
		cfg:     cfg,
		engine:  scalpEngine,
		journal: tradeJournal,
		logger:  &logger,
	}

	return service, nil
}

// tick performs one engine step. Ticks never overlap, and a tick started
// before cancellation always runs to completion.
func (s *Scalp) tick(ctx context.Context) {
	s.tickMtx.Lock()
	defer s.tickMtx.Unlock()

	if ctx.Err() != nil {
		return
	}

	err := s.engine.RunOnce(ctx)
	if err != nil {
		s.logger.Error().Msgf("engine tick: %v", err)
		s.cfg.Cancel()
	}
}

// Run handles the lifecycle processes of the scalp service.
func (s *Scalp) Run(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("creating job scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.cfg.TickInterval),
		gocron.NewTask(s.tick, ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling engine tick: %w", err)
	}

	s.logger.Info().Msgf("scalp service starting, evaluator=%s tick=%s",
		s.cfg.Evaluator, s.cfg.TickInterval)
	scheduler.Start()

	<-ctx.Done()

	err = scheduler.Shutdown()
	if err != nil {
		s.logger.Error().Msgf("shutting down job scheduler: %v", err)
	}

	// Wait out any in-flight tick so the process never abandons a
	// transition midway.
	s.tickMtx.Lock()
	defer s.tickMtx.Unlock()

	s.logger.Info().Msg("scalp service stopped")
	return nil
}
