package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/service"
	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	interval, ok := shared.ParseInterval(cfg.Interval)
	if !ok {
		log.Printf("unsupported candle interval %q", cfg.Interval)
		return
	}

	takeProfits := make([]float64, 0, len(cfg.TakeProfits))
	for _, multiple := range cfg.TakeProfits {
		parsed, err := strconv.ParseFloat(multiple, 64)
		if err != nil {
			log.Printf("parsing take profit multiple %q: %v", multiple, err)
			return
		}
		takeProfits = append(takeProfits, parsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scalpCfg := service.ScalpConfig{
		APIKey:    cfg.BinanceAPIKey,
		APISecret: cfg.BinanceAPISecret,
		Evaluator: cfg.Evaluator,
		Interval:  interval,
		TickInterval: time.Duration(cfg.TickSeconds) *
			time.Second,
		JournalEndpoint: cfg.JournalEndpoint,
		JournalUser:     cfg.JournalUser,
		JournalPass:     cfg.JournalPass,
		IndicatorConfig: &indicator.Config{
			EMAShortSpan:      cfg.EMAShortSpan,
			EMAMidSpan:        cfg.EMAMidSpan,
			EMALongSpan:       cfg.EMALongSpan,
			DMIWindow:         cfg.DMIWindow,
			RSIWindow:         cfg.RSIWindow,
			ATRWindow:         cfg.ATRWindow,
			BollingerWindow:   cfg.BollingerWindow,
			BollingerK:        cfg.BollingerK,
			KeltnerWindow:     cfg.KeltnerWindow,
			KeltnerMultiplier: cfg.KeltnerMultiplier,
			VAHLookback:       cfg.VAHLookback,
			VAHBins:           cfg.VAHBins,
		},
		StrategyConfig: &strategy.Config{
			RSIEntryThreshold:    cfg.RSIEntryThreshold,
			RSIHighThreshold:     cfg.RSIHighThreshold,
			RSILowThreshold:      cfg.RSILowThreshold,
			RSILookbackBars:      cfg.RSILookbackBars,
			CorrelationWindow:    cfg.CorrelationWindow,
			CorrelationThreshold: cfg.CorrelationThreshold,
			ConfirmTrend:         cfg.ConfirmTrend,
			TrendSmoothingSpan:   cfg.TrendSmoothingSpan,
			DeclineBars:          cfg.DeclineBars,
		},
		CandleCount:            cfg.CandleCount,
		TopMoversLimit:         cfg.TopMoversLimit,
		Leverage:               cfg.Leverage,
		AllocationFraction:     cfg.AllocationFraction,
		StopLossFraction:       cfg.StopLossFraction,
		TakeProfitATRMultiples: takeProfits,
		SpreadCeiling:          cfg.SpreadCeiling,
		VolatilityWindow:       cfg.VolatilityWindow,
		MinVolatilityRatio:     cfg.MinVolatilityRatio,
		MaxStopRetries:         cfg.MaxStopRetries,
		Cancel:                 cancel,
	}
	scalp, err := service.NewScalp(ctx, &scalpCfg)
	if err != nil {
		log.Printf("creating scalp service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	scalp.Run(ctx)
}
