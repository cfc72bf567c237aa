package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
	"github.com/peterldowns/testy/assert"
)

func testScalpConfig(cancel context.CancelFunc) *ScalpConfig {
	return &ScalpConfig{
		APIKey:             "key",
		APISecret:          "secret",
		Evaluator:          strategy.SqueezeEvaluatorName,
		Interval:           shared.OneMinute,
		TickInterval:       time.Second,
		IndicatorConfig:    indicator.DefaultConfig(),
		StrategyConfig:     strategy.DefaultConfig(),
		CandleCount:        200,
		TopMoversLimit:     10,
		Leverage:           10,
		AllocationFraction: 0.3,
		StopLossFraction:   0.02,
		SpreadCeiling:      0.0004,
		VolatilityWindow:   30,
		MinVolatilityRatio: 1,
		MaxStopRetries:     3,
		Cancel:             cancel,
	}
}

func TestScalpConfigValidate(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure a complete config validates.
	assert.NoError(t, testScalpConfig(cancel).Validate())

	// Ensure missing credentials and wiring are rejected.
	cfg := testScalpConfig(cancel)
	cfg.APIKey = ""
	cfg.APISecret = ""
	cfg.Cancel = nil
	cfg.IndicatorConfig = nil
	assert.Error(t, cfg.Validate())
}

func TestNewScalp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the service can be created without a journal endpoint.
	scalp, err := NewScalp(ctx, testScalpConfig(cancel))
	assert.NoError(t, err)
	assert.NotNil(t, scalp)
	assert.Nil(t, scalp.journal)

	// Ensure an unknown evaluator is rejected.
	cfg := testScalpConfig(cancel)
	cfg.Evaluator = "momentum"
	_, err = NewScalp(ctx, cfg)
	assert.Error(t, err)
}

func TestScalpGracefulShutdown(t *testing.T) {
	// An empty universe keeps every tick a no-op scan.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbols":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testScalpConfig(cancel)
	cfg.ExchangeBaseURL = server.URL
	cfg.TickInterval = time.Millisecond * 100

	scalp, err := NewScalp(ctx, cfg)
	assert.NoError(t, err)

	// Ensure the scalp service can be run and gracefully terminated.
	time.AfterFunc(time.Second*2, func() {
		cancel()
	})
	done := make(chan struct{})
	var runErr error
	go func() {
		runErr = scalp.Run(ctx)
		close(done)
	}()

	<-done
	assert.NoError(t, runErr)
}
