package main

import (
	"flag"
	"os"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: Config{
				BinanceAPIKey:    "apikey",
				BinanceAPISecret: "apisecret",
				Interval:         "1m",
				TickSeconds:      30,
			},
			wantErr: nil,
		},
		{
			name: "missing api key",
			cfg: Config{
				BinanceAPISecret: "apisecret",
				Interval:         "1m",
				TickSeconds:      30,
			},
			wantErr: []string{"binance api key cannot be an empty string"},
		},
		{
			name: "missing api secret",
			cfg: Config{
				BinanceAPIKey: "apikey",
				Interval:      "1m",
				TickSeconds:   30,
			},
			wantErr: []string{"binance api secret cannot be an empty string"},
		},
		{
			name: "missing both credentials",
			cfg: Config{
				Interval:    "1m",
				TickSeconds: 30,
			},
			wantErr: []string{
				"binance api key cannot be an empty string",
				"binance api secret cannot be an empty string",
			},
		},
		{
			name: "non-positive tick seconds",
			cfg: Config{
				BinanceAPIKey:    "apikey",
				BinanceAPISecret: "apisecret",
				Interval:         "1m",
			},
			wantErr: []string{"tick seconds must be positive"},
		},
		{
			name: "malformed take profit multiple",
			cfg: Config{
				BinanceAPIKey:    "apikey",
				BinanceAPISecret: "apisecret",
				Interval:         "1m",
				TickSeconds:      30,
				TakeProfits:      []string{"1.5", "wide"},
			},
			wantErr: []string{`take profit multiple "wide" is not a number`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		os.Clearenv()
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		check       func(t *testing.T, cfg Config)
	}{
		{
			name: "all from env",
			env: map[string]string{
				"binanceapikey":    "apikey",
				"binanceapisecret": "apisecret",
			},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.BinanceAPIKey != "apikey" {
					t.Errorf("expected api key from env, got %q", cfg.BinanceAPIKey)
				}
				if cfg.Interval != "1m" {
					t.Errorf("expected default interval 1m, got %q", cfg.Interval)
				}
				if cfg.TickSeconds != 30 {
					t.Errorf("expected default tick seconds 30, got %d", cfg.TickSeconds)
				}
				if cfg.Evaluator != "squeeze" {
					t.Errorf("expected default evaluator squeeze, got %q", cfg.Evaluator)
				}
				if cfg.MinVolatilityRatio != 1.0 {
					t.Errorf("expected default min volatility ratio 1.0, got %v", cfg.MinVolatilityRatio)
				}
				if !cfg.ConfirmTrend {
					t.Errorf("expected trend confirmation enabled by default")
				}
			},
		},
		{
			name: "explicit zero overrides a default",
			env: map[string]string{
				"binanceapikey":      "apikey",
				"binanceapisecret":   "apisecret",
				"minvolatilityratio": "0",
				"confirmtrend":       "false",
			},
			args:      []string{"cmd"},
			expectErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.MinVolatilityRatio != 0 {
					t.Errorf("expected min volatility ratio 0, got %v", cfg.MinVolatilityRatio)
				}
				if cfg.ConfirmTrend {
					t.Errorf("expected trend confirmation disabled")
				}
			},
		},
		{
			name: "explicit zero flag overrides a default",
			env: map[string]string{
				"binanceapikey":    "apikey",
				"binanceapisecret": "apisecret",
			},
			args:      []string{"cmd", "-minvolatilityratio=0", "-confirmtrend=false"},
			expectErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.MinVolatilityRatio != 0 {
					t.Errorf("expected min volatility ratio 0, got %v", cfg.MinVolatilityRatio)
				}
				if cfg.ConfirmTrend {
					t.Errorf("expected trend confirmation disabled")
				}
			},
		},
		{
			name: "all from flags",
			env:  map[string]string{},
			args: []string{
				"cmd", "-binanceapikey=apikey", "-binanceapisecret=apisecret",
				"-interval=5m", "-leverage=5", "-allocationfraction=0.2",
				"-takeprofits=1.5,3",
			},
			expectErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.Interval != "5m" {
					t.Errorf("expected interval 5m, got %q", cfg.Interval)
				}
				if cfg.Leverage != 5 {
					t.Errorf("expected leverage 5, got %d", cfg.Leverage)
				}
				if cfg.AllocationFraction != 0.2 {
					t.Errorf("expected allocation fraction 0.2, got %v", cfg.AllocationFraction)
				}
				if len(cfg.TakeProfits) != 2 || cfg.TakeProfits[0] != "1.5" {
					t.Errorf("expected take profits [1.5 3], got %v", cfg.TakeProfits)
				}
			},
		},
		{
			name:      "missing credentials",
			env:       map[string]string{},
			args:      []string{"cmd"},
			expectErr: true,
			expectInErr: []string{
				"binance api key cannot be an empty string",
				"binance api secret cannot be an empty string",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			os.Clearenv()
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "/nonexistent/.env")

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.expectInErr)
					return
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
				return
			}

			if err != nil {
				t.Errorf("expected no error, got: %v", err)
				return
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
