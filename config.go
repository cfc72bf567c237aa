package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// BinanceAPIKey is the binance API key.
	BinanceAPIKey string
	// BinanceAPISecret is the binance API secret.
	BinanceAPISecret string
	// Interval is the candle interval driving decisions.
	Interval string
	// TickSeconds is the pause between engine ticks in seconds.
	TickSeconds int
	// Evaluator is the name of the active signal evaluator.
	Evaluator string
	// Leverage is the leverage applied to entries.
	Leverage int
	// AllocationFraction is the fraction of the balance allocated per position.
	AllocationFraction float64
	// StopLossFraction is the fractional stop loss distance below entry.
	StopLossFraction float64
	// TakeProfits is a comma separated list of ATR multiples for take profit legs.
	TakeProfits []string
	// TopMoversLimit caps the number of candidates scanned per tick.
	TopMoversLimit int
	// CandleCount is the number of recent candles fetched per evaluation.
	CandleCount int
	// SpreadCeiling is the maximum relative spread accepted for a candidate.
	SpreadCeiling float64
	// VolatilityWindow is the trailing window for the volatility filter.
	VolatilityWindow int
	// MinVolatilityRatio is the minimum accepted volatility ratio.
	MinVolatilityRatio float64
	// MaxStopRetries bounds stop loss placement retries.
	MaxStopRetries int
	// RSIEntryThreshold is the minimum RSI reading for a squeeze entry.
	RSIEntryThreshold float64
	// RSIHighThreshold is the overbought RSI reading armed before an exit.
	RSIHighThreshold float64
	// RSILowThreshold is the RSI reading whose downward cross fires an exit.
	RSILowThreshold float64
	// RSILookbackBars is the number of recent bars searched for an overbought reading.
	RSILookbackBars int
	// CorrelationWindow is the trailing window for trend confirmation.
	CorrelationWindow int
	// CorrelationThreshold is the minimum Spearman correlation for trend confirmation.
	CorrelationThreshold float64
	// ConfirmTrend toggles the volume trend confirmation for trend entries.
	ConfirmTrend bool
	// TrendSmoothingSpan is the smoothing span for the volume trend accumulators.
	TrendSmoothingSpan int
	// DeclineBars is the trailing window whose monotonic decline fires a trend exit.
	DeclineBars int
	// EMAShortSpan is the span of the short exponential moving average.
	EMAShortSpan int
	// EMAMidSpan is the span of the medium exponential moving average.
	EMAMidSpan int
	// EMALongSpan is the span of the long exponential moving average.
	EMALongSpan int
	// DMIWindow is the directional movement index window.
	DMIWindow int
	// RSIWindow is the relative strength index window.
	RSIWindow int
	// ATRWindow is the average true range window.
	ATRWindow int
	// BollingerWindow is the Bollinger band window.
	BollingerWindow int
	// BollingerK is the Bollinger standard deviation multiplier.
	BollingerK float64
	// KeltnerWindow is the Keltner channel window.
	KeltnerWindow int
	// KeltnerMultiplier is the Keltner ATR multiplier.
	KeltnerMultiplier float64
	// VAHLookback is the volume profile lookback window.
	VAHLookback int
	// VAHBins is the number of volume profile price buckets.
	VAHBins int
	// JournalEndpoint is the optional trade journal database endpoint.
	JournalEndpoint string
	// JournalUser is the journal database user.
	JournalUser string
	// JournalPass is the journal database user pass.
	JournalPass string
	// Debug is the debug logging flag.
	Debug bool

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.BinanceAPIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("binance api key cannot be an empty string"))
	}
	if cfg.BinanceAPISecret == "" {
		errs = errors.Join(errs, fmt.Errorf("binance api secret cannot be an empty string"))
	}
	if cfg.Interval == "" {
		errs = errors.Join(errs, fmt.Errorf("candle interval cannot be an empty string"))
	}
	if cfg.TickSeconds <= 0 {
		errs = errors.Join(errs, fmt.Errorf("tick seconds must be positive"))
	}
	for _, multiple := range cfg.TakeProfits {
		if _, err := strconv.ParseFloat(multiple, 64); err != nil {
			errs = errors.Join(errs, fmt.Errorf("take profit multiple %q is not a number", multiple))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	// The field's current value is the default so an explicit zero from the
	// environment or a flag is an override, not an unset field.
	switch val.Elem().Kind() {
	case reflect.String:
		def := *value.(*string)
		if defValue != "" {
			def = defValue
		}
		flag.StringVar(value.(*string), name, def, usage)
	case reflect.Bool:
		def := *value.(*bool)
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		def := *value.(*int)
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		def := *value.(*float64)
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// applyDefaults fills unset tunables with their defaults. It runs before
// flag registration so environment variables and flags override the defaults,
// including with explicit zero values.
func (cfg *Config) applyDefaults() {
	setInt := func(field *int, def int) {
		if *field == 0 {
			*field = def
		}
	}
	setFloat := func(field *float64, def float64) {
		if *field == 0 {
			*field = def
		}
	}

	if cfg.Interval == "" {
		cfg.Interval = "1m"
	}
	if cfg.Evaluator == "" {
		cfg.Evaluator = "squeeze"
	}
	setInt(&cfg.TickSeconds, 30)
	setInt(&cfg.Leverage, 10)
	setFloat(&cfg.AllocationFraction, 0.3)
	setFloat(&cfg.StopLossFraction, 0.02)
	setInt(&cfg.TopMoversLimit, 60)
	setInt(&cfg.CandleCount, 200)
	setFloat(&cfg.SpreadCeiling, 0.0004)
	setInt(&cfg.VolatilityWindow, 30)
	setFloat(&cfg.MinVolatilityRatio, 1.0)
	setInt(&cfg.MaxStopRetries, 3)
	setFloat(&cfg.RSIEntryThreshold, 65)
	setFloat(&cfg.RSIHighThreshold, 70)
	setFloat(&cfg.RSILowThreshold, 60)
	setInt(&cfg.RSILookbackBars, 3)
	setInt(&cfg.CorrelationWindow, 10)
	setFloat(&cfg.CorrelationThreshold, 0.6)
	cfg.ConfirmTrend = true
	setInt(&cfg.TrendSmoothingSpan, 5)
	setInt(&cfg.DeclineBars, 3)
	setInt(&cfg.EMAShortSpan, 9)
	setInt(&cfg.EMAMidSpan, 21)
	setInt(&cfg.EMALongSpan, 50)
	setInt(&cfg.DMIWindow, 14)
	setInt(&cfg.RSIWindow, 14)
	setInt(&cfg.ATRWindow, 14)
	setInt(&cfg.BollingerWindow, 20)
	setFloat(&cfg.BollingerK, 2)
	setInt(&cfg.KeltnerWindow, 20)
	setFloat(&cfg.KeltnerMultiplier, 1.5)
	setInt(&cfg.VAHLookback, 60)
	setInt(&cfg.VAHBins, 24)
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg.applyDefaults()

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"binanceapikey", &cfg.BinanceAPIKey, "the binance api key"},
		{"binanceapisecret", &cfg.BinanceAPISecret, "the binance api secret"},
		{"interval", &cfg.Interval, "the candle interval"},
		{"tickseconds", &cfg.TickSeconds, "the pause between engine ticks in seconds"},
		{"evaluator", &cfg.Evaluator, "the active signal evaluator"},
		{"leverage", &cfg.Leverage, "the leverage applied to entries"},
		{"allocationfraction", &cfg.AllocationFraction, "the balance fraction allocated per position"},
		{"stoplossfraction", &cfg.StopLossFraction, "the fractional stop loss distance below entry"},
		{"takeprofits", &cfg.TakeProfits, "the atr multiples for take profit legs"},
		{"topmoverslimit", &cfg.TopMoversLimit, "the maximum candidates scanned per tick"},
		{"candlecount", &cfg.CandleCount, "the number of recent candles fetched per evaluation"},
		{"spreadceiling", &cfg.SpreadCeiling, "the maximum relative spread accepted for a candidate"},
		{"volatilitywindow", &cfg.VolatilityWindow, "the trailing window for the volatility filter"},
		{"minvolatilityratio", &cfg.MinVolatilityRatio, "the minimum accepted volatility ratio"},
		{"maxstopretries", &cfg.MaxStopRetries, "the stop loss placement retry bound"},
		{"rsientrythreshold", &cfg.RSIEntryThreshold, "the minimum rsi reading for a squeeze entry"},
		{"rsihighthreshold", &cfg.RSIHighThreshold, "the overbought rsi reading armed before an exit"},
		{"rsilowthreshold", &cfg.RSILowThreshold, "the rsi reading whose downward cross fires an exit"},
		{"rsilookbackbars", &cfg.RSILookbackBars, "the recent bars searched for an overbought reading"},
		{"correlationwindow", &cfg.CorrelationWindow, "the trailing window for trend confirmation"},
		{"correlationthreshold", &cfg.CorrelationThreshold, "the minimum spearman correlation for trend confirmation"},
		{"confirmtrend", &cfg.ConfirmTrend, "the volume trend confirmation flag"},
		{"trendsmoothingspan", &cfg.TrendSmoothingSpan, "the smoothing span for the volume trend accumulators"},
		{"declinebars", &cfg.DeclineBars, "the trailing window whose monotonic decline fires a trend exit"},
		{"emashortspan", &cfg.EMAShortSpan, "the short ema span"},
		{"emamidspan", &cfg.EMAMidSpan, "the medium ema span"},
		{"emalongspan", &cfg.EMALongSpan, "the long ema span"},
		{"dmiwindow", &cfg.DMIWindow, "the directional movement index window"},
		{"rsiwindow", &cfg.RSIWindow, "the relative strength index window"},
		{"atrwindow", &cfg.ATRWindow, "the average true range window"},
		{"bollingerwindow", &cfg.BollingerWindow, "the bollinger band window"},
		{"bollingerk", &cfg.BollingerK, "the bollinger standard deviation multiplier"},
		{"keltnerwindow", &cfg.KeltnerWindow, "the keltner channel window"},
		{"keltnermultiplier", &cfg.KeltnerMultiplier, "the keltner atr multiplier"},
		{"vahlookback", &cfg.VAHLookback, "the volume profile lookback window"},
		{"vahbins", &cfg.VAHBins, "the number of volume profile price buckets"},
		{"journalendpoint", &cfg.JournalEndpoint, "the trade journal database endpoint"},
		{"journaluser", &cfg.JournalUser, "the journal database user"},
		{"journalpass", &cfg.JournalPass, "the journal database user pass"},
		{"debug", &cfg.Debug, "the debug logging flag"},
	}

	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
