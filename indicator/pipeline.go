package indicator

import (
	"errors"
	"fmt"

	"github.com/araseong/altcoin-scalp-bot/shared"
)

// Indicator column names added to a series by the pipeline.
const (
	ColEMAShort       = "ema_short"
	ColEMAMid         = "ema_mid"
	ColEMALong        = "ema_long"
	ColVWAP           = "vwap"
	ColPlusDI         = "plus_di"
	ColMinusDI        = "minus_di"
	ColRSI            = "rsi"
	ColOBV            = "obv"
	ColAccDist        = "acc_dist"
	ColATR            = "atr"
	ColBollingerUpper = "bb_upper"
	ColBollingerLower = "bb_lower"
	ColKeltnerUpper   = "kc_upper"
	ColKeltnerLower   = "kc_lower"
	ColSqueeze        = "squeeze"
	ColSqueezeRelease = "squeeze_release"
	ColVAH            = "vah"
)

// Config represents the indicator pipeline configuration.
type Config struct {
	// EMAShortSpan is the span of the short exponential moving average.
	EMAShortSpan int
	// EMAMidSpan is the span of the medium exponential moving average.
	EMAMidSpan int
	// EMALongSpan is the span of the long exponential moving average.
	EMALongSpan int
	// DMIWindow is the Wilder smoothing window for the directional movement index.
	DMIWindow int
	// RSIWindow is the Wilder smoothing window for the relative strength index.
	RSIWindow int
	// ATRWindow is the Wilder smoothing window for the average true range.
	ATRWindow int
	// BollingerWindow is the rolling window for the Bollinger bands.
	BollingerWindow int
	// BollingerK is the standard deviation multiplier for the Bollinger bands.
	BollingerK float64
	// KeltnerWindow is the rolling window for the Keltner channel.
	KeltnerWindow int
	// KeltnerMultiplier is the ATR multiplier for the Keltner channel.
	KeltnerMultiplier float64
	// VAHLookback is the number of trailing bars used for the volume profile.
	VAHLookback int
	// VAHBins is the number of equal width price buckets for the volume profile.
	VAHBins int
}

// DefaultConfig returns the default indicator pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		EMAShortSpan:      9,
		EMAMidSpan:        21,
		EMALongSpan:       50,
		DMIWindow:         14,
		RSIWindow:         14,
		ATRWindow:         14,
		BollingerWindow:   20,
		BollingerK:        2,
		KeltnerWindow:     20,
		KeltnerMultiplier: 1.5,
		VAHLookback:       60,
		VAHBins:           24,
	}
}

// Validate asserts the config has sane inputs.
func (c *Config) Validate() error {
	var errs error

	if c.EMAShortSpan <= 0 || c.EMAMidSpan <= 0 || c.EMALongSpan <= 0 {
		errs = errors.Join(errs, fmt.Errorf("ema spans must be positive"))
	}
	if c.EMAShortSpan >= c.EMAMidSpan || c.EMAMidSpan >= c.EMALongSpan {
		errs = errors.Join(errs, fmt.Errorf("ema spans must be strictly increasing"))
	}
	if c.DMIWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("dmi window must be positive"))
	}
	if c.RSIWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("rsi window must be positive"))
	}
	if c.ATRWindow <= 0 {
		errs = errors.Join(errs, fmt.Errorf("atr window must be positive"))
	}
	if c.BollingerWindow <= 0 || c.BollingerK <= 0 {
		errs = errors.Join(errs, fmt.Errorf("bollinger window and multiplier must be positive"))
	}
	if c.KeltnerWindow <= 0 || c.KeltnerMultiplier <= 0 {
		errs = errors.Join(errs, fmt.Errorf("keltner window and multiplier must be positive"))
	}
	if c.VAHLookback <= 0 || c.VAHBins <= 0 {
		errs = errors.Join(errs, fmt.Errorf("volume profile lookback and bins must be positive"))
	}

	return errs
}

// MinBars returns the minimum series length required for every column of the
// pipeline to carry at least two defined values on its most recent bars.
func (c *Config) MinBars() int {
	largest := c.EMALongSpan
	for _, w := range []int{c.DMIWindow + 1, c.RSIWindow + 1, c.ATRWindow + 1,
		c.BollingerWindow, c.KeltnerWindow, c.VAHLookback} {
		if w > largest {
			largest = w
		}
	}

	// One extra bar so transition events (squeeze release) can be evaluated.
	return largest + 1
}

// Enrich derives the configured indicator columns for the provided series.
// It is deterministic and free of side effects beyond the added columns.
// Rolling values over fewer bars than their window are left undefined.
func Enrich(series *shared.Series, cfg *Config) error {
	if series == nil {
		return fmt.Errorf("series cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating indicator config: %w", err)
	}

	closes := make([]float64, series.Len())
	for idx := range series.Candles {
		closes[idx] = series.Candles[idx].Close
	}

	columns := map[string]shared.Column{
		ColEMAShort: emaColumn(closes, cfg.EMAShortSpan),
		ColEMAMid:   emaColumn(closes, cfg.EMAMidSpan),
		ColEMALong:  emaColumn(closes, cfg.EMALongSpan),
		ColVWAP:     vwapColumn(series.Candles),
		ColRSI:      rsiColumn(closes, cfg.RSIWindow),
		ColOBV:      obvColumn(series.Candles),
		ColAccDist:  accDistColumn(series.Candles),
		ColATR:      atrColumn(series.Candles, cfg.ATRWindow),
		ColVAH:      vahColumn(series.Candles, cfg.VAHLookback, cfg.VAHBins),
	}

	plusDI, minusDI := dmiColumns(series.Candles, cfg.DMIWindow)
	columns[ColPlusDI] = plusDI
	columns[ColMinusDI] = minusDI

	bbUpper, bbLower := bollingerColumns(closes, cfg.BollingerWindow, cfg.BollingerK)
	columns[ColBollingerUpper] = bbUpper
	columns[ColBollingerLower] = bbLower

	kcUpper, kcLower := keltnerColumns(closes, columns[ColATR], cfg.KeltnerWindow, cfg.KeltnerMultiplier)
	columns[ColKeltnerUpper] = kcUpper
	columns[ColKeltnerLower] = kcLower

	squeeze, release := squeezeColumns(bbUpper, bbLower, kcUpper, kcLower)
	columns[ColSqueeze] = squeeze
	columns[ColSqueezeRelease] = release

	for name, column := range columns {
		if err := series.AddColumn(name, column); err != nil {
			return fmt.Errorf("adding %s column: %w", name, err)
		}
	}

	return nil
}
