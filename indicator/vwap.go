package indicator

import (
	"fmt"
	"time"

	"github.com/araseong/altcoin-scalp-bot/shared"
	"go.uber.org/atomic"
)

// VWAP represents a unit volume weighted average price entry for a symbol.
type VWAP struct {
	Value float64
	Date  time.Time
}

// VWAPGenerator accumulates the volume weighted average price for a symbol.
type VWAPGenerator struct {
	TypicalPriceVolume atomic.Float64
	Volume             atomic.Float64
	Current            atomic.Pointer[VWAP]
	Symbol             string
	Interval           shared.Interval
}

// NewVWAPGenerator initializes a VWAP generator for the provided symbol and
// interval.
func NewVWAPGenerator(symbol string, interval shared.Interval) *VWAPGenerator {
	return &VWAPGenerator{
		Symbol:   symbol,
		Interval: interval,
	}
}

// Update cumulatively updates the generator with the provided candlestick.
func (v *VWAPGenerator) Update(candle *shared.Candlestick) (*VWAP, error) {
	if candle.Interval != v.Interval {
		return nil, fmt.Errorf("expected candles with interval %s, got %s",
			v.Interval.String(), candle.Interval.String())
	}

	v.TypicalPriceVolume.Add(candle.TypicalPrice() * candle.Volume)
	v.Volume.Add(candle.Volume)

	vwap := &VWAP{
		Date: candle.OpenTime,
	}

	if v.Volume.Load() == 0 {
		return vwap, nil
	}

	vwap.Value = v.TypicalPriceVolume.Load() / v.Volume.Load()
	v.Current.Store(vwap)

	return vwap, nil
}

// Reset resets the generator for a new accumulation window.
func (v *VWAPGenerator) Reset() {
	v.TypicalPriceVolume.Store(0)
	v.Volume.Store(0)
}

// vwapColumn computes the cumulative volume weighted average price column for
// the provided candles. Entries remain undefined until traded volume has
// accumulated.
func vwapColumn(candles []shared.Candlestick) shared.Column {
	column := shared.NewColumn(len(candles))
	if len(candles) == 0 {
		return column
	}

	generator := NewVWAPGenerator(candles[0].Symbol, candles[0].Interval)
	for idx := range candles {
		vwap, err := generator.Update(&candles[idx])
		if err != nil {
			continue
		}
		if generator.Volume.Load() == 0 {
			continue
		}
		column.Set(idx, vwap.Value)
	}

	return column
}
