package indicator

import (
	"testing"

	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/peterldowns/testy/assert"
)

func TestVWAPGenerator(t *testing.T) {
	// Ensure a vwap generator can be created.
	symbol := "SOLUSDT"
	interval := shared.OneMinute
	generator := NewVWAPGenerator(symbol, interval)

	// Ensure the generator rejects candles of another interval.
	ignoredCandle := &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(2),

		Symbol:   symbol,
		Interval: shared.FiveMinute,
	}

	_, err := generator.Update(ignoredCandle)
	assert.Error(t, err)

	// Ensure vwap can be zero before volume accumulates.
	candle := &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(0),

		Symbol:   symbol,
		Interval: interval,
	}

	vwap, err := generator.Update(candle)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), vwap.Value)

	// Ensure vwap tracks the typical price once volume accumulates.
	candle = &shared.Candlestick{
		Open:   float64(5),
		Close:  float64(8),
		High:   float64(9),
		Low:    float64(3),
		Volume: float64(2),

		Symbol:   symbol,
		Interval: interval,
	}

	vwap, err = generator.Update(candle)
	assert.NoError(t, err)
	assert.Equal(t, candle.TypicalPrice(), vwap.Value)
	assert.NotNil(t, generator.Current.Load())

	// Ensure the generator can be reset for a new accumulation window.
	generator.Reset()
	assert.Equal(t, float64(0), generator.Volume.Load())
	assert.Equal(t, float64(0), generator.TypicalPriceVolume.Load())
}
