package shared

import "math"

// roundingEpsilon guards truncation against float representation error for
// values that are already exact multiples of their increment.
const roundingEpsilon = 1e-9

// InstrumentMeta represents the exchange constraints for an instrument.
// It is immutable for the life of a run and refreshed only at process start.
type InstrumentMeta struct {
	// Symbol is the instrument symbol.
	Symbol string
	// PriceTick is the smallest valid price increment.
	PriceTick float64
	// QuantityStep is the smallest tradable quantity increment.
	QuantityStep float64
}

// RoundPrice rounds the provided price down to the instrument's price tick.
func (m *InstrumentMeta) RoundPrice(price float64) (float64, error) {
	return roundToIncrement(m.Symbol, "price", price, m.PriceTick)
}

// RoundQuantity truncates the provided quantity to the instrument's
// quantity step.
func (m *InstrumentMeta) RoundQuantity(quantity float64) (float64, error) {
	return roundToIncrement(m.Symbol, "quantity", quantity, m.QuantityStep)
}

// roundToIncrement truncates the provided value to the nearest lower multiple
// of the provided increment. Rounding an already valid value returns it
// unchanged.
func roundToIncrement(symbol string, field string, value float64, increment float64) (float64, error) {
	if increment <= 0 || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, &PrecisionError{
			Symbol:    symbol,
			Field:     field,
			Value:     value,
			Increment: increment,
		}
	}

	steps := math.Floor(value/increment + roundingEpsilon)
	return steps * increment, nil
}
