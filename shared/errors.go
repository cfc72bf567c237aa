package shared

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable indicates a market data call returned nothing usable.
// Callers skip the affected candidate or tick, it is never fatal.
var ErrDataUnavailable = errors.New("market data unavailable")

// ExchangeError represents a rejected order or account call. Entry path
// failures abort the candidate, monitor path failures defer to the next tick.
type ExchangeError struct {
	// Symbol is the instrument symbol of the failed call.
	Symbol string
	// Op is the exchange operation that failed.
	Op string
	// Cause is the underlying failure.
	Cause error
}

// Error satisfies the error interface.
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("exchange %s failed for %s: %v", e.Op, e.Symbol, e.Cause)
}

// Unwrap returns the underlying failure.
func (e *ExchangeError) Unwrap() error {
	return e.Cause
}

// NewExchangeError initializes a new exchange error.
func NewExchangeError(symbol string, op string, cause error) *ExchangeError {
	return &ExchangeError{
		Symbol: symbol,
		Op:     op,
		Cause:  cause,
	}
}

// PrecisionError represents a quantity or price that failed to round to a
// valid increment. It indicates a configuration or metadata bug, the value
// must never be submitted to the exchange.
type PrecisionError struct {
	Symbol    string
	Field     string
	Value     float64
	Increment float64
}

// Error satisfies the error interface.
func (e *PrecisionError) Error() string {
	return fmt.Sprintf("cannot round %s %s %f to increment %f",
		e.Symbol, e.Field, e.Value, e.Increment)
}
