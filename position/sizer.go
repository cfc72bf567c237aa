package position

import (
	"fmt"
	"math"
)

const (
	// minNotionalShare is the minimum share of target notional a sized
	// quantity must realize.
	minNotionalShare = 0.97
	// maxStepAdjustments bounds the upward step adjustment loop.
	maxStepAdjustments = 1000
	// sizingEpsilon guards truncation against float representation error.
	sizingEpsilon = 1e-9
)

// Size converts a target notional into an exchange valid quantity. The
// target notional is balance x allocation fraction x leverage, divided by
// price and truncated to the nearest multiple of the quantity step. If
// truncation drops the realized notional below the minimum share of target,
// the quantity is incremented one step at a time until the share is met. A
// quantity step that alone exceeds the target notional is returned as the
// floor. The returned quantity is zero only when the target notional is not
// positive, which callers must treat as skip, do not trade.
func Size(balance float64, allocationFraction float64, leverage int, price float64, quantityStep float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("sizing price must be positive, got %f", price)
	}
	if quantityStep <= 0 {
		return 0, fmt.Errorf("sizing quantity step must be positive, got %f", quantityStep)
	}

	targetNotional := balance * allocationFraction * float64(leverage)
	if targetNotional <= 0 {
		return 0, nil
	}

	steps := math.Floor(targetNotional/price/quantityStep + sizingEpsilon)
	if steps < 1 {
		steps = 1
	}

	quantity := steps * quantityStep
	for i := 0; i < maxStepAdjustments; i++ {
		if quantity*price >= minNotionalShare*targetNotional {
			break
		}
		steps++
		quantity = steps * quantityStep
	}

	return quantity, nil
}
