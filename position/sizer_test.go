package position

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestSize(t *testing.T) {
	// Ensure a cleanly divisible target notional sizes exactly.
	// 1000 x 0.3 x 10 = 3000 notional at price 50 is 60 units.
	quantity, err := Size(1000, 0.3, 10, 50, 0.01)
	assert.NoError(t, err)
	assert.True(t, math.Abs(quantity-60) < 1e-9)
	assert.True(t, quantity*50 >= 0.97*3000)

	// Ensure a truncation that drops below the minimum notional share is
	// stepped back up. 100 notional at price 35 floors to 2 units worth 70,
	// one step up realizes 105.
	quantity, err = Size(100, 1, 1, 35, 1)
	assert.NoError(t, err)
	assert.Equal(t, float64(3), quantity)

	// Ensure the quantity never drops below one step, even when a single
	// step exceeds the target notional.
	quantity, err = Size(1, 1, 1, 50, 1)
	assert.NoError(t, err)
	assert.Equal(t, float64(1), quantity)

	// Ensure a non-positive target notional sizes to zero, meaning skip.
	quantity, err = Size(0, 0.3, 10, 50, 0.01)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), quantity)

	quantity, err = Size(-100, 0.3, 10, 50, 0.01)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), quantity)
}

func TestSizeInvalidInputs(t *testing.T) {
	_, err := Size(1000, 0.3, 10, 0, 0.01)
	assert.Error(t, err)

	_, err = Size(1000, 0.3, 10, 50, 0)
	assert.Error(t, err)
}

func TestSizeStepStability(t *testing.T) {
	// Ensure an exact step multiple is not dropped a step by float
	// representation error.
	quantity, err := Size(30, 1, 1, 100, 0.1)
	assert.NoError(t, err)
	assert.True(t, math.Abs(quantity-0.3) < 1e-9)
}
