package indicator

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestMean(t *testing.T) {
	mean, ok := Mean([]float64{1, 2, 3})
	assert.True(t, ok)
	assert.Equal(t, float64(2), mean)

	// Ensure empty input reports undefined instead of NaN.
	_, ok = Mean(nil)
	assert.False(t, ok)
}

func TestStdDev(t *testing.T) {
	stddev, ok := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.True(t, ok)
	assert.Equal(t, float64(2), stddev)

	// Ensure a constant sequence has zero deviation.
	stddev, ok = StdDev([]float64{5, 5, 5})
	assert.True(t, ok)
	assert.Equal(t, float64(0), stddev)

	_, ok = StdDev(nil)
	assert.False(t, ok)
}

func TestSlope(t *testing.T) {
	slope, ok := Slope([]float64{1, 3, 5, 7})
	assert.True(t, ok)
	assert.Equal(t, float64(2), slope)

	slope, ok = Slope([]float64{4, 4, 4})
	assert.True(t, ok)
	assert.Equal(t, float64(0), slope)

	// Ensure fewer than two points report undefined.
	_, ok = Slope([]float64{4})
	assert.False(t, ok)
}

func TestSpearmanRank(t *testing.T) {
	// Ensure a perfect monotone relation correlates fully regardless of
	// the marginal shapes.
	rho, ok := SpearmanRank([]float64{1, 2, 3, 4}, []float64{10, 100, 1000, 10000})
	assert.True(t, ok)
	assert.True(t, math.Abs(rho-1) < 1e-9)

	// Ensure a reversed relation correlates fully negative.
	rho, ok = SpearmanRank([]float64{1, 2, 3, 4}, []float64{9, 7, 5, 3})
	assert.True(t, ok)
	assert.True(t, math.Abs(rho+1) < 1e-9)

	// Ensure ties are rank averaged rather than order dependent.
	rho, ok = SpearmanRank([]float64{1, 2, 2, 3}, []float64{10, 20, 20, 30})
	assert.True(t, ok)
	assert.True(t, math.Abs(rho-1) < 1e-9)

	// Ensure degenerate input reports undefined.
	_, ok = SpearmanRank([]float64{1, 2}, []float64{1, 2, 3})
	assert.False(t, ok)
	_, ok = SpearmanRank([]float64{1}, []float64{1})
	assert.False(t, ok)
	_, ok = SpearmanRank([]float64{5, 5, 5}, []float64{1, 2, 3})
	assert.False(t, ok)
}

func TestRanks(t *testing.T) {
	assert.Equal(t, []float64{3, 1, 4, 2}, ranks([]float64{30, 10, 40, 20}))

	// Tied values share the average of their positional ranks.
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks([]float64{1, 5, 5, 9}))
}
