package shared

import "fmt"

// Column represents an indicator column aligned with the candles of a series.
// Every column has one value per candle; leading values produced before a
// rolling window fills are marked undefined rather than dropped.
type Column struct {
	Values  []float64
	Defined []bool
}

// NewColumn initializes an undefined column of the provided length.
func NewColumn(length int) Column {
	return Column{
		Values:  make([]float64, length),
		Defined: make([]bool, length),
	}
}

// Set records a defined value at the provided index.
func (c *Column) Set(idx int, value float64) {
	c.Values[idx] = value
	c.Defined[idx] = true
}

// At returns the value at the provided index and whether it is defined.
func (c *Column) At(idx int) (float64, bool) {
	if idx < 0 || idx >= len(c.Values) || !c.Defined[idx] {
		return 0, false
	}
	return c.Values[idx], true
}

// Last returns the most recent value of the column and whether it is defined.
func (c *Column) Last() (float64, bool) {
	return c.At(len(c.Values) - 1)
}

// DefinedFrom reports whether every value from the provided index to the end
// of the column is defined.
func (c *Column) DefinedFrom(idx int) bool {
	if idx < 0 || idx >= len(c.Defined) {
		return false
	}
	for i := idx; i < len(c.Defined); i++ {
		if !c.Defined[i] {
			return false
		}
	}
	return true
}

// Series represents an ordered sequence of candlesticks together with derived
// indicator columns keyed by name.
type Series struct {
	Symbol   string
	Interval Interval
	Candles  []Candlestick

	columns map[string]Column
}

// NewSeries initializes a series from the provided candlesticks. The
// candlesticks are expected to be ordered by strictly increasing open time.
func NewSeries(symbol string, interval Interval, candles []Candlestick) (*Series, error) {
	for idx := 1; idx < len(candles); idx++ {
		if !candles[idx].OpenTime.After(candles[idx-1].OpenTime) {
			return nil, fmt.Errorf("candlesticks for %s are not strictly ordered at index %d", symbol, idx)
		}
	}

	return &Series{
		Symbol:   symbol,
		Interval: interval,
		Candles:  candles,
		columns:  make(map[string]Column),
	}, nil
}

// Len returns the number of candlesticks in the series.
func (s *Series) Len() int {
	return len(s.Candles)
}

// AddColumn adds the provided indicator column to the series.
func (s *Series) AddColumn(name string, column Column) error {
	if len(column.Values) != len(s.Candles) || len(column.Defined) != len(s.Candles) {
		return fmt.Errorf("column %s length %d does not match series length %d",
			name, len(column.Values), len(s.Candles))
	}

	s.columns[name] = column
	return nil
}

// Column fetches the named indicator column from the series.
func (s *Series) Column(name string) (Column, bool) {
	col, ok := s.columns[name]
	return col, ok
}

// LastClose returns the close of the most recent candlestick.
func (s *Series) LastClose() (float64, bool) {
	if len(s.Candles) == 0 {
		return 0, false
	}
	return s.Candles[len(s.Candles)-1].Close, true
}
