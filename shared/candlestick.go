package shared

import "time"

// Interval represents the market data time period.
type Interval int

const (
	OneMinute Interval = iota
	FiveMinute
	FifteenMinute
)

// String stringifies the provided interval.
func (i *Interval) String() string {
	switch *i {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	default:
		return "unknown"
	}
}

// ParseInterval parses an interval from its string form.
func ParseInterval(v string) (Interval, bool) {
	switch v {
	case "1m":
		return OneMinute, true
	case "5m":
		return FiveMinute, true
	case "15m":
		return FifteenMinute, true
	default:
		return OneMinute, false
	}
}

// Candlestick represents a unit candlestick for a market. Candlesticks are
// immutable once received.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	Symbol   string
	Interval Interval
	OpenTime time.Time
}

// TypicalPrice returns the typical price of the candlestick.
func (c *Candlestick) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// TrueRange returns the true range of the candlestick relative to the
// provided previous close.
func (c *Candlestick) TrueRange(prevClose float64) float64 {
	tr := c.High - c.Low
	if hc := abs(c.High - prevClose); hc > tr {
		tr = hc
	}
	if lc := abs(c.Low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
