package shared

import "context"

// OrderSide represents the side of an order.
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// MarketData defines the requirements for fetching futures market data.
type MarketData interface {
	// RecentCandles fetches the most recent candlesticks for the provided
	// symbol. It fails with ErrDataUnavailable when the exchange returns
	// no data.
	RecentCandles(ctx context.Context, symbol string, interval Interval, count int) ([]Candlestick, error)
	// TopMovers fetches tradable symbols ordered by descending 24h
	// percentage change.
	TopMovers(ctx context.Context, limit int) ([]string, error)
	// Spread fetches the current best bid and ask for the provided symbol.
	Spread(ctx context.Context, symbol string) (bid float64, ask float64, err error)
	// InstrumentMeta fetches the exchange constraints for the provided symbol.
	InstrumentMeta(ctx context.Context, symbol string) (*InstrumentMeta, error)
}

// Execution defines the requirements for executing orders and querying
// account state. Every call fails with an ExchangeError on rejection, no
// retry policy is assumed to live behind the interface.
type Execution interface {
	// MarketBuy submits a market buy order.
	MarketBuy(ctx context.Context, symbol string, quantity float64) (orderID string, err error)
	// MarketSell submits a market sell order.
	MarketSell(ctx context.Context, symbol string, quantity float64) (orderID string, err error)
	// StopMarket submits a stop market order at the provided stop price.
	StopMarket(ctx context.Context, symbol string, side OrderSide, quantity float64, stopPrice float64) (orderID string, err error)
	// LimitOrder submits a limit order at the provided price.
	LimitOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, price float64) (orderID string, err error)
	// CancelOrder cancels the provided order.
	CancelOrder(ctx context.Context, symbol string, orderID string) error
	// SetLeverage sets the leverage for the provided symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// AccountBalance fetches the available quote currency balance.
	AccountBalance(ctx context.Context) (float64, error)
	// PositionSize fetches the signed live position size for the provided
	// symbol, zero when flat.
	PositionSize(ctx context.Context, symbol string) (float64, error)
}
