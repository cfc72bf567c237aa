package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the binance USDT-M futures REST endpoint.
	BaseURL = "https://fapi.binance.com"

	klinesPath       = "/fapi/v1/klines"
	ticker24hPath    = "/fapi/v1/ticker/24hr"
	bookTickerPath   = "/fapi/v1/ticker/bookTicker"
	exchangeInfoPath = "/fapi/v1/exchangeInfo"
	orderPath        = "/fapi/v1/order"
	leveragePath     = "/fapi/v1/leverage"
	balancePath      = "/fapi/v2/balance"
	positionRiskPath = "/fapi/v2/positionRisk"
)

// Config represents the configuration for the binance futures client.
type Config struct {
	// APIKey is the binance API key.
	APIKey string
	// APISecret is the binance API secret.
	APISecret string
	// BaseURL is the REST endpoint, overridable for tests.
	BaseURL string
	// RecvWindow is the request validity window in milliseconds.
	RecvWindow int
}

// Client represents the binance USDT-M futures client. It implements both
// the market data and execution ports. The tradable universe and instrument
// constraints are loaded once and held for the life of the run.
type Client struct {
	cfg   *Config
	httpc http.Client
	meta  map[string]*shared.InstrumentMeta
}

// Ensure the client implements the market data and execution ports.
var _ shared.MarketData = (*Client)(nil)
var _ shared.Execution = (*Client)(nil)

// NewClient instantiates a new binance futures client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("binance api credentials cannot be empty strings")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}

	return &Client{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
	}, nil
}

// sign generates the hex encoded HMAC-SHA256 signature for the provided
// query string.
func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.APISecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// request performs an api request, signing it when required, and returns the
// parsed response body.
func (c *Client) request(ctx context.Context, method string, path string, params url.Values, signed bool) (gjson.Result, error) {
	if params == nil {
		params = url.Values{}
	}
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", strconv.Itoa(c.cfg.RecvWindow))
		params.Set("signature", c.sign(params.Encode()))
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "building request")
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrapf(err, "requesting %s", path)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "reading response body")
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, errors.Errorf("%s returned http %d: code=%s msg=%s",
			path, resp.StatusCode, gjson.GetBytes(body, "code").String(),
			gjson.GetBytes(body, "msg").String())
	}

	return gjson.ParseBytes(body), nil
}

// loadExchangeInfo loads the tradable universe and instrument constraints:
// live USDT quoted perpetuals, stablecoin suffixed symbols excluded.
func (c *Client) loadExchangeInfo(ctx context.Context) error {
	if c.meta != nil {
		return nil
	}

	data, err := c.request(ctx, http.MethodGet, exchangeInfoPath, nil, false)
	if err != nil {
		return fmt.Errorf("fetching exchange info: %w", err)
	}

	meta := make(map[string]*shared.InstrumentMeta)
	for _, sym := range data.Get("symbols").Array() {
		if sym.Get("contractType").String() != "PERPETUAL" ||
			sym.Get("status").String() != "TRADING" ||
			sym.Get("quoteAsset").String() != "USDT" ||
			strings.HasSuffix(sym.Get("symbol").String(), "USDC") {
			continue
		}

		var priceTick, quantityStep float64
		for _, filter := range sym.Get("filters").Array() {
			switch filter.Get("filterType").String() {
			case "PRICE_FILTER":
				priceTick = filter.Get("tickSize").Float()
			case "LOT_SIZE":
				quantityStep = filter.Get("stepSize").Float()
			}
		}
		if priceTick <= 0 || quantityStep <= 0 {
			continue
		}

		symbol := sym.Get("symbol").String()
		meta[symbol] = &shared.InstrumentMeta{
			Symbol:       symbol,
			PriceTick:    priceTick,
			QuantityStep: quantityStep,
		}
	}

	c.meta = meta
	return nil
}

// ParseCandlesticks parses candlesticks from the provided kline payload.
func ParseCandlesticks(data []gjson.Result, symbol string, interval shared.Interval) []shared.Candlestick {
	candles := make([]shared.Candlestick, 0, len(data))
	for idx := range data {
		fields := data[idx].Array()
		if len(fields) < 6 {
			continue
		}

		candles = append(candles, shared.Candlestick{
			OpenTime: time.UnixMilli(fields[0].Int()).UTC(),
			Open:     fields[1].Float(),
			High:     fields[2].Float(),
			Low:      fields[3].Float(),
			Close:    fields[4].Float(),
			Volume:   fields[5].Float(),
			Symbol:   symbol,
			Interval: interval,
		})
	}

	return candles
}

// RecentCandles fetches the most recent candlesticks for the provided symbol.
func (c *Client) RecentCandles(ctx context.Context, symbol string, interval shared.Interval, count int) ([]shared.Candlestick, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval.String())
	params.Set("limit", strconv.Itoa(count))

	data, err := c.request(ctx, http.MethodGet, klinesPath, params, false)
	if err != nil {
		return nil, fmt.Errorf("fetching klines for %s: %w", symbol, err)
	}

	candles := ParseCandlesticks(data.Array(), symbol, interval)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s klines: %w", symbol, shared.ErrDataUnavailable)
	}

	return candles, nil
}

// TopMovers fetches tradable symbols ordered by descending 24h percentage change.
func (c *Client) TopMovers(ctx context.Context, limit int) ([]string, error) {
	err := c.loadExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	data, err := c.request(ctx, http.MethodGet, ticker24hPath, nil, false)
	if err != nil {
		return nil, fmt.Errorf("fetching 24h tickers: %w", err)
	}

	type mover struct {
		symbol string
		change float64
	}

	movers := make([]mover, 0, len(c.meta))
	for _, ticker := range data.Array() {
		symbol := ticker.Get("symbol").String()
		if _, ok := c.meta[symbol]; !ok {
			continue
		}
		movers = append(movers, mover{
			symbol: symbol,
			change: ticker.Get("priceChangePercent").Float(),
		})
	}

	sort.SliceStable(movers, func(a, b int) bool {
		return movers[a].change > movers[b].change
	})

	if limit > 0 && limit < len(movers) {
		movers = movers[:limit]
	}

	symbols := make([]string, 0, len(movers))
	for idx := range movers {
		symbols = append(symbols, movers[idx].symbol)
	}

	return symbols, nil
}

// Spread fetches the current best bid and ask for the provided symbol.
func (c *Client) Spread(ctx context.Context, symbol string) (float64, float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.request(ctx, http.MethodGet, bookTickerPath, params, false)
	if err != nil {
		return 0, 0, fmt.Errorf("fetching book ticker for %s: %w", symbol, err)
	}

	return data.Get("bidPrice").Float(), data.Get("askPrice").Float(), nil
}

// InstrumentMeta fetches the exchange constraints for the provided symbol.
func (c *Client) InstrumentMeta(ctx context.Context, symbol string) (*shared.InstrumentMeta, error) {
	err := c.loadExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	meta, ok := c.meta[symbol]
	if !ok {
		return nil, fmt.Errorf("no instrument meta for %s", symbol)
	}

	return meta, nil
}

// formatQuantity formats quantities and prices for order parameters.
func formatQuantity(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// submitOrder submits an order with the provided parameters and returns the
// created order id.
func (c *Client) submitOrder(ctx context.Context, op string, symbol string, params url.Values) (string, error) {
	data, err := c.request(ctx, http.MethodPost, orderPath, params, true)
	if err != nil {
		return "", shared.NewExchangeError(symbol, op, err)
	}

	return data.Get("orderId").String(), nil
}

// MarketBuy submits a market buy order.
func (c *Client) MarketBuy(ctx context.Context, symbol string, quantity float64) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(shared.Buy))
	params.Set("type", "MARKET")
	params.Set("quantity", formatQuantity(quantity))

	return c.submitOrder(ctx, "market buy", symbol, params)
}

// MarketSell submits a market sell order.
func (c *Client) MarketSell(ctx context.Context, symbol string, quantity float64) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(shared.Sell))
	params.Set("type", "MARKET")
	params.Set("quantity", formatQuantity(quantity))

	return c.submitOrder(ctx, "market sell", symbol, params)
}

// StopMarket submits a stop market order at the provided stop price.
func (c *Client) StopMarket(ctx context.Context, symbol string, side shared.OrderSide, quantity float64, stopPrice float64) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "STOP_MARKET")
	params.Set("quantity", formatQuantity(quantity))
	params.Set("stopPrice", formatQuantity(stopPrice))
	params.Set("workingType", "CONTRACT_PRICE")

	return c.submitOrder(ctx, "stop market", symbol, params)
}

// LimitOrder submits a good till cancelled limit order at the provided price.
func (c *Client) LimitOrder(ctx context.Context, symbol string, side shared.OrderSide, quantity float64, price float64) (string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", string(side))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", formatQuantity(quantity))
	params.Set("price", formatQuantity(price))

	return c.submitOrder(ctx, "limit order", symbol, params)
}

// CancelOrder cancels the provided order.
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	_, err := c.request(ctx, http.MethodDelete, orderPath, params, true)
	if err != nil {
		return shared.NewExchangeError(symbol, "cancel order", err)
	}

	return nil
}

// SetLeverage sets the leverage for the provided symbol.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("leverage", strconv.Itoa(leverage))

	_, err := c.request(ctx, http.MethodPost, leveragePath, params, true)
	if err != nil {
		return shared.NewExchangeError(symbol, "set leverage", err)
	}

	return nil
}

// AccountBalance fetches the available USDT balance of the futures account.
func (c *Client) AccountBalance(ctx context.Context) (float64, error) {
	data, err := c.request(ctx, http.MethodGet, balancePath, nil, true)
	if err != nil {
		return 0, shared.NewExchangeError("", "account balance", err)
	}

	for _, asset := range data.Array() {
		if asset.Get("asset").String() == "USDT" {
			return asset.Get("availableBalance").Float(), nil
		}
	}

	return 0, shared.NewExchangeError("", "account balance", errors.New("no USDT balance entry"))
}

// PositionSize fetches the signed live position size for the provided
// symbol, zero when flat.
func (c *Client) PositionSize(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	data, err := c.request(ctx, http.MethodGet, positionRiskPath, params, true)
	if err != nil {
		return 0, shared.NewExchangeError(symbol, "position size", err)
	}

	var size float64
	for _, pos := range data.Array() {
		if pos.Get("symbol").String() == symbol {
			size += pos.Get("positionAmt").Float()
		}
	}

	return size, nil
}
