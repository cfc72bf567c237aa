package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestNewClient(t *testing.T) {
	// Ensure the client requires credentials.
	_, err := NewClient(&Config{})
	assert.Error(t, err)

	// Ensure defaults are applied.
	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret"})
	assert.NoError(t, err)
	assert.Equal(t, BaseURL, client.cfg.BaseURL)
	assert.Equal(t, 5000, client.cfg.RecvWindow)
}

func TestSign(t *testing.T) {
	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret"})
	assert.NoError(t, err)

	// Ensure signatures are deterministic hex encoded HMAC-SHA256 digests.
	first := client.sign("symbol=SOLUSDT&timestamp=1")
	second := client.sign("symbol=SOLUSDT&timestamp=1")
	assert.Equal(t, first, second)
	assert.Equal(t, 64, len(first))
	assert.NotEqual(t, first, client.sign("symbol=SOLUSDT&timestamp=2"))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "4.6", formatQuantity(4.6))
	assert.Equal(t, "127.4", formatQuantity(127.4))
	assert.Equal(t, "60", formatQuantity(60))
}

func TestParseCandlesticks(t *testing.T) {
	payload := `[
		[1709280000000,"100.1","102.5","99.8","101.2","3500.7",1709280059999,"0","0","0","0","0"],
		[1709280060000,"101.2","103.0","100.9","102.8","2100.3",1709280119999,"0","0","0","0","0"]
	]`

	candles := ParseCandlesticks(gjson.Parse(payload).Array(), "SOLUSDT", shared.OneMinute)
	assert.Equal(t, 2, len(candles))

	want := shared.Candlestick{
		Open:     100.1,
		High:     102.5,
		Low:      99.8,
		Close:    101.2,
		Volume:   3500.7,
		Symbol:   "SOLUSDT",
		Interval: shared.OneMinute,
		OpenTime: time.UnixMilli(1709280000000).UTC(),
	}
	if !cmp.Equal(want, candles[0]) {
		t.Errorf("mismatching candlestick: %v", cmp.Diff(want, candles[0]))
	}
	assert.True(t, candles[1].OpenTime.After(candles[0].OpenTime))

	// Ensure truncated rows are skipped rather than parsed as zeros.
	truncated := `[[1709280000000,"100.1"]]`
	candles = ParseCandlesticks(gjson.Parse(truncated).Array(), "SOLUSDT", shared.OneMinute)
	assert.Equal(t, 0, len(candles))
}

// exchangeInfoPayload declares two live USDT perpetuals, a delisted symbol
// and a USDC quoted symbol.
const exchangeInfoPayload = `{"symbols":[
	{"symbol":"SOLUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT",
	 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.010"},{"filterType":"LOT_SIZE","stepSize":"0.1"}]},
	{"symbol":"AVAXUSDT","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDT",
	 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.001"},{"filterType":"LOT_SIZE","stepSize":"1"}]},
	{"symbol":"OLDUSDT","contractType":"PERPETUAL","status":"SETTLING","quoteAsset":"USDT",
	 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.01"},{"filterType":"LOT_SIZE","stepSize":"1"}]},
	{"symbol":"SOLUSDC","contractType":"PERPETUAL","status":"TRADING","quoteAsset":"USDC",
	 "filters":[{"filterType":"PRICE_FILTER","tickSize":"0.01"},{"filterType":"LOT_SIZE","stepSize":"1"}]}
]}`

// testServer serves canned binance responses keyed by path.
func testServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestTopMovers(t *testing.T) {
	server := testServer(t, map[string]string{
		exchangeInfoPath: exchangeInfoPayload,
		ticker24hPath: `[
			{"symbol":"AVAXUSDT","priceChangePercent":"3.2"},
			{"symbol":"SOLUSDT","priceChangePercent":"8.5"},
			{"symbol":"SOLUSDC","priceChangePercent":"90.0"},
			{"symbol":"BADUSDT","priceChangePercent":"50.0"}
		]`,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	// Ensure movers are restricted to the tradable universe and ordered by
	// descending change.
	movers, err := client.TopMovers(context.Background(), 10)
	assert.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT", "AVAXUSDT"}, movers)

	// Ensure the limit caps the result.
	movers, err = client.TopMovers(context.Background(), 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT"}, movers)
}

func TestInstrumentMeta(t *testing.T) {
	server := testServer(t, map[string]string{
		exchangeInfoPath: exchangeInfoPayload,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	meta, err := client.InstrumentMeta(context.Background(), "SOLUSDT")
	assert.NoError(t, err)
	assert.Equal(t, 0.01, meta.PriceTick)
	assert.Equal(t, 0.1, meta.QuantityStep)

	// Ensure symbols outside the universe are rejected.
	_, err = client.InstrumentMeta(context.Background(), "SOLUSDC")
	assert.Error(t, err)
	_, err = client.InstrumentMeta(context.Background(), "OLDUSDT")
	assert.Error(t, err)
}

func TestRecentCandles(t *testing.T) {
	server := testServer(t, map[string]string{
		klinesPath: `[[1709280000000,"100.1","102.5","99.8","101.2","3500.7"]]`,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	candles, err := client.RecentCandles(context.Background(), "SOLUSDT", shared.OneMinute, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(candles))

	// Ensure an empty kline payload maps to the data unavailable sentinel.
	empty := testServer(t, map[string]string{klinesPath: `[]`})
	client, err = NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: empty.URL})
	assert.NoError(t, err)

	_, err = client.RecentCandles(context.Background(), "SOLUSDT", shared.OneMinute, 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrDataUnavailable))
}

func TestSpread(t *testing.T) {
	server := testServer(t, map[string]string{
		bookTickerPath: `{"symbol":"SOLUSDT","bidPrice":"142.37","askPrice":"142.39"}`,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	bid, ask, err := client.Spread(context.Background(), "SOLUSDT")
	assert.NoError(t, err)
	assert.Equal(t, 142.37, bid)
	assert.Equal(t, 142.39, ask)
}

func TestOrderRejection(t *testing.T) {
	// Every path 404s, order calls must surface exchange errors.
	server := testServer(t, map[string]string{})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	_, err = client.MarketBuy(context.Background(), "SOLUSDT", 4.6)
	assert.Error(t, err)

	var exchangeErr *shared.ExchangeError
	assert.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, "market buy", exchangeErr.Op)
	assert.Equal(t, "SOLUSDT", exchangeErr.Symbol)

	err = client.CancelOrder(context.Background(), "SOLUSDT", "1")
	assert.Error(t, err)
	assert.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, "cancel order", exchangeErr.Op)
}

func TestAccountBalance(t *testing.T) {
	server := testServer(t, map[string]string{
		balancePath: `[
			{"asset":"BTC","availableBalance":"0.5"},
			{"asset":"USDT","availableBalance":"1000.25"}
		]`,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	balance, err := client.AccountBalance(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1000.25, balance)
}

func TestPositionSize(t *testing.T) {
	server := testServer(t, map[string]string{
		positionRiskPath: `[
			{"symbol":"SOLUSDT","positionAmt":"4.6"},
			{"symbol":"AVAXUSDT","positionAmt":"9"}
		]`,
	})

	client, err := NewClient(&Config{APIKey: "key", APISecret: "secret", BaseURL: server.URL})
	assert.NoError(t, err)

	size, err := client.PositionSize(context.Background(), "SOLUSDT")
	assert.NoError(t, err)
	assert.Equal(t, 4.6, size)
}
