package engine

import (
	"context"
	"time"

	"github.com/araseong/altcoin-scalp-bot/indicator"
	"github.com/araseong/altcoin-scalp-bot/position"
	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
)

// scanAndEnter iterates candidates in descending recent price change order
// and opens a position for the first candidate passing the pre scan filters
// and the entry predicate. Scanning stops at the first successful entry.
func (e *Engine) scanAndEnter(ctx context.Context) {
	e.state = Scanning

	movers, err := e.cfg.MarketData.TopMovers(ctx, e.cfg.TopMoversLimit)
	if err != nil {
		e.cfg.Logger.Error().Msgf("fetching top movers: %v", err)
		e.state = Idle
		return
	}

	for _, symbol := range movers {
		if e.evaluateCandidate(ctx, symbol) {
			return
		}
	}

	e.state = Idle
}

// evaluateCandidate runs the pre scan filters and the entry predicate for the
// provided candidate, entering a position on a fire. It reports whether a
// position was opened.
func (e *Engine) evaluateCandidate(ctx context.Context, symbol string) bool {
	bid, ask, err := e.cfg.MarketData.Spread(ctx, symbol)
	if err != nil {
		e.cfg.Logger.Debug().Msgf("fetching spread for %s: %v", symbol, err)
		return false
	}
	if !strategy.SpreadOK(bid, ask, e.cfg.SpreadCeiling) {
		e.cfg.Logger.Debug().Msgf("skipping %s, spread %.6f/%.6f above ceiling %.6f",
			symbol, bid, ask, e.cfg.SpreadCeiling)
		return false
	}

	series, ok := e.recentSeries(ctx, symbol)
	if !ok {
		return false
	}

	ratio, ok := strategy.VolatilityRatio(series.Candles, e.cfg.VolatilityWindow)
	if !ok || ratio < e.cfg.MinVolatilityRatio {
		e.cfg.Logger.Debug().Msgf("skipping %s, volatility ratio %.4f below minimum %.4f",
			symbol, ratio, e.cfg.MinVolatilityRatio)
		return false
	}

	decision, ok := e.cfg.Evaluator.Entry(series)
	if !ok {
		return false
	}

	return e.enterPosition(ctx, series, decision)
}

// enterPosition sizes, prices and submits the entry and protective orders
// for the provided entry decision. Quantity, stop price and take profit
// prices are each rounded to the instrument's declared precision before any
// submission. It reports whether a position was opened.
func (e *Engine) enterPosition(ctx context.Context, series *shared.Series, decision *strategy.EntryDecision) bool {
	symbol := decision.Symbol

	meta, err := e.instrumentMeta(ctx, symbol)
	if err != nil {
		e.cfg.Logger.Error().Msgf("fetching instrument meta for %s: %v", symbol, err)
		e.state = Idle
		return false
	}

	balance, err := e.cfg.Execution.AccountBalance(ctx)
	if err != nil {
		e.cfg.Logger.Error().Msgf("fetching account balance: %v", err)
		e.state = Idle
		return false
	}

	quantity, err := position.Size(balance, e.cfg.AllocationFraction, e.cfg.Leverage,
		decision.Price, meta.QuantityStep)
	if err != nil {
		e.cfg.Logger.Error().Msgf("sizing %s: %v", symbol, err)
		e.state = Idle
		return false
	}
	if quantity == 0 {
		e.cfg.Logger.Info().Msgf("skipping %s, computed target notional is not positive", symbol)
		e.state = Idle
		return false
	}

	quantity, err = meta.RoundQuantity(quantity)
	if err != nil {
		e.cfg.Logger.Error().Msgf("rounding %s entry quantity: %v", symbol, err)
		e.state = Idle
		return false
	}

	stopPrice, err := meta.RoundPrice(decision.Price * (1 - e.cfg.StopLossFraction))
	if err != nil {
		e.cfg.Logger.Error().Msgf("rounding %s stop price: %v", symbol, err)
		e.state = Idle
		return false
	}

	// Every take profit price must round cleanly before any order is placed.
	takeProfits, ok := e.takeProfitPrices(series, meta, decision.Price)
	if !ok {
		e.state = Idle
		return false
	}

	err = e.cfg.Execution.SetLeverage(ctx, symbol, e.cfg.Leverage)
	if err != nil {
		e.cfg.Logger.Warn().Msgf("setting %dx leverage for %s: %v", e.cfg.Leverage, symbol, err)
	}

	_, err = e.cfg.Execution.MarketBuy(ctx, symbol, quantity)
	if err != nil {
		e.cfg.Logger.Error().Msgf("entry order for %s failed: %v", symbol, err)
		e.state = Idle
		return false
	}

	pos, err := position.NewPosition(symbol, quantity, decision.Price, decision.Reasons, time.Now().UTC())
	if err != nil {
		// The entry order is already live and nothing tracks it, flatten
		// it immediately rather than leave untracked exposure.
		e.cfg.Logger.Error().Msgf("recording %s position: %v, flattening entry", symbol, err)
		_, sellErr := e.cfg.Execution.MarketSell(ctx, symbol, quantity)
		if sellErr != nil {
			e.cfg.Logger.Error().Msgf("flattening unrecorded %s entry failed: %v", symbol, sellErr)
		}
		e.state = Idle
		return false
	}

	e.position = pos
	e.state = Open
	e.stopRetries = 0

	e.cfg.Logger.Info().Msgf("OPEN %s (%s) qty=%f @ %f via %s: %s",
		symbol, pos.ID, quantity, decision.Price, e.cfg.Evaluator.Name(), pos.EntryReasons)

	stopID, err := e.cfg.Execution.StopMarket(ctx, symbol, shared.Sell, quantity, stopPrice)
	if err != nil {
		// The position is open without a stop loss. Flag it loudly, the
		// monitor path retries placement and flattens when retries exhaust.
		e.missingStop = true
		e.cfg.Logger.Error().Msgf("UNPROTECTED POSITION: stop loss for %s @ %f failed: %v",
			symbol, stopPrice, err)
	} else {
		e.missingStop = false
		pos.StopLossOrderID = stopID
		e.cfg.Logger.Info().Msgf("stop loss for %s placed @ %f (order %s)", symbol, stopPrice, stopID)
	}

	e.placeTakeProfits(ctx, pos, takeProfits)

	return true
}

// takeProfitPrices computes and rounds the limit take profit prices at the
// configured ATR offsets above the entry price. It reports false when a
// price fails to round or the ATR is unavailable.
func (e *Engine) takeProfitPrices(series *shared.Series, meta *shared.InstrumentMeta, entryPrice float64) ([]float64, bool) {
	if len(e.cfg.TakeProfitATRMultiples) == 0 {
		return nil, true
	}

	atrColumn, ok := series.Column(indicator.ColATR)
	if !ok {
		e.cfg.Logger.Error().Msgf("atr column missing for %s take profit pricing", series.Symbol)
		return nil, false
	}
	atr, ok := atrColumn.Last()
	if !ok {
		e.cfg.Logger.Error().Msgf("atr undefined for %s take profit pricing", series.Symbol)
		return nil, false
	}

	prices := make([]float64, 0, len(e.cfg.TakeProfitATRMultiples))
	for _, multiple := range e.cfg.TakeProfitATRMultiples {
		price, err := meta.RoundPrice(entryPrice + multiple*atr)
		if err != nil {
			e.cfg.Logger.Error().Msgf("rounding %s take profit price: %v", series.Symbol, err)
			return nil, false
		}
		prices = append(prices, price)
	}

	return prices, true
}

// placeTakeProfits submits limit take profit legs splitting the position
// quantity evenly. Failures are logged and never unwind the entry.
func (e *Engine) placeTakeProfits(ctx context.Context, pos *position.Position, prices []float64) {
	if len(prices) == 0 {
		return
	}

	meta := e.meta[pos.Symbol]
	legQuantity, err := meta.RoundQuantity(pos.Quantity / float64(len(prices)))
	if err != nil || legQuantity == 0 {
		e.cfg.Logger.Warn().Msgf("take profit leg quantity for %s rounds to zero, skipping legs", pos.Symbol)
		return
	}

	for _, price := range prices {
		orderID, err := e.cfg.Execution.LimitOrder(ctx, pos.Symbol, shared.Sell, legQuantity, price)
		if err != nil {
			e.cfg.Logger.Warn().Msgf("take profit leg for %s @ %f failed: %v", pos.Symbol, price, err)
			continue
		}

		pos.TakeProfitOrderIDs = append(pos.TakeProfitOrderIDs, orderID)
		e.cfg.Logger.Info().Msgf("take profit leg for %s placed @ %f (order %s)", pos.Symbol, price, orderID)
	}
}
