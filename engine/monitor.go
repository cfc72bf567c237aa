package engine

import (
	"context"
	"time"

	"github.com/araseong/altcoin-scalp-bot/shared"
	"github.com/araseong/altcoin-scalp-bot/strategy"
)

// monitorPosition re-evaluates the exit predicate for the open position and
// drives the close when it fires. A missing stop loss is re-armed before any
// exit evaluation.
func (e *Engine) monitorPosition(ctx context.Context) {
	if e.position == nil {
		// Should be unreachable, reset rather than operate on nothing.
		e.cfg.Logger.Error().Msg("monitor invoked without an open position, resetting to idle")
		e.state = Idle
		return
	}

	if e.missingStop {
		e.cfg.Logger.Error().Msgf("UNPROTECTED POSITION: %s open without a stop loss (retry %d/%d)",
			e.position.Symbol, e.stopRetries, e.cfg.MaxStopRetries)

		if !e.rearmStop(ctx) {
			return
		}
	}

	series, ok := e.recentSeries(ctx, e.position.Symbol)
	if !ok {
		// Stale or missing data defers the evaluation to the next tick.
		return
	}

	decision, ok := e.cfg.Evaluator.Exit(series)
	if !ok {
		if close, ok := series.LastClose(); ok {
			pnl := e.position.UpdatePNLPercent(close)
			e.cfg.Logger.Debug().Msgf("holding %s @ %f, pnl %.2f%%", e.position.Symbol, close, pnl)
		}
		return
	}

	e.pendingExit = decision
	e.closePosition(ctx)
}

// rearmStop retries placement of the missing stop loss. When retries exhaust
// the position is flattened instead of scanning on unprotected. It reports
// whether the position is protected and monitoring may continue.
func (e *Engine) rearmStop(ctx context.Context) bool {
	pos := e.position

	meta, err := e.instrumentMeta(ctx, pos.Symbol)
	if err != nil {
		e.cfg.Logger.Error().Msgf("fetching instrument meta for %s: %v", pos.Symbol, err)
		e.stopRetries++
		return e.flattenIfExhausted(ctx)
	}

	stopPrice, err := meta.RoundPrice(pos.EntryPrice * (1 - e.cfg.StopLossFraction))
	if err != nil {
		e.cfg.Logger.Error().Msgf("rounding %s stop price: %v", pos.Symbol, err)
		e.stopRetries++
		return e.flattenIfExhausted(ctx)
	}

	stopID, err := e.cfg.Execution.StopMarket(ctx, pos.Symbol, shared.Sell, pos.Quantity, stopPrice)
	if err != nil {
		e.cfg.Logger.Error().Msgf("re-arming stop loss for %s failed: %v", pos.Symbol, err)
		e.stopRetries++
		return e.flattenIfExhausted(ctx)
	}

	pos.StopLossOrderID = stopID
	e.missingStop = false
	e.stopRetries = 0
	e.cfg.Logger.Info().Msgf("stop loss for %s re-armed @ %f (order %s)", pos.Symbol, stopPrice, stopID)

	return true
}

// flattenIfExhausted flattens the unprotected position once stop placement
// retries are exhausted. It reports whether monitoring may continue.
func (e *Engine) flattenIfExhausted(ctx context.Context) bool {
	if e.stopRetries < e.cfg.MaxStopRetries {
		return false
	}

	e.cfg.Logger.Error().Msgf("stop loss retries exhausted for %s, flattening unprotected position",
		e.position.Symbol)

	e.pendingExit = &strategy.ExitDecision{
		Symbol:    e.position.Symbol,
		Price:     e.position.EntryPrice,
		Reasons:   []string{"stop loss placement retries exhausted, flattening unprotected position"},
		CreatedOn: time.Now().UTC(),
	}
	e.closePosition(ctx)

	return false
}

// resumeClose retries a close that could not complete on a previous tick.
func (e *Engine) resumeClose(ctx context.Context) {
	if e.position == nil || e.pendingExit == nil {
		e.cfg.Logger.Error().Msg("close resumed without a position, resetting to idle")
		e.state = Idle
		e.pendingExit = nil
		return
	}

	e.closePosition(ctx)
}

// closePosition cancels the protective orders and flattens the live position
// amount. Cancellations are best effort and never block the closing order.
// The flatten is sized from the live position rather than the recorded
// quantity to absorb partial fills.
func (e *Engine) closePosition(ctx context.Context) {
	e.state = Closing
	pos := e.position
	exit := e.pendingExit

	for _, orderID := range pos.ProtectiveOrderIDs() {
		err := e.cfg.Execution.CancelOrder(ctx, pos.Symbol, orderID)
		if err != nil {
			// Already filled or cancelled protective orders are expected here.
			e.cfg.Logger.Warn().Msgf("cancelling order %s for %s: %v", orderID, pos.Symbol, err)
		}
	}

	liveQuantity, err := e.cfg.Execution.PositionSize(ctx, pos.Symbol)
	if err != nil {
		e.cfg.Logger.Error().Msgf("querying live position size for %s: %v, retrying close next tick",
			pos.Symbol, err)
		return
	}

	switch {
	case liveQuantity > 0:
		_, err = e.cfg.Execution.MarketSell(ctx, pos.Symbol, liveQuantity)
	case liveQuantity < 0:
		_, err = e.cfg.Execution.MarketBuy(ctx, pos.Symbol, -liveQuantity)
	default:
		// Already flat, likely stopped out or fully taken profit.
		e.cfg.Logger.Info().Msgf("%s already flat before closing order", pos.Symbol)
	}
	if err != nil {
		e.cfg.Logger.Error().Msgf("closing order for %s failed: %v, retrying close next tick",
			pos.Symbol, err)
		return
	}

	trade := pos.Close(exit.Price, exit.Reasons, time.Now().UTC())
	e.cfg.Logger.Info().Msgf("CLOSE %s (%s) qty=%f @ %f pnl=%.2f%%: %s",
		pos.Symbol, pos.ID, liveQuantity, exit.Price, trade.PNLPercent, trade.ExitReasons)

	if e.cfg.PersistClosedTrade != nil {
		err = e.cfg.PersistClosedTrade(ctx, trade)
		if err != nil {
			e.cfg.Logger.Error().Msgf("persisting closed trade %s: %v", trade.ID, err)
		}
	}

	e.position = nil
	e.pendingExit = nil
	e.missingStop = false
	e.stopRetries = 0
	e.state = Idle
}
