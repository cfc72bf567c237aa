package journal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/araseong/altcoin-scalp-bot/position"
	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createTradeTableSQL = "CREATE TABLE IF NOT EXISTS trade (id TEXT PRIMARY KEY, symbol TEXT, quantity REAL, entryprice REAL, entryreasons TEXT, exitprice REAL, exitreasons TEXT, pnlpercent REAL, createdon INTEGER, closedon INTEGER)"
	createSummarySQL    = "CREATE TABLE IF NOT EXISTS summary (id TEXT PRIMARY KEY, total INTEGER, wins INTEGER, losses INTEGER, pnlpercent REAL, createdon INTEGER)"
	persistTradeSQL     = "INSERT INTO trade(id, symbol, quantity, entryprice, entryreasons, exitprice, exitreasons, pnlpercent, createdon, closedon) VALUES(?,?,?,?,?,?,?,?,?,?)"
	findSummarySQL      = "SELECT * FROM summary WHERE id = ?"
	updateSummarySQL    = "UPDATE summary SET total = total + 1, wins = wins + ?, losses = losses + ?, pnlpercent = pnlpercent + ? WHERE id = ?"
	persistSummarySQL   = "INSERT INTO summary(id, total, wins, losses, pnlpercent, createdon) VALUES(?,?,?,?,?,?)"
)

// TradeJournaler defines the requirements for journaling concluded trades.
type TradeJournaler interface {
	// PersistClosedTrade stores the provided concluded trade.
	PersistClosedTrade(ctx context.Context, trade *position.Trade) error
}

// JournalConfig is the configuration for the trade journal.
type JournalConfig struct {
	// Endpoint represents the journal database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the journal logger.
	Logger *zerolog.Logger
}

// Journal records concluded trades. The engine only ever writes to it.
type Journal struct {
	cfg    *JournalConfig
	client *rqlitehttp.Client
}

// Ensure the journal implements the TradeJournaler interface.
var _ TradeJournaler = (*Journal)(nil)

// NewJournal initializes a new trade journal.
func NewJournal(ctx context.Context, cfg *JournalConfig) (*Journal, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating journal client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	journal := &Journal{
		cfg:    cfg,
		client: client,
	}

	err = journal.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping journal: %w", err)
	}

	return journal, nil
}

// bootstrap initializes the journal tables.
func (j *Journal) bootstrap(ctx context.Context) error {
	_, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createTradeTableSQL},
		{SQL: createSummarySQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateSummaryID generates deterministic ids for weekly per symbol
// summaries.
func generateSummaryID(currentTime time.Time, symbol string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	return fmt.Sprintf("%s-Week-%d-%s", month, week, symbol)
}

// PersistClosedTrade stores the provided concluded trade and updates the
// weekly summary for its symbol.
func (j *Journal) PersistClosedTrade(ctx context.Context, trade *position.Trade) error {
	_, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistTradeSQL,
			PositionalParams: []any{trade.ID, trade.Symbol, trade.Quantity, trade.EntryPrice,
				trade.EntryReasons, trade.ExitPrice, trade.ExitReasons, trade.PNLPercent,
				trade.CreatedOn.Unix(), trade.ClosedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	var win, loss int
	switch {
	case trade.PNLPercent > 0:
		win++
	case trade.PNLPercent < 0:
		loss++
	default:
		j.cfg.Logger.Debug().Msgf("flat trade journaled: %s", spew.Sdump(trade))
	}

	id := generateSummaryID(trade.ClosedOn, trade.Symbol)
	resp, err := j.client.QuerySingle(ctx, findSummarySQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateSummarySQL,
				PositionalParams: []any{win, loss, trade.PNLPercent, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating summary %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := j.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistSummarySQL,
				PositionalParams: []any{id, 1, win, loss, trade.PNLPercent, trade.ClosedOn.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("persisting summary %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
