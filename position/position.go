package position

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Position represents the single open market position. It exists only while
// the engine holds or is closing the position.
type Position struct {
	ID                 string
	Symbol             string
	Quantity           float64
	EntryPrice         float64
	StopLossOrderID    string
	TakeProfitOrderIDs []string
	EntryReasons       string
	PNLPercent         float64
	CreatedOn          time.Time
}

// stringifyReasons stringifies the collection of decision reasons provided.
func stringifyReasons(reasons []string) string {
	buf := bytes.NewBuffer([]byte{})
	for idx := range reasons {
		buf.WriteString(reasons[idx])
		if idx < len(reasons)-1 {
			buf.WriteString(",")
		}
	}

	return buf.String()
}

// NewPosition initializes a new position from the provided entry details.
func NewPosition(symbol string, quantity float64, entryPrice float64, reasons []string, created time.Time) (*Position, error) {
	if symbol == "" {
		return nil, fmt.Errorf("position symbol cannot be an empty string")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("position quantity must be positive, got %f", quantity)
	}
	if entryPrice <= 0 {
		return nil, fmt.Errorf("position entry price must be positive, got %f", entryPrice)
	}

	pos := &Position{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Quantity:     quantity,
		EntryPrice:   entryPrice,
		EntryReasons: stringifyReasons(reasons),
		CreatedOn:    created,
	}

	return pos, nil
}

// ProtectiveOrderIDs returns every recorded protective order id.
func (p *Position) ProtectiveOrderIDs() []string {
	ids := make([]string, 0, len(p.TakeProfitOrderIDs)+1)
	if p.StopLossOrderID != "" {
		ids = append(ids, p.StopLossOrderID)
	}
	ids = append(ids, p.TakeProfitOrderIDs...)

	return ids
}

// UpdatePNLPercent updates the percentage change of the position given the
// current price.
func (p *Position) UpdatePNLPercent(currentPrice float64) float64 {
	p.PNLPercent = ((currentPrice - p.EntryPrice) / p.EntryPrice) * 100
	return p.PNLPercent
}

// Trade represents a concluded round trip through a position.
type Trade struct {
	ID           string
	Symbol       string
	Quantity     float64
	EntryPrice   float64
	EntryReasons string
	ExitPrice    float64
	ExitReasons  string
	PNLPercent   float64
	CreatedOn    time.Time
	ClosedOn     time.Time
}

// Close concludes the position with the provided exit details, producing the
// trade record for journaling.
func (p *Position) Close(exitPrice float64, reasons []string, closed time.Time) *Trade {
	p.UpdatePNLPercent(exitPrice)

	return &Trade{
		ID:           p.ID,
		Symbol:       p.Symbol,
		Quantity:     p.Quantity,
		EntryPrice:   p.EntryPrice,
		EntryReasons: p.EntryReasons,
		ExitPrice:    exitPrice,
		ExitReasons:  stringifyReasons(reasons),
		PNLPercent:   p.PNLPercent,
		CreatedOn:    p.CreatedOn,
		ClosedOn:     closed,
	}
}
