package position

import (
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

func TestStringifyReasons(t *testing.T) {
	reasons := []string{"squeeze released", "close above value area high"}

	str := stringifyReasons(reasons)
	assert.Equal(t, "squeeze released,close above value area high", str)
	assert.Equal(t, "", stringifyReasons(nil))
}

func TestNewPosition(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	// Ensure positions cannot be created with invalid entry details.
	_, err := NewPosition("", 10, 50, nil, created)
	assert.Error(t, err)
	_, err = NewPosition("SOLUSDT", 0, 50, nil, created)
	assert.Error(t, err)
	_, err = NewPosition("SOLUSDT", 10, -1, nil, created)
	assert.Error(t, err)

	// Ensure positions can be created with valid entry details.
	pos, err := NewPosition("SOLUSDT", 10, 50, []string{"a", "b"}, created)
	assert.NoError(t, err)
	assert.NotEqual(t, "", pos.ID)
	assert.Equal(t, "SOLUSDT", pos.Symbol)
	assert.True(t, strings.Contains(pos.EntryReasons, "a,b"))
	assert.Equal(t, created, pos.CreatedOn)
}

func TestProtectiveOrderIDs(t *testing.T) {
	pos := &Position{Symbol: "SOLUSDT"}

	// Ensure an unprotected position reports no order ids.
	assert.Equal(t, 0, len(pos.ProtectiveOrderIDs()))

	pos.StopLossOrderID = "sl-1"
	pos.TakeProfitOrderIDs = []string{"tp-1", "tp-2"}
	assert.Equal(t, []string{"sl-1", "tp-1", "tp-2"}, pos.ProtectiveOrderIDs())
}

func TestPositionClose(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	closed := created.Add(5 * time.Minute)

	pos, err := NewPosition("SOLUSDT", 10, 50, []string{"entry"}, created)
	assert.NoError(t, err)

	// Ensure pnl tracks the current price.
	assert.Equal(t, float64(10), pos.UpdatePNLPercent(55))
	assert.Equal(t, float64(-10), pos.UpdatePNLPercent(45))

	// Ensure closing the position yields a complete trade record.
	trade := pos.Close(52, []string{"exit"}, closed)
	assert.Equal(t, pos.ID, trade.ID)
	assert.Equal(t, float64(52), trade.ExitPrice)
	assert.Equal(t, float64(4), trade.PNLPercent)
	assert.Equal(t, "exit", trade.ExitReasons)
	assert.Equal(t, created, trade.CreatedOn)
	assert.Equal(t, closed, trade.ClosedOn)
}
