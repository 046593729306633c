package executor

import (
	"context"
	"fmt"

	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// closePosition flattens whatever the venue reports as open. The position
// is read fresh inside the lock; a stale size could leave residue or flip
// the position, which reduce-only also guards against at the venue side.
func (x *Executor) closePosition(ctx context.Context, symbol string) (*CloseOutcome, error) {
	pos, err := x.gw.Position(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("read position %s: %w", symbol, err)
	}

	if pos.IsFlat() {
		x.logger.Info("no open position to close", "symbol", symbol)
		return &CloseOutcome{NoPosition: true}, nil
	}

	qty := pos.Quantity.Abs()
	side := pos.Side().Opposite().EntrySide()

	timer := x.recorder.NewTimer()
	ack, err := x.gw.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:        symbol,
		Side:          side,
		Quantity:      qty,
		ReduceOnly:    true,
		ClientOrderID: clientOrderID(),
	})
	if err != nil {
		if ve, ok := types.AsVenueError(err); ok {
			x.recorder.RecordVenueError(ve.Code)
		}
		x.recorder.RecordOrder(symbol, side, "rejected")
		return nil, fmt.Errorf("close order %s: %w", symbol, err)
	}
	timer.ObserveOrder()
	x.recorder.RecordOrder(symbol, side, "submitted")

	x.logger.Info("position closed",
		"symbol", symbol,
		"order_id", ack.OrderID,
		"side", side,
		"qty", qty.String(),
	)
	return &CloseOutcome{
		ClosedQty: qty,
		OrderID:   ack.OrderID,
		Side:      side,
	}, nil
}
