package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// clientOrderID returns a fresh venue-visible order identifier.
func clientOrderID() string {
	return "bkt-" + uuid.NewString()
}

// enter places the market entry order and resolves its fill price. The
// resolution ladder: use the reported average price when positive, derive
// quote-volume / executed-quantity when the fill quantity is positive,
// otherwise give up with ErrIndeterminateFill. An indeterminate fill is
// never retried; resubmitting could double the position.
func (x *Executor) enter(ctx context.Context, symbol string, dir types.Side, qty decimal.Decimal) (*types.EntryResult, error) {
	timer := x.recorder.NewTimer()

	ack, err := x.gw.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:        symbol,
		Side:          dir.EntrySide(),
		Quantity:      qty,
		ClientOrderID: clientOrderID(),
	})
	if err != nil {
		if ve, ok := types.AsVenueError(err); ok {
			x.recorder.RecordVenueError(ve.Code)
		}
		x.recorder.RecordOrder(symbol, dir.EntrySide(), "rejected")
		return nil, fmt.Errorf("entry order %s: %w", symbol, err)
	}
	timer.ObserveOrder()
	x.recorder.RecordOrder(symbol, ack.Side, "submitted")

	result := &types.EntryResult{
		OrderID:       ack.OrderID,
		ClientOrderID: ack.ClientOrderID,
		Symbol:        ack.Symbol,
		Side:          ack.Side,
		Status:        ack.Status,
		ExecutedQty:   ack.ExecutedQty,
		CumQuote:      ack.CumQuote,
	}

	switch {
	case ack.AvgPrice.IsPositive():
		result.AvgFillPrice = ack.AvgPrice
		result.PriceSource = types.FillPriceReported
	case ack.ExecutedQty.IsPositive():
		result.AvgFillPrice = ack.CumQuote.Div(ack.ExecutedQty)
		result.PriceSource = types.FillPriceDerived
	default:
		x.logger.Error("fill price indeterminate",
			"symbol", symbol,
			"order_id", ack.OrderID,
			"status", ack.Status,
		)
		return result, fmt.Errorf("order %d: %w", ack.OrderID, types.ErrIndeterminateFill)
	}

	x.logger.Info("entry filled",
		"symbol", symbol,
		"order_id", ack.OrderID,
		"side", ack.Side,
		"qty", qty.String(),
		"avg_price", result.AvgFillPrice.String(),
		"price_source", result.PriceSource.String(),
	)
	return result, nil
}
