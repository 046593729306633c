package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

func newTestGateway() *Gateway {
	return NewGateway(Config{
		MarkPrices: map[string]decimal.Decimal{
			"BTCUSDT": decimal.RequireFromString("50000"),
		},
		LeverageUnchangedCode: -4046,
	}, nil)
}

func TestGateway_MarketOrderFillsAtMark(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	ack, err := g.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:   "BTCUSDT",
		Side:     types.OrderSideBuy,
		Quantity: decimal.RequireFromString("0.5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ack.AvgPrice.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("AvgPrice = %s, want 50000", ack.AvgPrice)
	}
	if !ack.CumQuote.Equal(decimal.RequireFromString("25000")) {
		t.Errorf("CumQuote = %s, want 25000", ack.CumQuote)
	}

	pos, err := g.Position(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.Quantity.Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("position = %s, want 0.5", pos.Quantity)
	}
}

func TestGateway_ReduceOnlyNeverFlips(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	_, err := g.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:   "BTCUSDT",
		Side:     types.OrderSideSell,
		Quantity: decimal.RequireFromString("1.5"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Oversized reduce-only close clamps to the open quantity.
	_, err = g.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:     "BTCUSDT",
		Side:       types.OrderSideBuy,
		Quantity:   decimal.RequireFromString("5"),
		ReduceOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos, _ := g.Position(ctx, "BTCUSDT")
	if !pos.IsFlat() {
		t.Errorf("position = %s, want flat", pos.Quantity)
	}

	// Reduce-only against a flat position is rejected.
	_, err = g.PlaceMarketOrder(ctx, venue.MarketOrder{
		Symbol:     "BTCUSDT",
		Side:       types.OrderSideBuy,
		Quantity:   decimal.RequireFromString("1"),
		ReduceOnly: true,
	})
	if _, ok := types.AsVenueError(err); !ok {
		t.Errorf("expected VenueError, got %v", err)
	}
}

func TestGateway_LeverageNoOpReportedAsVenueError(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	if err := g.SetLeverage(ctx, "BTCUSDT", 10); err != nil {
		t.Fatalf("first set: %v", err)
	}

	err := g.SetLeverage(ctx, "BTCUSDT", 10)
	ve, ok := types.AsVenueError(err)
	if !ok {
		t.Fatalf("expected VenueError on repeated set, got %v", err)
	}
	if ve.Code != -4046 {
		t.Errorf("Code = %d, want -4046", ve.Code)
	}

	if err := g.SetLeverage(ctx, "BTCUSDT", 20); err != nil {
		t.Fatalf("changed target should succeed: %v", err)
	}
}

func TestGateway_StopOrderLifecycle(t *testing.T) {
	g := newTestGateway()
	ctx := context.Background()

	ack, err := g.PlaceStopOrder(ctx, venue.StopOrder{
		Symbol:        "BTCUSDT",
		Kind:          types.StopKindTakeProfit,
		Side:          types.OrderSideSell,
		TriggerPrice:  decimal.RequireFromString("51000"),
		ClosePosition: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	orders, err := g.OpenOrders(ctx, "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 1 || orders[0].Type != "TAKE_PROFIT_MARKET" {
		t.Fatalf("open orders = %+v, want one TAKE_PROFIT_MARKET", orders)
	}

	outcome, err := g.CancelOrder(ctx, "BTCUSDT", ack.OrderID)
	if err != nil || outcome != types.Cancelled {
		t.Errorf("cancel = %s, %v; want cancelled", outcome, err)
	}

	outcome, err = g.CancelOrder(ctx, "BTCUSDT", ack.OrderID)
	if err != nil || outcome != types.AlreadyGone {
		t.Errorf("second cancel = %s, %v; want already_gone", outcome, err)
	}
}

func TestGateway_UnknownSymbolRejected(t *testing.T) {
	g := newTestGateway()

	_, err := g.PlaceMarketOrder(context.Background(), venue.MarketOrder{
		Symbol:   "DOGEUSDT",
		Side:     types.OrderSideBuy,
		Quantity: decimal.RequireFromString("1"),
	})
	if _, ok := types.AsVenueError(err); !ok {
		t.Errorf("expected VenueError, got %v", err)
	}
}
