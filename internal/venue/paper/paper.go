// Package paper provides a simulated venue gateway for paper trading.
package paper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// Config holds paper gateway configuration.
type Config struct {
	// MarkPrices seeds the simulated mark price per instrument. Market
	// orders fill at the current mark price.
	MarkPrices map[string]decimal.Decimal

	// LeverageUnchangedCode, when non-zero, makes SetLeverage reproduce
	// the venue quirk of reporting an already-at-target leverage change
	// as an error with this code.
	LeverageUnchangedCode int64
}

type position struct {
	qty   decimal.Decimal // signed
	entry decimal.Decimal
}

// Gateway implements venue.Gateway against in-memory state.
type Gateway struct {
	cfg    Config
	logger *slog.Logger

	mu         sync.Mutex
	marks      map[string]decimal.Decimal
	positions  map[string]*position
	leverage   map[string]int
	openOrders map[int64]venue.OpenOrder

	nextOrderID atomic.Int64
	state       atomic.Int32
}

// NewGateway creates a new paper gateway.
func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	marks := make(map[string]decimal.Decimal, len(cfg.MarkPrices))
	for symbol, price := range cfg.MarkPrices {
		marks[symbol] = price
	}

	g := &Gateway{
		cfg:        cfg,
		logger:     logger,
		marks:      marks,
		positions:  make(map[string]*position),
		leverage:   make(map[string]int),
		openOrders: make(map[int64]venue.OpenOrder),
	}
	g.nextOrderID.Store(1000)
	g.state.Store(int32(venue.StateConnected))
	return g
}

// SetMarkPrice updates the simulated mark price for an instrument.
func (g *Gateway) SetMarkPrice(symbol string, price decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marks[symbol] = price
}

// Time returns the local clock.
func (g *Gateway) Time(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}

// SetLeverage records the requested leverage, optionally reproducing the
// venue's no-op-as-error behavior.
func (g *Gateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if current, ok := g.leverage[symbol]; ok && current == leverage && g.cfg.LeverageUnchangedCode != 0 {
		return &types.VenueError{Code: g.cfg.LeverageUnchangedCode, Message: "leverage not modified"}
	}

	g.leverage[symbol] = leverage
	return nil
}

// PlaceMarketOrder fills immediately at the mark price.
func (g *Gateway) PlaceMarketOrder(ctx context.Context, order venue.MarketOrder) (*venue.OrderAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	mark, ok := g.marks[order.Symbol]
	if !ok {
		return nil, &types.VenueError{Code: -1121, Message: "Invalid symbol."}
	}

	delta := order.Quantity
	if order.Side == types.OrderSideSell {
		delta = delta.Neg()
	}

	pos := g.positions[order.Symbol]
	if pos == nil {
		pos = &position{}
		g.positions[order.Symbol] = pos
	}

	if order.ReduceOnly {
		// A reduce-only order may shrink the position but never flip it.
		if pos.qty.Sign() == 0 || pos.qty.Sign() == delta.Sign() {
			return nil, &types.VenueError{Code: -2022, Message: "ReduceOnly Order is rejected."}
		}
		if delta.Abs().GreaterThan(pos.qty.Abs()) {
			delta = pos.qty.Neg()
		}
	}

	if pos.qty.IsZero() {
		pos.entry = mark
	}
	pos.qty = pos.qty.Add(delta)
	if pos.qty.IsZero() {
		delete(g.positions, order.Symbol)
	}

	orderID := g.nextOrderID.Add(1)
	g.logger.Info("paper fill",
		"symbol", order.Symbol,
		"side", order.Side,
		"quantity", order.Quantity,
		"price", mark,
		"reduce_only", order.ReduceOnly,
	)

	return &venue.OrderAck{
		OrderID:       orderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Type:          "MARKET",
		Status:        "FILLED",
		AvgPrice:      mark,
		ExecutedQty:   order.Quantity,
		CumQuote:      mark.Mul(order.Quantity),
	}, nil
}

// PlaceStopOrder records a protective order without triggering it.
func (g *Gateway) PlaceStopOrder(ctx context.Context, order venue.StopOrder) (*venue.OrderAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	orderID := g.nextOrderID.Add(1)
	g.openOrders[orderID] = venue.OpenOrder{
		OrderID:       orderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Type:          string(order.Kind),
		StopPrice:     order.TriggerPrice,
	}

	return &venue.OrderAck{
		OrderID:       orderID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Type:          string(order.Kind),
		Status:        "NEW",
	}, nil
}

// OpenOrders lists recorded open orders for an instrument.
func (g *Gateway) OpenOrders(ctx context.Context, symbol string) ([]venue.OpenOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var orders []venue.OpenOrder
	for _, o := range g.openOrders {
		if o.Symbol == symbol {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

// CancelOrder removes an open order; a missing order is AlreadyGone.
func (g *Gateway) CancelOrder(ctx context.Context, symbol string, orderID int64) (types.CancelOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.openOrders[orderID]; !ok {
		return types.AlreadyGone, nil
	}
	delete(g.openOrders, orderID)
	return types.Cancelled, nil
}

// Position returns the simulated position; flat positions have zero quantity.
func (g *Gateway) Position(ctx context.Context, symbol string) (*types.OpenPosition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos, ok := g.positions[symbol]
	if !ok {
		return &types.OpenPosition{Symbol: symbol}, nil
	}
	return &types.OpenPosition{
		Symbol:     symbol,
		Quantity:   pos.qty,
		EntryPrice: pos.entry,
		Leverage:   g.leverage[symbol],
	}, nil
}

// Reconnect always succeeds for the paper gateway.
func (g *Gateway) Reconnect(ctx context.Context) error {
	g.state.Store(int32(venue.StateConnected))
	return nil
}

// State reports the simulated connectivity state.
func (g *Gateway) State() venue.ConnectionState {
	return venue.ConnectionState(g.state.Load())
}

// Ensure Gateway implements venue.Gateway
var _ venue.Gateway = (*Gateway)(nil)
