package executor

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// fakeGateway is a scripted venue gateway for executor tests. Fields set
// before use script the responses; call slices record what the executor did.
type fakeGateway struct {
	mu sync.Mutex

	leverageErr  error
	leverageCall int

	marketAcks []*venue.OrderAck
	marketErrs []error
	marketReqs []venue.MarketOrder

	stopAcks map[types.StopKind]*venue.OrderAck
	stopErrs map[types.StopKind]error
	stopReqs []venue.StopOrder

	openOrders    []venue.OpenOrder
	openOrdersErr error

	cancelOutcomes map[int64]types.CancelOutcome
	cancelErrs     map[int64]error
	cancelled      []int64

	position    *types.OpenPosition
	positionErr error

	// blockMarket, when non-nil, is closed by the test to release a
	// PlaceMarketOrder call parked on it.
	blockMarket chan struct{}
}

var _ venue.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		stopAcks:       make(map[types.StopKind]*venue.OrderAck),
		stopErrs:       make(map[types.StopKind]error),
		cancelOutcomes: make(map[int64]types.CancelOutcome),
		cancelErrs:     make(map[int64]error),
	}
}

func (f *fakeGateway) Time(context.Context) (time.Time, error) { return time.Now(), nil }

func (f *fakeGateway) SetLeverage(_ context.Context, symbol string, leverage int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leverageCall++
	return f.leverageErr
}

func (f *fakeGateway) PlaceMarketOrder(_ context.Context, order venue.MarketOrder) (*venue.OrderAck, error) {
	f.mu.Lock()
	n := len(f.marketReqs)
	f.marketReqs = append(f.marketReqs, order)
	f.mu.Unlock()

	if f.blockMarket != nil {
		<-f.blockMarket
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if n < len(f.marketErrs) && f.marketErrs[n] != nil {
		return nil, f.marketErrs[n]
	}
	if n < len(f.marketAcks) {
		return f.marketAcks[n], nil
	}
	return &venue.OrderAck{
		OrderID:     int64(1000 + n),
		Symbol:      order.Symbol,
		Side:        order.Side,
		Status:      "FILLED",
		AvgPrice:    decimal.RequireFromString("50000"),
		ExecutedQty: order.Quantity,
	}, nil
}

func (f *fakeGateway) PlaceStopOrder(_ context.Context, order venue.StopOrder) (*venue.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopReqs = append(f.stopReqs, order)

	if err := f.stopErrs[order.Kind]; err != nil {
		return nil, err
	}
	if ack := f.stopAcks[order.Kind]; ack != nil {
		return ack, nil
	}
	return &venue.OrderAck{
		OrderID: int64(2000 + len(f.stopReqs)),
		Symbol:  order.Symbol,
		Side:    order.Side,
		Type:    string(order.Kind),
		Status:  "NEW",
	}, nil
}

func (f *fakeGateway) OpenOrders(_ context.Context, _ string) ([]venue.OpenOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openOrders, f.openOrdersErr
}

func (f *fakeGateway) CancelOrder(_ context.Context, _ string, orderID int64) (types.CancelOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)

	outcome, ok := f.cancelOutcomes[orderID]
	if !ok {
		return types.Cancelled, nil
	}
	return outcome, f.cancelErrs[orderID]
}

func (f *fakeGateway) Position(_ context.Context, symbol string) (*types.OpenPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.positionErr != nil {
		return nil, f.positionErr
	}
	if f.position != nil {
		return f.position, nil
	}
	return &types.OpenPosition{Symbol: symbol}, nil
}

func (f *fakeGateway) Reconnect(context.Context) error { return nil }

func (f *fakeGateway) State() venue.ConnectionState { return venue.StateConnected }

func (f *fakeGateway) marketOrderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.marketReqs)
}
