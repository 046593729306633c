// Package venue provides exchange connectivity for order execution.
package venue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
)

// ConnectionState represents the gateway connection state.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnected
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "disconnected"
	}
}

// MarketOrder is a request to submit a market order.
type MarketOrder struct {
	Symbol        string
	Side          types.OrderSide
	Quantity      decimal.Decimal
	ReduceOnly    bool
	ClientOrderID string
}

// StopOrder is a request to submit a protective close order. ClosePosition
// orders flatten the whole position when triggered and carry no quantity.
type StopOrder struct {
	Symbol        string
	Kind          types.StopKind
	Side          types.OrderSide
	TriggerPrice  decimal.Decimal
	ClosePosition bool
	ClientOrderID string
}

// OrderAck is the venue's acknowledgement of a placed order. AvgPrice may be
// zero even for accepted orders; the entry executor resolves the fill price.
type OrderAck struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          types.OrderSide
	Type          string
	Status        string
	AvgPrice      decimal.Decimal
	ExecutedQty   decimal.Decimal
	CumQuote      decimal.Decimal
}

// OpenOrder is a currently open order as reported by the venue.
type OpenOrder struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          types.OrderSide
	Type          string
	StopPrice     decimal.Decimal
}

// Gateway is the capability set the execution engine consumes. Every call is
// a single request/response round-trip; failures are either a
// *types.VenueError (exchange rejection) or a *types.TransportError
// (network/timeout, ambiguous outcome). The gateway performs no retries:
// retry policy belongs to the caller, and blind retries of non-idempotent
// trading calls are unsafe.
type Gateway interface {
	// Time returns the venue server time.
	Time(ctx context.Context) (time.Time, error)

	// SetLeverage sets the account leverage for an instrument.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceMarketOrder submits a market order.
	PlaceMarketOrder(ctx context.Context, order MarketOrder) (*OrderAck, error)

	// PlaceStopOrder submits a protective stop or take-profit order.
	PlaceStopOrder(ctx context.Context, order StopOrder) (*OrderAck, error)

	// OpenOrders lists the currently open orders for an instrument.
	OpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)

	// CancelOrder cancels an open order. An order that is already filled
	// or removed yields AlreadyGone with a nil error; only CancelFailed
	// carries a non-nil error.
	CancelOrder(ctx context.Context, symbol string, orderID int64) (types.CancelOutcome, error)

	// Position returns the live position for an instrument. A flat
	// position is returned with zero quantity, not an error.
	Position(ctx context.Context, symbol string) (*types.OpenPosition, error)

	// Reconnect re-establishes connectivity after a failure. It replaces
	// silent client reinitialization with an explicit capability whose
	// health is observable through State.
	Reconnect(ctx context.Context) error

	// State reports the current connectivity state.
	State() ConnectionState
}
