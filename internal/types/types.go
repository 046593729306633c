// Package types defines shared types used across the execution engine.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the requested operation carried by an inbound signal.
type Action int

const (
	// ActionNotify forwards the payload to the notification channel only.
	ActionNotify Action = iota
	// ActionEnter opens a bracketed position.
	ActionEnter
	// ActionClose flattens the open position for the instrument.
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionEnter:
		return "enter"
	case ActionClose:
		return "close"
	default:
		return "message"
	}
}

// Side represents the direction of a position.
type Side int

const (
	SideFlat Side = iota
	SideLong
	SideShort
)

func (s Side) String() string {
	switch s {
	case SideLong:
		return "LONG"
	case SideShort:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return SideFlat
	}
}

// OrderSide is the venue-facing order direction.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Opposite returns the opposing order side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// EntrySide maps a position direction to the order side that opens it.
func (s Side) EntrySide() OrderSide {
	if s == SideShort {
		return OrderSideSell
	}
	return OrderSideBuy
}

// StopKind distinguishes the two protective order types.
type StopKind string

const (
	StopKindStopLoss   StopKind = "STOP_MARKET"
	StopKindTakeProfit StopKind = "TAKE_PROFIT_MARKET"
)

// IsProtective reports whether a venue order type is a protective order.
func IsProtective(orderType string) bool {
	return orderType == string(StopKindStopLoss) || orderType == string(StopKindTakeProfit)
}

// Signal is a normalized trading signal. It is constructed once per inbound
// payload and discarded after the response is produced.
type Signal struct {
	ID         string
	ReceivedAt time.Time
	Action     Action
	Direction  Side
	Symbol     string
	Quantity   string // free-form, validated by the executor before any venue call

	// Display-only fields, passed through to notifications unmodified.
	Price      string
	StopLoss   string
	TakeProfit string

	// Raw is the original payload, kept for notify passthrough.
	Raw string
}

// FillPriceSource records how an average fill price was obtained.
type FillPriceSource int

const (
	// FillPriceReported means the venue returned a positive average price.
	FillPriceReported FillPriceSource = iota
	// FillPriceDerived means the price was computed as cumulative
	// notional divided by executed quantity.
	FillPriceDerived
)

func (s FillPriceSource) String() string {
	if s == FillPriceDerived {
		return "derived"
	}
	return "reported"
}

// EntryResult is the outcome of a single entry attempt. It lives for one
// execution only; the venue's own order state is the source of truth.
type EntryResult struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Status        string
	AvgFillPrice  decimal.Decimal
	PriceSource   FillPriceSource
	ExecutedQty   decimal.Decimal
	CumQuote      decimal.Decimal
}

// CancelOutcome is the tri-state result of a cancellation attempt.
type CancelOutcome int

const (
	// Cancelled means the venue confirmed the cancellation.
	Cancelled CancelOutcome = iota
	// AlreadyGone means the order was already filled or removed; this is
	// an expected race and treated as success.
	AlreadyGone
	// CancelFailed means the venue rejected the cancellation for another
	// reason.
	CancelFailed
)

func (o CancelOutcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case AlreadyGone:
		return "already_gone"
	default:
		return "failed"
	}
}

// BracketLeg is the independently-reported outcome of one protective order.
type BracketLeg struct {
	Kind         StopKind
	OrderID      int64
	TriggerPrice decimal.Decimal
	Err          error
}

// Placed reports whether the leg was accepted by the venue.
func (l BracketLeg) Placed() bool {
	return l.Err == nil
}

// BracketStatus reports the full outcome of a bracket attempt. A partial
// bracket (one leg placed, one failed) leaves the position unprotected on
// one side and must never be collapsed into an overall success.
type BracketStatus struct {
	Symbol       string
	CancelErrors []error
	StopLoss     BracketLeg
	TakeProfit   BracketLeg
}

// Complete reports whether both protective legs were placed.
func (b *BracketStatus) Complete() bool {
	return b.StopLoss.Placed() && b.TakeProfit.Placed()
}

// Partial reports whether exactly one protective leg was placed.
func (b *BracketStatus) Partial() bool {
	return b.StopLoss.Placed() != b.TakeProfit.Placed()
}

// OpenPosition is a venue-reported position. The sign of Quantity encodes
// direction: positive is long, negative is short.
type OpenPosition struct {
	Symbol     string
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	Leverage   int
}

// Side derives the position direction from the signed quantity.
func (p OpenPosition) Side() Side {
	switch p.Quantity.Sign() {
	case 1:
		return SideLong
	case -1:
		return SideShort
	default:
		return SideFlat
	}
}

// IsFlat reports whether the position has zero quantity.
func (p OpenPosition) IsFlat() bool {
	return p.Quantity.IsZero()
}
