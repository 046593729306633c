// Package executor turns validated signals into sequences of venue
// operations producing bracketed positions.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/metrics"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// Config holds execution policy.
type Config struct {
	// Leverage is the target account leverage applied before every entry.
	Leverage int

	// StopLossOffset and TakeProfitOffset are absolute price distances
	// from the entry fill price, not percentages.
	StopLossOffset   decimal.Decimal
	TakeProfitOffset decimal.Decimal

	// TickSize is the instrument's minimum price increment; protective
	// trigger prices are rounded to it. Zero disables rounding.
	TickSize decimal.Decimal

	// MaxQuantity caps the order quantity. Zero disables the ceiling.
	MaxQuantity decimal.Decimal

	// BlockedQuantities is an exact-match blocklist of disallowed
	// magnitudes.
	BlockedQuantities []decimal.Decimal

	// LeverageUnchangedCode is the venue code for "leverage already at
	// target", a no-op misreported as an error. Configuration, not a
	// literal, because venue codes are not guaranteed stable.
	LeverageUnchangedCode int64

	// LockWait bounds how long an execution waits for the per-instrument
	// lock before rejecting with ErrSymbolBusy.
	LockWait time.Duration
}

// DefaultConfig returns default execution policy.
func DefaultConfig() Config {
	return Config{
		Leverage:              10,
		StopLossOffset:        decimal.RequireFromString("500"),
		TakeProfitOffset:      decimal.RequireFromString("1000"),
		TickSize:              decimal.RequireFromString("0.1"),
		LeverageUnchangedCode: -4046,
		LockWait:              2 * time.Second,
	}
}

// Executor sequences venue operations for a single signal. Executions for
// the same instrument are mutually exclusive; concurrent ones are rejected
// after a bounded wait rather than queued indefinitely.
type Executor struct {
	cfg      Config
	gw       venue.Gateway
	logger   *slog.Logger
	recorder *metrics.Recorder
	locks    *symbolLocks
}

// New creates a new executor.
func New(cfg Config, gw venue.Gateway, recorder *metrics.Recorder, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	return &Executor{
		cfg:      cfg,
		gw:       gw,
		logger:   logger,
		recorder: recorder,
		locks:    newSymbolLocks(),
	}
}

// EnterOutcome is the result of a full enter sequence.
type EnterOutcome struct {
	Entry   *types.EntryResult
	Bracket *types.BracketStatus
}

// Enter runs the full entry sequence: quantity validation, leverage
// confirmation, market entry, then bracket placement. Once the entry order
// is submitted the sequence runs to completion of the bracket attempt even
// if the invoking context is cancelled: a filled-but-unprotected position is
// strictly worse than a slow response.
func (x *Executor) Enter(ctx context.Context, sig types.Signal) (*EnterOutcome, error) {
	if sig.Direction == types.SideFlat {
		x.recorder.RecordSignalRejected("missing_direction")
		return nil, types.ErrMissingDirection
	}

	qty, err := x.cfg.ValidateQuantity(sig.Quantity)
	if err != nil {
		x.recorder.RecordSignalRejected(rejectionReason(err))
		return nil, err
	}

	if !x.locks.acquire(sig.Symbol, x.cfg.LockWait) {
		x.recorder.RecordBusy(sig.Symbol)
		return nil, fmt.Errorf("%w: %s", types.ErrSymbolBusy, sig.Symbol)
	}
	defer x.locks.release(sig.Symbol)

	if err := x.ensureLeverage(ctx, sig.Symbol); err != nil {
		return nil, err
	}

	// No mid-sequence cancellation once the entry is submitted.
	detached := context.WithoutCancel(ctx)

	entry, err := x.enter(detached, sig.Symbol, sig.Direction, qty)
	if err != nil {
		if errors.Is(err, types.ErrIndeterminateFill) {
			x.recorder.RecordIndeterminateFill()
			return &EnterOutcome{Entry: entry}, err
		}
		return nil, err
	}

	bracket := x.placeBracket(detached, sig.Symbol, entry.Side, entry.AvgFillPrice)
	return &EnterOutcome{Entry: entry, Bracket: bracket}, nil
}

// CloseOutcome is the result of a close sequence.
type CloseOutcome struct {
	NoPosition bool
	ClosedQty  decimal.Decimal
	OrderID    int64
	Side       types.OrderSide
}

// Close flattens the open position for an instrument. The closed quantity
// always equals the venue-reported absolute signed position read fresh here,
// never a caller-supplied number.
func (x *Executor) Close(ctx context.Context, symbol string) (*CloseOutcome, error) {
	if !x.locks.acquire(symbol, x.cfg.LockWait) {
		x.recorder.RecordBusy(symbol)
		return nil, fmt.Errorf("%w: %s", types.ErrSymbolBusy, symbol)
	}
	defer x.locks.release(symbol)

	return x.closePosition(ctx, symbol)
}

// GatewayState reports the underlying gateway's connectivity state.
func (x *Executor) GatewayState() venue.ConnectionState {
	return x.gw.State()
}

// rejectionReason maps a validation error to a metrics label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, types.ErrQuantityBlocked):
		return "quantity_blocked"
	case errors.Is(err, types.ErrQuantityCeiling):
		return "quantity_ceiling"
	case errors.Is(err, types.ErrQuantityParse):
		return "quantity_parse"
	default:
		return "invalid"
	}
}
