// Package journal provides an append-only audit trail of executions. The
// venue's own order and position state remains the source of truth; the
// journal exists for operator forensics, never for recovery decisions.
package journal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
)

// ExecutionRecord is one journalled signal execution.
type ExecutionRecord struct {
	ID          int64
	SignalID    string
	ReceivedAt  time.Time
	Action      types.Action
	Symbol      string
	Status      string
	Detail      string
	OrderID     int64
	Side        string
	Quantity    decimal.Decimal
	AvgPrice    decimal.Decimal
	PriceSource string
}

// LegRecord is one journalled protective order attempt.
type LegRecord struct {
	ID           int64
	SignalID     string
	Kind         types.StopKind
	OrderID      int64
	TriggerPrice decimal.Decimal
	Placed       bool
	Error        string
}

// Journal defines the interface for the execution audit trail.
type Journal interface {
	// RecordExecution appends one execution outcome.
	RecordExecution(ctx context.Context, rec ExecutionRecord) error

	// RecordLegs appends the protective order attempts of a bracket.
	RecordLegs(ctx context.Context, signalID string, status *types.BracketStatus) error

	// RecentExecutions returns the most recent executions, newest first.
	RecentExecutions(ctx context.Context, limit int) ([]ExecutionRecord, error)

	// Close releases the underlying store.
	Close() error
}

// Noop is a journal that records nothing, used when journalling is
// disabled.
type Noop struct{}

var _ Journal = (*Noop)(nil)

func (Noop) RecordExecution(context.Context, ExecutionRecord) error { return nil }

func (Noop) RecordLegs(context.Context, string, *types.BracketStatus) error { return nil }

func (Noop) RecentExecutions(context.Context, int) ([]ExecutionRecord, error) { return nil, nil }

func (Noop) Close() error { return nil }
