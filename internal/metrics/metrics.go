// Package metrics provides Prometheus metrics for the execution engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsTotal counts inbound signals by action.
	SignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_signals_total",
		Help: "Total inbound signals by action",
	}, []string{"action"})

	// SignalsRejected counts signals rejected before any venue call.
	SignalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_signals_rejected_total",
		Help: "Signals rejected during validation",
	}, []string{"reason"})

	// OrdersTotal counts orders submitted to the venue.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_orders_total",
		Help: "Orders submitted to the venue",
	}, []string{"symbol", "side", "status"})

	// BracketLegsTotal counts protective order placements by outcome.
	BracketLegsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_bracket_legs_total",
		Help: "Protective order placements by kind and outcome",
	}, []string{"kind", "status"})

	// CancelOutcomesTotal counts stale-order cancellations by outcome.
	CancelOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_cancel_outcomes_total",
		Help: "Stale protective order cancellations by outcome",
	}, []string{"outcome"})

	// VenueErrorsTotal counts venue rejections by code.
	VenueErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_venue_errors_total",
		Help: "Venue rejections by error code",
	}, []string{"code"})

	// BusyRejectionsTotal counts executions rejected by the per-symbol lock.
	BusyRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bracketd_busy_rejections_total",
		Help: "Executions rejected because the instrument was busy",
	}, []string{"symbol"})

	// IndeterminateFillsTotal counts entries whose fill price could not be
	// resolved. Any non-zero value requires manual inspection.
	IndeterminateFillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bracketd_indeterminate_fills_total",
		Help: "Entries accepted with an unresolvable fill price",
	})

	// PartialBracketsTotal counts brackets where exactly one leg placed.
	PartialBracketsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bracketd_partial_brackets_total",
		Help: "Bracket attempts that left the position unprotected on one side",
	})

	// OrderLatency observes venue order round-trip latency.
	OrderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bracketd_order_latency_seconds",
		Help:    "Venue order round-trip latency",
		Buckets: prometheus.DefBuckets,
	})

	// ExecutionLatency observes end-to-end signal handling latency.
	ExecutionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bracketd_execution_latency_seconds",
		Help:    "End-to-end signal handling latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	// GatewayUp reports venue gateway connectivity.
	GatewayUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bracketd_gateway_up",
		Help: "Venue gateway connectivity (1 = connected)",
	})

	// HeartbeatTimestamp is the unix time of the last processed signal.
	HeartbeatTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bracketd_heartbeat_timestamp",
		Help: "Unix timestamp of the last processed signal",
	})
)
