package metrics

import (
	"strconv"
	"time"

	"github.com/vqhuy/bracketd/internal/types"
)

// Recorder provides methods for recording metrics.
type Recorder struct{}

// NewRecorder creates a new metrics recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordSignal records an inbound signal.
func (r *Recorder) RecordSignal(action types.Action) {
	SignalsTotal.WithLabelValues(action.String()).Inc()
	HeartbeatTimestamp.Set(float64(time.Now().Unix()))
}

// RecordSignalRejected records a pre-network rejection.
func (r *Recorder) RecordSignalRejected(reason string) {
	SignalsRejected.WithLabelValues(reason).Inc()
}

// RecordOrder records an order submission outcome.
func (r *Recorder) RecordOrder(symbol string, side types.OrderSide, status string) {
	OrdersTotal.WithLabelValues(symbol, string(side), status).Inc()
}

// RecordBracketLeg records a protective order placement outcome.
func (r *Recorder) RecordBracketLeg(kind types.StopKind, placed bool) {
	status := "placed"
	if !placed {
		status = "failed"
	}
	BracketLegsTotal.WithLabelValues(string(kind), status).Inc()
}

// RecordCancelOutcome records a stale-order cancellation outcome.
func (r *Recorder) RecordCancelOutcome(outcome types.CancelOutcome) {
	CancelOutcomesTotal.WithLabelValues(outcome.String()).Inc()
}

// RecordVenueError records a venue rejection.
func (r *Recorder) RecordVenueError(code int64) {
	VenueErrorsTotal.WithLabelValues(strconv.FormatInt(code, 10)).Inc()
}

// RecordBusy records a per-symbol lock rejection.
func (r *Recorder) RecordBusy(symbol string) {
	BusyRejectionsTotal.WithLabelValues(symbol).Inc()
}

// RecordIndeterminateFill records an unresolvable fill price.
func (r *Recorder) RecordIndeterminateFill() {
	IndeterminateFillsTotal.Inc()
}

// RecordPartialBracket records a one-legged bracket.
func (r *Recorder) RecordPartialBracket() {
	PartialBracketsTotal.Inc()
}

// RecordGatewayUp records gateway connectivity.
func (r *Recorder) RecordGatewayUp(connected bool) {
	if connected {
		GatewayUp.Set(1)
	} else {
		GatewayUp.Set(0)
	}
}

// NewTimer starts a timer for an operation.
func (r *Recorder) NewTimer() *Timer {
	return NewTimer()
}

// Timer measures an operation's duration.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveOrder records the elapsed time as order latency.
func (t *Timer) ObserveOrder() {
	OrderLatency.Observe(time.Since(t.start).Seconds())
}

// ObserveExecution records the elapsed time as execution latency.
func (t *Timer) ObserveExecution(action types.Action) {
	ExecutionLatency.WithLabelValues(action.String()).Observe(time.Since(t.start).Seconds())
}
