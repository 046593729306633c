// Package engine coordinates signal handling: dispatching to the executor,
// notifying operators, and journalling outcomes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vqhuy/bracketd/internal/alerting"
	"github.com/vqhuy/bracketd/internal/executor"
	"github.com/vqhuy/bracketd/internal/journal"
	"github.com/vqhuy/bracketd/internal/metrics"
	"github.com/vqhuy/bracketd/internal/types"
)

// Result is the envelope surfaced to the caller for every handled signal.
type Result struct {
	Status string `json:"status"` // success | error
	Detail string `json:"detail"`
}

func success(detail string) Result { return Result{Status: "success", Detail: detail} }

func failure(detail string) Result { return Result{Status: "error", Detail: detail} }

// Engine routes normalized signals to the executor and fans the outcome out
// to alerting, metrics and the journal.
type Engine struct {
	exec     *executor.Executor
	alerter  alerting.Alerter
	journal  journal.Journal
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// New creates a new engine. A nil journal disables journalling.
func New(exec *executor.Executor, alerter alerting.Alerter, jnl journal.Journal, recorder *metrics.Recorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}
	if jnl == nil {
		jnl = journal.Noop{}
	}
	if alerter == nil {
		alerter = alerting.NewConsoleAlerter(logger)
	}

	return &Engine{
		exec:     exec,
		alerter:  alerter,
		journal:  jnl,
		recorder: recorder,
		logger:   logger,
	}
}

// Handle executes one signal end to end and returns the result envelope.
// Handle never returns an error; failures are encoded in the envelope so
// the ingress layer can relay them verbatim.
func (e *Engine) Handle(ctx context.Context, sig types.Signal) Result {
	timer := e.recorder.NewTimer()
	defer timer.ObserveExecution(sig.Action)

	e.recorder.RecordSignal(sig.Action)
	e.logger.Info("signal received",
		"signal_id", sig.ID,
		"action", sig.Action.String(),
		"symbol", sig.Symbol,
	)

	rec := journal.ExecutionRecord{
		SignalID:   sig.ID,
		ReceivedAt: sig.ReceivedAt,
		Action:     sig.Action,
		Symbol:     sig.Symbol,
	}

	var res Result
	switch sig.Action {
	case types.ActionEnter:
		res = e.handleEnter(ctx, sig, &rec)
	case types.ActionClose:
		res = e.handleClose(ctx, sig, &rec)
	default:
		res = e.handleNotify(ctx, sig)
		// Notify-only signals touch no venue state and are not journalled.
		return res
	}

	rec.Status = res.Status
	rec.Detail = res.Detail
	if err := e.journal.RecordExecution(ctx, rec); err != nil {
		e.logger.Error("journal write failed", "signal_id", sig.ID, "err", err)
	}

	return res
}

func (e *Engine) handleEnter(ctx context.Context, sig types.Signal, rec *journal.ExecutionRecord) Result {
	out, err := e.exec.Enter(ctx, sig)

	if out != nil && out.Entry != nil {
		rec.OrderID = out.Entry.OrderID
		rec.Side = string(out.Entry.Side)
		rec.Quantity = out.Entry.ExecutedQty
		rec.AvgPrice = out.Entry.AvgFillPrice
		rec.PriceSource = out.Entry.PriceSource.String()
	}
	if out != nil && out.Bracket != nil {
		if jerr := e.journal.RecordLegs(ctx, sig.ID, out.Bracket); jerr != nil {
			e.logger.Error("journal legs write failed", "signal_id", sig.ID, "err", jerr)
		}
	}

	if err != nil {
		if errors.Is(err, types.ErrIndeterminateFill) {
			return e.handleIndeterminate(ctx, sig, out)
		}
		e.logger.Error("entry failed", "signal_id", sig.ID, "symbol", sig.Symbol, "err", err)
		return failure(fmt.Sprintf("entry %s: %v", sig.Symbol, err))
	}

	_ = e.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventPositionOpened),
		"Position opened",
		"symbol", sig.Symbol,
		"direction", sig.Direction.String(),
		"qty", sig.Quantity,
		"avg_price", out.Entry.AvgFillPrice.String(),
	)

	if !out.Bracket.Complete() {
		e.alertPartialBracket(ctx, sig, out.Bracket)
		return failure(fmt.Sprintf("entered %s but bracket incomplete: sl_placed=%t tp_placed=%t",
			sig.Symbol, out.Bracket.StopLoss.Placed(), out.Bracket.TakeProfit.Placed()))
	}

	return success(fmt.Sprintf("entered %s %s qty=%s @ %s (sl=%s tp=%s)",
		sig.Direction, sig.Symbol, sig.Quantity,
		out.Entry.AvgFillPrice,
		out.Bracket.StopLoss.TriggerPrice,
		out.Bracket.TakeProfit.TriggerPrice,
	))
}

// handleIndeterminate surfaces the highest-severity runtime condition: an
// accepted entry whose fill price is unknown. Nothing is retried and no
// protective order is placed on a guessed price; an operator must look.
func (e *Engine) handleIndeterminate(ctx context.Context, sig types.Signal, out *executor.EnterOutcome) Result {
	fields := []any{"symbol", sig.Symbol, "signal_id", sig.ID}
	if out != nil && out.Entry != nil {
		fields = append(fields, "order_id", out.Entry.OrderID, "status", out.Entry.Status)
	}

	_ = e.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventIndeterminateFill),
		"Entry accepted but fill price unresolved, manual inspection required", fields...)

	return failure(fmt.Sprintf("indeterminate fill on %s: order accepted, price unknown, no bracket placed", sig.Symbol))
}

func (e *Engine) alertPartialBracket(ctx context.Context, sig types.Signal, b *types.BracketStatus) {
	legErr := b.StopLoss.Err
	if legErr == nil {
		legErr = b.TakeProfit.Err
	}

	_ = e.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventPartialBracket),
		"Bracket incomplete, position partially unprotected",
		"symbol", sig.Symbol,
		"stop_loss_placed", b.StopLoss.Placed(),
		"take_profit_placed", b.TakeProfit.Placed(),
		"err", legErr,
	)
}

func (e *Engine) handleClose(ctx context.Context, sig types.Signal, rec *journal.ExecutionRecord) Result {
	out, err := e.exec.Close(ctx, sig.Symbol)
	if err != nil {
		e.logger.Error("close failed", "signal_id", sig.ID, "symbol", sig.Symbol, "err", err)
		return failure(fmt.Sprintf("close %s: %v", sig.Symbol, err))
	}

	if out.NoPosition {
		return success(fmt.Sprintf("no open position on %s", sig.Symbol))
	}

	rec.OrderID = out.OrderID
	rec.Side = string(out.Side)
	rec.Quantity = out.ClosedQty

	_ = e.alerter.Alert(ctx, alerting.EventSeverity(alerting.EventPositionClosed),
		"Position closed",
		"symbol", sig.Symbol,
		"qty", out.ClosedQty.String(),
		"side", string(out.Side),
	)

	return success(fmt.Sprintf("closed %s qty=%s", sig.Symbol, out.ClosedQty))
}

// handleNotify forwards the signal to the notification channel without
// touching the venue.
func (e *Engine) handleNotify(ctx context.Context, sig types.Signal) Result {
	msg := formatNotification(sig)

	if err := e.alerter.Alert(ctx, alerting.SeverityInfo, msg); err != nil {
		e.logger.Error("notification delivery failed", "signal_id", sig.ID, "err", err)
		return failure(fmt.Sprintf("notify: %v", err))
	}

	return success("notification sent")
}

// formatNotification renders a signal for human consumption. Structured
// signals get a field-by-field summary; anything else is forwarded raw.
func formatNotification(sig types.Signal) string {
	if sig.Symbol == "" {
		return "Received alert:\n\n" + sig.Raw
	}

	msg := fmt.Sprintf("New alert for %s", sig.Symbol)
	if sig.Direction != types.SideFlat {
		msg += fmt.Sprintf("\nDirection: %s", sig.Direction)
	}
	if sig.Price != "" {
		msg += fmt.Sprintf("\nEntry Price: %s", sig.Price)
	}
	if sig.Quantity != "" {
		msg += fmt.Sprintf("\nQuantity: %s", sig.Quantity)
	}
	if sig.StopLoss != "" {
		msg += fmt.Sprintf("\nStop Loss: %s", sig.StopLoss)
	}
	if sig.TakeProfit != "" {
		msg += fmt.Sprintf("\nTake Profit: %s", sig.TakeProfit)
	}
	return msg
}
