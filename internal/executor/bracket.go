package executor

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
	"github.com/vqhuy/bracketd/internal/venue"
)

// placeBracket protects a freshly opened position: it sweeps stale
// protective orders left over from earlier brackets on the same instrument,
// then places the stop-loss and take-profit legs. Leg failures are
// independent; a one-legged bracket is reported as such, never papered over.
func (x *Executor) placeBracket(ctx context.Context, symbol string, side types.OrderSide, fillPrice decimal.Decimal) *types.BracketStatus {
	status := &types.BracketStatus{Symbol: symbol}

	status.CancelErrors = x.sweepStaleOrders(ctx, symbol)

	slPrice, tpPrice := x.bracketPrices(side, fillPrice)
	exitSide := side.Opposite()

	status.StopLoss = x.placeLeg(ctx, symbol, types.StopKindStopLoss, exitSide, slPrice)
	status.TakeProfit = x.placeLeg(ctx, symbol, types.StopKindTakeProfit, exitSide, tpPrice)

	if status.Partial() {
		x.recorder.RecordPartialBracket()
		x.logger.Error("bracket incomplete, position partially unprotected",
			"symbol", symbol,
			"stop_loss_placed", status.StopLoss.Placed(),
			"take_profit_placed", status.TakeProfit.Placed(),
		)
	}
	return status
}

// sweepStaleOrders cancels protective orders remaining from previous
// positions on the instrument. An order already gone counts as success; the
// desired end state is "order absent", not "cancel succeeded". Failures are
// collected but do not block the new bracket.
func (x *Executor) sweepStaleOrders(ctx context.Context, symbol string) []error {
	open, err := x.gw.OpenOrders(ctx, symbol)
	if err != nil {
		x.logger.Warn("listing open orders failed, skipping stale sweep",
			"symbol", symbol, "err", err)
		return []error{err}
	}

	var errs []error
	for _, o := range open {
		if !types.IsProtective(o.Type) {
			continue
		}

		outcome, err := x.gw.CancelOrder(ctx, symbol, o.OrderID)
		x.recorder.RecordCancelOutcome(outcome)

		switch outcome {
		case types.Cancelled:
			x.logger.Info("cancelled stale protective order",
				"symbol", symbol, "order_id", o.OrderID, "type", o.Type)
		case types.AlreadyGone:
			x.logger.Debug("stale order already gone",
				"symbol", symbol, "order_id", o.OrderID)
		case types.CancelFailed:
			x.logger.Warn("cancelling stale order failed",
				"symbol", symbol, "order_id", o.OrderID, "err", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// bracketPrices computes the protective trigger prices from the entry fill.
// Long positions stop below and take profit above; short positions mirror.
func (x *Executor) bracketPrices(side types.OrderSide, fillPrice decimal.Decimal) (sl, tp decimal.Decimal) {
	if side == types.OrderSideBuy {
		sl = fillPrice.Sub(x.cfg.StopLossOffset)
		tp = fillPrice.Add(x.cfg.TakeProfitOffset)
	} else {
		sl = fillPrice.Add(x.cfg.StopLossOffset)
		tp = fillPrice.Sub(x.cfg.TakeProfitOffset)
	}
	return x.roundToTick(sl), x.roundToTick(tp)
}

func (x *Executor) roundToTick(p decimal.Decimal) decimal.Decimal {
	if !x.cfg.TickSize.IsPositive() {
		return p
	}
	return p.Div(x.cfg.TickSize).Round(0).Mul(x.cfg.TickSize)
}

// placeLeg places a single protective order closing the whole position.
func (x *Executor) placeLeg(ctx context.Context, symbol string, kind types.StopKind, side types.OrderSide, trigger decimal.Decimal) types.BracketLeg {
	leg := types.BracketLeg{Kind: kind, TriggerPrice: trigger}

	ack, err := x.gw.PlaceStopOrder(ctx, venue.StopOrder{
		Symbol:        symbol,
		Kind:          kind,
		Side:          side,
		TriggerPrice:  trigger,
		ClosePosition: true,
		ClientOrderID: clientOrderID(),
	})
	if err != nil {
		if ve, ok := types.AsVenueError(err); ok {
			x.recorder.RecordVenueError(ve.Code)
		}
		leg.Err = err
		x.recorder.RecordBracketLeg(kind, false)
		x.logger.Error("protective order failed",
			"symbol", symbol,
			"kind", string(kind),
			"trigger", trigger.String(),
			"err", err,
		)
		return leg
	}

	leg.OrderID = ack.OrderID
	x.recorder.RecordBracketLeg(kind, true)
	x.logger.Info("protective order placed",
		"symbol", symbol,
		"kind", string(kind),
		"order_id", ack.OrderID,
		"trigger", trigger.String(),
	)
	return leg
}
