package executor

import (
	"context"
	"fmt"

	"github.com/vqhuy/bracketd/internal/types"
)

// ensureLeverage sets the target leverage before entry. The venue reports
// "already at target" as an error code; that specific code is treated as
// success since the desired state holds. Any other failure aborts the
// sequence before a single order is placed.
func (x *Executor) ensureLeverage(ctx context.Context, symbol string) error {
	err := x.gw.SetLeverage(ctx, symbol, x.cfg.Leverage)
	if err == nil {
		return nil
	}

	if ve, ok := types.AsVenueError(err); ok {
		if ve.Code == x.cfg.LeverageUnchangedCode {
			x.logger.Debug("leverage already at target",
				"symbol", symbol,
				"leverage", x.cfg.Leverage,
			)
			return nil
		}
		x.recorder.RecordVenueError(ve.Code)
	}

	x.logger.Error("leverage confirmation failed",
		"symbol", symbol,
		"leverage", x.cfg.Leverage,
		"err", err,
	)
	return fmt.Errorf("set leverage %s: %w", symbol, err)
}
