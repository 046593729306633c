package executor

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vqhuy/bracketd/internal/types"
)

// ValidateQuantity parses and screens an order quantity before any network
// traffic. The raw string is preserved up to this point so that exact
// blocklist comparison is not subject to float drift.
func (c Config) ValidateQuantity(raw string) (decimal.Decimal, error) {
	qty, err := decimal.NewFromString(raw)
	if err != nil || !qty.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", types.ErrQuantityParse, raw)
	}

	for _, blocked := range c.BlockedQuantities {
		if qty.Equal(blocked) {
			return decimal.Zero, fmt.Errorf("%w: %s", types.ErrQuantityBlocked, qty)
		}
	}

	if c.MaxQuantity.IsPositive() && qty.GreaterThan(c.MaxQuantity) {
		return decimal.Zero, fmt.Errorf("%w: %s exceeds %s", types.ErrQuantityCeiling, qty, c.MaxQuantity)
	}

	return qty, nil
}
