package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/padelhub/storefront/pkg/model"
)

// Aggregate sums the transport, margin and other surcharges into a single
// percentage. Surcharges add up, they do not compound, and the total is not
// capped at 100.
func Aggregate(s model.Surcharges) decimal.Decimal {
	return nonNegative(s.Transport).
		Add(nonNegative(s.Margin)).
		Add(nonNegative(s.Other))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
