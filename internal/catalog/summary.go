package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/pkg/model"
)

// Summary aggregates a data source for the dashboard.
type Summary struct {
	Total          int
	OutOfStock     int
	LowStock       int
	Available      int
	Featured       int
	InventoryValue map[model.Currency]decimal.Decimal
}

// Summarize counts rows per stock status and sums inventory value per
// currency. Currencies are never mixed.
func Summarize(rows []Row) Summary {
	s := Summary{InventoryValue: make(map[model.Currency]decimal.Decimal)}
	for _, r := range rows {
		s.Total++
		switch r.Status {
		case pricing.OutOfStock:
			s.OutOfStock++
		case pricing.LowStock:
			s.LowStock++
		case pricing.Available:
			s.Available++
		}
		if r.Product.Featured {
			s.Featured++
		}
		cur := r.Product.Currency
		s.InventoryValue[cur] = s.InventoryValue[cur].Add(r.Price.InventoryValue(r.Product.Stock))
	}
	return s
}
