package catalog

import (
	"go.uber.org/zap"

	"github.com/padelhub/storefront/internal/pricing"
	"github.com/padelhub/storefront/pkg/model"
)

// Row is a product with its derived price and stock status. Every screen and
// export reads prices from here.
type Row struct {
	Product model.Product
	Price   pricing.Price
	Status  pricing.StockStatus
}

// BuildRows resolves prices and statuses for products, keeping their order.
// A backend-supplied final price that disagrees with the derived one is
// logged and ignored.
func BuildRows(products []model.Product, log *zap.Logger) []Row {
	if log == nil {
		log = zap.NewNop()
	}
	rows := make([]Row, 0, len(products))
	for _, p := range products {
		price := pricing.ResolveProduct(p)
		if p.FinalPrice != nil && !p.FinalPrice.Round(2).Equal(price.FinalRounded()) {
			log.Debug("catalog.final_price_mismatch",
				zap.String("product_id", p.ID),
				zap.String("backend", p.FinalPrice.String()),
				zap.String("derived", price.FinalRounded().StringFixed(2)),
			)
		}
		rows = append(rows, Row{
			Product: p,
			Price:   price,
			Status:  pricing.Classify(p.Stock),
		})
	}
	return rows
}
