package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/padelhub/storefront/pkg/model"
)

var hundred = decimal.NewFromInt(100)

// Price is the derived pricing of one product. List and Final keep full
// precision; use the Rounded accessors for display.
type Price struct {
	Base             decimal.Decimal
	SurchargePercent decimal.Decimal
	DiscountPercent  decimal.Decimal
	List             decimal.Decimal
	Final            decimal.Decimal
}

// Resolve derives the list (pre-discount) and final price.
//
//	list  = base * (1 + surcharge/100)
//	final = list * (1 - discount/100)
//
// Negative inputs count as zero and a discount above 100 counts as 100.
func Resolve(base decimal.Decimal, s model.Surcharges, discount decimal.Decimal) Price {
	base = nonNegative(base)
	discount = nonNegative(discount)
	if discount.GreaterThan(hundred) {
		discount = hundred
	}
	surcharge := Aggregate(s)

	list := base.Mul(hundred.Add(surcharge)).Div(hundred)
	final := list.Mul(hundred.Sub(discount)).Div(hundred)

	return Price{
		Base:             base,
		SurchargePercent: surcharge,
		DiscountPercent:  discount,
		List:             list,
		Final:            final,
	}
}

// ResolveProduct resolves the price of a backend product.
func ResolveProduct(p model.Product) Price {
	return Resolve(p.BasePrice, p.Surcharges, p.DiscountPercent)
}

// ListRounded is the list price rounded to cents.
func (p Price) ListRounded() decimal.Decimal {
	return p.List.Round(2)
}

// FinalRounded is the final price rounded to cents.
func (p Price) FinalRounded() decimal.Decimal {
	return p.Final.Round(2)
}

// HasDiscount reports whether the buyer sees a crossed-out list price.
func (p Price) HasDiscount() bool {
	return p.DiscountPercent.IsPositive()
}

// InventoryValue is the final price times the units in stock.
func (p Price) InventoryValue(stock int) decimal.Decimal {
	if stock <= 0 {
		return decimal.Zero
	}
	return p.Final.Mul(decimal.NewFromInt(int64(stock)))
}
