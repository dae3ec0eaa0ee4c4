package export

import (
	"strconv"

	"github.com/padelhub/storefront/internal/catalog"
	"github.com/padelhub/storefront/internal/pricing"
)

// Header is the column set shared by every format.
var Header = []string{
	"Código",
	"Producto",
	"Categoría",
	"Stock",
	"Precio base",
	"Recargo %",
	"Precio final",
	"Estado",
	"Marca",
}

// record is one exported row, shaped for gocsv. Field order follows Header.
type record struct {
	Code      string `csv:"Código"`
	Name      string `csv:"Producto"`
	Category  string `csv:"Categoría"`
	Stock     string `csv:"Stock"`
	BasePrice string `csv:"Precio base"`
	Surcharge string `csv:"Recargo %"`
	Final     string `csv:"Precio final"`
	Status    string `csv:"Estado"`
	Brand     string `csv:"Marca"`
}

func toRecord(r catalog.Row, f *pricing.Formatter) record {
	p := r.Product
	return record{
		Code:      p.Code,
		Name:      p.Name,
		Category:  p.Category.Label(),
		Stock:     strconv.Itoa(p.Stock),
		BasePrice: f.Format(r.Price.Base, p.Currency),
		Surcharge: f.FormatPercent(r.Price.SurchargePercent, p.Currency),
		Final:     f.Format(r.Price.Final, p.Currency),
		Status:    r.Status.Label(),
		Brand:     p.Brand,
	}
}

func (r record) cells() []string {
	return []string{r.Code, r.Name, r.Category, r.Stock, r.BasePrice, r.Surcharge, r.Final, r.Status, r.Brand}
}
