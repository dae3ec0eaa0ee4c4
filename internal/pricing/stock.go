package pricing

// LowStockThreshold is the first quantity considered fully available.
const LowStockThreshold = 10

// StockStatus classifies a stock quantity.
type StockStatus string

const (
	OutOfStock StockStatus = "OutOfStock"
	LowStock   StockStatus = "LowStock"
	Available  StockStatus = "Available"
)

// Classify maps a quantity to its status. Negative quantities are out of stock.
func Classify(stock int) StockStatus {
	switch {
	case stock <= 0:
		return OutOfStock
	case stock < LowStockThreshold:
		return LowStock
	default:
		return Available
	}
}

// Label is the Spanish text shown in tables and exports.
func (s StockStatus) Label() string {
	switch s {
	case OutOfStock:
		return "Sin stock"
	case LowStock:
		return "Stock bajo"
	case Available:
		return "Disponible"
	}
	return string(s)
}
