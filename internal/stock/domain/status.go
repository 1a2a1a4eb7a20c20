package domain

// StockStatus classifies on-hand quantity.
type StockStatus string

const (
	OutOfStock StockStatus = "out_of_stock"
	LowStock   StockStatus = "low_stock"
	InStock    StockStatus = "in_stock"
)

// LowStockThreshold is the largest on-hand still reported as low stock.
const LowStockThreshold = 5

func ValidStockStatus(s StockStatus) bool {
	switch s {
	case OutOfStock, LowStock, InStock:
		return true
	}
	return false
}

// Classify maps an on-hand quantity to its status.
func Classify(onHand float64) StockStatus {
	switch {
	case onHand <= 0:
		return OutOfStock
	case onHand <= LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}
