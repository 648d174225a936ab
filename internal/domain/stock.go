package domain

// StockStatus is the stock label attached to catalog rows
type StockStatus string

const (
	StockAvailable StockStatus = "あり"
	StockLow       StockStatus = "残りわずか"
	StockOut       StockStatus = "なし"
)

// StockStatuses returns the closed set of stock labels
func StockStatuses() []StockStatus {
	return []StockStatus{StockAvailable, StockLow, StockOut}
}
