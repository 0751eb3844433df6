package messaging

const (
	StockAdjustedSubject    = "inventory.stock.adjusted"
	PurchaseRecordedSubject = "inventory.purchases.recorded"
	SaleRecordedSubject     = "inventory.sales.recorded"
)
