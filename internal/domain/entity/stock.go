package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el stock actual de un producto en una bodega (ledger agregado).
// Es la única fuente de verdad de "cuánto se puede sacar ahora"; solo se muta con
// incrementos y decrementos del StockLedger.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}

// StockLevel combina stock y punto de reorden para una consulta de bajo stock.
type StockLevel struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Threshold   decimal.Decimal
}

// IsLow indica si la cantidad está en o por debajo del punto de reorden.
func (l StockLevel) IsLow() bool {
	return l.Quantity.LessThanOrEqual(l.Threshold)
}
