package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevelResponse fila de GET /api/stock/low.
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Threshold   decimal.Decimal `json:"threshold"`
	IsLow       bool            `json:"is_low"`
}

// LotBalanceResponse lote con su saldo vivo (GET /api/lots).
type LotBalanceResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	WarehouseID      string          `json:"warehouse_id"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	Remaining        decimal.Decimal `json:"remaining"`
	InvoiceReference string          `json:"invoice_reference"`
	CreatedAt        time.Time       `json:"created_at"`
	Exhausted        bool            `json:"exhausted"`
}
