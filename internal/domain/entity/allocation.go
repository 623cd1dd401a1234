package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation registra cuánto de un lote consumió una salida.
// InvoiceReferenceSnapshot se copia al asignar para que el histórico no cambie
// si luego cambia el metadato del lote.
type Allocation struct {
	ID                       string
	ExitID                   string
	LotID                    string
	Quantity                 decimal.Decimal
	InvoiceReferenceSnapshot string
	CreatedAt                time.Time
}
