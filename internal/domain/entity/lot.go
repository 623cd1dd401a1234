package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot es un lote de recepción (una factura de compra recibida en una bodega).
// Inmutable una vez creado; CreatedAt define el orden FIFO. Lo crea el flujo de recepción
// externo, aquí solo se lee y se consume.
type Lot struct {
	ID               string
	ProductID        string
	WarehouseID      string
	ReceivedQuantity decimal.Decimal
	InvoiceReference string
	CreatedAt        time.Time
}

// LotBalance es un lote con su saldo vivo: recibido menos lo asignado por salidas activas.
type LotBalance struct {
	Lot
	Remaining decimal.Decimal
}

// Exhausted indica que el lote ya no tiene saldo (retirado lógicamente).
func (b LotBalance) Exhausted() bool {
	return !b.Remaining.GreaterThan(decimal.Zero)
}
