package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una salida. No existe estado "eliminado": borrar elimina el documento.
const (
	ExitStatusPending   = "pending"
	ExitStatusCompleted = "completed"
)

// Modos de asignación, siempre elegidos explícitamente por el llamador.
const (
	AllocationModeFIFO   = "fifo_auto"
	AllocationModeManual = "manual"
)

// ExitDocument representa una salida de inventario y sus asignaciones a lotes.
type ExitDocument struct {
	ID                string
	ProductID         string
	WarehouseID       string
	RequestedQuantity decimal.Decimal
	Status            string
	AllocationMode    string
	SelectedInvoice   string
	Note              string
	ExpiresAt         *time.Time
	Revision          int
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Allocations       []*Allocation
}

// IsPending indica si la salida sigue pendiente de completar.
func (e *ExitDocument) IsPending() bool {
	return e.Status == ExitStatusPending
}

// AllocatedQuantity suma las cantidades de sus asignaciones.
func (e *ExitDocument) AllocatedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, a := range e.Allocations {
		total = total.Add(a.Quantity)
	}
	return total
}
