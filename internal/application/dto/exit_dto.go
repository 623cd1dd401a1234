package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotQuantityRequest lote y cantidad elegidos en modo manual.
type LotQuantityRequest struct {
	LotID    string          `json:"lot_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ExitRequest body para POST /api/exits y PUT /api/exits/:id.
// allocation_mode es obligatorio: "fifo_auto" (sin lots) o "manual" (con lots que sumen quantity).
type ExitRequest struct {
	ProductID       string               `json:"product_id"`
	WarehouseID     string               `json:"warehouse_id,omitempty"` // vacío = bodega por defecto del servicio
	Quantity        decimal.Decimal      `json:"quantity"`
	AllocationMode  string               `json:"allocation_mode"`
	Lots            []LotQuantityRequest `json:"lots,omitempty"`
	Status          string               `json:"status,omitempty"` // solo al crear: pending (defecto) o completed
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
	SelectedInvoice string               `json:"selected_invoice,omitempty"`
	Note            string               `json:"note,omitempty"`
	CreatedBy       string               `json:"created_by,omitempty"`
}

// AllocationResponse una línea de asignación con la referencia de factura congelada.
type AllocationResponse struct {
	ID               string          `json:"id"`
	LotID            string          `json:"lot_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	InvoiceReference string          `json:"invoice_reference"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ExitResponse salida con sus asignaciones.
type ExitResponse struct {
	ID                string               `json:"id"`
	ProductID         string               `json:"product_id"`
	WarehouseID       string               `json:"warehouse_id"`
	RequestedQuantity decimal.Decimal      `json:"requested_quantity"`
	Status            string               `json:"status"`
	AllocationMode    string               `json:"allocation_mode"`
	SelectedInvoice   string               `json:"selected_invoice,omitempty"`
	Note              string               `json:"note,omitempty"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty"`
	Revision          int                  `json:"revision"`
	CreatedBy         string               `json:"created_by,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	Allocations       []AllocationResponse `json:"allocations"`
}
