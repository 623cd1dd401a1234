package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El motor de lotes solo lee su identidad;
// el catálogo (externo) es el dueño del registro.
type Product struct {
	ID          string
	SKU         string
	Name        string
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StockThreshold es el punto de reorden de un producto en una bodega concreta.
type StockThreshold struct {
	ProductID   string
	WarehouseID string
	Threshold   decimal.Decimal
}
