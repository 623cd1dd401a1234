package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo (propiedad de un subsistema externo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetThreshold devuelve el punto de reorden del producto en la bodega; cero si no está configurado.
	GetThreshold(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error)
}
