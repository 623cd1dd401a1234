package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por bodega+producto.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get lectura no autoritativa; devuelve stock en cero si la fila no existe.
	Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) hasta el fin de la transacción.
	// Si la fila no existe la crea en cero para que haya algo que bloquear.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	// ListLevels combina stock y puntos de reorden de los productos indicados.
	// warehouseID vacío = todas las bodegas.
	ListLevels(ctx context.Context, productIDs []string, warehouseID string) ([]entity.StockLevel, error)
}
