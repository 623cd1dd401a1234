package repository

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// LotRepository define el puerto de lectura de lotes de recepción.
// El saldo (Remaining) se calcula en vivo contra las asignaciones existentes, nunca desde caché.
type LotRepository interface {
	// ListConsumable devuelve los lotes con saldo > 0, ordenados por created_at ascendente.
	ListConsumable(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error)
	// ListByProduct devuelve todos los lotes (incluidos agotados) con su saldo.
	ListByProduct(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error)
	// GetBalance devuelve nil, nil si el lote no existe.
	GetBalance(ctx context.Context, lotID string) (*entity.LotBalance, error)
}
