package inventory

import (
	"context"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// LotRegistry acceso de lectura a los lotes con su saldo vivo.
// Dentro de una transacción el saldo se lee después de bloquear el ledger.
type LotRegistry struct {
	repo repository.LotRepository
}

// NewLotRegistry construye el registro sobre un LotRepository (de la tx o del pool).
func NewLotRegistry(repo repository.LotRepository) *LotRegistry {
	return &LotRegistry{repo: repo}
}

// ListConsumable lotes con saldo > 0 del más antiguo al más nuevo.
func (r *LotRegistry) ListConsumable(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	return r.repo.ListConsumable(ctx, productID, warehouseID)
}

// ListAll incluye los lotes agotados (vista de consulta).
func (r *LotRegistry) ListAll(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.Errorf(domain.ErrInvalidInput, "product_id y warehouse_id son obligatorios")
	}
	return r.repo.ListByProduct(ctx, productID, warehouseID)
}

// GetLot devuelve el lote con su saldo o ErrNotFound.
func (r *LotRegistry) GetLot(ctx context.Context, lotID string) (*entity.LotBalance, error) {
	lot, err := r.repo.GetBalance(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.Errorf(domain.ErrNotFound, "lote %s no encontrado", lotID)
	}
	return lot, nil
}

// Balances carga los saldos de los lotes indicados. Los que no existen se omiten del mapa
// y la validación manual los reporta como NotFound.
func (r *LotRegistry) Balances(ctx context.Context, lotIDs []string) (map[string]entity.LotBalance, error) {
	out := make(map[string]entity.LotBalance, len(lotIDs))
	for _, id := range lotIDs {
		if _, ok := out[id]; ok {
			continue
		}
		lot, err := r.repo.GetBalance(ctx, id)
		if err != nil {
			return nil, err
		}
		if lot != nil {
			out[id] = *lot
		}
	}
	return out, nil
}
