package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// LotRepository implementa repository.LotRepository en memoria. El saldo se calcula
// contra las asignaciones del estado que ve el scope (la copia de la tx si la hay).
type LotRepository struct {
	sc scope
}

func (r *LotRepository) ListConsumable(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	all, err := r.ListByProduct(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if !b.Exhausted() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *LotRepository) ListByProduct(_ context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	var out []entity.LotBalance
	_ = r.sc.read(func(s *state) error {
		allocated := s.allocatedByLot()
		for _, l := range s.lots {
			if l.ProductID != productID || l.WarehouseID != warehouseID {
				continue
			}
			out = append(out, entity.LotBalance{Lot: l, Remaining: l.ReceivedQuantity.Sub(allocated[l.ID])})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *LotRepository) GetBalance(_ context.Context, lotID string) (*entity.LotBalance, error) {
	var out *entity.LotBalance
	_ = r.sc.read(func(s *state) error {
		l, ok := s.lots[lotID]
		if !ok {
			return nil
		}
		out = &entity.LotBalance{Lot: l, Remaining: l.ReceivedQuantity.Sub(s.allocatedByLot()[lotID])}
		return nil
	})
	return out, nil
}
