package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ProductRepository implementa repository.ProductRepository en memoria.
type ProductRepository struct {
	sc scope
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	_ = r.sc.read(func(s *state) error {
		if p, ok := s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, nil
}

func (r *ProductRepository) GetThreshold(_ context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	threshold := decimal.Zero
	_ = r.sc.read(func(s *state) error {
		if t, ok := s.thresholds[key{productID, warehouseID}]; ok {
			threshold = t
		}
		return nil
	})
	return threshold, nil
}

// WarehouseRepository implementa repository.WarehouseRepository en memoria.
type WarehouseRepository struct {
	sc scope
}

func (r *WarehouseRepository) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	_ = r.sc.read(func(s *state) error {
		if w, ok := s.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, nil
}
