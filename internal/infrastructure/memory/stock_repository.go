package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// StockRepository implementa repository.StockRepository en memoria.
type StockRepository struct {
	sc scope
}

func (r *StockRepository) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	var out entity.Stock
	_ = r.sc.read(func(s *state) error {
		out = stockOrZero(s, productID, warehouseID)
		return nil
	})
	return &out, nil
}

// GetForUpdate dentro de Run el bloqueo global ya serializa; crea la fila en cero como Postgres.
func (r *StockRepository) GetForUpdate(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	var out entity.Stock
	_ = r.sc.write(func(s *state) error {
		out = stockOrZero(s, productID, warehouseID)
		s.stock[key{productID, warehouseID}] = out
		return nil
	})
	return &out, nil
}

func (r *StockRepository) Upsert(_ context.Context, stock *entity.Stock) error {
	return r.sc.write(func(s *state) error {
		s.stock[key{stock.ProductID, stock.WarehouseID}] = *stock
		return nil
	})
}

func (r *StockRepository) ListLevels(_ context.Context, productIDs []string, warehouseID string) ([]entity.StockLevel, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	var out []entity.StockLevel
	_ = r.sc.read(func(s *state) error {
		keys := map[key]struct{}{}
		for k := range s.stock {
			keys[k] = struct{}{}
		}
		for k := range s.thresholds {
			keys[k] = struct{}{}
		}
		for k := range keys {
			if _, ok := wanted[k.productID]; !ok {
				continue
			}
			if warehouseID != "" && k.warehouseID != warehouseID {
				continue
			}
			st := stockOrZero(s, k.productID, k.warehouseID)
			out = append(out, entity.StockLevel{
				ProductID:   k.productID,
				WarehouseID: k.warehouseID,
				Quantity:    st.Quantity,
				Threshold:   s.thresholds[k],
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, nil
}

func stockOrZero(s *state, productID, warehouseID string) entity.Stock {
	if st, ok := s.stock[key{productID, warehouseID}]; ok {
		return st
	}
	return entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}
}
