package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Si no existe la inserta en cero primero,
// así dos transacciones sobre un par nuevo también se serializan.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}

	query := `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	var s entity.Stock
	if err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.WarehouseID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return domain.Errorf(domain.ErrInsufficientStock, "stock de %s en %s quedaría negativo", stock.ProductID, stock.WarehouseID)
		}
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListLevels une filas de stock y puntos de reorden de los productos pedidos.
func (r *StockRepo) ListLevels(ctx context.Context, productIDs []string, warehouseID string) ([]entity.StockLevel, error) {
	query := `
		WITH keys AS (
			SELECT product_id, warehouse_id FROM stock
			WHERE product_id = ANY($1) AND ($2::text = '' OR warehouse_id = $2)
			UNION
			SELECT product_id, warehouse_id FROM stock_thresholds
			WHERE product_id = ANY($1) AND ($2::text = '' OR warehouse_id = $2)
		)
		SELECT k.product_id, k.warehouse_id, COALESCE(s.quantity, 0), COALESCE(t.threshold, 0)
		FROM keys k
		LEFT JOIN stock s ON s.product_id = k.product_id AND s.warehouse_id = k.warehouse_id
		LEFT JOIN stock_thresholds t ON t.product_id = k.product_id AND t.warehouse_id = k.warehouse_id
		ORDER BY k.product_id, k.warehouse_id`
	rows, err := r.q.Query(ctx, query, productIDs, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()

	var out []entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.ProductID, &l.WarehouseID, &l.Quantity, &l.Threshold); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
