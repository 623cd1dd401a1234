package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetByID obtiene un producto por ID; nil, nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, sku, name, unit_measure, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.SKU, &p.Name, &p.UnitMeasure, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetThreshold punto de reorden de (producto, bodega); cero si no está configurado.
func (r *ProductRepo) GetThreshold(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	var threshold decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT threshold FROM stock_thresholds
		WHERE product_id = $1 AND warehouse_id = $2`, productID, warehouseID).Scan(&threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get threshold: %w", err)
	}
	return threshold, nil
}

// Upsert crea o actualiza el producto por ID. Lo usa la importación de lotes.
func (r *ProductRepo) Upsert(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, sku, name, unit_measure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name,
			unit_measure = EXCLUDED.unit_measure, updated_at = now()`,
		p.ID, p.SKU, p.Name, p.UnitMeasure,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %s duplicado: %w", p.SKU, err)
		}
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// SetThreshold fija el punto de reorden.
func (r *ProductRepo) SetThreshold(ctx context.Context, t entity.StockThreshold) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_thresholds (product_id, warehouse_id, threshold)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, warehouse_id) DO UPDATE SET threshold = EXCLUDED.threshold`,
		t.ProductID, t.WarehouseID, t.Threshold,
	)
	if err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	return nil
}
