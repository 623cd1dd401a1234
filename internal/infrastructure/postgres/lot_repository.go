package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes de recepción con el saldo calculado en la misma consulta.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotBalanceSelect = `
	SELECT l.id, l.product_id, l.warehouse_id, l.received_quantity, l.invoice_reference, l.created_at,
	       l.received_quantity - COALESCE(SUM(a.quantity), 0) AS remaining
	FROM lots l
	LEFT JOIN lot_allocations a ON a.lot_id = l.id`

// ListConsumable lotes con saldo > 0, del más antiguo al más nuevo.
func (r *LotRepo) ListConsumable(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	return r.list(ctx, lotBalanceSelect+`
		WHERE l.product_id = $1 AND l.warehouse_id = $2
		GROUP BY l.id
		HAVING l.received_quantity - COALESCE(SUM(a.quantity), 0) > 0
		ORDER BY l.created_at, l.id`, productID, warehouseID)
}

// ListByProduct todos los lotes del par, incluidos los agotados.
func (r *LotRepo) ListByProduct(ctx context.Context, productID, warehouseID string) ([]entity.LotBalance, error) {
	return r.list(ctx, lotBalanceSelect+`
		WHERE l.product_id = $1 AND l.warehouse_id = $2
		GROUP BY l.id
		ORDER BY l.created_at, l.id`, productID, warehouseID)
}

// GetBalance devuelve nil, nil si el lote no existe.
func (r *LotRepo) GetBalance(ctx context.Context, lotID string) (*entity.LotBalance, error) {
	var b entity.LotBalance
	err := r.q.QueryRow(ctx, lotBalanceSelect+`
		WHERE l.id = $1
		GROUP BY l.id`, lotID).Scan(
		&b.ID, &b.ProductID, &b.WarehouseID, &b.ReceivedQuantity, &b.InvoiceReference, &b.CreatedAt, &b.Remaining,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot balance: %w", err)
	}
	return &b, nil
}

// Insert registra un lote recibido. Solo la usa la importación (productor de lotes).
func (r *LotRepo) Insert(ctx context.Context, lot *entity.Lot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lots (id, product_id, warehouse_id, received_quantity, invoice_reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		lot.ID, lot.ProductID, lot.WarehouseID, lot.ReceivedQuantity, lot.InvoiceReference, lot.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s ya existe: %w", lot.ID, err)
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]entity.LotBalance, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var out []entity.LotBalance
	for rows.Next() {
		var b entity.LotBalance
		if err := rows.Scan(
			&b.ID, &b.ProductID, &b.WarehouseID, &b.ReceivedQuantity, &b.InvoiceReference, &b.CreatedAt, &b.Remaining,
		); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
