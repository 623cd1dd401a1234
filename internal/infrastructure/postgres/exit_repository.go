package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

var _ repository.ExitRepository = (*ExitRepo)(nil)

// ExitRepo salidas y asignaciones sobre PostgreSQL.
type ExitRepo struct {
	q Querier
}

// NewExitRepository construye el adaptador de salidas. Pasar pool o tx (Querier).
func NewExitRepository(q Querier) *ExitRepo {
	return &ExitRepo{q: q}
}

const exitColumns = `id, product_id, warehouse_id, requested_quantity, status, allocation_mode,
	selected_invoice, note, expires_at, revision, created_by, created_at, updated_at`

func scanExit(row pgx.Row) (*entity.ExitDocument, error) {
	var e entity.ExitDocument
	err := row.Scan(
		&e.ID, &e.ProductID, &e.WarehouseID, &e.RequestedQuantity, &e.Status, &e.AllocationMode,
		&e.SelectedInvoice, &e.Note, &e.ExpiresAt, &e.Revision, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create persiste el documento (sin asignaciones).
func (r *ExitRepo) Create(ctx context.Context, exit *entity.ExitDocument) error {
	query := `INSERT INTO exit_documents (` + exitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		exit.ID, exit.ProductID, exit.WarehouseID, exit.RequestedQuantity, exit.Status, exit.AllocationMode,
		exit.SelectedInvoice, exit.Note, exit.ExpiresAt, exit.Revision, exit.CreatedBy, exit.CreatedAt, exit.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Errorf(domain.ErrNotFound, "producto o bodega inexistente para la salida %s", exit.ID)
		}
		return fmt.Errorf("insert exit: %w", err)
	}
	return nil
}

// GetByID obtiene una salida por ID; nil, nil si no existe.
func (r *ExitRepo) GetByID(ctx context.Context, id string) (*entity.ExitDocument, error) {
	return r.get(ctx, `SELECT `+exitColumns+` FROM exit_documents WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la tx.
func (r *ExitRepo) GetForUpdate(ctx context.Context, id string) (*entity.ExitDocument, error) {
	return r.get(ctx, `SELECT `+exitColumns+` FROM exit_documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *ExitRepo) get(ctx context.Context, query, id string) (*entity.ExitDocument, error) {
	e, err := scanExit(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exit: %w", err)
	}
	return e, nil
}

// Update reescribe los campos mutables del documento.
func (r *ExitRepo) Update(ctx context.Context, exit *entity.ExitDocument) error {
	query := `
		UPDATE exit_documents SET
			product_id = $2, warehouse_id = $3, requested_quantity = $4, status = $5, allocation_mode = $6,
			selected_invoice = $7, note = $8, expires_at = $9, revision = $10, updated_at = $11
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		exit.ID, exit.ProductID, exit.WarehouseID, exit.RequestedQuantity, exit.Status, exit.AllocationMode,
		exit.SelectedInvoice, exit.Note, exit.ExpiresAt, exit.Revision, exit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update exit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Errorf(domain.ErrNotFound, "salida %s no encontrada", exit.ID)
	}
	return nil
}

// Delete elimina el documento. Falla por FK si aún tiene asignaciones.
func (r *ExitRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM exit_documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exit: %w", err)
	}
	return nil
}

// ListAllocations asignaciones de la salida en el orden en que se insertaron.
func (r *ExitRepo) ListAllocations(ctx context.Context, exitID string) ([]*entity.Allocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, exit_id, lot_id, quantity, invoice_reference_snapshot, created_at
		FROM lot_allocations WHERE exit_id = $1
		ORDER BY line_no`, exitID)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []*entity.Allocation
	for rows.Next() {
		var a entity.Allocation
		if err := rows.Scan(&a.ID, &a.ExitID, &a.LotID, &a.Quantity, &a.InvoiceReferenceSnapshot, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// InsertAllocations inserta las filas en orden; line_no conserva el orden del reparto.
func (r *ExitRepo) InsertAllocations(ctx context.Context, allocations []*entity.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	for i, a := range allocations {
		_, err := r.q.Exec(ctx, `
			INSERT INTO lot_allocations (id, exit_id, lot_id, line_no, quantity, invoice_reference_snapshot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, a.ExitID, a.LotID, i+1, a.Quantity, a.InvoiceReferenceSnapshot, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert allocation %s: %w", a.ID, err)
		}
	}
	return nil
}

// DeleteAllocations elimina todas las asignaciones de la salida.
func (r *ExitRepo) DeleteAllocations(ctx context.Context, exitID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM lot_allocations WHERE exit_id = $1`, exitID); err != nil {
		return fmt.Errorf("delete allocations: %w", err)
	}
	return nil
}

// ListExpiredPending usa el índice parcial sobre expires_at de las pendientes.
func (r *ExitRepo) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id FROM exit_documents
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at, id
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired exits: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exit id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
