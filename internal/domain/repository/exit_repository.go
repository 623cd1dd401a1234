package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ExitRepository define el puerto de persistencia para salidas y sus asignaciones.
type ExitRepository interface {
	Create(ctx context.Context, exit *entity.ExitDocument) error
	// GetByID devuelve nil, nil si no existe. No carga asignaciones.
	GetByID(ctx context.Context, id string) (*entity.ExitDocument, error)
	// GetForUpdate bloquea la fila de la salida; nil, nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.ExitDocument, error)
	Update(ctx context.Context, exit *entity.ExitDocument) error
	Delete(ctx context.Context, id string) error

	ListAllocations(ctx context.Context, exitID string) ([]*entity.Allocation, error)
	InsertAllocations(ctx context.Context, allocations []*entity.Allocation) error
	DeleteAllocations(ctx context.Context, exitID string) error

	// ListExpiredPending devuelve IDs de salidas pendientes con expires_at <= now.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]string, error)
}
