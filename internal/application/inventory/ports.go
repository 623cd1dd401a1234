package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de lotes: si fn retorna error se hace rollback de todo
// (ledger, asignaciones y documento).
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		lotRepo repository.LotRepository,
		exitRepo repository.ExitRepository,
	) error) error
}

// LowStockAlert evento post-commit que consume el subsistema de notificaciones.
type LowStockAlert struct {
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Quantity    string    `json:"quantity"`
	Threshold   string    `json:"threshold"`
	RaisedAt    time.Time `json:"raised_at"`
}

// AlertPublisher entrega alertas de bajo stock fuera de la transacción.
type AlertPublisher interface {
	PublishLowStock(ctx context.Context, alert LowStockAlert) error
}

// AlertDeduper evita repetir la misma alerta mientras el stock siga bajo.
// Acquire devuelve false si ya había una alerta activa para la clave.
type AlertDeduper interface {
	Acquire(ctx context.Context, productID, warehouseID string) (bool, error)
	Release(ctx context.Context, productID, warehouseID string) error
}

// Tipos de evento de salida.
const (
	ExitEventAllocated = "allocated"
	ExitEventCompleted = "completed"
	ExitEventDeleted   = "deleted"
)

// ExitEvent es la lista final de asignaciones de una salida ya confirmada.
// Lo consume la generación de documentos (comprobante) de forma asíncrona e idempotente:
// (ExitID, Revision, Type) identifica el evento.
type ExitEvent struct {
	Type        string            `json:"type"`
	ExitID      string            `json:"exit_id"`
	Revision    int               `json:"revision"`
	Status      string            `json:"status"`
	ProductID   string            `json:"product_id"`
	WarehouseID string            `json:"warehouse_id"`
	Quantity    string            `json:"quantity"`
	Allocations []AllocationEvent `json:"allocations"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// AllocationEvent línea del comprobante: lote, cantidad y referencia de factura congelada.
type AllocationEvent struct {
	LotID            string `json:"lot_id"`
	Quantity         string `json:"quantity"`
	InvoiceReference string `json:"invoice_reference"`
}

// EventPublisher entrega eventos de salida fuera de la transacción.
type EventPublisher interface {
	PublishExitEvent(ctx context.Context, evt ExitEvent) error
}

// Recorder recibe métricas de las operaciones del motor.
type Recorder interface {
	ObserveOperation(operation, result string, elapsed time.Duration)
	ObserveAllocation(mode string, lots int)
	IncLowStockAlert()
}
