package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// ReversalCoordinator deshace las asignaciones aplicadas de una salida: devuelve cada cantidad
// al ledger y borra las filas de asignación, liberando el saldo de los lotes.
// Corre en la misma transacción que lo que venga después.
type ReversalCoordinator struct {
	ledger   *StockLedger
	exitRepo repository.ExitRepository
}

// NewReversalCoordinator construye el coordinador sobre el ledger y el repositorio de la tx.
func NewReversalCoordinator(ledger *StockLedger, exitRepo repository.ExitRepository) *ReversalCoordinator {
	return &ReversalCoordinator{ledger: ledger, exitRepo: exitRepo}
}

// Restore incrementa el ledger por cada asignación de la salida y luego las elimina.
// Una segunda llamada no encuentra asignaciones y no mueve stock. Devuelve lo restituido.
func (c *ReversalCoordinator) Restore(ctx context.Context, exit *entity.ExitDocument) (decimal.Decimal, error) {
	allocations, err := c.exitRepo.ListAllocations(ctx, exit.ID)
	if err != nil {
		return decimal.Zero, err
	}
	restored := decimal.Zero
	for _, a := range allocations {
		if err := c.ledger.Increment(ctx, exit.ProductID, exit.WarehouseID, a.Quantity); err != nil {
			return decimal.Zero, err
		}
		restored = restored.Add(a.Quantity)
	}
	if len(allocations) > 0 {
		if err := c.exitRepo.DeleteAllocations(ctx, exit.ID); err != nil {
			return decimal.Zero, err
		}
	}
	return restored, nil
}
