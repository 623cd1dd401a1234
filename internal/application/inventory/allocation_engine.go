package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
)

// AllocationRequest cantidad a repartir y estrategia elegida por el llamador.
type AllocationRequest struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Mode        string
	Overrides   []inventory.Override
}

// AllocationEngine traduce una cantidad de salida a asignaciones por lote. No muta nada.
type AllocationEngine struct {
	lots *LotRegistry
}

// NewAllocationEngine construye el motor sobre el registro de lotes de la transacción.
func NewAllocationEngine(lots *LotRegistry) *AllocationEngine {
	return &AllocationEngine{lots: lots}
}

// Compute calcula los candidatos según el modo. El llamador ya debe tener bloqueado el ledger
// de (producto, bodega) para que los saldos leídos no cambien hasta el commit.
func (e *AllocationEngine) Compute(ctx context.Context, req AllocationRequest) ([]inventory.Candidate, error) {
	switch req.Mode {
	case entity.AllocationModeFIFO:
		if len(req.Overrides) > 0 {
			return nil, domain.Errorf(domain.ErrInvalidInput, "fifo_auto no admite lotes explícitos")
		}
		lots, err := e.lots.ListConsumable(ctx, req.ProductID, req.WarehouseID)
		if err != nil {
			return nil, err
		}
		return inventory.AllocateFIFO(lots, req.Quantity)

	case entity.AllocationModeManual:
		ids := make([]string, 0, len(req.Overrides))
		for _, o := range req.Overrides {
			ids = append(ids, o.LotID)
		}
		balances, err := e.lots.Balances(ctx, ids)
		if err != nil {
			return nil, err
		}
		return inventory.AllocateManual(req.ProductID, req.WarehouseID, req.Quantity, req.Overrides, balances)

	default:
		return nil, domain.Errorf(domain.ErrInvalidInput, "modo de asignación desconocido: %q", req.Mode)
	}
}
