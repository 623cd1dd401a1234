package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// Candidate es una asignación propuesta (lote, cantidad) que aún no se ha persistido.
type Candidate struct {
	LotID            string
	Quantity         decimal.Decimal
	InvoiceReference string
}

// Override es un par (lote, cantidad) elegido por el operador en modo manual.
type Override struct {
	LotID    string
	Quantity decimal.Decimal
}

// QuantityScale decimales que admite una cantidad; coincide con NUMERIC(18,4) del esquema.
const QuantityScale = 4

// HasValidScale indica si q cabe en QuantityScale decimales sin redondear.
func HasValidScale(q decimal.Decimal) bool {
	return q.Equal(q.Round(QuantityScale))
}

// Total suma las cantidades de los candidatos.
func Total(candidates []Candidate) decimal.Decimal {
	total := decimal.Zero
	for _, c := range candidates {
		total = total.Add(c.Quantity)
	}
	return total
}

// SumOverrides suma las cantidades pedidas en modo manual.
func SumOverrides(overrides []Override) decimal.Decimal {
	total := decimal.Zero
	for _, o := range overrides {
		total = total.Add(o.Quantity)
	}
	return total
}

// AllocateFIFO reparte requested sobre los lotes del más antiguo al más nuevo
// (servicio de dominio, sin efectos). Por cada lote con saldo toma min(saldo, pendiente)
// y se detiene al llegar a cero. Si los lotes se agotan antes, falla con ErrInsufficientLots
// y no devuelve candidatos parciales. Mismo estado + misma petición = mismo reparto.
func AllocateFIFO(lots []entity.LotBalance, requested decimal.Decimal) ([]Candidate, error) {
	if !requested.GreaterThan(decimal.Zero) {
		return nil, domain.Errorf(domain.ErrInvalidInput, "la cantidad solicitada debe ser mayor que cero")
	}

	ordered := make([]entity.LotBalance, len(lots))
	copy(ordered, lots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	outstanding := requested
	candidates := make([]Candidate, 0, len(ordered))
	for _, lot := range ordered {
		if outstanding.IsZero() {
			break
		}
		if lot.Exhausted() {
			continue
		}
		take := decimal.Min(lot.Remaining, outstanding)
		candidates = append(candidates, Candidate{
			LotID:            lot.ID,
			Quantity:         take,
			InvoiceReference: lot.InvoiceReference,
		})
		outstanding = outstanding.Sub(take)
	}

	if outstanding.GreaterThan(decimal.Zero) {
		return nil, domain.Errorf(domain.ErrInsufficientLots,
			"los lotes disponibles cubren %s de %s solicitadas",
			requested.Sub(outstanding).String(), requested.String())
	}
	return candidates, nil
}

// AllocateManual valida las asignaciones elegidas por el operador contra los saldos vivos
// de cada lote (balances indexado por lot ID) y, si todo cuadra, las devuelve tal cual.
//
// Orden de validación: el lote existe (ErrNotFound), pertenece al producto y bodega
// (ErrInvalidInput), la cantidad no supera su saldo (ErrInsufficientLotCapacity) y
// la suma coincide exactamente con requested (ErrInvalidInput).
func AllocateManual(
	productID, warehouseID string,
	requested decimal.Decimal,
	overrides []Override,
	balances map[string]entity.LotBalance,
) ([]Candidate, error) {
	if len(overrides) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "el modo manual requiere al menos un lote")
	}

	seen := make(map[string]struct{}, len(overrides))
	candidates := make([]Candidate, 0, len(overrides))
	for _, o := range overrides {
		if _, dup := seen[o.LotID]; dup {
			return nil, domain.Errorf(domain.ErrInvalidInput, "el lote %s aparece más de una vez", o.LotID)
		}
		seen[o.LotID] = struct{}{}

		if !o.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.Errorf(domain.ErrInvalidInput, "la cantidad para el lote %s debe ser mayor que cero", o.LotID)
		}
		lot, ok := balances[o.LotID]
		if !ok {
			return nil, domain.Errorf(domain.ErrNotFound, "lote %s no encontrado", o.LotID)
		}
		if lot.ProductID != productID || lot.WarehouseID != warehouseID {
			return nil, domain.Errorf(domain.ErrInvalidInput,
				"el lote %s no pertenece al producto %s en la bodega %s", o.LotID, productID, warehouseID)
		}
		if o.Quantity.GreaterThan(lot.Remaining) {
			return nil, domain.Errorf(domain.ErrInsufficientLotCapacity,
				"el lote %s tiene saldo %s y se pidieron %s", o.LotID, lot.Remaining.String(), o.Quantity.String())
		}
		candidates = append(candidates, Candidate{
			LotID:            o.LotID,
			Quantity:         o.Quantity,
			InvoiceReference: lot.InvoiceReference,
		})
	}

	if sum := Total(candidates); !sum.Equal(requested) {
		return nil, domain.Errorf(domain.ErrInvalidInput,
			"la suma por lote (%s) no coincide con la cantidad solicitada (%s)", sum.String(), requested.String())
	}
	return candidates, nil
}
