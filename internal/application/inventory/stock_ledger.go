package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
)

// StockLedger es el contador agregado por (producto, bodega). Se construye por transacción
// sobre el StockRepository atado a la tx; todas las mutaciones ocurren bajo el bloqueo de fila.
type StockLedger struct {
	repo repository.StockRepository
	now  func() time.Time
}

// NewStockLedger construye el ledger sobre el repositorio de la transacción en curso.
func NewStockLedger(repo repository.StockRepository) *StockLedger {
	return &StockLedger{repo: repo, now: time.Now}
}

// Lock toma el bloqueo exclusivo de la fila (SELECT FOR UPDATE) y devuelve la cantidad bloqueada.
func (l *StockLedger) Lock(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	stock, err := l.repo.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return stock.Quantity, nil
}

// Increment suma qty; crea la fila en cero si no existía.
func (l *StockLedger) Increment(ctx context.Context, productID, warehouseID string, qty decimal.Decimal) error {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.Errorf(domain.ErrInvalidInput, "incremento no positivo: %s", qty.String())
	}
	stock, err := l.repo.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	stock.Quantity = stock.Quantity.Add(qty)
	stock.UpdatedAt = l.now()
	return l.repo.Upsert(ctx, stock)
}

// Decrement resta qty si alcanza; si no, ErrInsufficientStock y la fila queda intacta.
func (l *StockLedger) Decrement(ctx context.Context, productID, warehouseID string, qty decimal.Decimal) error {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.Errorf(domain.ErrInvalidInput, "decremento no positivo: %s", qty.String())
	}
	stock, err := l.repo.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	if stock.Quantity.LessThan(qty) {
		return domain.Errorf(domain.ErrInsufficientStock,
			"stock de %s en %s es %s, se requieren %s", productID, warehouseID, stock.Quantity.String(), qty.String())
	}
	stock.Quantity = stock.Quantity.Sub(qty)
	stock.UpdatedAt = l.now()
	return l.repo.Upsert(ctx, stock)
}

// Read lectura no autoritativa (sin bloqueo).
func (l *StockLedger) Read(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	stock, err := l.repo.Get(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return stock.Quantity, nil
}
