package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// LowStockMonitor evalúa el punto de reorden después del commit. Nunca falla hacia el llamador:
// los errores de lectura, dedup o publicación se registran y se descartan.
type LowStockMonitor struct {
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	deduper     AlertDeduper
	publisher   AlertPublisher
	metrics     Recorder
	log         *logger.Logger
	now         func() time.Time
}

// NewLowStockMonitor deduper, publisher y metrics pueden ser nil.
func NewLowStockMonitor(
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	deduper AlertDeduper,
	publisher AlertPublisher,
	metrics Recorder,
	log *logger.Logger,
) *LowStockMonitor {
	if log == nil {
		log = logger.Nop()
	}
	return &LowStockMonitor{
		stockRepo:   stockRepo,
		productRepo: productRepo,
		deduper:     deduper,
		publisher:   publisher,
		metrics:     metrics,
		log:         log.Component("low_stock"),
		now:         time.Now,
	}
}

// Evaluate lee stock y umbral de (producto, bodega) y emite una alerta si quantity <= threshold.
// Mientras el stock siga bajo la alerta no se repite; al subir por encima del umbral se limpia la marca.
func (m *LowStockMonitor) Evaluate(ctx context.Context, productID, warehouseID string) {
	level, err := m.level(ctx, productID, warehouseID)
	if err != nil {
		m.log.Warn().Err(err).Str("product_id", productID).Str("warehouse_id", warehouseID).
			Msg("no se pudo evaluar bajo stock")
		return
	}

	if !level.IsLow() {
		if m.deduper != nil {
			if err := m.deduper.Release(ctx, productID, warehouseID); err != nil {
				m.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo limpiar la marca de alerta")
			}
		}
		return
	}

	if m.deduper != nil {
		acquired, err := m.deduper.Acquire(ctx, productID, warehouseID)
		if err != nil {
			// Sin dedup preferimos alertar de más que perder la alerta
			m.log.Warn().Err(err).Str("product_id", productID).Msg("dedup de alertas no disponible")
		} else if !acquired {
			return
		}
	}

	alert := LowStockAlert{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    level.Quantity.String(),
		Threshold:   level.Threshold.String(),
		RaisedAt:    m.now().UTC(),
	}
	if m.publisher != nil {
		if err := m.publisher.PublishLowStock(ctx, alert); err != nil {
			m.log.Error().Err(err).Str("product_id", productID).Str("warehouse_id", warehouseID).
				Msg("no se pudo publicar la alerta de bajo stock")
			if m.deduper != nil {
				if err := m.deduper.Release(ctx, productID, warehouseID); err != nil {
					m.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo limpiar la marca de alerta")
				}
			}
			return
		}
	}
	if m.metrics != nil {
		m.metrics.IncLowStockAlert()
	}
	m.log.Info().Str("product_id", productID).Str("warehouse_id", warehouseID).
		Str("quantity", alert.Quantity).Str("threshold", alert.Threshold).Msg("alerta de bajo stock")
}

// Query niveles de stock contra el punto de reorden, en el orden pedido. warehouseID vacío =
// todas las bodegas. Cada producto pedido aparece al menos una vez aunque no tenga fila de stock.
func (m *LowStockMonitor) Query(ctx context.Context, productIDs []string, warehouseID string) ([]entity.StockLevel, error) {
	ids := make([]string, 0, len(productIDs))
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "se requiere al menos un product_id")
	}

	levels, err := m.stockRepo.ListLevels(ctx, ids, warehouseID)
	if err != nil {
		return nil, err
	}
	if warehouseID == "" {
		// Un producto sin stock ni umbral en ninguna bodega sale igual, en cero y sin bodega
		return fillMissing(levels, ids), nil
	}

	found := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		found[l.ProductID] = struct{}{}
	}
	out := make([]entity.StockLevel, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; ok {
			for _, l := range levels {
				if l.ProductID == id {
					out = append(out, l)
				}
			}
			continue
		}
		threshold, err := m.productRepo.GetThreshold(ctx, id, warehouseID)
		if err != nil {
			return nil, err
		}
		out = append(out, entity.StockLevel{ProductID: id, WarehouseID: warehouseID, Threshold: threshold})
	}
	return out, nil
}

func fillMissing(levels []entity.StockLevel, ids []string) []entity.StockLevel {
	out := make([]entity.StockLevel, 0, len(levels)+len(ids))
	for _, id := range ids {
		found := false
		for _, l := range levels {
			if l.ProductID == id {
				out = append(out, l)
				found = true
			}
		}
		if !found {
			out = append(out, entity.StockLevel{ProductID: id})
		}
	}
	return out
}

func (m *LowStockMonitor) level(ctx context.Context, productID, warehouseID string) (entity.StockLevel, error) {
	levels, err := m.stockRepo.ListLevels(ctx, []string{productID}, warehouseID)
	if err != nil {
		return entity.StockLevel{}, err
	}
	for _, l := range levels {
		if l.ProductID == productID && l.WarehouseID == warehouseID {
			return l, nil
		}
	}
	threshold, err := m.productRepo.GetThreshold(ctx, productID, warehouseID)
	if err != nil {
		return entity.StockLevel{}, err
	}
	return entity.StockLevel{ProductID: productID, WarehouseID: warehouseID, Threshold: threshold}, nil
}
