package inventory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/domain/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// LotQuantity par (lote, cantidad) elegido por el operador en modo manual.
type LotQuantity struct {
	LotID    string          `validate:"required"`
	Quantity decimal.Decimal `validate:"gt=0"`
}

// ExitInput entrada para crear o editar una salida. El modo siempre es explícito:
// fifo_auto no admite Overrides y manual los exige.
type ExitInput struct {
	ProductID       string          `validate:"required,max=64"`
	WarehouseID     string          `validate:"required,max=64"`
	Quantity        decimal.Decimal `validate:"gt=0"`
	Mode            string          `validate:"required,oneof=fifo_auto manual"`
	Overrides       []LotQuantity   `validate:"dive"`
	Status          string          `validate:"omitempty,oneof=pending completed"` // solo en Create; vacío = pending
	ExpiresAt       *time.Time
	SelectedInvoice string `validate:"max=120"`
	Note            string `validate:"max=500"`
	CreatedBy       string `validate:"max=120"`
}

// ExitOptions colaboradores opcionales del caso de uso. Los nil se omiten.
type ExitOptions struct {
	Monitor    *LowStockMonitor
	Events     EventPublisher
	Metrics    Recorder
	Logger     *logger.Logger
	PendingTTL time.Duration
}

// ExitUseCase máquina de estados de las salidas (crear, editar, completar, eliminar).
// Cada operación es una sola transacción; alertas y eventos se emiten después del commit.
type ExitUseCase struct {
	txRunner      TxRunner
	exitRepo      repository.ExitRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	monitor       *LowStockMonitor
	events        EventPublisher
	metrics       Recorder
	validate      *validator.Validate
	log           *logger.Logger
	pendingTTL    time.Duration
	now           func() time.Time
}

// NewExitUseCase construye el caso de uso. exitRepo se usa solo para lecturas fuera de transacción.
func NewExitUseCase(
	txRunner TxRunner,
	exitRepo repository.ExitRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	opts ExitOptions,
) *ExitUseCase {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	ttl := opts.PendingTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExitUseCase{
		txRunner:      txRunner,
		exitRepo:      exitRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		monitor:       opts.Monitor,
		events:        opts.Events,
		metrics:       opts.Metrics,
		validate:      NewValidator(),
		log:           log.Component("exits"),
		pendingTTL:    ttl,
		now:           time.Now,
	}
}

// NewValidator validator con soporte para decimal.Decimal (gt/gte/lt comparan su valor).
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Create valida, bloquea el ledger, asigna lotes, descuenta el stock y persiste salida y asignaciones.
// El descuento de stock ocurre aquí y solo aquí; Complete no mueve stock.
func (uc *ExitUseCase) Create(ctx context.Context, in ExitInput) (*entity.ExitDocument, error) {
	start := uc.now()
	exit, err := uc.create(ctx, in)
	uc.observe("create", err, start)
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, ExitEventAllocated, exit, stockKey{exit.ProductID, exit.WarehouseID})
	uc.log.Info().Str("exit_id", exit.ID).Str("product_id", exit.ProductID).Str("warehouse_id", exit.WarehouseID).
		Str("mode", exit.AllocationMode).Int("lots", len(exit.Allocations)).Msg("salida creada")
	return exit, nil
}

func (uc *ExitUseCase) create(ctx context.Context, in ExitInput) (*entity.ExitDocument, error) {
	if err := uc.validateInput(in); err != nil {
		return nil, err
	}
	if err := uc.checkCatalog(ctx, in.ProductID, in.WarehouseID); err != nil {
		return nil, err
	}

	now := uc.now()
	exit := &entity.ExitDocument{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		WarehouseID:       in.WarehouseID,
		RequestedQuantity: in.Quantity,
		Status:            entity.ExitStatusPending,
		AllocationMode:    in.Mode,
		SelectedInvoice:   in.SelectedInvoice,
		Note:              in.Note,
		Revision:          1,
		CreatedBy:         in.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	switch in.Status {
	case "", entity.ExitStatusPending:
		expires := now.Add(uc.pendingTTL)
		if in.ExpiresAt != nil {
			if !in.ExpiresAt.After(now) {
				return nil, domain.Errorf(domain.ErrInvalidInput, "expires_at debe ser futuro")
			}
			expires = *in.ExpiresAt
		}
		exit.ExpiresAt = &expires
	case entity.ExitStatusCompleted:
		if in.ExpiresAt != nil {
			return nil, domain.Errorf(domain.ErrInvalidInput, "una salida completada no admite expires_at")
		}
		exit.Status = entity.ExitStatusCompleted
	}

	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		lotRepo repository.LotRepository,
		exitRepo repository.ExitRepository,
	) error {
		ledger := NewStockLedger(stockRepo)
		// El bloqueo va antes de leer saldos de lotes: una creación concurrente espera aquí
		if _, err := ledger.Lock(ctx, exit.ProductID, exit.WarehouseID); err != nil {
			return err
		}
		allocations, err := uc.allocate(ctx, ledger, NewAllocationEngine(NewLotRegistry(lotRepo)), exit, in.Overrides)
		if err != nil {
			return err
		}
		if err := exitRepo.Create(ctx, exit); err != nil {
			return err
		}
		if err := exitRepo.InsertAllocations(ctx, allocations); err != nil {
			return err
		}
		exit.Allocations = allocations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exit, nil
}

// Update revierte todas las asignaciones de la salida y reasigna con la nueva petición en la
// misma transacción. Si la reasignación falla la reversión también se deshace.
func (uc *ExitUseCase) Update(ctx context.Context, exitID string, in ExitInput) (*entity.ExitDocument, error) {
	start := uc.now()
	exit, oldKey, err := uc.update(ctx, exitID, in)
	uc.observe("update", err, start)
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, ExitEventAllocated, exit, oldKey, stockKey{exit.ProductID, exit.WarehouseID})
	uc.log.Info().Str("exit_id", exit.ID).Int("revision", exit.Revision).
		Int("lots", len(exit.Allocations)).Msg("salida actualizada")
	return exit, nil
}

func (uc *ExitUseCase) update(ctx context.Context, exitID string, in ExitInput) (*entity.ExitDocument, stockKey, error) {
	if strings.TrimSpace(exitID) == "" {
		return nil, stockKey{}, domain.Errorf(domain.ErrInvalidInput, "exit_id es obligatorio")
	}
	if err := uc.validateInput(in); err != nil {
		return nil, stockKey{}, err
	}
	if err := uc.checkCatalog(ctx, in.ProductID, in.WarehouseID); err != nil {
		return nil, stockKey{}, err
	}

	var (
		result *entity.ExitDocument
		oldKey stockKey
	)
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		lotRepo repository.LotRepository,
		exitRepo repository.ExitRepository,
	) error {
		exit, err := exitRepo.GetForUpdate(ctx, exitID)
		if err != nil {
			return err
		}
		if exit == nil {
			return domain.Errorf(domain.ErrNotFound, "salida %s no encontrada", exitID)
		}
		if in.Status != "" && in.Status != exit.Status {
			return domain.Errorf(domain.ErrInvalidStateTransition,
				"la edición no cambia el estado (%s -> %s)", exit.Status, in.Status)
		}
		if in.ExpiresAt != nil && !exit.IsPending() {
			return domain.Errorf(domain.ErrInvalidInput, "una salida completada no admite expires_at")
		}

		ledger := NewStockLedger(stockRepo)
		oldKey = stockKey{exit.ProductID, exit.WarehouseID}
		for _, k := range sortedKeys(oldKey, stockKey{in.ProductID, in.WarehouseID}) {
			if _, err := ledger.Lock(ctx, k.productID, k.warehouseID); err != nil {
				return err
			}
		}

		if _, err := NewReversalCoordinator(ledger, exitRepo).Restore(ctx, exit); err != nil {
			return err
		}

		now := uc.now()
		exit.ProductID = in.ProductID
		exit.WarehouseID = in.WarehouseID
		exit.RequestedQuantity = in.Quantity
		exit.AllocationMode = in.Mode
		exit.SelectedInvoice = in.SelectedInvoice
		exit.Note = in.Note
		if in.ExpiresAt != nil {
			if !in.ExpiresAt.After(now) {
				return domain.Errorf(domain.ErrInvalidInput, "expires_at debe ser futuro")
			}
			exit.ExpiresAt = in.ExpiresAt
		}
		exit.Revision++
		exit.UpdatedAt = now

		allocations, err := uc.allocate(ctx, ledger, NewAllocationEngine(NewLotRegistry(lotRepo)), exit, in.Overrides)
		if err != nil {
			return err
		}
		if err := exitRepo.Update(ctx, exit); err != nil {
			return err
		}
		if err := exitRepo.InsertAllocations(ctx, allocations); err != nil {
			return err
		}
		exit.Allocations = allocations
		result = exit
		return nil
	})
	if err != nil {
		return nil, stockKey{}, err
	}
	return result, oldKey, nil
}

// Complete pasa una salida de pending a completed y limpia expires_at. No mueve stock.
func (uc *ExitUseCase) Complete(ctx context.Context, exitID string) (*entity.ExitDocument, error) {
	start := uc.now()
	var result *entity.ExitDocument
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockRepository,
		_ repository.LotRepository,
		exitRepo repository.ExitRepository,
	) error {
		exit, err := exitRepo.GetForUpdate(ctx, exitID)
		if err != nil {
			return err
		}
		if exit == nil {
			return domain.Errorf(domain.ErrNotFound, "salida %s no encontrada", exitID)
		}
		if !exit.IsPending() {
			return domain.Errorf(domain.ErrInvalidStateTransition,
				"solo una salida pendiente se puede completar (estado actual: %s)", exit.Status)
		}
		exit.Status = entity.ExitStatusCompleted
		exit.ExpiresAt = nil
		exit.UpdatedAt = uc.now()
		if err := exitRepo.Update(ctx, exit); err != nil {
			return err
		}
		exit.Allocations, err = exitRepo.ListAllocations(ctx, exit.ID)
		if err != nil {
			return err
		}
		result = exit
		return nil
	})
	uc.observe("complete", err, start)
	if err != nil {
		return nil, err
	}

	uc.afterCommit(ctx, ExitEventCompleted, result)
	uc.log.Info().Str("exit_id", result.ID).Msg("salida completada")
	return result, nil
}

// Delete revierte todas las asignaciones y elimina la salida.
func (uc *ExitUseCase) Delete(ctx context.Context, exitID string) error {
	start := uc.now()
	exit, err := uc.remove(ctx, exitID, nil)
	uc.observe("delete", err, start)
	if err != nil {
		return err
	}

	uc.afterCommit(ctx, ExitEventDeleted, exit, stockKey{exit.ProductID, exit.WarehouseID})
	uc.log.Info().Str("exit_id", exit.ID).Msg("salida eliminada")
	return nil
}

var errSkip = errors.New("salida omitida")

// remove borra la salida con su reversión. guard, si no es nil, decide sobre la fila ya bloqueada;
// devolver errSkip deja todo intacto.
func (uc *ExitUseCase) remove(ctx context.Context, exitID string, guard func(*entity.ExitDocument) error) (*entity.ExitDocument, error) {
	var removed *entity.ExitDocument
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.LotRepository,
		exitRepo repository.ExitRepository,
	) error {
		exit, err := exitRepo.GetForUpdate(ctx, exitID)
		if err != nil {
			return err
		}
		if exit == nil {
			return domain.Errorf(domain.ErrNotFound, "salida %s no encontrada", exitID)
		}
		if guard != nil {
			if err := guard(exit); err != nil {
				return err
			}
		}

		ledger := NewStockLedger(stockRepo)
		if _, err := ledger.Lock(ctx, exit.ProductID, exit.WarehouseID); err != nil {
			return err
		}
		// Se conserva la lista final para el evento de eliminación
		exit.Allocations, err = exitRepo.ListAllocations(ctx, exit.ID)
		if err != nil {
			return err
		}
		if _, err := NewReversalCoordinator(ledger, exitRepo).Restore(ctx, exit); err != nil {
			return err
		}
		if err := exitRepo.Delete(ctx, exit.ID); err != nil {
			return err
		}
		removed = exit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Get devuelve la salida con sus asignaciones.
func (uc *ExitUseCase) Get(ctx context.Context, exitID string) (*entity.ExitDocument, error) {
	exit, err := uc.exitRepo.GetByID(ctx, exitID)
	if err != nil {
		return nil, err
	}
	if exit == nil {
		return nil, domain.Errorf(domain.ErrNotFound, "salida %s no encontrada", exitID)
	}
	exit.Allocations, err = uc.exitRepo.ListAllocations(ctx, exit.ID)
	if err != nil {
		return nil, err
	}
	return exit, nil
}

// ListExpiredPending IDs de salidas pendientes vencidas a la fecha actual.
func (uc *ExitUseCase) ListExpiredPending(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, domain.Errorf(domain.ErrInvalidInput, "limit debe ser positivo")
	}
	return uc.exitRepo.ListExpiredPending(ctx, uc.now(), limit)
}

// ExpirePending cancela (revierte y elimina) las salidas pendientes vencidas, hasta limit.
// Cada una va en su propia transacción; una salida completada o editada entre la consulta y el
// bloqueo se omite. Devuelve cuántas se cancelaron.
func (uc *ExitUseCase) ExpirePending(ctx context.Context, limit int) (int, error) {
	ids, err := uc.ListExpiredPending(ctx, limit)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, id := range ids {
		start := uc.now()
		exit, err := uc.remove(ctx, id, func(e *entity.ExitDocument) error {
			if !e.IsPending() || e.ExpiresAt == nil || e.ExpiresAt.After(start) {
				return errSkip
			}
			return nil
		})
		switch {
		case errors.Is(err, errSkip), errors.Is(err, domain.ErrNotFound):
			continue
		case err != nil:
			uc.observe("expire", err, start)
			return cancelled, fmt.Errorf("cancelar salida vencida %s: %w", id, err)
		}
		uc.observe("expire", nil, start)
		uc.afterCommit(ctx, ExitEventDeleted, exit, stockKey{exit.ProductID, exit.WarehouseID})
		uc.log.Info().Str("exit_id", id).Msg("salida pendiente vencida cancelada")
		cancelled++
	}
	return cancelled, nil
}

// allocate calcula los candidatos, descuenta el total del ledger (ya bloqueado) y arma las filas.
func (uc *ExitUseCase) allocate(
	ctx context.Context,
	ledger *StockLedger,
	engine *AllocationEngine,
	exit *entity.ExitDocument,
	overrides []LotQuantity,
) ([]*entity.Allocation, error) {
	candidates, err := engine.Compute(ctx, AllocationRequest{
		ProductID:   exit.ProductID,
		WarehouseID: exit.WarehouseID,
		Quantity:    exit.RequestedQuantity,
		Mode:        exit.AllocationMode,
		Overrides:   toOverrides(overrides),
	})
	if err != nil {
		return nil, err
	}
	total := inventory.Total(candidates)
	if !total.Equal(exit.RequestedQuantity) {
		return nil, fmt.Errorf("asignación inconsistente: %s de %s", total.String(), exit.RequestedQuantity.String())
	}
	if err := ledger.Decrement(ctx, exit.ProductID, exit.WarehouseID, total); err != nil {
		return nil, err
	}

	now := uc.now()
	allocations := make([]*entity.Allocation, 0, len(candidates))
	for _, c := range candidates {
		allocations = append(allocations, &entity.Allocation{
			ID:                       uuid.New().String(),
			ExitID:                   exit.ID,
			LotID:                    c.LotID,
			Quantity:                 c.Quantity,
			InvoiceReferenceSnapshot: c.InvoiceReference,
			CreatedAt:                now,
		})
	}
	if uc.metrics != nil {
		uc.metrics.ObserveAllocation(exit.AllocationMode, len(allocations))
	}
	return allocations, nil
}

// validateInput reglas que no dependen del estado almacenado.
func (uc *ExitUseCase) validateInput(in ExitInput) error {
	if err := uc.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return domain.Errorf(domain.ErrInvalidInput, "campos inválidos: %s", strings.Join(fields, ", "))
		}
		return domain.Errorf(domain.ErrInvalidInput, "entrada inválida: %v", err)
	}
	if !inventory.HasValidScale(in.Quantity) {
		return domain.Errorf(domain.ErrInvalidInput,
			"quantity %s admite como máximo %d decimales", in.Quantity.String(), inventory.QuantityScale)
	}
	for _, o := range in.Overrides {
		if !inventory.HasValidScale(o.Quantity) {
			return domain.Errorf(domain.ErrInvalidInput,
				"la cantidad del lote %s (%s) admite como máximo %d decimales", o.LotID, o.Quantity.String(), inventory.QuantityScale)
		}
	}
	switch in.Mode {
	case entity.AllocationModeFIFO:
		if len(in.Overrides) > 0 {
			return domain.Errorf(domain.ErrInvalidInput, "fifo_auto no admite lotes explícitos")
		}
	case entity.AllocationModeManual:
		if len(in.Overrides) == 0 {
			return domain.Errorf(domain.ErrInvalidInput, "el modo manual requiere al menos un lote")
		}
		if sum := inventory.SumOverrides(toOverrides(in.Overrides)); !sum.Equal(in.Quantity) {
			return domain.Errorf(domain.ErrInvalidInput,
				"la suma por lote (%s) no coincide con la cantidad solicitada (%s)", sum.String(), in.Quantity.String())
		}
	}
	return nil
}

// checkCatalog producto y bodega deben existir en el catálogo.
func (uc *ExitUseCase) checkCatalog(ctx context.Context, productID, warehouseID string) error {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.Errorf(domain.ErrNotFound, "producto %s no encontrado", productID)
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.Errorf(domain.ErrNotFound, "bodega %s no encontrada", warehouseID)
	}
	return nil
}

// afterCommit evalúa bajo stock por cada clave tocada y publica el evento de la salida.
// Es best-effort: nada de lo que pase aquí llega al llamador.
func (uc *ExitUseCase) afterCommit(ctx context.Context, eventType string, exit *entity.ExitDocument, keys ...stockKey) {
	if uc.monitor != nil {
		seen := make(map[stockKey]struct{}, len(keys))
		for _, k := range keys {
			if _, ok := seen[k]; ok || k.productID == "" {
				continue
			}
			seen[k] = struct{}{}
			uc.monitor.Evaluate(ctx, k.productID, k.warehouseID)
		}
	}
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishExitEvent(ctx, NewExitEvent(eventType, exit, uc.now())); err != nil {
		uc.log.Error().Err(err).Str("exit_id", exit.ID).Str("event", eventType).Msg("no se pudo publicar el evento de salida")
	}
}

func (uc *ExitUseCase) observe(operation string, err error, start time.Time) {
	if uc.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = strings.ToLower(domain.Code(err))
	}
	uc.metrics.ObserveOperation(operation, result, uc.now().Sub(start))
}

// NewExitEvent arma el evento con la lista final de asignaciones.
func NewExitEvent(eventType string, exit *entity.ExitDocument, at time.Time) ExitEvent {
	allocations := make([]AllocationEvent, 0, len(exit.Allocations))
	for _, a := range exit.Allocations {
		allocations = append(allocations, AllocationEvent{
			LotID:            a.LotID,
			Quantity:         a.Quantity.String(),
			InvoiceReference: a.InvoiceReferenceSnapshot,
		})
	}
	return ExitEvent{
		Type:        eventType,
		ExitID:      exit.ID,
		Revision:    exit.Revision,
		Status:      exit.Status,
		ProductID:   exit.ProductID,
		WarehouseID: exit.WarehouseID,
		Quantity:    exit.RequestedQuantity.String(),
		Allocations: allocations,
		OccurredAt:  at.UTC(),
	}
}

type stockKey struct {
	productID   string
	warehouseID string
}

// sortedKeys claves únicas en orden (producto, bodega) para tomar los bloqueos siempre igual.
func sortedKeys(keys ...stockKey) []stockKey {
	seen := make(map[stockKey]struct{}, len(keys))
	out := make([]stockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].productID != out[j].productID {
			return out[i].productID < out[j].productID
		}
		return out[i].warehouseID < out[j].warehouseID
	})
	return out
}

func toOverrides(in []LotQuantity) []inventory.Override {
	if len(in) == 0 {
		return nil
	}
	out := make([]inventory.Override, 0, len(in))
	for _, o := range in {
		out = append(out, inventory.Override{LotID: o.LotID, Quantity: o.Quantity})
	}
	return out
}
