package inventory_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

func q(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeAlerts struct {
	mu     sync.Mutex
	alerts []inventory.LowStockAlert
	err    error
}

func (f *fakeAlerts) PublishLowStock(_ context.Context, a inventory.LowStockAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, a)
	return nil
}

func (f *fakeAlerts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []inventory.ExitEvent
}

func (f *fakeEvents) PublishExitEvent(_ context.Context, e inventory.ExitEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) last() inventory.ExitEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[len(f.events)-1]
}

type fakeDeduper struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (f *fakeDeduper) Acquire(_ context.Context, p, w string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[p+"|"+w] {
		return false, nil
	}
	f.keys[p+"|"+w] = true
	return true, nil
}

func (f *fakeDeduper) Release(_ context.Context, p, w string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, p+"|"+w)
	return nil
}

type fixture struct {
	store  *memory.Store
	uc     *inventory.ExitUseCase
	alerts *fakeAlerts
	events *fakeEvents
}

// newFixture P1 en W1 con L1:100 (más antiguo) y L2:50, punto de reorden 30.
func newFixture(t *testing.T, opts ...func(*inventory.ExitOptions)) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "P1", SKU: "SKU-1", Name: "Tornillo"})
	store.AddProduct(entity.Product{ID: "P2", SKU: "SKU-2", Name: "Tuerca"})
	store.AddWarehouse(entity.Warehouse{ID: "W1", Name: "Principal"})
	store.AddWarehouse(entity.Warehouse{ID: "W2", Name: "Norte"})
	store.SetThreshold("P1", "W1", q("30"))
	receive(t, store, "L1", "P1", "W1", "100", 0)
	receive(t, store, "L2", "P1", "W1", "50", 1)

	f := &fixture{store: store, alerts: &fakeAlerts{}, events: &fakeEvents{}}
	monitor := inventory.NewLowStockMonitor(store.Stock(), store.Products(),
		&fakeDeduper{keys: map[string]bool{}}, f.alerts, nil, nil)
	o := inventory.ExitOptions{Monitor: monitor, Events: f.events, PendingTTL: time.Hour}
	for _, fn := range opts {
		fn(&o)
	}
	f.uc = inventory.NewExitUseCase(store, store.Exits(), store.Products(), store.Warehouses(), o)
	return f
}

func receive(t *testing.T, s *memory.Store, id, product, warehouse, qty string, hours int) {
	t.Helper()
	require.NoError(t, s.ReceiveLot(entity.Lot{
		ID: id, ProductID: product, WarehouseID: warehouse,
		ReceivedQuantity: q(qty), InvoiceReference: "FAC-" + id,
		CreatedAt: base.Add(time.Duration(hours) * time.Hour),
	}))
}

func fifo(qty string) inventory.ExitInput {
	return inventory.ExitInput{ProductID: "P1", WarehouseID: "W1", Quantity: q(qty), Mode: entity.AllocationModeFIFO, CreatedBy: "operador"}
}

func (f *fixture) stock(t *testing.T, product, warehouse string) decimal.Decimal {
	t.Helper()
	st, err := f.store.Stock().Get(context.Background(), product, warehouse)
	require.NoError(t, err)
	return st.Quantity
}

func (f *fixture) remaining(t *testing.T, lotID string) decimal.Decimal {
	t.Helper()
	b, err := f.store.Lots().GetBalance(context.Background(), lotID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.Remaining
}

// assertConservation stock == Σ recibido − Σ asignado y ningún lote sobreasignado.
func (f *fixture) assertConservation(t *testing.T, product, warehouse string) {
	t.Helper()
	lots, err := f.store.Lots().ListByProduct(context.Background(), product, warehouse)
	require.NoError(t, err)
	expected := decimal.Zero
	for _, l := range lots {
		assert.False(t, l.Remaining.IsNegative(), "lote %s sobreasignado", l.ID)
		expected = expected.Add(l.Remaining)
	}
	got := f.stock(t, product, warehouse)
	assert.True(t, got.Equal(expected), "stock %s, esperado %s", got, expected)
	assert.False(t, got.IsNegative())
}

func allocs(exit *entity.ExitDocument) map[string]string {
	out := make(map[string]string, len(exit.Allocations))
	for _, a := range exit.Allocations {
		out[a.LotID] = a.Quantity.String()
	}
	return out
}

func TestCreate_FIFO(t *testing.T) {
	f := newFixture(t)

	exit, err := f.uc.Create(context.Background(), fifo("120"))
	require.NoError(t, err)

	require.Len(t, exit.Allocations, 2)
	assert.Equal(t, "L1", exit.Allocations[0].LotID)
	assert.Equal(t, "100", exit.Allocations[0].Quantity.String())
	assert.Equal(t, "L2", exit.Allocations[1].LotID)
	assert.Equal(t, "20", exit.Allocations[1].Quantity.String())
	assert.Equal(t, "FAC-L1", exit.Allocations[0].InvoiceReferenceSnapshot)
	assert.Equal(t, entity.ExitStatusPending, exit.Status)
	require.NotNil(t, exit.ExpiresAt)
	assert.Equal(t, 1, exit.Revision)
	assert.True(t, exit.AllocatedQuantity().Equal(exit.RequestedQuantity))

	assert.Equal(t, "30", f.stock(t, "P1", "W1").String())
	f.assertConservation(t, "P1", "W1")

	got, err := f.uc.Get(context.Background(), exit.ID)
	require.NoError(t, err)
	assert.Equal(t, allocs(exit), allocs(got))
}

func TestCreate_Manual(t *testing.T) {
	f := newFixture(t)
	in := fifo("30")
	in.Mode = entity.AllocationModeManual
	in.Overrides = []inventory.LotQuantity{{LotID: "L2", Quantity: q("30")}}

	exit, err := f.uc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L2": "30"}, allocs(exit))
	assert.Equal(t, "100", f.remaining(t, "L1").String())
	assert.Equal(t, "20", f.remaining(t, "L2").String())
	f.assertConservation(t, "P1", "W1")
}

func TestCreate_AgotamientoNoCambiaNada(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Create(context.Background(), fifo("200"))
	require.ErrorIs(t, err, domain.ErrInsufficientLots)
	assert.Equal(t, "INSUFFICIENT_LOTS", domain.Code(err))

	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
	assert.Equal(t, "100", f.remaining(t, "L1").String())
	assert.Equal(t, "50", f.remaining(t, "L2").String())
	assert.Empty(t, f.events.events)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)

	withOverrides := fifo("10")
	withOverrides.Overrides = []inventory.LotQuantity{{LotID: "L1", Quantity: q("10")}}

	manualSum := fifo("40")
	manualSum.Mode = entity.AllocationModeManual
	manualSum.Overrides = []inventory.LotQuantity{{LotID: "L2", Quantity: q("30")}}

	manualCapacity := fifo("60")
	manualCapacity.Mode = entity.AllocationModeManual
	manualCapacity.Overrides = []inventory.LotQuantity{{LotID: "L2", Quantity: q("60")}}

	manualMissing := fifo("5")
	manualMissing.Mode = entity.AllocationModeManual
	manualMissing.Overrides = []inventory.LotQuantity{{LotID: "NOPE", Quantity: q("5")}}

	noMode := fifo("5")
	noMode.Mode = ""

	unknownProduct := fifo("5")
	unknownProduct.ProductID = "P9"

	noWarehouse := fifo("5")
	noWarehouse.WarehouseID = ""

	tinyOverride := fifo("0.00001")
	tinyOverride.Mode = entity.AllocationModeManual
	tinyOverride.Overrides = []inventory.LotQuantity{{LotID: "L1", Quantity: q("0.00001")}}

	overrideScale := fifo("10")
	overrideScale.Mode = entity.AllocationModeManual
	overrideScale.Overrides = []inventory.LotQuantity{
		{LotID: "L1", Quantity: q("4.99995")},
		{LotID: "L2", Quantity: q("5.00005")},
	}

	pastExpiry := fifo("5")
	past := time.Now().Add(-time.Hour)
	pastExpiry.ExpiresAt = &past

	cases := []struct {
		name string
		in   inventory.ExitInput
		code string
	}{
		{"cantidad cero", fifo("0"), "VALIDATION"},
		{"cantidad negativa", fifo("-3"), "VALIDATION"},
		{"sin modo", noMode, "VALIDATION"},
		{"fifo con lotes", withOverrides, "VALIDATION"},
		{"manual suma distinta", manualSum, "VALIDATION"},
		{"manual sobre saldo", manualCapacity, "INSUFFICIENT_LOT_CAPACITY"},
		{"manual lote inexistente", manualMissing, "NOT_FOUND"},
		{"producto inexistente", unknownProduct, "NOT_FOUND"},
		{"sin bodega", noWarehouse, "VALIDATION"},
		{"expiración pasada", pastExpiry, "VALIDATION"},
		{"más de cuatro decimales", fifo("3.33335"), "VALIDATION"},
		{"lote por debajo de la escala", tinyOverride, "VALIDATION"},
		{"lotes con más de cuatro decimales", overrideScale, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Create(context.Background(), tc.in)
			require.Error(t, err)
			assert.Equal(t, tc.code, domain.Code(err), err.Error())
		})
	}
	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
}

func TestCreate_CuatroDecimalesConservaElLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exit, err := f.uc.Create(ctx, fifo("3.3333"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L1": "3.3333"}, allocs(exit))
	assert.Equal(t, "146.6667", f.stock(t, "P1", "W1").String())
	f.assertConservation(t, "P1", "W1")

	_, err = f.uc.Update(ctx, exit.ID, fifo("1.00001"))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "146.6667", f.stock(t, "P1", "W1").String())
}

func TestCreate_CompletadaSinExpiracion(t *testing.T) {
	f := newFixture(t)
	in := fifo("10")
	in.Status = entity.ExitStatusCompleted

	exit, err := f.uc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, entity.ExitStatusCompleted, exit.Status)
	assert.Nil(t, exit.ExpiresAt)

	_, err = f.uc.Complete(context.Background(), exit.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestUpdate_ReasignaAtomicamente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("120"))
	require.NoError(t, err)

	updated, err := f.uc.Update(ctx, exit.ID, fifo("80"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L1": "80"}, allocs(updated))
	assert.Equal(t, 2, updated.Revision)
	assert.Equal(t, "50", f.remaining(t, "L2").String())
	assert.Equal(t, "70", f.stock(t, "P1", "W1").String())
	f.assertConservation(t, "P1", "W1")

	evt := f.events.last()
	assert.Equal(t, inventory.ExitEventAllocated, evt.Type)
	assert.Equal(t, 2, evt.Revision)
}

func TestUpdate_FallaDejaLoAnterior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("120"))
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, exit.ID, fifo("500"))
	require.ErrorIs(t, err, domain.ErrInsufficientLots)

	got, err := f.uc.Get(ctx, exit.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L1": "100", "L2": "20"}, allocs(got))
	assert.Equal(t, 1, got.Revision)
	assert.Equal(t, "30", f.stock(t, "P1", "W1").String())
	f.assertConservation(t, "P1", "W1")
}

func TestUpdate_PuedeReusarSuPropioSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("150"))
	require.NoError(t, err)
	assert.True(t, f.stock(t, "P1", "W1").IsZero())

	// Con stock en cero la edición solo funciona si primero se revierte lo propio
	in := fifo("150")
	in.Mode = entity.AllocationModeManual
	in.Overrides = []inventory.LotQuantity{{LotID: "L2", Quantity: q("50")}, {LotID: "L1", Quantity: q("100")}}
	updated, err := f.uc.Update(ctx, exit.ID, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L1": "100", "L2": "50"}, allocs(updated))
	f.assertConservation(t, "P1", "W1")
}

func TestUpdate_CambiaDeBodega(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	receive(t, f.store, "L3", "P1", "W2", "40", 2)
	exit, err := f.uc.Create(ctx, fifo("120"))
	require.NoError(t, err)

	in := fifo("25")
	in.WarehouseID = "W2"
	updated, err := f.uc.Update(ctx, exit.ID, in)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"L3": "25"}, allocs(updated))
	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
	assert.Equal(t, "15", f.stock(t, "P1", "W2").String())
	f.assertConservation(t, "P1", "W1")
	f.assertConservation(t, "P1", "W2")
}

func TestUpdate_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Update(context.Background(), "nope", fifo("1"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComplete_SoloUnaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("10"))
	require.NoError(t, err)

	done, err := f.uc.Complete(ctx, exit.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExitStatusCompleted, done.Status)
	assert.Nil(t, done.ExpiresAt)
	assert.Equal(t, "140", f.stock(t, "P1", "W1").String())
	assert.Equal(t, inventory.ExitEventCompleted, f.events.last().Type)

	_, err = f.uc.Complete(ctx, exit.ID)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.Equal(t, "140", f.stock(t, "P1", "W1").String())

	_, err = f.uc.Complete(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_RevierteTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("120"))
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, exit.ID))
	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
	assert.Equal(t, "100", f.remaining(t, "L1").String())
	f.assertConservation(t, "P1", "W1")

	evt := f.events.last()
	assert.Equal(t, inventory.ExitEventDeleted, evt.Type)
	assert.Len(t, evt.Allocations, 2)

	_, err = f.uc.Get(ctx, exit.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Segunda eliminación: no hay nada que revertir
	err = f.uc.Delete(ctx, exit.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
}

func TestDelete_CompletadaTambienRevierte(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	exit, err := f.uc.Create(ctx, fifo("60"))
	require.NoError(t, err)
	_, err = f.uc.Complete(ctx, exit.ID)
	require.NoError(t, err)

	require.NoError(t, f.uc.Delete(ctx, exit.ID))
	assert.Equal(t, "150", f.stock(t, "P1", "W1").String())
}

func TestCreate_ConcurrenteNuncaNegativo(t *testing.T) {
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "P1"})
	store.AddWarehouse(entity.Warehouse{ID: "W1"})
	receive(t, store, "L1", "P1", "W1", "100", 0)
	uc := inventory.NewExitUseCase(store, store.Exits(), store.Products(), store.Warehouses(), inventory.ExitOptions{})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Create(context.Background(), fifo("60"))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, errors.Is(err, domain.ErrInsufficientLots) || errors.Is(err, domain.ErrInsufficientStock), err.Error())
				fail++
				return
			}
			ok++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, fail)
	st, err := store.Stock().Get(context.Background(), "P1", "W1")
	require.NoError(t, err)
	assert.Equal(t, "40", st.Quantity.String())
}

func TestLowStock_AlertaDeduplicada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Create(ctx, fifo("120"))
	require.NoError(t, err)
	require.Equal(t, 1, f.alerts.count())
	assert.Equal(t, "30", f.alerts.alerts[0].Quantity)
	assert.Equal(t, "30", f.alerts.alerts[0].Threshold)

	second, err := f.uc.Create(ctx, fifo("5"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.alerts.count(), "sigue bajo: no se repite")

	require.NoError(t, f.uc.Delete(ctx, first.ID))
	require.NoError(t, f.uc.Delete(ctx, second.ID))

	_, err = f.uc.Create(ctx, fifo("125"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.alerts.count(), "volvió a cruzar el umbral")
}

func TestLowStock_FalloDePublicacionNoAfectaLaSalida(t *testing.T) {
	f := newFixture(t)
	f.alerts.err = errors.New("broker caído")

	exit, err := f.uc.Create(context.Background(), fifo("120"))
	require.NoError(t, err)
	assert.Len(t, exit.Allocations, 2)
	assert.Equal(t, "30", f.stock(t, "P1", "W1").String())
}

func TestLowStock_Query(t *testing.T) {
	f := newFixture(t)
	monitor := inventory.NewLowStockMonitor(f.store.Stock(), f.store.Products(), nil, nil, nil, nil)
	ctx := context.Background()

	levels, err := monitor.Query(ctx, []string{"P1", "P2", "P1"}, "W1")
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "P1", levels[0].ProductID)
	assert.False(t, levels[0].IsLow())
	assert.Equal(t, "P2", levels[1].ProductID)
	assert.True(t, levels[1].Quantity.IsZero())

	_, err = f.uc.Create(ctx, fifo("130"))
	require.NoError(t, err)
	levels, err = monitor.Query(ctx, []string{"P1"}, "W1")
	require.NoError(t, err)
	assert.True(t, levels[0].IsLow())

	_, err = monitor.Query(ctx, []string{" "}, "W1")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLowStock_QuerySinBodegaIncluyeProductosSinStock(t *testing.T) {
	f := newFixture(t)
	receive(t, f.store, "L9", "P1", "W2", "7", 2)
	monitor := inventory.NewLowStockMonitor(f.store.Stock(), f.store.Products(), nil, nil, nil, nil)

	levels, err := monitor.Query(context.Background(), []string{"P2", "P1"}, "")
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, "P2", levels[0].ProductID)
	assert.Empty(t, levels[0].WarehouseID)
	assert.True(t, levels[0].Quantity.IsZero())
	assert.True(t, levels[0].IsLow())
	assert.Equal(t, "W1", levels[1].WarehouseID)
	assert.Equal(t, "W2", levels[2].WarehouseID)
	assert.Equal(t, "7", levels[2].Quantity.String())
}

type releaseFailingDeduper struct {
	mu       sync.Mutex
	released int
}

func (d *releaseFailingDeduper) Acquire(context.Context, string, string) (bool, error) {
	return true, nil
}

func (d *releaseFailingDeduper) Release(context.Context, string, string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released++
	return errors.New("redis caído")
}

func TestLowStock_FalloAlLiberarMarcaSeRegistra(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.Config{Env: "production", Level: "warn"}, &buf)
	deduper := &releaseFailingDeduper{}
	alerts := &fakeAlerts{err: errors.New("broker caído")}
	monitor := inventory.NewLowStockMonitor(f.store.Stock(), f.store.Products(), deduper, alerts, nil, log)

	_, err := f.uc.Create(context.Background(), fifo("130"))
	require.NoError(t, err)
	monitor.Evaluate(context.Background(), "P1", "W1")

	assert.Equal(t, 1, deduper.released)
	assert.Contains(t, buf.String(), "no se pudo publicar la alerta de bajo stock")
	assert.Contains(t, buf.String(), "no se pudo limpiar la marca de alerta")
	assert.Contains(t, buf.String(), "redis caído")
}

func TestExpirePending_CancelaSoloVencidas(t *testing.T) {
	f := newFixture(t, func(o *inventory.ExitOptions) { o.PendingTTL = time.Millisecond })
	ctx := context.Background()

	pending, err := f.uc.Create(ctx, fifo("40"))
	require.NoError(t, err)
	completed := fifo("10")
	completed.Status = entity.ExitStatusCompleted
	done, err := f.uc.Create(ctx, completed)
	require.NoError(t, err)
	assert.Equal(t, "100", f.stock(t, "P1", "W1").String())

	time.Sleep(10 * time.Millisecond)

	ids, err := f.uc.ListExpiredPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{pending.ID}, ids)

	n, err := f.uc.ExpirePending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "140", f.stock(t, "P1", "W1").String())

	_, err = f.uc.Get(ctx, pending.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.Get(ctx, done.ID)
	require.NoError(t, err)
	f.assertConservation(t, "P1", "W1")
}
