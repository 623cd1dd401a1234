package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/inventario-lotes/internal/interfaces/http"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "P1", SKU: "SKU-1", Name: "Tornillo"})
	store.AddWarehouse(entity.Warehouse{ID: "W1", Name: "Principal"})
	store.SetThreshold("P1", "W1", decimal.NewFromInt(30))
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.ReceiveLot(entity.Lot{ID: "L1", ProductID: "P1", WarehouseID: "W1",
		ReceivedQuantity: decimal.NewFromInt(100), InvoiceReference: "FAC-1", CreatedAt: base}))
	require.NoError(t, store.ReceiveLot(entity.Lot{ID: "L2", ProductID: "P1", WarehouseID: "W1",
		ReceivedQuantity: decimal.NewFromInt(50), InvoiceReference: "FAC-2", CreatedAt: base.Add(time.Hour)}))

	m := metrics.New()
	monitor := inventory.NewLowStockMonitor(store.Stock(), store.Products(), nil, nil, m, nil)
	uc := inventory.NewExitUseCase(store, store.Exits(), store.Products(), store.Warehouses(),
		inventory.ExitOptions{Monitor: monitor, Metrics: m})

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Exits:            uc,
		Monitor:          monitor,
		Lots:             inventory.NewLotRegistry(store.Lots()),
		DefaultWarehouse: "W1",
		ServiceName:      "inventario-lotes",
		Metrics:          m.Handler(),
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string, body any) *nethttp.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *nethttp.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	resp := do(t, app, fiber.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestExits_CrearFIFOConBodegaPorDefecto(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, fiber.MethodPost, "/api/exits", dto.ExitRequest{
		ProductID: "P1", Quantity: decimal.NewFromInt(120), AllocationMode: "fifo_auto",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	exit := decode[dto.ExitResponse](t, resp)
	assert.Equal(t, "W1", exit.WarehouseID)
	assert.Equal(t, "pending", exit.Status)
	require.Len(t, exit.Allocations, 2)
	assert.Equal(t, "L1", exit.Allocations[0].LotID)
	assert.Equal(t, "FAC-1", exit.Allocations[0].InvoiceReference)
	assert.True(t, exit.Allocations[1].Quantity.Equal(decimal.NewFromInt(20)))

	got := decode[dto.ExitResponse](t, do(t, app, fiber.MethodGet, "/api/exits/"+exit.ID, nil))
	assert.Equal(t, exit.ID, got.ID)
	assert.Len(t, got.Allocations, 2)
}

func TestExits_CicloCompleto(t *testing.T) {
	app := newTestApp(t)

	created := decode[dto.ExitResponse](t, do(t, app, fiber.MethodPost, "/api/exits", dto.ExitRequest{
		ProductID: "P1", WarehouseID: "W1", Quantity: decimal.NewFromInt(30), AllocationMode: "manual",
		Lots: []dto.LotQuantityRequest{{LotID: "L2", Quantity: decimal.NewFromInt(30)}},
	}))
	require.Len(t, created.Allocations, 1)
	assert.Equal(t, "L2", created.Allocations[0].LotID)

	resp := do(t, app, fiber.MethodPut, "/api/exits/"+created.ID, dto.ExitRequest{
		ProductID: "P1", Quantity: decimal.NewFromInt(10), AllocationMode: "fifo_auto",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	updated := decode[dto.ExitResponse](t, resp)
	assert.Equal(t, created.Revision+1, updated.Revision)
	assert.Equal(t, "L1", updated.Allocations[0].LotID)

	resp = do(t, app, fiber.MethodPost, "/api/exits/"+created.ID+"/complete", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", decode[dto.ExitResponse](t, resp).Status)

	resp = do(t, app, fiber.MethodPost, "/api/exits/"+created.ID+"/complete", nil)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATE_TRANSITION", decode[dto.ErrorResponse](t, resp).Code)

	resp = do(t, app, fiber.MethodDelete, "/api/exits/"+created.ID, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.OKResponse](t, resp).OK)

	resp = do(t, app, fiber.MethodGet, "/api/exits/"+created.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExits_Errores(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name   string
		body   dto.ExitRequest
		status int
		code   string
	}{
		{"fifo con lotes", dto.ExitRequest{ProductID: "P1", Quantity: decimal.NewFromInt(5), AllocationMode: "fifo_auto",
			Lots: []dto.LotQuantityRequest{{LotID: "L1", Quantity: decimal.NewFromInt(5)}}}, fiber.StatusBadRequest, "VALIDATION"},
		{"modo ausente", dto.ExitRequest{ProductID: "P1", Quantity: decimal.NewFromInt(5)}, fiber.StatusBadRequest, "VALIDATION"},
		{"producto inexistente", dto.ExitRequest{ProductID: "NOPE", Quantity: decimal.NewFromInt(5), AllocationMode: "fifo_auto"},
			fiber.StatusNotFound, "NOT_FOUND"},
		{"lotes insuficientes", dto.ExitRequest{ProductID: "P1", Quantity: decimal.NewFromInt(500), AllocationMode: "fifo_auto"},
			fiber.StatusConflict, "INSUFFICIENT_LOTS"},
		{"lote sin saldo", dto.ExitRequest{ProductID: "P1", Quantity: decimal.NewFromInt(60), AllocationMode: "manual",
			Lots: []dto.LotQuantityRequest{{LotID: "L2", Quantity: decimal.NewFromInt(60)}}}, fiber.StatusConflict, "INSUFFICIENT_LOT_CAPACITY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, app, fiber.MethodPost, "/api/exits", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code)
		})
	}
}

func TestExits_CuerpoInvalido(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(fiber.MethodPost, "/api/exits", bytes.NewBufferString("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStockLow(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/api/exits", dto.ExitRequest{
		ProductID: "P1", Quantity: decimal.NewFromInt(125), AllocationMode: "fifo_auto",
	})

	resp := do(t, app, fiber.MethodGet, "/api/stock/low?product_ids=P1&warehouse_id=W1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	levels := decode[[]dto.StockLevelResponse](t, resp)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(25)))
	assert.True(t, levels[0].IsLow)

	resp = do(t, app, fiber.MethodGet, "/api/stock/low", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLots_SaldoVivo(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/api/exits", dto.ExitRequest{
		ProductID: "P1", Quantity: decimal.NewFromInt(100), AllocationMode: "fifo_auto",
	})

	resp := do(t, app, fiber.MethodGet, "/api/lots?product_id=P1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	lots := decode[[]dto.LotBalanceResponse](t, resp)
	require.Len(t, lots, 2)
	assert.Equal(t, "L1", lots[0].ID)
	assert.True(t, lots[0].Exhausted)
	assert.True(t, lots[1].Remaining.Equal(decimal.NewFromInt(50)))

	resp = do(t, app, fiber.MethodGet, "/api/lots", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMetricsExpuestas(t *testing.T) {
	app := newTestApp(t)
	do(t, app, fiber.MethodPost, "/api/exits", dto.ExitRequest{
		ProductID: "P1", Quantity: decimal.NewFromInt(1), AllocationMode: "fifo_auto",
	})
	resp := do(t, app, fiber.MethodGet, "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "inventario_")
}
