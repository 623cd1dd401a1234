package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Exits            *inventory.ExitUseCase
	Monitor          *inventory.LowStockMonitor
	Lots             *inventory.LotRegistry
	DefaultWarehouse string
	ServiceName      string
	Metrics          nethttp.Handler // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api")

	exits := api.Group("/exits")
	exitHandler := NewExitHandler(deps.Exits, deps.DefaultWarehouse)
	exits.Post("/", exitHandler.Create)
	exits.Get("/:id", exitHandler.Get)
	exits.Put("/:id", exitHandler.Update)
	exits.Post("/:id/complete", exitHandler.Complete)
	exits.Delete("/:id", exitHandler.Delete)

	stockHandler := NewStockHandler(deps.Monitor)
	api.Get("/stock/low", stockHandler.LowStock)

	lotHandler := NewLotHandler(deps.Lots, deps.DefaultWarehouse)
	api.Get("/lots", lotHandler.List)
}
