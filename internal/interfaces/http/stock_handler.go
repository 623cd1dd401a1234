package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

// StockHandler consultas de nivel de stock.
type StockHandler struct {
	monitor *inventory.LowStockMonitor
}

func NewStockHandler(monitor *inventory.LowStockMonitor) *StockHandler {
	return &StockHandler{monitor: monitor}
}

// LowStock compara el stock contra el punto de reorden.
// Sin warehouse_id devuelve una fila por cada bodega con stock del producto; un producto sin
// stock en ninguna bodega sale con warehouse_id vacío y cantidad cero.
// @Summary      Consultar bajo stock
// @Tags         Stock
// @Produce      json
// @Param        product_ids   query     string  true   "IDs separados por coma"
// @Param        warehouse_id  query     string  false  "Bodega"
// @Success      200  {array}   dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	ids := strings.Split(c.Query("product_ids"), ",")
	levels, err := h.monitor.Query(c.UserContext(), ids, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.StockLevelResponse{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Quantity:    l.Quantity,
			Threshold:   l.Threshold,
			IsLow:       l.IsLow(),
		})
	}
	return c.JSON(out)
}
