package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

// LotHandler lectura de lotes con su saldo vivo.
type LotHandler struct {
	lots             *inventory.LotRegistry
	defaultWarehouse string
}

func NewLotHandler(lots *inventory.LotRegistry, defaultWarehouse string) *LotHandler {
	return &LotHandler{lots: lots, defaultWarehouse: defaultWarehouse}
}

// List lotes de un producto en una bodega, en orden FIFO, incluidos los agotados.
// @Summary      Listar lotes
// @Tags         Lots
// @Produce      json
// @Param        product_id    query     string  true   "Producto"
// @Param        warehouse_id  query     string  false  "Bodega (defecto del servicio si se omite)"
// @Success      200  {array}   dto.LotBalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	warehouseID := c.Query("warehouse_id", h.defaultWarehouse)
	lots, err := h.lots.ListAll(c.UserContext(), c.Query("product_id"), warehouseID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LotBalanceResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, dto.LotBalanceResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			WarehouseID:      l.WarehouseID,
			ReceivedQuantity: l.ReceivedQuantity,
			Remaining:        l.Remaining,
			InvoiceReference: l.InvoiceReference,
			CreatedAt:        l.CreatedAt,
			Exhausted:        l.Exhausted(),
		})
	}
	return c.JSON(out)
}
