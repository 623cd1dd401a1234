package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/inventario-lotes/internal/application/dto"
	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/entity"
)

// ExitHandler maneja las salidas de inventario asignadas a lotes.
type ExitHandler struct {
	uc               *inventory.ExitUseCase
	defaultWarehouse string
}

// NewExitHandler construye el handler. defaultWarehouse se usa cuando el body no trae warehouse_id.
func NewExitHandler(uc *inventory.ExitUseCase, defaultWarehouse string) *ExitHandler {
	return &ExitHandler{uc: uc, defaultWarehouse: defaultWarehouse}
}

// Create registra una salida y asigna sus lotes.
// @Summary      Crear salida
// @Description  Descuenta stock y asigna lotes (fifo_auto o manual) en una sola transacción.
// @Tags         Exits
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ExitRequest  true  "Salida"
// @Success      201   {object}  dto.ExitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/exits [post]
func (h *ExitHandler) Create(c *fiber.Ctx) error {
	var req dto.ExitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "cuerpo de la petición inválido")
	}
	exit, err := h.uc.Create(c.UserContext(), h.toInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toExitResponse(exit))
}

// Get devuelve una salida con sus asignaciones.
// @Summary      Obtener salida
// @Tags         Exits
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.ExitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/exits/{id} [get]
func (h *ExitHandler) Get(c *fiber.Ctx) error {
	exit, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toExitResponse(exit))
}

// Update reemplaza producto, bodega, cantidad y asignaciones de una salida pendiente.
// @Summary      Editar salida
// @Tags         Exits
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "ID de la salida"
// @Param        body  body      dto.ExitRequest  true  "Salida"
// @Success      200   {object}  dto.ExitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/exits/{id} [put]
func (h *ExitHandler) Update(c *fiber.Ctx) error {
	var req dto.ExitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "cuerpo de la petición inválido")
	}
	exit, err := h.uc.Update(c.UserContext(), c.Params("id"), h.toInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toExitResponse(exit))
}

// Complete marca la salida como completada. No mueve stock.
// @Summary      Completar salida
// @Tags         Exits
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.ExitResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/exits/{id}/complete [post]
func (h *ExitHandler) Complete(c *fiber.Ctx) error {
	exit, err := h.uc.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toExitResponse(exit))
}

// Delete elimina la salida y devuelve su cantidad al stock y a los lotes.
// @Summary      Eliminar salida
// @Tags         Exits
// @Produce      json
// @Param        id   path      string  true  "ID de la salida"
// @Success      200  {object}  dto.OKResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/exits/{id} [delete]
func (h *ExitHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OKResponse{OK: true})
}

func (h *ExitHandler) toInput(req dto.ExitRequest) inventory.ExitInput {
	warehouseID := req.WarehouseID
	if warehouseID == "" {
		warehouseID = h.defaultWarehouse
	}
	overrides := make([]inventory.LotQuantity, 0, len(req.Lots))
	for _, l := range req.Lots {
		overrides = append(overrides, inventory.LotQuantity{LotID: l.LotID, Quantity: l.Quantity})
	}
	return inventory.ExitInput{
		ProductID:       req.ProductID,
		WarehouseID:     warehouseID,
		Quantity:        req.Quantity,
		Mode:            req.AllocationMode,
		Overrides:       overrides,
		Status:          req.Status,
		ExpiresAt:       req.ExpiresAt,
		SelectedInvoice: req.SelectedInvoice,
		Note:            req.Note,
		CreatedBy:       req.CreatedBy,
	}
}

func toExitResponse(e *entity.ExitDocument) dto.ExitResponse {
	allocations := make([]dto.AllocationResponse, 0, len(e.Allocations))
	for _, a := range e.Allocations {
		allocations = append(allocations, dto.AllocationResponse{
			ID:               a.ID,
			LotID:            a.LotID,
			Quantity:         a.Quantity,
			InvoiceReference: a.InvoiceReferenceSnapshot,
			CreatedAt:        a.CreatedAt,
		})
	}
	return dto.ExitResponse{
		ID:                e.ID,
		ProductID:         e.ProductID,
		WarehouseID:       e.WarehouseID,
		RequestedQuantity: e.RequestedQuantity,
		Status:            e.Status,
		AllocationMode:    e.AllocationMode,
		SelectedInvoice:   e.SelectedInvoice,
		Note:              e.Note,
		ExpiresAt:         e.ExpiresAt,
		Revision:          e.Revision,
		CreatedBy:         e.CreatedBy,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Allocations:       allocations,
	}
}
