package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// JobRecorder cuenta tareas procesadas (implementado por metrics.Metrics).
type JobRecorder interface {
	ObserveJob(task string, err error)
}

// ExpiryCanceller cancela salidas pendientes vencidas (implementado por ExitUseCase).
type ExpiryCanceller interface {
	ExpirePending(ctx context.Context, limit int) (int, error)
}

// Handlers procesadores de las tareas del motor.
type Handlers struct {
	expiry  ExpiryCanceller
	metrics JobRecorder
	log     *logger.Logger
}

// NewHandlers metrics puede ser nil.
func NewHandlers(expiry ExpiryCanceller, metrics JobRecorder, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{expiry: expiry, metrics: metrics, log: log.Component("jobs")}
}

// HandleLowStockAlert consume la alerta. El transporte de notificaciones es externo:
// aquí queda registrada para que lo recoja el canal que corresponda.
func (h *Handlers) HandleLowStockAlert(ctx context.Context, t *asynq.Task) (err error) {
	defer h.observe(TaskLowStockAlert, &err)

	var alert inventory.LowStockAlert
	if err := json.Unmarshal(t.Payload(), &alert); err != nil {
		return fmt.Errorf("payload alerta: %v: %w", err, asynq.SkipRetry)
	}
	if alert.ProductID == "" || alert.WarehouseID == "" {
		return fmt.Errorf("alerta sin producto o bodega: %w", asynq.SkipRetry)
	}
	h.log.Warn().
		Str("product_id", alert.ProductID).
		Str("warehouse_id", alert.WarehouseID).
		Str("quantity", alert.Quantity).
		Str("threshold", alert.Threshold).
		Time("raised_at", alert.RaisedAt).
		Msg("bajo stock")
	return nil
}

// HandleExitEvent consume la lista final de asignaciones (entrada del comprobante de salida).
func (h *Handlers) HandleExitEvent(ctx context.Context, t *asynq.Task) (err error) {
	defer h.observe(TaskExitEvent, &err)

	var evt inventory.ExitEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return fmt.Errorf("payload evento: %v: %w", err, asynq.SkipRetry)
	}
	if evt.ExitID == "" {
		return fmt.Errorf("evento sin exit_id: %w", asynq.SkipRetry)
	}
	arr := zerologArray(evt.Allocations)
	h.log.Info().
		Str("event", evt.Type).
		Str("exit_id", evt.ExitID).
		Int("revision", evt.Revision).
		Str("quantity", evt.Quantity).
		Array("allocations", arr).
		Msg("evento de salida")
	return nil
}

// HandleExpirySweep revierte y elimina salidas pendientes vencidas, hasta Batch por ejecución.
func (h *Handlers) HandleExpirySweep(ctx context.Context, t *asynq.Task) (err error) {
	defer h.observe(TaskExpirySweep, &err)

	var payload ExpirySweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.Batch <= 0 {
		return fmt.Errorf("payload barrido inválido: %w", asynq.SkipRetry)
	}
	n, err := h.expiry.ExpirePending(ctx, payload.Batch)
	if err != nil {
		return fmt.Errorf("barrido de vencidas: %w", err)
	}
	if n > 0 {
		h.log.Info().Int("cancelled", n).Msg("salidas pendientes vencidas canceladas")
	}
	return nil
}

func (h *Handlers) observe(task string, err *error) {
	if h.metrics != nil {
		h.metrics.ObserveJob(task, *err)
	}
	if *err != nil {
		h.log.Error().Err(*err).Str("task", task).Msg("tarea fallida")
	}
}
