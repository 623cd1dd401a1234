// Package jobs entrega fuera de la transacción lo que el motor publica (alertas y eventos de salida)
// y corre el barrido periódico de salidas pendientes vencidas, todo sobre asynq.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

const (
	// QueueDefault cola de las tareas del motor de lotes.
	QueueDefault = "inventario"
	// TaskLowStockAlert notificación de bajo stock.
	TaskLowStockAlert = "inventory:low_stock_alert"
	// TaskExitEvent lista final de asignaciones para la generación del comprobante.
	TaskExitEvent = "inventory:exit_event"
	// TaskExpirySweep cancela salidas pendientes vencidas.
	TaskExpirySweep = "inventory:expiry_sweep"
)

// ExpirySweepPayload tamaño del lote de salidas a cancelar por ejecución.
type ExpirySweepPayload struct {
	Batch int `json:"batch"`
}

// NewLowStockAlertTask construye la tarea de alerta.
func NewLowStockAlertTask(alert inventory.LowStockAlert) (*asynq.Task, error) {
	body, err := json.Marshal(alert)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockAlert, body, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewExitEventTask construye la tarea del evento de salida.
func NewExitEventTask(evt inventory.ExitEvent) (*asynq.Task, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExitEvent, body, asynq.Queue(QueueDefault), asynq.MaxRetry(10)), nil
}

// ExitEventTaskID (salida, revisión, tipo) identifica el evento: reencolarlo no lo duplica.
func ExitEventTaskID(evt inventory.ExitEvent) string {
	return fmt.Sprintf("exit:%s:r%d:%s", evt.ExitID, evt.Revision, evt.Type)
}

// NewExpirySweepTask construye la tarea programada del barrido.
func NewExpirySweepTask(batch int) (*asynq.Task, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("jobs: batch inválido %d", batch)
	}
	body, err := json.Marshal(ExpirySweepPayload{Batch: batch})
	if err != nil {
		return nil, err
	}
	// Una sola ejecución a la vez; si el barrido anterior sigue en cola no se encola otro
	return asynq.NewTask(TaskExpirySweep, body,
		asynq.Queue(QueueDefault), asynq.MaxRetry(1), asynq.Unique(time.Minute)), nil
}
