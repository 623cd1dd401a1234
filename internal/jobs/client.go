package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

var (
	_ inventory.AlertPublisher = (*Client)(nil)
	_ inventory.EventPublisher = (*Client)(nil)
)

// enqueuer lo que usa Client de *asynq.Client.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client publica alertas y eventos del motor como tareas asynq.
type Client struct {
	client enqueuer
}

// NewClient construye el cliente asynq sobre Redis.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// PublishLowStock encola la alerta. La deduplicación ya ocurrió en el monitor.
func (c *Client) PublishLowStock(ctx context.Context, alert inventory.LowStockAlert) error {
	task, err := NewLowStockAlertTask(alert)
	if err != nil {
		return fmt.Errorf("jobs: build low stock task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("jobs: enqueue low stock: %w", err)
	}
	return nil
}

// PublishExitEvent encola el evento con TaskID determinista; un ID repetido cuenta como entregado.
func (c *Client) PublishExitEvent(ctx context.Context, evt inventory.ExitEvent) error {
	task, err := NewExitEventTask(evt)
	if err != nil {
		return fmt.Errorf("jobs: build exit event task: %w", err)
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.TaskID(ExitEventTaskID(evt)))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("jobs: enqueue exit event: %w", err)
	}
	return nil
}

// Close libera la conexión.
func (c *Client) Close() error {
	return c.client.Close()
}
