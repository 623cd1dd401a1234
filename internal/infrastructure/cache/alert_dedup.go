package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

var _ inventory.AlertDeduper = (*AlertDeduper)(nil)

const alertKeyPrefix = "lowstock:alerted:"

// AlertDeduper marca en Redis las alertas de bajo stock ya enviadas (SET NX con TTL).
// El TTL acota cuánto puede quedar una marca huérfana si nunca se libera.
type AlertDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAlertDeduper ttl <= 0 usa 12h.
func NewAlertDeduper(client *redis.Client, ttl time.Duration) *AlertDeduper {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AlertDeduper{client: client, ttl: ttl}
}

func alertKey(productID, warehouseID string) string {
	return alertKeyPrefix + productID + ":" + warehouseID
}

// Acquire true si no había marca y quedó puesta ahora.
func (d *AlertDeduper) Acquire(ctx context.Context, productID, warehouseID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, alertKey(productID, warehouseID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: setnx alerta: %w", err)
	}
	return ok, nil
}

// Release borra la marca; no falla si no existía.
func (d *AlertDeduper) Release(ctx context.Context, productID, warehouseID string) error {
	if err := d.client.Del(ctx, alertKey(productID, warehouseID)).Err(); err != nil {
		return fmt.Errorf("cache: del alerta: %w", err)
	}
	return nil
}
