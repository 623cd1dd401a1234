package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-lotes/pkg/config"
)

func newDeduper(t *testing.T, ttl time.Duration) (*AlertDeduper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAlertDeduper(client, ttl), mr
}

func TestAlertDeduper_AcquireRelease(t *testing.T) {
	d, mr := newDeduper(t, time.Hour)
	ctx := context.Background()

	ok, err := d.Acquire(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("lowstock:alerted:P1:W1"))

	ok, err = d.Acquire(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.False(t, ok, "segunda alerta mientras sigue bajo")

	ok, err = d.Acquire(ctx, "P1", "W2")
	require.NoError(t, err)
	assert.True(t, ok, "otra bodega es otra clave")

	require.NoError(t, d.Release(ctx, "P1", "W1"))
	require.NoError(t, d.Release(ctx, "P1", "W1"))
	ok, err = d.Acquire(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAlertDeduper_Expira(t *testing.T) {
	d, mr := newDeduper(t, time.Minute)
	ctx := context.Background()

	_, err := d.Acquire(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("lowstock:alerted:P1:W1"))

	mr.FastForward(2 * time.Minute)
	ok, err := d.Acquire(ctx, "P1", "W1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAlertDeduper_RedisCaido(t *testing.T) {
	d, mr := newDeduper(t, time.Minute)
	mr.Close()

	_, err := d.Acquire(context.Background(), "P1", "W1")
	require.Error(t, err)
}

func TestNew_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	mr.Close()
	_, err = New(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.Error(t, err)
}
