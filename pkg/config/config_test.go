package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, StorageDriverPostgres, cfg.Inventory.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.Inventory.PendingTTL)
	assert.Empty(t, cfg.Inventory.DefaultWarehouse)
	assert.Equal(t, "@every 5m", cfg.Worker.SweepCron)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("INVENTORY_STORAGE_DRIVER", "MEMORY")
	v.Set("INVENTORY_DEFAULT_WAREHOUSE", "W1")
	v.Set("INVENTORY_PENDING_TTL", "90m")
	v.Set("INVENTORY_ALERT_DEDUP_TTL", "3600")
	v.Set("HTTP_PORT", "9090")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.Inventory.StorageDriver)
	assert.Equal(t, "W1", cfg.Inventory.DefaultWarehouse)
	assert.Equal(t, 90*time.Minute, cfg.Inventory.PendingTTL)
	assert.Equal(t, time.Hour, cfg.Inventory.AlertDedupTTL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("INVENTORY_STORAGE_DRIVER", "mongo")

	_, err := fromViper(v)
	require.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "lotes", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/lotes?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
