// Package bootstrap arma las dependencias compartidas por cmd/api y cmd/worker:
// almacenamiento (postgres o memoria), Redis, cola asynq, métricas y casos de uso.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/metrics"
	"github.com/jhoicas/inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-lotes/internal/jobs"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// Storage repos de lectura y runner transaccional del driver elegido.
type Storage struct {
	TxRunner   inventory.TxRunner
	Stock      repository.StockRepository
	Lots       repository.LotRepository
	Exits      repository.ExitRepository
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	close      func()
}

// Close libera el pool (no-op en memoria).
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage abre el almacenamiento según INVENTORY_STORAGE_DRIVER.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Inventory.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		return &Storage{
			TxRunner:   store,
			Stock:      store.Stock(),
			Lots:       store.Lots(),
			Exits:      store.Exits(),
			Products:   store.Products(),
			Warehouses: store.Warehouses(),
		}, nil
	case config.StorageDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &Storage{
			TxRunner:   postgres.NewTxRunner(pool),
			Stock:      postgres.NewStockRepository(pool),
			Lots:       postgres.NewLotRepository(pool),
			Exits:      postgres.NewExitRepository(pool),
			Products:   postgres.NewProductRepository(pool),
			Warehouses: postgres.NewWarehouseRepository(pool),
			close:      pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("driver de almacenamiento no soportado: %s", cfg.Inventory.StorageDriver)
	}
}

// Engine el motor de salidas listo para usar, con sus colaboradores post-commit.
type Engine struct {
	Storage *Storage
	Exits   *inventory.ExitUseCase
	Monitor *inventory.LowStockMonitor
	Lots    *inventory.LotRegistry
	Metrics *metrics.Metrics
	Redis   *redis.Client // nil si Redis no está disponible
	Queue   *jobs.Client  // nil si Redis no está disponible
}

// Close cierra cola, Redis y almacenamiento.
func (e *Engine) Close() {
	if e.Queue != nil {
		_ = e.Queue.Close()
	}
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	e.Storage.Close()
}

// RedisOpts opciones asynq derivadas de la configuración de Redis.
func RedisOpts(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

// NewEngine abre almacenamiento y Redis y arma el caso de uso. Sin Redis el motor sigue
// funcionando: las alertas no se deduplican ni se encolan, solo se registran en el log.
func NewEngine(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Engine, error) {
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e := &Engine{Storage: storage, Metrics: metrics.New()}

	var (
		deduper inventory.AlertDeduper
		alerts  inventory.AlertPublisher
		events  inventory.EventPublisher
	)
	if client, err := cache.New(ctx, cfg.Redis); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible; alertas y eventos sin cola")
	} else {
		e.Redis = client
		e.Queue = jobs.NewClient(RedisOpts(cfg.Redis))
		deduper = cache.NewAlertDeduper(client, cfg.Inventory.AlertDedupTTL)
		alerts = e.Queue
		events = e.Queue
	}

	e.Monitor = inventory.NewLowStockMonitor(storage.Stock, storage.Products, deduper, alerts, e.Metrics, log)
	e.Lots = inventory.NewLotRegistry(storage.Lots)
	e.Exits = inventory.NewExitUseCase(storage.TxRunner, storage.Exits, storage.Products, storage.Warehouses,
		inventory.ExitOptions{
			Monitor:    e.Monitor,
			Events:     events,
			Metrics:    e.Metrics,
			Logger:     log,
			PendingTTL: cfg.Inventory.PendingTTL,
		})
	return e, nil
}
