// worker procesa las tareas asíncronas del motor de lotes: alertas de bajo stock, eventos de
// salidas (generación documental) y el barrido periódico de salidas pendientes vencidas.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventario-lotes/internal/bootstrap"
	"github.com/jhoicas/inventario-lotes/internal/jobs"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := bootstrap.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar motor de lotes")
	}
	defer engine.Close()
	if engine.Redis == nil {
		log.Fatal().Str("addr", cfg.Redis.Addr).Msg("el worker requiere Redis")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   bootstrap.RedisOpts(cfg.Redis),
		Concurrency: cfg.Worker.Concurrency,
		SweepCron:   cfg.Worker.SweepCron,
		SweepBatch:  cfg.Worker.SweepBatch,
		Handlers:    jobs.NewHandlers(engine.Exits, engine.Metrics, log),
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar worker")
	}

	if err := worker.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
