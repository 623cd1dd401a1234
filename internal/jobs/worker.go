package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/inventario-lotes/pkg/logger"
)

// Worker envuelve el servidor asynq y el scheduler del barrido.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// WorkerConfig dependencias para levantar el worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	SweepCron   string // vacío = sin barrido programado
	SweepBatch  int
	Handlers    *Handlers
	Logger      *logger.Logger
}

// NewWorker registra los handlers del motor y, si hay cron, el barrido de vencidas.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("jobs: handlers requeridos")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      asynqLogger{l: log.Component("asynq")},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskLowStockAlert, cfg.Handlers.HandleLowStockAlert)
	mux.HandleFunc(TaskExitEvent, cfg.Handlers.HandleExitEvent)
	mux.HandleFunc(TaskExpirySweep, cfg.Handlers.HandleExpirySweep)

	var scheduler *asynq.Scheduler
	if cfg.SweepCron != "" {
		task, err := NewExpirySweepTask(cfg.SweepBatch)
		if err != nil {
			return nil, err
		}
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{
			Location: time.UTC,
			Logger:   asynqLogger{l: log.Component("asynq_scheduler")},
		})
		if _, err := scheduler.Register(cfg.SweepCron, task); err != nil {
			return nil, err
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: log}, nil
}

// Run procesa tareas hasta que se cancele ctx; luego espera a que terminen las que estén en curso.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
		defer w.scheduler.Shutdown()
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.log.Info().Str("queue", QueueDefault).Msg("worker iniciado")
	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
