// Package metrics expone contadores Prometheus del motor de lotes en un registry propio.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
)

var _ inventory.Recorder = (*Metrics)(nil)

// Metrics registry y colectores de la aplicación.
type Metrics struct {
	registry       *prometheus.Registry
	handler        http.Handler
	operations     *prometheus.CounterVec
	operationTime  *prometheus.HistogramVec
	lotsPerExit    *prometheus.HistogramVec
	lowStockAlerts prometheus.Counter
	jobs           *prometheus.CounterVec
}

// New registra los colectores propios más los de proceso y runtime de Go.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_exit_operations_total",
			Help: "Operaciones sobre salidas por tipo y resultado (ok o código de error).",
		}, []string{"operation", "result"}),
		operationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventario_exit_operation_duration_seconds",
			Help:    "Duración de cada operación transaccional sobre salidas.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		lotsPerExit: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventario_lots_per_exit",
			Help:    "Número de lotes consumidos por una salida.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"mode"}),
		lowStockAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventario_low_stock_alerts_total",
			Help: "Alertas de bajo stock emitidas (ya deduplicadas).",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventario_jobs_total",
			Help: "Tareas asíncronas procesadas por tipo y resultado.",
		}, []string{"task", "result"}),
	}
	registry.MustRegister(
		m.operations, m.operationTime, m.lotsPerExit, m.lowStockAlerts, m.jobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registry para pruebas y colectores adicionales.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveOperation(operation, result string, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, result).Inc()
	m.operationTime.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAllocation(mode string, lots int) {
	m.lotsPerExit.WithLabelValues(mode).Observe(float64(lots))
}

func (m *Metrics) IncLowStockAlert() {
	m.lowStockAlerts.Inc()
}

// ObserveJob cuenta una tarea asynq procesada.
func (m *Metrics) ObserveJob(task string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.jobs.WithLabelValues(task, result).Inc()
}
