package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()

	m.ObserveOperation("create", "ok", 10*time.Millisecond)
	m.ObserveOperation("create", "ok", 5*time.Millisecond)
	m.ObserveOperation("create", "insufficient_lots", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "insufficient_lots")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationTime))
}

func TestAlertasYJobs(t *testing.T) {
	m := New()

	m.IncLowStockAlert()
	m.ObserveJob("inventory:low_stock", nil)
	m.ObserveJob("inventory:low_stock", errors.New("x"))
	m.ObserveAllocation("fifo_auto", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.lowStockAlerts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobs.WithLabelValues("inventory:low_stock", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.lotsPerExit))
}

func TestHandler_Expone(t *testing.T) {
	m := New()
	m.ObserveOperation("delete", "ok", time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `inventario_exit_operations_total{operation="delete",result="ok"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
