package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET /bills", "200", 0.1)
		m.ObserveRPC("/splittie.v1.BillService/GetBill", "ok")
		m.BillOperation("create", "ok")
		m.DirectoryOp("attach", true)
		m.DirectoryRetry()
		m.IntegrityWarning()
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()

	m.BillOperation("create", "ok")
	m.BillOperation("create", "ok")
	m.BillOperation("delete", "not_found")
	m.DirectoryOp("attach", false)
	m.DirectoryRetry()
	m.DirectoryRetry()
	m.IntegrityWarning()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BillOperations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillOperations.WithLabelValues("delete", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryOps.WithLabelValues("attach", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DirectoryRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityErrors))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("GET /bills", "200", 0.02)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `splittie_http_requests_total{route="GET /bills",status="200"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
