// Package metrics exposes Prometheus collectors for the HTTP, RPC and
// billing paths. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splittie"

// Metrics holds every collector the server registers.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RPCTotal         *prometheus.CounterVec
	BillOperations   *prometheus.CounterVec
	DirectoryOps     *prometheus.CounterVec
	DirectoryRetries prometheus.Counter
	IntegrityErrors  prometheus.Counter
}

// New creates a Metrics instance on its own registry, with Go runtime and
// process collectors included.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		RPCTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Connect RPCs by procedure and result code.",
		}, []string{"procedure", "code"}),
		BillOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_operations_total",
			Help:      "Bill lifecycle operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		DirectoryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_sync_total",
			Help:      "Account bill index updates by operation and outcome.",
		}, []string{"operation", "outcome"}),
		DirectoryRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_sync_retries_total",
			Help:      "Retried account bill index updates.",
		}),
		IntegrityErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_warnings_total",
			Help:      "Bill writes that left the account bill index out of sync.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.RPCTotal,
		m.BillOperations,
		m.DirectoryOps,
		m.DirectoryRetries,
		m.IntegrityErrors,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// ObserveRPC records one Connect call.
func (m *Metrics) ObserveRPC(procedure, code string) {
	if m == nil {
		return
	}
	m.RPCTotal.WithLabelValues(procedure, code).Inc()
}

// BillOperation records a lifecycle operation outcome ("ok" or an error kind).
func (m *Metrics) BillOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.BillOperations.WithLabelValues(operation, outcome).Inc()
}

// DirectoryOp records one attach or detach, after retries.
func (m *Metrics) DirectoryOp(operation string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.DirectoryOps.WithLabelValues(operation, outcome).Inc()
}

// DirectoryRetry records one retry of an attach or detach.
func (m *Metrics) DirectoryRetry() {
	if m == nil {
		return
	}
	m.DirectoryRetries.Inc()
}

// IntegrityWarning records a bill write whose index fan-out partially failed.
func (m *Metrics) IntegrityWarning() {
	if m == nil {
		return
	}
	m.IntegrityErrors.Inc()
}
