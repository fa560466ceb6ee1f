package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of the ABI tool server. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	Retries      *prometheus.CounterVec
	Transactions *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "openmcp_tool_calls_total",
			Help: "Total number of contract tool invocations by outcome.",
		}, []string{"tool", "action", "outcome"}),

		ToolDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "openmcp_tool_call_duration_seconds",
			Help: "Contract tool latency in seconds, including retries and receipt waits.",
			// writes wait for inclusion, so allow for slow blocks
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"tool", "action"}),

		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "openmcp_contract_retries_total",
			Help: "Total number of retried contract operations.",
		}, []string{"operation"}),

		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "openmcp_transactions_total",
			Help: "Total number of mined transactions by receipt status.",
		}, []string{"function", "status"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "openmcp_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		}, []string{"handler", "method", "code"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "openmcp_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"handler", "method"}),
	}
}

// ObserveToolCall records one tool invocation.
func (m *Metrics) ObserveToolCall(tool, action string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, action, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool, action).Observe(duration.Seconds())
}

// ObserveRetry counts a retry of the named operation, e.g. "Read balanceOf".
func (m *Metrics) ObserveRetry(operation string) {
	if m == nil {
		return
	}
	m.Retries.WithLabelValues(operation).Inc()
}

// ObserveTransaction counts a mined transaction.
func (m *Metrics) ObserveTransaction(function string, status uint64) {
	if m == nil {
		return
	}
	label := "success"
	if status == 0 {
		label = "reverted"
	}
	m.Transactions.WithLabelValues(function, label).Inc()
}

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func (m *Metrics) ObserveHTTPRequest(handler, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(handler, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(handler, method).Observe(duration.Seconds())
}

// Handler exposes the metrics in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
