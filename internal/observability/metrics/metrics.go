package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ToolInvocations counts tool calls by outcome status.
	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web3mcp_tool_invocations_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "status"},
	)

	// ToolDuration tracks wall time per tool, including confirmation waits.
	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "web3mcp_tool_duration_seconds",
			Help:    "Tool invocation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60, 120, 300},
		},
		[]string{"tool"},
	)

	// Transactions counts transaction lifecycle transitions.
	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web3mcp_transactions_total",
			Help: "Total number of transaction lifecycle transitions",
		},
		[]string{"tool", "stage"},
	)

	// HTTPRequests counts requests served by the transport.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "web3mcp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)
)

// ObserveTool records the outcome and latency of one tool invocation.
func ObserveTool(tool, status string, duration time.Duration) {
	ToolInvocations.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveTransaction records a transaction reaching stage.
func ObserveTransaction(tool, stage string) {
	Transactions.WithLabelValues(tool, stage).Inc()
}

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func ObserveHTTPRequest(route, method string, status int) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Handler exposes the metrics in Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
