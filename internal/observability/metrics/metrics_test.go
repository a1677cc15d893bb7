package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveToolAndTransaction(t *testing.T) {
	before := testutil.ToFloat64(ToolInvocations.WithLabelValues("wrap_eth", "ok"))
	ObserveTool("wrap_eth", "ok", 1500*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(ToolInvocations.WithLabelValues("wrap_eth", "ok")))

	ObserveTransaction("wrap_eth", "submitted")
	assert.GreaterOrEqual(t, testutil.ToFloat64(Transactions.WithLabelValues("wrap_eth", "submitted")), 1.0)
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveHTTPRequest("/mcp", http.MethodPost, http.StatusOK)
	ObserveTool("get_wallet_balance", "ok", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `web3mcp_http_requests_total{code="200",method="POST",route="/mcp"}`), body)
	assert.Contains(t, body, "web3mcp_tool_duration_seconds")
}
