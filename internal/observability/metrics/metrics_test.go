package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveToolCall(t *testing.T) {
	m := New()
	m.ObserveToolCall("token_balanceOf", "read", true, 20*time.Millisecond)
	m.ObserveToolCall("token_balanceOf", "read", false, time.Second)
	m.ObserveToolCall("token_transfer", "write", true, 3*time.Second)

	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("token_balanceOf", "read", "error")); got != 1 {
		t.Fatalf("unexpected error count %v", got)
	}
	if got := testutil.ToFloat64(m.ToolCalls.WithLabelValues("token_transfer", "write", "success")); got != 1 {
		t.Fatalf("unexpected success count %v", got)
	}
	if got := testutil.CollectAndCount(m.ToolDuration); got != 2 {
		t.Fatalf("expected 2 latency series, got %d", got)
	}
}

func TestObserveRetryAndTransaction(t *testing.T) {
	m := New()
	m.ObserveRetry("Read totalSupply")
	m.ObserveRetry("Read totalSupply")
	m.ObserveTransaction("transfer", 1)
	m.ObserveTransaction("transfer", 0)

	if got := testutil.ToFloat64(m.Retries.WithLabelValues("Read totalSupply")); got != 2 {
		t.Fatalf("unexpected retry count %v", got)
	}
	if got := testutil.ToFloat64(m.Transactions.WithLabelValues("transfer", "reverted")); got != 1 {
		t.Fatalf("unexpected reverted count %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTPRequest("tools", http.MethodGet, http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(string(body), `openmcp_http_requests_total{code="200",handler="tools",method="GET"} 1`) {
		t.Fatalf("http counter missing from exposition:\n%s", body)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveToolCall("x", "read", true, time.Millisecond)
	m.ObserveRetry("x")
	m.ObserveTransaction("x", 1)
	m.ObserveHTTPRequest("x", "GET", 200, time.Millisecond)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}
