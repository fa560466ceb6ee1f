package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"OpenMCP-ABI/internal/auth"
	"OpenMCP-ABI/internal/contract"
	"OpenMCP-ABI/internal/contractabi"
	"OpenMCP-ABI/internal/journal"
	"OpenMCP-ABI/internal/observability/metrics"
	"OpenMCP-ABI/internal/tools"
	"OpenMCP-ABI/internal/web3"
)

type nopInvoker struct{}

func (nopInvoker) CallReadFunction(context.Context, string, []contractabi.Value) (any, error) {
	return nil, nil
}

func (nopInvoker) CallWriteFunction(context.Context, string, []contractabi.Value) (*contract.WriteResult, error) {
	return nil, errors.New("read-only")
}

type stubChain struct {
	err error
}

func (s stubChain) FetchChainSnapshot(context.Context) (web3.ChainSnapshot, error) {
	if s.err != nil {
		return web3.ChainSnapshot{}, s.err
	}
	return web3.ChainSnapshot{Chain: "fraxtal", ChainID: "0xfc", BlockNumber: "0x10"}, nil
}

func newTestServer(t *testing.T, chain ChainStatus, store journal.Store) (*Server, *metrics.Metrics) {
	t.Helper()

	iface, err := contractabi.Parse([]byte(`[
	  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
	]`))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	registry, err := tools.NewRegistry(tools.Generate(nopInvoker{}, "Token", contractabi.ExtractFunctions(iface))...)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	m := metrics.New()
	return NewServer(":0", Dependencies{
		Chain:    chain,
		Tools:    registry,
		Journal:  store,
		Metrics:  m,
		Contract: "Token",
		Address:  "0x0000000000000000000000000000000000000001",
	}), m
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t, stubChain{}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d want %d", rec.Code, http.StatusOK)
	}

	var got healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "ok" || got.Tools != 2 {
		t.Fatalf("unexpected health payload: %+v", got)
	}
	if got.Chain == nil || got.Chain.BlockNumber != "0x10" {
		t.Fatalf("unexpected chain snapshot: %+v", got.Chain)
	}
}

func TestHealthDegradedWhenChainFails(t *testing.T) {
	server, _ := newTestServer(t, stubChain{err: errors.New("rpc down")}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rpc down") {
		t.Fatalf("expected error in body, got %s", rec.Body.String())
	}
}

func TestListTools(t *testing.T) {
	server, _ := newTestServer(t, nil, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d", rec.Code)
	}

	var got []toolView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(got))
	}
	if got[0].Name != "token_totalSupply" || got[0].Action != tools.ActionQuery {
		t.Fatalf("unexpected first tool: %+v", got[0])
	}
	if got[1].Action != tools.ActionExecute || got[1].Inputs != "to (address), amount (uint256)" {
		t.Fatalf("unexpected second tool: %+v", got[1])
	}
}

func TestListTransactions(t *testing.T) {
	store := journal.NewMemoryStore(10)
	for _, fn := range []string{"transfer", "approve", "mint"} {
		if err := store.Record(context.Background(), journal.Entry{Function: fn, Status: journal.StatusSuccess}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	server, _ := newTestServer(t, nil, store)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d", rec.Code)
	}
	var got []journal.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 || got[0].Function != "mint" || got[1].Function != "approve" {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestListTransactionsErrors(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		server, _ := newTestServer(t, nil, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		server, _ := newTestServer(t, nil, journal.NewMemoryStore(1))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=-1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		server, _ := newTestServer(t, nil, journal.NewMemoryStore(1))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	server, _ := newTestServer(t, nil, nil)
	handler := server.Handler()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `openmcp_http_requests_total{code="200",handler="tools",method="GET"} 1`) {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestAPIRoutesRequireTokenWhenConfigured(t *testing.T) {
	server, _ := newTestServer(t, stubChain{}, journal.NewMemoryStore(1))
	server.deps.Auth = auth.NewAuthenticator([]auth.Token{{Name: "ops", Value: "secret"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health must stay public, got %d", rec.Code)
	}
}
