package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"OpenMCP-ABI/internal/auth"
	"OpenMCP-ABI/internal/contractabi"
	"OpenMCP-ABI/internal/journal"
	"OpenMCP-ABI/internal/observability/metrics"
	"OpenMCP-ABI/internal/tools"
	"OpenMCP-ABI/internal/web3"
	"OpenMCP-ABI/pkg/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ChainStatus reports the state of the connected chain.
type ChainStatus interface {
	FetchChainSnapshot(ctx context.Context) (web3.ChainSnapshot, error)
}

// Dependencies 汇总 HTTP 接口依赖的组件，除 Tools 外均可为空。
type Dependencies struct {
	Chain    ChainStatus
	Tools    *tools.Registry
	Journal  journal.Store
	Metrics  *metrics.Metrics
	Contract string
	Address  string
	// Auth 保护 /api/v1 下的接口，为空时不认证。
	Auth *auth.Authenticator
}

// Server 负责暴露运维 REST 接口。
type Server struct {
	addr   string
	deps   Dependencies
	logger *slog.Logger
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, deps Dependencies) *Server {
	return &Server{addr: addr, deps: deps, logger: logger.Named("api")}
}

// Handler 返回注册了全部路由的处理器。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/api/v1/tools", s.instrument("tools", s.deps.Auth.Middleware(http.HandlerFunc(s.handleTools))))
	mux.Handle("/api/v1/transactions", s.instrument("transactions", s.deps.Auth.Middleware(http.HandlerFunc(s.handleTransactions))))
	if s.deps.Metrics != nil {
		mux.Handle("/metrics", s.deps.Metrics.Handler())
	}
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("HTTP 接口已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type healthResponse struct {
	Status   string              `json:"status"`
	Contract string              `json:"contract,omitempty"`
	Address  string              `json:"address,omitempty"`
	Tools    int                 `json:"tools"`
	Chain    *web3.ChainSnapshot `json:"chain,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}

	resp := healthResponse{
		Status:   "ok",
		Contract: s.deps.Contract,
		Address:  s.deps.Address,
		Tools:    s.deps.Tools.Len(),
	}
	code := http.StatusOK
	if s.deps.Chain != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		snapshot, err := s.deps.Chain.FetchChainSnapshot(ctx)
		if err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Chain = &snapshot
		}
	}
	writeJSON(w, code, resp)
}

type toolView struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Function    string          `json:"function"`
	Inputs      string          `json:"inputs,omitempty"`
	Action      string          `json:"action"`
	InputSchema json.RawMessage `json:"input_schema"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}

	list := s.deps.Tools.List()
	views := make([]toolView, 0, len(list))
	for _, tool := range list {
		action := tools.ActionExecute
		if tool.Function.IsRead {
			action = tools.ActionQuery
		}
		views = append(views, toolView{
			Name:        tool.Name,
			Description: tool.Description,
			Function:    tool.Function.Name,
			Inputs:      contractabi.Signature(tool.Function.Inputs, "arg"),
			Action:      action,
			InputSchema: tool.InputSchema,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "仅支持 GET", http.StatusMethodNotAllowed)
		return
	}
	if s.deps.Journal == nil {
		http.Error(w, "交易流水未启用", http.StatusServiceUnavailable)
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit 必须为正整数", http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxListLimit)
	}

	entries, err := s.deps.Journal.Latest(r.Context(), limit)
	if err != nil {
		s.logger.Error("读取交易流水失败", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// instrument 记录每个请求的次数与耗时。
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.deps.Metrics.ObserveHTTPRequest(name, r.Method, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
