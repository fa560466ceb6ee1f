// Package auth guards the ops HTTP API with static bearer tokens.
package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	loggerpkg "OpenMCP-ABI/pkg/logger"
)

var (
	// ErrMissingToken 表示请求未携带 Bearer 令牌。
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken 表示令牌不在白名单内。
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Token 将一个令牌绑定到调用方名称。
type Token struct {
	Name  string
	Value string
}

// Authenticator 校验静态令牌。未配置任何令牌时认证关闭。
type Authenticator struct {
	tokens []Token
	audit  *slog.Logger
}

// NewAuthenticator 构造认证器，忽略空令牌。audit 为空时使用全局审计日志。
func NewAuthenticator(tokens []Token, audit *slog.Logger) *Authenticator {
	kept := make([]Token, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token.Value) == "" {
			continue
		}
		kept = append(kept, token)
	}
	return &Authenticator{tokens: kept, audit: audit}
}

// Enabled 报告是否需要认证。
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.tokens) > 0
}

// Authenticate 解析 Authorization 头并返回匹配的调用方。
func (a *Authenticator) Authenticate(header string) (*Subject, error) {
	value, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, ErrMissingToken
	}
	for _, token := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(token.Value), []byte(value)) == 1 {
			return &Subject{Name: token.Name}, nil
		}
	}
	return nil, ErrInvalidToken
}

// Middleware 返回一个 HTTP 中间件，用于处理身份认证并记录审计日志。
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		logger := a.audit
		if logger == nil {
			logger = loggerpkg.Audit()
		}

		subject, err := a.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			status := http.StatusUnauthorized
			http.Error(w, http.StatusText(status), status)
			logger.Warn("access_denied",
				"path", r.URL.Path,
				"method", r.Method,
				"status", status,
				"error", err.Error(),
			)
			return
		}

		start := time.Now()
		aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(aw, r.WithContext(WithSubject(r.Context(), subject)))
		logger.Info("api_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", aw.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"user", subject.Name,
		)
	})
}

// auditWriter 捕获响应状态码。
type auditWriter struct {
	http.ResponseWriter
	status int
}

func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
