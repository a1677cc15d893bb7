package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	loggerpkg "Web3-MCP/pkg/logger"
)

// MiddlewareConfig 配置静态 Bearer Token 认证中间件。
type MiddlewareConfig struct {
	// Token 为空时不做认证，只记录审计日志。
	Token string
	// AuditEvent 指定记录审计日志时使用的事件名称。
	AuditEvent string
	// Audit 为空时使用全局审计 logger。
	Audit *slog.Logger
}

// Middleware 返回一个 HTTP 中间件，用于校验 Authorization 头并记录审计日志。
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(cfg.Token))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := cfg.Audit
			if logger == nil {
				logger = loggerpkg.Audit()
			}
			if cfg.Token != "" {
				token, ok := bearerToken(r.Header.Get("Authorization"))
				got := sha256.Sum256([]byte(token))
				if !ok || subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
					status := http.StatusUnauthorized
					w.Header().Set("WWW-Authenticate", `Bearer realm="web3-mcp"`)
					http.Error(w, http.StatusText(status), status)
					reason := "invalid_token"
					if !ok {
						reason = "missing_token"
					}
					logger.Warn("access_denied",
						"path", r.URL.Path,
						"method", r.Method,
						"status", status,
						"reason", reason,
						"remote", r.RemoteAddr,
					)
					return
				}
			}

			start := time.Now()
			aw := &auditWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(aw, r)
			event := cfg.AuditEvent
			if event == "" {
				event = r.URL.Path
			}
			logger.Info("api_request",
				"event", event,
				"method", r.Method,
				"path", r.URL.Path,
				"status", aw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// auditWriter 是一个包装了 http.ResponseWriter 的结构体，用于捕获响应状态码。
type auditWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader 捕获响应状态码并调用底层的 WriteHeader 方法。
func (w *auditWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush 透传给底层 writer，流式响应依赖它。
func (w *auditWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Status 返回已写出的状态码。
func (w *auditWriter) Status() int {
	return w.status
}
