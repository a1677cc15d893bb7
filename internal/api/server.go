package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"Web3-MCP/internal/auth"
	"Web3-MCP/internal/observability/metrics"
	"Web3-MCP/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
)

// Config 描述 HTTP 传输的监听参数。
type Config struct {
	Addr      string
	Endpoint  string
	AuthToken string
	Network   string
	// Ready 报告链连接是否已建立，用于健康检查。
	Ready func() bool
}

// Server 负责通过 HTTP 暴露 MCP 工具。
type Server struct {
	cfg    Config
	mcp    *server.MCPServer
	log    *slog.Logger
	router chi.Router
}

// NewServer 构造 API 服务实例。
func NewServer(cfg Config, mcpServer *server.MCPServer) *Server {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "/mcp"
	}
	s := &Server{cfg: cfg, mcp: mcpServer, log: logger.Named("api")}
	s.router = s.routes()
	return s
}

// Handler 返回完整的路由，便于测试。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	streamable := server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(s.cfg.Endpoint),
		server.WithStateLess(true),
	)
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(auth.MiddlewareConfig{Token: s.cfg.AuthToken, AuditEvent: "mcp"}))
		r.Handle(s.cfg.Endpoint, streamable)
	})
	return r
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	// 确认等待可能持续数分钟，因此不设置写超时。
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           withContext(ctx, s.router),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("mcp server listening",
		slog.String("addr", s.cfg.Addr),
		slog.String("endpoint", s.cfg.Endpoint),
		slog.Bool("auth", s.cfg.AuthToken != ""),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Network   string `json:"network"`
	Connected bool   `json:"connected"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Network: s.cfg.Network}
	if s.cfg.Ready != nil {
		resp.Connected = s.cfg.Ready()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// observe 按路由模板记录请求指标。
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHTTPRequest(route, r.Method, status)
	})
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
