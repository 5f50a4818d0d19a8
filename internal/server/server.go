package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BlackMission/graphprofile/internal/handler"
	"github.com/BlackMission/graphprofile/internal/logging"
	"github.com/BlackMission/graphprofile/internal/metrics"
)

const (
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLen = 64
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port int
}

// Deps holds the service dependencies.
type Deps struct {
	Handlers handler.Deps
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *zap.Logger
}

// New creates a new Server with all routes wired.
func New(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Handlers.Logger == nil {
		deps.Handlers.Logger = logger
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health(deps.Handlers.Sessions))
	mux.HandleFunc("GET /{$}", handler.Home(deps.Handlers))
	mux.HandleFunc("GET /login", handler.Login(deps.Handlers))
	mux.HandleFunc("POST /logout", handler.Logout(deps.Handlers))
	mux.HandleFunc("GET /photo/{ref}", handler.Photo(deps.Handlers))
	mux.HandleFunc("GET /api/me", handler.APIMe(deps.Handlers))
	mux.Handle("GET /static/", handler.Static())
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	logged := loggingMiddleware(logger, deps.Metrics, mux)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return &Server{
		handler: logged,
		logger:  logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      logged,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("graphprofile listening", zap.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func loggingMiddleware(logger *zap.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		reqLogger := logging.WithRequestID(logger, id)
		r = r.WithContext(logging.NewContext(r.Context(), reqLogger))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// The mux records the matched pattern on the request; unmatched paths
		// share one label.
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		latency := time.Since(start)
		reqLogger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("latency", latency),
		)
		if m != nil {
			m.ObserveRequest(path, r.Method, strconv.Itoa(sw.status), latency.Seconds())
		}
	})
}

// validRequestID accepts caller-supplied IDs that are short and made of
// token characters only; anything else is replaced.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
