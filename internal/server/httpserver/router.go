package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Ztiany/av-device-server/internal/telemetry/logger"
	"github.com/Ztiany/av-device-server/internal/telemetry/metric"
)

// RouterConfig holds configuration for a public listener's handler.
type RouterConfig struct {
	// Listener labels log lines and metrics, e.g. "http" or "https".
	Listener string

	// Files serves every request that passes the middleware.
	Files http.Handler

	// Logger becomes the context logger of every request; nil means
	// logger.Default().
	Logger logger.Logger

	// Metrics is optional.
	Metrics *metric.Registry

	// RateLimit is requests per second per client IP; 0 disables it.
	RateLimit int
}

// NewRouter wraps the file handler in the public middleware chain:
// ContextLogger, RequestID, Recover, AccessLog, Metrics, RateLimit.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	middlewares := []Middleware{
		ContextLogger(log),
		RequestID(),
		Recover(),
		AccessLog(cfg.Listener),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics, cfg.Listener))
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}

	return Chain(cfg.Files, middlewares...)
}

// NewAdminRouter serves GET /metrics and GET /health.
func NewAdminRouter(reg *metric.Registry, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("GET /health", handleHealth)

	return Chain(mux, ContextLogger(log), RequestID(), Recover())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.L(r.Context()).Warn("encode health", "error", err)
	}
}
