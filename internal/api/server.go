// Package api exposes the HTTP surface: satellite catalog, live positions,
// pass predictions, and ground-station management.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/satwatch/satwatch/internal/auth"
	"github.com/satwatch/satwatch/internal/health"
	"github.com/satwatch/satwatch/internal/httputil"
	"github.com/satwatch/satwatch/internal/metrics"
	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/storage"
	"github.com/satwatch/satwatch/internal/tle"
)

// PredictionDefaults are applied when a pass request omits parameters.
type PredictionDefaults struct {
	DurationMinutes int
	StepSeconds     int
	MinElevationDeg float64
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      *tle.Store
	db         *storage.Store // nil when no database is configured
	pool       *propagation.WorkerPool
	defaults   PredictionDefaults
	trustProxy bool
	now        func() time.Time
}

// NewServer creates a configured HTTP server. db may be nil; endpoints that
// need it respond 503.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, db *storage.Store, pool *propagation.WorkerPool, defaults PredictionDefaults, trustProxy bool) *Server {
	s := &Server{
		logger:     logger,
		store:      store,
		db:         db,
		pool:       pool,
		defaults:   defaults,
		trustProxy: trustProxy,
		now:        time.Now,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool {
		return store.Get() != nil
	}))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/satellites", s.listSatellites)
	mux.HandleFunc("GET /api/v1/satellites/positions", s.positions)
	mux.HandleFunc("GET /api/v1/snapshots", s.latestSnapshots)
	mux.HandleFunc("GET /api/v1/passes", s.predictPasses)
	mux.HandleFunc("GET /api/v1/satellites/{noradID}/passes", s.predictPasses)

	mux.HandleFunc("POST /api/v1/stations", s.createStation)
	mux.HandleFunc("GET /api/v1/stations", s.listStations)
	mux.HandleFunc("GET /api/v1/stations/{id}", s.getStation)
	mux.HandleFunc("PUT /api/v1/stations/{id}", s.updateStation)
	mux.HandleFunc("DELETE /api/v1/stations/{id}", s.deleteStation)

	// Middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = s.loggingMiddleware()(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Pass predictions over long scan intervals dominate response time.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			s.logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, s.trustProxy),
			)
		})
	}
}
