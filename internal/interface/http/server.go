// Package http exposes the thin HTTP surface over the admin core: health,
// the reporting routes (tenant identity from the authenticated session), and
// the administrative routes (explicit school code). Route wiring stays
// deliberately minimal; authentication itself is an external collaborator.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/schoolhub/school-admin-hub/internal/application/command"
	"github.com/schoolhub/school-admin-hub/internal/application/query"
	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Dependencies contains everything the HTTP handlers need.
type Dependencies struct {
	Reports  *query.Reports
	Scoring  *command.Scoring
	Backfill *command.Backfill
	Settings *command.Settings

	// Invalidator drops a cached tenant handle, for administrative recovery.
	Invalidator interface{ Invalidate(code string) }

	// TrustIdentityHeaders enables the development-only fallback that reads
	// the tenant identity from request headers when no session identity is
	// present. Must stay false outside development: the headers are
	// unauthenticated input.
	TrustIdentityHeaders bool

	Logger *logger.Logger
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds the server and its routes.
func NewServer(cfg Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Component("http"))

	h := &handler{deps: deps, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)

	// Reporting surface: tenant identity comes from the session context.
	mux.HandleFunc("GET /reports/summary", h.withIdentity(h.schoolSummary))
	mux.HandleFunc("GET /reports/classes", h.withIdentity(h.classAnalysis))
	mux.HandleFunc("GET /reports/trends", h.withIdentity(h.paymentTrends))
	mux.HandleFunc("GET /reports/dues", h.withIdentity(h.duesExport))
	mux.HandleFunc("GET /reports/dues.csv", h.withIdentity(h.duesExportCSV))

	// Settings surface: also session-scoped.
	mux.HandleFunc("GET /settings/academic-year", h.withIdentity(h.getAcademicYear))
	mux.HandleFunc("PUT /settings/academic-year", h.withIdentity(h.updateAcademicYear))
	mux.HandleFunc("PUT /settings/classes", h.withIdentity(h.updateClasses))
	mux.HandleFunc("POST /settings/tests/scoring", h.withIdentity(h.updateScoring))

	// Administrative surface: explicit school code.
	mux.HandleFunc("POST /admin/schools/{code}/backfill", h.adminBackfill)
	mux.HandleFunc("POST /admin/schools/{code}/invalidate", h.adminInvalidate)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      withRecovery(withRequestLog(mux, log), log),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withRequestLog logs each request with latency.
func withRequestLog(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("request handled",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Latency(time.Since(start)),
		)
	})
}

// withRecovery converts panics into 500 responses.
func withRecovery(next http.Handler, log *logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic in handler",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec),
					logger.String("stack", string(debug.Stack())),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeDomainError maps the error taxonomy onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsTenantNotFound(err) || shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case shared.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case shared.IsConnection(err):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
