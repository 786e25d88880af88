// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/harvestpay/internal/adapters/repository"
	service "github.com/okian/harvestpay/internal/app"
	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/payroll"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/internal/export"
	"github.com/okian/harvestpay/pkg/logger"
	"github.com/okian/harvestpay/pkg/metrics"
)

const defaultMaxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Generate runs the payroll engine synchronously.
	Generate(ctx context.Context, req model.Snapshot) (payroll.Result, error)

	// Submit queues a report job. Repeated idempotency keys return the
	// original job id with duplicate=true.
	Submit(ctx context.Context, idempotencyKey string, req model.Snapshot) (id string, duplicate bool, err error)

	// Read operations expose stored jobs.
	Report(ctx context.Context, id string) (types.Job, error)
	Jobs(ctx context.Context, limit int) ([]types.Job, error)
	Export(ctx context.Context, id string, format export.Format) ([]byte, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	payrollHandler *PayrollHandler
	reportsHandler *ReportsHandler

	metrics *metrics.Manager
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxBodyBytes int64
	metrics      *metrics.Manager
	gatherer     prometheus.Gatherer
	logger       logger.Logger
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// WithMetrics sets the manager HTTP metrics are recorded on.
func WithMetrics(m *metrics.Manager) ServerOption {
	return func(c *serverConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithGatherer sets the registry /healthz exposes.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(c *serverConfig) {
		if g != nil {
			c.gatherer = g
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) ServerOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	cfg := serverConfig{
		maxBodyBytes: defaultMaxBodyBytes,
		metrics:      metrics.Default(),
		gatherer:     metrics.GetRegistry(),
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:  NewHealthHandler(cfg.gatherer),
		statsHandler:   NewStatsHandler(statsProvider),
		payrollHandler: NewPayrollHandler(deps, cfg.maxBodyBytes, cfg.logger),
		reportsHandler: NewReportsHandler(deps, cfg.maxBodyBytes, cfg.logger),
		metrics:        cfg.metrics,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.metrics, s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.metrics, s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /payroll/report", MetricsMiddleware(s.metrics, s.payrollHandler.HandleGenerate, "payroll_report"))
	mux.HandleFunc("POST /reports", MetricsMiddleware(s.metrics, s.reportsHandler.HandleSubmit, "reports_submit"))
	mux.HandleFunc("GET /reports", MetricsMiddleware(s.metrics, s.reportsHandler.HandleList, "reports_list"))
	mux.HandleFunc("GET /reports/{id}", MetricsMiddleware(s.metrics, s.reportsHandler.HandleGet, "reports_get"))
	mux.HandleFunc("GET /reports/{id}/export", MetricsMiddleware(s.metrics, s.reportsHandler.HandleExport, "reports_export"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// classify maps an upstream error to a status code and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, payroll.ErrInvalidRequest),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrReportNotReady):
		return http.StatusConflict, "not_ready"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBusy):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

// fail writes err with its classified status. Server errors are logged.
func fail(ctx context.Context, w http.ResponseWriter, log logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err), logger.Int("status", status))
	}
	writeError(w, status, code, err)
}
