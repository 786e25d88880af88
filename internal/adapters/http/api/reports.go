package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/internal/domain/types"
	"github.com/okian/harvestpay/internal/export"
	"github.com/okian/harvestpay/pkg/logger"
)

// IdempotencyHeader carries the caller's idempotency key for POST /reports.
const IdempotencyHeader = "Idempotency-Key"

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// submitRequest is a snapshot with an optional body-level idempotency key.
type submitRequest struct {
	RequestID string `json:"requestId"`
	model.Snapshot
}

type submitResponse struct {
	ID        string          `json:"id"`
	Status    types.JobStatus `json:"status"`
	Duplicate bool            `json:"duplicate"`
}

// ReportsHandler serves asynchronous report jobs.
type ReportsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	log          logger.Logger
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(deps Dependencies, maxBodyBytes int64, log logger.Logger) *ReportsHandler {
	return &ReportsHandler{deps: deps, maxBodyBytes: maxBodyBytes, log: log}
}

// HandleSubmit handles POST /reports. The Idempotency-Key header wins over
// the requestId body field.
func (h *ReportsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_report"
	var req submitRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" {
		key = strings.TrimSpace(req.RequestID)
	}

	id, duplicate, err := h.deps.Submit(r.Context(), key, req.Snapshot)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	status := types.StatusPending
	if duplicate {
		if job, err := h.deps.Report(r.Context(), id); err == nil {
			status = job.Status
		}
	}
	w.Header().Set("Location", "/reports/"+id)
	writeJSON(w, http.StatusAccepted, submitResponse{ID: id, Status: status, Duplicate: duplicate})
}

// HandleGet handles GET /reports/{id}.
func (h *ReportsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	job, err := h.deps.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleList handles GET /reports?limit=N, newest first.
func (h *ReportsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reports"
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			fail(r.Context(), w, h.log, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be between 1 and %d", maxListLimit)))
			return
		}
		limit = n
	}

	jobs, err := h.deps.Jobs(r.Context(), limit)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// HandleExport handles GET /reports/{id}/export?format=csv|xlsx.
func (h *ReportsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_report"
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	id := r.PathValue("id")
	body, err := h.deps.Export(r.Context(), id, format)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "payroll_"+id+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
