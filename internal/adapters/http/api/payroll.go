package api

import (
	"net/http"

	"github.com/okian/harvestpay/internal/domain/model"
	"github.com/okian/harvestpay/pkg/logger"
)

// PayrollHandler serves synchronous report generation.
type PayrollHandler struct {
	deps         Dependencies
	maxBodyBytes int64
	log          logger.Logger
}

// NewPayrollHandler creates a payroll handler.
func NewPayrollHandler(deps Dependencies, maxBodyBytes int64, log logger.Logger) *PayrollHandler {
	return &PayrollHandler{deps: deps, maxBodyBytes: maxBodyBytes, log: log}
}

// HandleGenerate handles POST /payroll/report. The body is a record
// snapshot; the response is the processed payroll report.
func (h *PayrollHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "api.generate_report"
	var req model.Snapshot
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}

	res, err := h.deps.Generate(r.Context(), req)
	if err != nil {
		fail(r.Context(), w, h.log, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res.Report)
}
