package handlers

import (
	"net/http"
	"strconv"

	"stockaudit/internal/analysis"
	"stockaudit/internal/api/middleware"
	"stockaudit/internal/logger"
	"stockaudit/internal/report"
	"stockaudit/internal/storage"
)

// AuditHandler serves the audit trail panels
type AuditHandler struct {
	location storage.Location
}

// NewAuditHandler creates a new AuditHandler reading from loc
func NewAuditHandler(loc storage.Location) *AuditHandler {
	return &AuditHandler{location: loc}
}

// storeUnavailable answers 503 so only the audit panels go blank
func (h *AuditHandler) storeUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("Failed to read audit log", "error", err, "request_id", middleware.GetRequestID(r))
	writeErrorWithRequestID(w, r, http.StatusServiceUnavailable, "audit store unavailable")
}

// GetAuditLogs handles the GET /api/v1/audit request
func (h *AuditHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorWithRequestID(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// No limit unless asked: the audit trail panel shows every entry
	limit := 0
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	entries, err := storage.FetchPage(r.Context(), h.location, limit, offset)
	if err != nil {
		h.storeUnavailable(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// GetLatestShapes handles the GET /api/v1/audit/latest request
func (h *AuditHandler) GetLatestShapes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorWithRequestID(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := storage.FetchAll(r.Context(), h.location)
	if err != nil {
		h.storeUnavailable(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis.LatestShapes(entries))
}

// ExportAuditLog handles the GET /api/v1/audit/export request with a CSV attachment
func (h *AuditHandler) ExportAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorWithRequestID(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries, err := storage.FetchAll(r.Context(), h.location)
	if err != nil {
		h.storeUnavailable(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="audit_log.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := report.AuditCSV(w, entries); err != nil {
		logger.Error("Failed to write audit CSV", "error", err, "request_id", middleware.GetRequestID(r))
	}
}
