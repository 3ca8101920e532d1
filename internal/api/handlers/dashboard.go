package handlers

import (
	"errors"
	"net/http"

	"stockaudit/internal/analysis"
	"stockaudit/internal/dataset"
)

// DashboardHandler serves the analysis panels computed from the merged dataset
type DashboardHandler struct {
	merged *dataset.Frame
}

// NewDashboardHandler creates a DashboardHandler. A nil frame means the merged
// dataset could not be loaded; the analysis panels then answer 503.
func NewDashboardHandler(merged *dataset.Frame) *DashboardHandler {
	return &DashboardHandler{merged: merged}
}

// GetTickers handles the GET /api/v1/tickers request
func (h *DashboardHandler) GetTickers(w http.ResponseWriter, r *http.Request) {
	if h.merged == nil {
		writeErrorWithRequestID(w, r, http.StatusServiceUnavailable, "merged dataset unavailable")
		return
	}

	tickers, err := analysis.Tickers(h.merged)
	if err != nil {
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// GetAnalysis handles the GET /api/v1/analysis?ticker= request.
// Without a ticker the first one of the dataset is analysed.
func (h *DashboardHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.merged == nil {
		writeErrorWithRequestID(w, r, http.StatusServiceUnavailable, "merged dataset unavailable")
		return
	}

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		tickers, err := analysis.Tickers(h.merged)
		if err != nil || len(tickers) == 0 {
			writeErrorWithRequestID(w, r, http.StatusNotFound, "merged dataset has no tickers")
			return
		}
		ticker = tickers[0]
	}

	summary, err := analysis.Analyze(h.merged, ticker)
	switch {
	case errors.Is(err, analysis.ErrUnknownTicker):
		writeErrorWithRequestID(w, r, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeErrorWithRequestID(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
