package api

import (
	"encoding/json"
	"io"

	"stockaudit/internal/logger"
)

var index = map[string]interface{}{
	"message": "Stock Sentiment Analysis Dashboard API",
	"version": "1.0.0",
	"endpoints": []string{
		"/health - Readiness check (also /health/live, /health/ready)",
		"/metrics - Prometheus metrics",
		"/api/v1/tickers - Tickers of the merged dataset",
		"/api/v1/analysis?ticker= - Hit rates, average return, scatter and merged rows for a ticker",
		"/api/v1/audit?limit=&offset= - Audit trail, newest first (every entry unless limit is set)",
		"/api/v1/audit/latest - Latest shape per dataset",
		"/api/v1/audit/export - Audit trail as CSV",
	},
}

func writeIndex(w io.Writer) {
	if err := json.NewEncoder(w).Encode(index); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}
