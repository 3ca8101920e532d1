package middleware

import (
	"net/http"
	"strconv"

	"stockaudit/internal/metrics"
)

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Metrics counts requests by route and status class. route maps a request to
// a bounded label value so arbitrary paths do not explode cardinality.
func Metrics(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			metrics.HTTPRequests.WithLabelValues(route(r), strconv.Itoa(rec.status/100)+"xx").Inc()
		})
	}
}
