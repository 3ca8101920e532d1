package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockaudit/internal/api/handlers"
	"stockaudit/internal/api/middleware"
	"stockaudit/internal/config"
	"stockaudit/internal/dataset"
	"stockaudit/internal/logger"
	"stockaudit/internal/storage"
)

// readinessTimeout bounds one audit store probe
const readinessTimeout = 2 * time.Second

// routes lists every registered path; anything else is labelled "other" in metrics
var routes = []string{
	"/",
	"/health",
	"/health/live",
	"/health/ready",
	"/metrics",
	"/api/v1/tickers",
	"/api/v1/analysis",
	"/api/v1/audit",
	"/api/v1/audit/latest",
	"/api/v1/audit/export",
}

// Router represents the dashboard router
type Router struct {
	mux            *http.ServeMux
	handler        http.Handler
	allowedOrigins []string
}

// NewRouter creates a new Router. merged may be nil when the merged dataset
// is not available yet; the audit panels keep working.
func NewRouter(cfg config.Config, loc storage.Location, merged *dataset.Frame) *Router {
	mux := http.NewServeMux()

	auditHandler := handlers.NewAuditHandler(loc)
	dashboardHandler := handlers.NewDashboardHandler(merged)
	authMiddleware := middleware.NewAuthMiddleware(cfg.API)

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	health.AddReadinessCheck("audit-store", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
		defer cancel()
		return storage.Ping(ctx, loc)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeIndex(w)
	})

	// /health keeps the single-URL probe; /health/live and /health/ready are the split probes
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ready := r.Clone(r.Context())
		ready.URL.Path = "/ready"
		health.ServeHTTP(w, ready)
	})
	mux.Handle("/health/", http.StripPrefix("/health", health))

	mux.Handle("/metrics", promhttp.Handler())

	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Middleware(h)
	}
	mux.Handle("/api/v1/tickers", protect(dashboardHandler.GetTickers))
	mux.Handle("/api/v1/analysis", protect(dashboardHandler.GetAnalysis))
	mux.Handle("/api/v1/audit", protect(auditHandler.GetAuditLogs))
	mux.Handle("/api/v1/audit/latest", protect(auditHandler.GetLatestShapes))
	mux.Handle("/api/v1/audit/export", protect(auditHandler.ExportAuditLog))

	r := &Router{
		mux:            mux,
		allowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Chain middleware: RequestID -> Metrics -> BodySizeLimit -> CORS -> Mux
	r.handler = chainMiddleware(
		mux,
		middleware.RequestIDMiddleware,
		middleware.Metrics(routeLabel),
		middleware.LimitBodySize(cfg.Server.MaxBodySize),
		r.corsMiddleware,
	)
	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

// chainMiddleware chains multiple middleware functions together
func chainMiddleware(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func routeLabel(r *http.Request) string {
	for _, route := range routes {
		if r.URL.Path == route {
			return route
		}
	}
	return "other"
}

// corsMiddleware handles CORS headers and preflight requests
func (r *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		origin := req.Header.Get("Origin")

		if len(r.allowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			if r.isOriginAllowed(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			} else {
				// Same-origin requests carry no Origin header and are unaffected
				logger.Warn("Origin not allowed", "origin", origin, "request_id", middleware.GetRequestID(req))
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// isOriginAllowed checks if the given origin is in the allowed list
func (r *Router) isOriginAllowed(origin string) bool {
	if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
		return false
	}
	for _, allowed := range r.allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}
