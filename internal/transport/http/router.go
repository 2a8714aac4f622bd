package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminHandler "solidarlink/internal/admin/handler"
	authHandler "solidarlink/internal/auth/handler"
	casesHandler "solidarlink/internal/cases/handler"
	"solidarlink/internal/notifications"
	"solidarlink/internal/reports"
	"solidarlink/internal/platform/middleware"
	"solidarlink/pkg/platform/httputil"
)

// Deps carries everything the router needs. The stream middleware differs
// from the API one: it allows the ?token= query fallback and applies no
// request timeout, because the stream holds its connection open.
type Deps struct {
	Logger       *slog.Logger
	Auth         *authHandler.Handler
	Cases        *casesHandler.Handler
	Reports      *reports.Handler
	Admin        *adminHandler.Handler
	Stream       *notifications.Handler
	HealthChecks map[string]func() error
}

// New assembles the full route table.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	// API routes get a request deadline; the stream route must not.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		deps.Auth.Register(r)
		deps.Cases.Register(r)
		deps.Reports.Register(r)
		deps.Admin.Register(r)
	})

	deps.Stream.Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthHandler(deps.HealthChecks))

	return r
}

func healthHandler(checks map[string]func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks)+1)
		result["status"] = "ok"
		for name, check := range checks {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				result["status"] = "degraded"
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
