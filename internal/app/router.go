package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/partsledger/partsledger/internal/alerts"
	"github.com/partsledger/partsledger/internal/auth"
	"github.com/partsledger/partsledger/internal/billing"
	"github.com/partsledger/partsledger/internal/catalog"
	"github.com/partsledger/partsledger/internal/reporting"
	"github.com/partsledger/partsledger/internal/shared"
	"github.com/partsledger/partsledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	AuthHandler    *auth.Handler
	CatalogHandler *catalog.Handler
	BillingHandler *billing.Handler
	ReportHandler  *reporting.Handler
	AlertsHandler  *alerts.Handler
	JobHandler     *jobs.Handler
	RequireAuth    func(http.Handler) http.Handler
}

// NewRouter constructs the chi.Router with partsledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.RequireAuth)
		r.Route("/parts", params.CatalogHandler.MountRoutes)
		r.Route("/billing", params.BillingHandler.MountRoutes)
		r.Route("/reports", params.ReportHandler.MountRoutes)
		r.Route("/alerts", params.AlertsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
