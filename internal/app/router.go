package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/clients"
	"github.com/meridianhq/meridian/internal/dashboard"
	"github.com/meridianhq/meridian/internal/documents"
	"github.com/meridianhq/meridian/internal/filings"
	"github.com/meridianhq/meridian/internal/messaging"
	"github.com/meridianhq/meridian/internal/observability"
	"github.com/meridianhq/meridian/internal/requests"
	"github.com/meridianhq/meridian/internal/scoring"
	"github.com/meridianhq/meridian/internal/shared"
	"github.com/meridianhq/meridian/internal/users"
	"github.com/meridianhq/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler      *auth.Handler
	ClientsHandler   *clients.Handler
	DocumentsHandler *documents.Handler
	FilingsHandler   *filings.Handler
	RequestsHandler  *requests.Handler
	MessagingHandler *messaging.Handler
	DashboardHandler *dashboard.Handler
	ScoringHandler   *scoring.Handler
	UsersHandler     *users.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
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

	r.Route("/api", func(r chi.Router) {
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r)
		}
		if params.DocumentsHandler != nil {
			params.DocumentsHandler.MountRoutes(r)
		}
		if params.FilingsHandler != nil {
			params.FilingsHandler.MountRoutes(r)
		}
		if params.RequestsHandler != nil {
			params.RequestsHandler.MountRoutes(r)
		}
		if params.MessagingHandler != nil {
			params.MessagingHandler.MountRoutes(r)
		}
		if params.ScoringHandler != nil {
			params.ScoringHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
