package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldline-crm/fieldline-crm/internal/auth"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/accounts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/contacts"
	"github.com/fieldline-crm/fieldline-crm/internal/crm/leads"
	"github.com/fieldline-crm/fieldline-crm/internal/dashboard"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/invoices"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/quotes"
	"github.com/fieldline-crm/fieldline-crm/internal/fieldops/workorders"
	"github.com/fieldline-crm/fieldline-crm/internal/mailer/webhook"
	"github.com/fieldline-crm/fieldline-crm/internal/observability"
	"github.com/fieldline-crm/fieldline-crm/internal/rbac"
	"github.com/fieldline-crm/fieldline-crm/internal/shared"
	"github.com/fieldline-crm/fieldline-crm/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	RBACHandler       *rbac.Handler
	LeadsHandler      *leads.Handler
	ContactsHandler   *contacts.Handler
	AccountsHandler   *accounts.Handler
	QuotesHandler     *quotes.Handler
	WorkOrdersHandler *workorders.Handler
	InvoicesHandler   *invoices.Handler
	DashboardHandler  *dashboard.Handler
	WebhookHandler    *webhook.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Fieldline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range BaseMiddleware(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Provider webhooks authenticate by signature, not by session cookie.
	if params.WebhookHandler != nil {
		r.Route("/webhooks", params.WebhookHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		for _, mw := range SessionMiddleware(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
		}) {
			r.Use(mw)
		}

		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Route("/api", func(r chi.Router) {
			if params.RBACHandler != nil {
				params.RBACHandler.MountRoutes(r)
			}
			if params.LeadsHandler != nil {
				r.Route("/leads", params.LeadsHandler.MountRoutes)
			}
			if params.ContactsHandler != nil {
				r.Route("/contacts", params.ContactsHandler.MountRoutes)
			}
			if params.AccountsHandler != nil {
				r.Route("/accounts", params.AccountsHandler.MountRoutes)
			}
			if params.QuotesHandler != nil {
				r.Route("/quotes", params.QuotesHandler.MountRoutes)
			}
			if params.WorkOrdersHandler != nil {
				r.Route("/workorders", params.WorkOrdersHandler.MountRoutes)
			}
			if params.InvoicesHandler != nil {
				r.Route("/invoices", params.InvoicesHandler.MountRoutes)
			}
			if params.DashboardHandler != nil {
				r.Route("/dashboard", params.DashboardHandler.MountRoutes)
			}
		})

		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
