package webapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/grimbang/nailart/billing"
	"github.com/grimbang/nailart/pkg/httpserver"
	"github.com/grimbang/nailart/pkg/jwt"
	"github.com/grimbang/nailart/studio"
)

// Deps bundles everything the router serves.
type Deps struct {
	Billing      *billing.Service
	Studio       *studio.Service
	Tokens       *jwt.Service
	Log          *slog.Logger
	HealthChecks []func(context.Context) error
}

// NewRouter builds the HTTP surface: the billing and studio APIs behind
// bearer auth, the unauthenticated webhook, and the health endpoint.
func NewRouter(deps Deps) http.Handler {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	bh := &billingHandlers{svc: deps.Billing, log: log}
	sh := &studioHandlers{svc: deps.Studio, log: log}

	r.Get("/health", httpserver.HealthCheckHandler(log, deps.HealthChecks...))

	// The webhook authenticates by signature, not by session.
	r.Post("/billing/webhook", bh.webhook)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth(deps.Tokens))

		r.Get("/billing/account", bh.account)
		r.Post("/billing/checkout", bh.checkout)
		r.Post("/billing/portal", bh.portal)

		r.Post("/studio/generate", sh.generate)
		r.Get("/studio/thumbnails", sh.list)
		r.Delete("/studio/thumbnails/{id}", sh.delete)
	})

	return r
}
