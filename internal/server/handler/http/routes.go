package http

import (
	"net/http"

	"github.com/atinyakov/Vocap/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler serving the Vocap API under /api.
//
// Middleware chain (applied in order):
//  1. Recoverer: turns handler panics into 500s
//  2. AllowContentType("application/json"): rejects non-JSON request bodies
//  3. WithRequestLogging(logger): logs every request
func NewRouter(
	entitlementHandler *EntitlementHandler,
	subscriptionHandler *SubscriptionHandler,
	memoHandler *MemoHandler,
	settingsHandler *SettingsHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/admission/record", entitlementHandler.CanRecord)
		r.Get("/features/{feature}", entitlementHandler.Feature)
		r.Get("/usage", entitlementHandler.Usage)
		r.Post("/usage/increment", entitlementHandler.Increment)

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", subscriptionHandler.Status)
			r.Get("/offerings", subscriptionHandler.Offerings)
			r.Post("/purchase", subscriptionHandler.Purchase)
			r.Post("/restore", subscriptionHandler.Restore)
			r.Post("/downgrade", subscriptionHandler.Downgrade)
		})

		r.Route("/memos", func(r chi.Router) {
			r.Get("/", memoHandler.List)
			r.Post("/", memoHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memoHandler.Get)
				r.Patch("/", memoHandler.Update)
				r.Delete("/", memoHandler.Delete)
				r.Get("/export", memoHandler.Export)
			})
		})

		r.Get("/preferences", settingsHandler.GetPreferences)
		r.Put("/preferences", settingsHandler.PutPreferences)
		r.Post("/data/wipe", settingsHandler.Wipe)
	})

	return r
}
