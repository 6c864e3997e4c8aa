package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func NewRouter(logger *slog.Logger, handler *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(logger))
	r.Use(loggingMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Public surface: redirect links and the visitor cookie mirror.
	r.Get("/v1/go/{program_id}", handler.redirect)
	r.Post("/v1/visits", handler.recordVisit)
	r.Get("/v1/visitors/{visitor_id}/attribution", handler.getAttribution)
	r.Post("/v1/clicks", handler.trackClick)
	r.Get("/v1/programs", handler.listPrograms)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(jwtSecret))
		r.Post("/v1/conversions", handler.createConversion)
		r.Get("/v1/conversions/{conversion_id}", handler.getConversion)
		r.Post("/v1/conversions/{conversion_id}/confirm", handler.confirmConversion)
		r.Post("/v1/conversions/{conversion_id}/pay", handler.payConversion)
		r.Post("/v1/conversions/{conversion_id}/cancel", handler.cancelConversion)
		r.Get("/v1/ambassadors/{ambassador_id}/tier", handler.ambassadorTier)
		r.Get("/v1/buyers/{buyer_id}/cashback", handler.cashbackBalance)
		r.Post("/v1/admin/tiers/recompute", handler.recomputeTiers)
	})
	return r
}
