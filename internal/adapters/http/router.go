package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketloop/escrow-settlement-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for marketplace settlement use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service   *application.Service
	jwtSecret []byte
}

func NewHandler(service *application.Service, jwtSecret []byte) *Handler {
	return &Handler{service: service, jwtSecret: jwtSecret}
}

// NewRouter registers routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/market/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.optionalAuthMiddleware)
			r.Post("/listings/{listing_id}/views", handler.recordListingView)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)

			r.Post("/escrows", handler.createEscrow)
			r.Get("/escrows", handler.listEscrows)
			r.Get("/escrows/{escrow_id}", handler.getEscrow)
			r.Post("/escrows/{escrow_id}/actions", handler.applyEscrowAction)
			r.Post("/escrows/{escrow_id}/verify-payment", handler.verifyPayment)
			r.Post("/escrows/{escrow_id}/release", handler.releaseEscrow)

			r.Post("/subscriptions/payments", handler.startPayment)
			r.Get("/subscriptions/payments/{payment_id}", handler.getSubscriptionPayment)
			r.Post("/subscriptions/payments/{payment_id}/submit", handler.submitPayment)

			r.Get("/notifications", handler.listNotifications)
		})
	})

	return r
}
