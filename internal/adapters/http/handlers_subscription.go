package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketloop/escrow-settlement-service/internal/application"
	"github.com/marketloop/escrow-settlement-service/internal/contracts"
)

func (h *Handler) startPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req contracts.StartPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "start_payment", err)
		return
	}

	out, err := h.service.StartPayment(r.Context(), actor, application.StartPaymentInput{
		PlanName: req.Plan,
		Provider: req.Provider,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "start_payment", err)
		return
	}
	statusCode := http.StatusCreated
	if out.Existing {
		statusCode = http.StatusOK
	}
	writeSuccess(w, statusCode, map[string]any{
		"payment":      out.Payment,
		"plan":         out.Plan,
		"instructions": out.Instructions,
		"existing":     out.Existing,
	})
}

func (h *Handler) submitPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req contracts.SubmitPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_payment", err)
		return
	}

	payment, err := h.service.SubmitPayment(r.Context(), actor, application.SubmitPaymentInput{
		PaymentID: chi.URLParam(r, "payment_id"),
		Reference: req.Reference,
		ProofURL:  req.ProofURL,
		Note:      req.Note,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "submit_payment", err)
		return
	}
	writeSuccess(w, http.StatusOK, payment)
}

func (h *Handler) getSubscriptionPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	payment, err := h.service.GetSubscriptionPayment(r.Context(), actor, chi.URLParam(r, "payment_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_subscription_payment", err)
		return
	}
	writeSuccess(w, http.StatusOK, payment)
}
