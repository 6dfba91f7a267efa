package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketloop/escrow-settlement-service/internal/application"
	"github.com/marketloop/escrow-settlement-service/internal/contracts"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

func (h *Handler) createEscrow(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req contracts.CreateEscrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_escrow", err)
		return
	}

	out, err := h.service.CreateEscrow(r.Context(), actor, application.CreateEscrowInput{
		ListingID: req.ListingID,
		Mode:      req.Mode,
		Provider:  req.Provider,
	})
	if err != nil {
		writeMappedError(r.Context(), w, "create_escrow", err)
		return
	}
	writeSuccess(w, http.StatusCreated, map[string]any{
		"escrow":       out.Escrow,
		"fee":          out.Breakdown,
		"instructions": out.Instructions,
	})
}

func (h *Handler) getEscrow(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	escrow, err := h.service.GetEscrow(r.Context(), actor, chi.URLParam(r, "escrow_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "get_escrow", err)
		return
	}
	writeSuccess(w, http.StatusOK, escrow)
}

func (h *Handler) listEscrows(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	escrows, err := h.service.ListEscrows(r.Context(), actor, limit, offset)
	if err != nil {
		writeMappedError(r.Context(), w, "list_escrows", err)
		return
	}
	if escrows == nil {
		escrows = []domain.EscrowTransaction{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"items":      escrows,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset},
	})
}

func (h *Handler) applyEscrowAction(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	var req contracts.EscrowActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "apply_escrow_action", err)
		return
	}

	escrow, err := h.service.ApplyEscrowAction(r.Context(), actor, chi.URLParam(r, "escrow_id"), req.Action)
	if err != nil {
		writeMappedError(r.Context(), w, "apply_escrow_action", err)
		return
	}
	writeSuccess(w, http.StatusOK, escrow)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	out, err := h.service.VerifyPayment(r.Context(), actor, chi.URLParam(r, "escrow_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "verify_payment", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"escrow":   out.Escrow,
		"purchase": out.Purchase,
		"replayed": out.Replayed,
	})
}

func (h *Handler) releaseEscrow(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	escrow, err := h.service.ReleaseEscrow(r.Context(), actor, chi.URLParam(r, "escrow_id"))
	if err != nil {
		writeMappedError(r.Context(), w, "release_escrow", err)
		return
	}
	writeSuccess(w, http.StatusOK, escrow)
}
