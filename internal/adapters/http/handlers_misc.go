package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marketloop/escrow-settlement-service/internal/contracts"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) recordListingView(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	h.service.RecordListingView(r.Context(), actor, chi.URLParam(r, "listing_id"), readIP(r))
	writeMessage(w, http.StatusAccepted, "recorded")
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFromContext(r.Context())
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	notifications, err := h.service.ListNotifications(r.Context(), actor, limit, offset)
	if err != nil {
		writeMappedError(r.Context(), w, "list_notifications", err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"items":      notifications,
		"pagination": contracts.Pagination{Limit: limit, Offset: offset},
	})
}
