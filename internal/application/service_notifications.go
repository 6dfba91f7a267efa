package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

// notify writes one in-app notification inside the caller's transaction. The
// notification capability is optional: when the deployment runs without it
// the repository is nil and the call is a no-op. A failed write is logged and
// swallowed so it never rolls back the workflow transition it decorates.
func (s *Service) notify(ctx context.Context, tx ports.TxRepositories, userID, typ, title, body, url string, meta map[string]string) {
	repo := tx.Notifications()
	if repo == nil {
		return
	}
	n := domain.Notification{
		NotificationID: s.idFn(),
		UserID:         userID,
		Type:           typ,
		Title:          title,
		Body:           body,
		URL:            url,
		Meta:           meta,
		CreatedAt:      s.nowFn(),
	}
	if err := repo.Create(ctx, &n); err != nil {
		slog.Default().WarnContext(ctx, "notification write failed",
			"service", s.cfg.ServiceName, "user_id", userID, "type", typ, "error", err)
	}
}

func (s *Service) notifyFunded(ctx context.Context, tx ports.TxRepositories, escrow domain.EscrowTransaction) {
	meta := map[string]string{"escrow_id": escrow.EscrowID, "listing_id": escrow.ListingID}
	url := "/escrows/" + escrow.EscrowID
	s.notify(ctx, tx, escrow.BuyerID, domain.NotificationTypeEscrowFunded,
		"Escrow funded",
		fmt.Sprintf("Your payment of %s was verified. The escrow process has started.", domain.FormatCents(escrow.TotalChargeCents)),
		url, meta)
	s.notify(ctx, tx, escrow.SellerID, domain.NotificationTypeEscrowSold,
		"Your listing sold",
		fmt.Sprintf("Escrow %s is funded. Hand the account over to the escrow agent.", escrow.EscrowID),
		url, meta)
	s.notify(ctx, tx, escrow.EscrowAgentID, domain.NotificationTypeEscrowAssigned,
		"Escrow assigned to you",
		fmt.Sprintf("Escrow %s is funded and waiting for custody transfer.", escrow.EscrowID),
		url, meta)
}

func (s *Service) notifyReleased(ctx context.Context, tx ports.TxRepositories, escrow domain.EscrowTransaction) {
	meta := map[string]string{"escrow_id": escrow.EscrowID, "listing_id": escrow.ListingID}
	url := "/escrows/" + escrow.EscrowID
	s.notify(ctx, tx, escrow.SellerID, domain.NotificationTypeEscrowReleased,
		"Funds released",
		fmt.Sprintf("The buyer confirmed receipt on escrow %s. Your payout is on the way.", escrow.EscrowID),
		url, meta)
	s.notify(ctx, tx, escrow.EscrowAgentID, domain.NotificationTypeEscrowReleased,
		"Escrow closed",
		fmt.Sprintf("Escrow %s has been released by the buyer.", escrow.EscrowID),
		url, meta)
}

// ListNotifications returns the caller's notifications, or an empty list when
// the deployment runs without the notification capability.
func (s *Service) ListNotifications(ctx context.Context, actor Actor, limit, offset int) ([]domain.Notification, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	repo := s.repos.Notifications()
	if repo == nil {
		return []domain.Notification{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repo.ListByUser(ctx, actor.SubjectID, limit, offset)
}
