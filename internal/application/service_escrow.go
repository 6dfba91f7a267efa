package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

func newID() string {
	return uuid.NewString()
}

func verifyLockKey(escrowID string) string {
	return "escrow:verify:" + escrowID
}

func actionLockKey(escrowID string) string {
	return "escrow:action:" + escrowID
}

// CreateEscrow opens a custody transaction for a listing. The fee breakdown
// and total charge are computed once here and frozen on the row; the returned
// instructions tell the buyer how to fund it.
func (s *Service) CreateEscrow(ctx context.Context, actor Actor, input CreateEscrowInput) (CreateEscrowOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return CreateEscrowOutput{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(input.ListingID) == "" {
		return CreateEscrowOutput{}, fmt.Errorf("%w: listing_id is required", domain.ErrInvalidInput)
	}
	mode, err := domain.ParseEscrowMode(input.Mode)
	if err != nil {
		return CreateEscrowOutput{}, err
	}
	provider, err := domain.ParseEscrowProvider(input.Provider)
	if err != nil {
		return CreateEscrowOutput{}, err
	}

	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return CreateEscrowOutput{}, err
	}
	agentID, err := cfg.RequireEscrowAgent()
	if err != nil {
		return CreateEscrowOutput{}, err
	}
	policy := cfg.FeePolicySnapshot()
	if err := domain.ValidateFeePolicy(policy); err != nil {
		return CreateEscrowOutput{}, fmt.Errorf("%w: fee configuration rejected", domain.ErrConfigMissing)
	}

	listing, err := s.repos.Listings().GetByID(ctx, input.ListingID)
	if err != nil {
		return CreateEscrowOutput{}, err
	}
	if listing.Status != domain.ListingStatusActive {
		return CreateEscrowOutput{}, fmt.Errorf("%w: listing %s is not active", domain.ErrConflict, listing.ListingID)
	}
	if listing.SellerID == actor.SubjectID {
		return CreateEscrowOutput{}, fmt.Errorf("%w: cannot open escrow on your own listing", domain.ErrInvalidInput)
	}

	buyer, err := s.users.GetTrader(ctx, actor.SubjectID)
	if err != nil {
		return CreateEscrowOutput{}, fmt.Errorf("buyer lookup: %w", err)
	}
	seller, err := s.users.GetTrader(ctx, listing.SellerID)
	if err != nil {
		return CreateEscrowOutput{}, fmt.Errorf("seller lookup: %w", err)
	}

	breakdown := domain.ComputeServiceFee(policy, domain.FeeInput{
		PriceCents:           listing.PriceCents,
		Platform:             listing.Platform,
		BuyerTier:            buyer.Tier,
		SellerTier:           seller.Tier,
		BuyerCompletedDeals:  buyer.CompletedDeals,
		SellerCompletedDeals: seller.CompletedDeals,
	})
	totalCharge := domain.TotalCharge(mode, listing.PriceCents, breakdown.FeeCents)

	now := s.nowFn()
	escrow := domain.EscrowTransaction{
		EscrowID:         s.idFn(),
		ListingID:        listing.ListingID,
		BuyerID:          actor.SubjectID,
		SellerID:         listing.SellerID,
		EscrowAgentID:    agentID,
		Mode:             mode,
		Provider:         provider,
		Status:           domain.EscrowStatusInitiated,
		PriceCents:       listing.PriceCents,
		FeeBps:           breakdown.FeeBps,
		FeeCents:         breakdown.FeeCents,
		MinFeeCents:      breakdown.MinFeeCents,
		Discounts:        breakdown.Discounts,
		TotalChargeCents: totalCharge,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.Escrows().Create(ctx, &escrow); err != nil {
		return CreateEscrowOutput{}, err
	}
	if err := s.enqueueEscrowEvent(ctx, s.repos.Outbox(), eventEscrowCreated, escrow); err != nil {
		return CreateEscrowOutput{}, err
	}

	instructions := domain.ResolveInstructions(
		cfg.Settlement,
		domain.PaymentMethodForProvider(provider),
		escrow.EscrowID,
		totalCharge,
	)
	return CreateEscrowOutput{Escrow: escrow, Breakdown: breakdown, Instructions: instructions}, nil
}

// GetEscrow returns one escrow. Only the parties, the agent, and admins may
// see it.
func (s *Service) GetEscrow(ctx context.Context, actor Actor, escrowID string) (domain.EscrowTransaction, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.EscrowTransaction{}, domain.ErrUnauthorized
	}
	escrow, err := s.repos.Escrows().GetByID(ctx, escrowID)
	if err != nil {
		return domain.EscrowTransaction{}, err
	}
	if !s.canViewEscrow(actor, escrow) {
		return domain.EscrowTransaction{}, domain.ErrForbidden
	}
	return *escrow, nil
}

// ListEscrows returns the caller's escrows, newest first.
func (s *Service) ListEscrows(ctx context.Context, actor Actor, limit, offset int) ([]domain.EscrowTransaction, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repos.Escrows().ListByParticipant(ctx, actor.SubjectID, limit, offset)
}

// ApplyEscrowAction moves an escrow forward along the custody lifecycle on
// behalf of the escrow agent. Backward moves are rejected; applying an action
// whose target equals the current status is also rejected so replays surface
// as validation errors rather than silent rewrites.
func (s *Service) ApplyEscrowAction(ctx context.Context, actor Actor, escrowID, rawAction string) (domain.EscrowTransaction, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.EscrowTransaction{}, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return domain.EscrowTransaction{}, domain.ErrForbidden
	}
	action, err := domain.ParseEscrowAction(rawAction)
	if err != nil {
		return domain.EscrowTransaction{}, err
	}
	// Release has its own preconditions (TRANSFERRED_TO_BUYER only) and
	// notification fan-out; there is exactly one release path.
	if action == domain.EscrowActionRelease {
		return s.ReleaseEscrow(ctx, actor, escrowID)
	}

	var updated domain.EscrowTransaction
	err = s.locks.WithLock(ctx, actionLockKey(escrowID), func(ctx context.Context, tx ports.TxRepositories) error {
		escrow, err := tx.Escrows().GetByID(ctx, escrowID)
		if err != nil {
			return err
		}
		target := targetStatusForAction(action)
		if !escrow.Status.CanAdvanceTo(target) {
			return fmt.Errorf("%w: cannot apply %s while escrow is %s", domain.ErrInvalidInput, action, escrow.Status)
		}

		now := s.nowFn()
		escrow.Status = target
		escrow.UpdatedAt = now
		switch action {
		case domain.EscrowActionMarkFeePaid, domain.EscrowActionMarkFullyPaid:
			if escrow.FundedAt == nil {
				escrow.FundedAt = &now
			}
		case domain.EscrowActionStart7DayWait:
			ready := now.AddDate(0, 0, s.cfg.OwnershipWaitDays)
			escrow.OwnershipReadyAt = &ready
		case domain.EscrowActionMarkTransferredToBuyer:
			autoRelease := now.AddDate(0, 0, s.autoReleaseDays(ctx))
			escrow.AutoReleaseAt = &autoRelease
		}
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}

		if action == domain.EscrowActionMarkTransferredToBuyer {
			s.notify(ctx, tx, escrow.BuyerID, domain.NotificationTypeEscrowTransferred,
				"Account transferred to you",
				fmt.Sprintf("The account for escrow %s has been transferred to you. Confirm receipt to release funds.", escrow.EscrowID),
				"/escrows/"+escrow.EscrowID, map[string]string{"escrow_id": escrow.EscrowID})
		}
		if err := s.enqueueEscrowEvent(ctx, tx.Outbox(), eventEscrowActionApplied, *escrow); err != nil {
			return err
		}
		updated = *escrow
		return nil
	})
	if err != nil {
		return domain.EscrowTransaction{}, err
	}
	return updated, nil
}

// VerifyPayment confirms that escrow funds arrived. The first verification
// moves the escrow from FEE_PAID to FULLY_PAID, marks the listing sold,
// writes the purchase record, and notifies all three parties. Replaying the
// call against an already funded escrow returns the existing outcome without
// new side effects.
func (s *Service) VerifyPayment(ctx context.Context, actor Actor, escrowID string) (VerifyPaymentOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return VerifyPaymentOutput{}, domain.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return VerifyPaymentOutput{}, domain.ErrForbidden
	}

	var out VerifyPaymentOutput
	err := s.locks.WithLock(ctx, verifyLockKey(escrowID), func(ctx context.Context, tx ports.TxRepositories) error {
		escrow, err := tx.Escrows().GetByID(ctx, escrowID)
		if err != nil {
			return err
		}

		switch {
		case escrow.Status == domain.EscrowStatusFullyPaid:
			purchase, err := s.ensurePurchase(ctx, tx, *escrow)
			if err != nil {
				return err
			}
			out = VerifyPaymentOutput{Escrow: *escrow, Purchase: purchase, Replayed: true}
			return nil
		case escrow.Status == domain.EscrowStatusFeePaid:
			now := s.nowFn()
			escrow.Status = domain.EscrowStatusFullyPaid
			escrow.FundedAt = &now
			escrow.UpdatedAt = now
			if err := tx.Escrows().Update(ctx, escrow); err != nil {
				return err
			}
			if err := tx.Listings().MarkSold(ctx, escrow.ListingID); err != nil {
				return err
			}
			purchase, err := s.ensurePurchase(ctx, tx, *escrow)
			if err != nil {
				return err
			}
			s.notifyFunded(ctx, tx, *escrow)
			if err := s.enqueueEscrowEvent(ctx, tx.Outbox(), eventEscrowPaymentVerified, *escrow); err != nil {
				return err
			}
			out = VerifyPaymentOutput{Escrow: *escrow, Purchase: purchase}
			return nil
		default:
			return fmt.Errorf("%w: cannot verify payment while escrow is %s", domain.ErrInvalidInput, escrow.Status)
		}
	})
	if err != nil {
		return VerifyPaymentOutput{}, err
	}
	return out, nil
}

// ReleaseEscrow is the buyer confirming receipt, which ends the escrow.
func (s *Service) ReleaseEscrow(ctx context.Context, actor Actor, escrowID string) (domain.EscrowTransaction, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.EscrowTransaction{}, domain.ErrUnauthorized
	}

	var updated domain.EscrowTransaction
	err := s.locks.WithLock(ctx, actionLockKey(escrowID), func(ctx context.Context, tx ports.TxRepositories) error {
		escrow, err := tx.Escrows().GetByID(ctx, escrowID)
		if err != nil {
			return err
		}
		if escrow.BuyerID != actor.SubjectID && !actor.IsAdmin() {
			return domain.ErrForbidden
		}
		if escrow.Status != domain.EscrowStatusTransferredToBuyer {
			return fmt.Errorf("%w: cannot release while escrow is %s", domain.ErrInvalidInput, escrow.Status)
		}

		now := s.nowFn()
		escrow.Status = domain.EscrowStatusReleased
		escrow.ReleasedAt = &now
		escrow.UpdatedAt = now
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}
		s.notifyReleased(ctx, tx, *escrow)
		if err := s.enqueueEscrowEvent(ctx, tx.Outbox(), eventEscrowReleased, *escrow); err != nil {
			return err
		}
		updated = *escrow
		return nil
	})
	if err != nil {
		return domain.EscrowTransaction{}, err
	}
	return updated, nil
}

// ensurePurchase returns the purchase for the escrow's listing, creating it
// when absent. Creation is keyed on the listing so at most one record exists.
func (s *Service) ensurePurchase(ctx context.Context, tx ports.TxRepositories, escrow domain.EscrowTransaction) (domain.Purchase, error) {
	existing, err := tx.Purchases().GetByListingID(ctx, escrow.ListingID)
	if err == nil {
		return *existing, nil
	}
	if !isNotFound(err) {
		return domain.Purchase{}, err
	}
	purchase := domain.Purchase{
		PurchaseID:  s.idFn(),
		ListingID:   escrow.ListingID,
		BuyerID:     escrow.BuyerID,
		SellerID:    escrow.SellerID,
		AmountCents: escrow.PriceCents,
		SessionRef:  "manual-escrow-" + escrow.EscrowID,
		CreatedAt:   s.nowFn(),
	}
	if err := tx.Purchases().Create(ctx, &purchase); err != nil {
		return domain.Purchase{}, err
	}
	return purchase, nil
}

func (s *Service) canViewEscrow(actor Actor, escrow *domain.EscrowTransaction) bool {
	if actor.IsAdmin() {
		return true
	}
	switch actor.SubjectID {
	case escrow.BuyerID, escrow.SellerID, escrow.EscrowAgentID:
		return true
	}
	return false
}

// autoReleaseDays prefers the operator-managed value from the config row and
// falls back to the static service default.
func (s *Service) autoReleaseDays(ctx context.Context) int {
	cfg, err := s.config.Snapshot(ctx)
	if err == nil && cfg.AutoReleaseDays > 0 {
		return cfg.AutoReleaseDays
	}
	return s.cfg.AutoReleaseDays
}

func targetStatusForAction(action domain.EscrowAction) domain.EscrowStatus {
	switch action {
	case domain.EscrowActionMarkFeePaid:
		return domain.EscrowStatusFeePaid
	case domain.EscrowActionMarkFullyPaid:
		return domain.EscrowStatusFullyPaid
	case domain.EscrowActionStart7DayWait:
		return domain.EscrowStatusWaiting7Days
	case domain.EscrowActionMarkReadyForFinalTransfer:
		return domain.EscrowStatusReadyForFinalTransfer
	case domain.EscrowActionMarkTransferredToBuyer:
		return domain.EscrowStatusTransferredToBuyer
	}
	return ""
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
