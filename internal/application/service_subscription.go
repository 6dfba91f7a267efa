package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

func subscriptionLockKey(userID, planID string) string {
	return "sub:payment:" + userID + ":" + planID
}

// StartPayment opens a manual payment toward a plan, or returns the caller's
// already open payment for the same plan. At most one non-terminal payment
// may exist per user and plan.
func (s *Service) StartPayment(ctx context.Context, actor Actor, input StartPaymentInput) (StartPaymentOutput, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return StartPaymentOutput{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(input.PlanName) == "" {
		return StartPaymentOutput{}, fmt.Errorf("%w: plan is required", domain.ErrInvalidInput)
	}
	method, err := domain.ParsePaymentMethod(input.Provider)
	if err != nil {
		return StartPaymentOutput{}, err
	}

	profile, err := s.users.GetTrader(ctx, actor.SubjectID)
	if err != nil {
		return StartPaymentOutput{}, fmt.Errorf("trader lookup: %w", err)
	}
	if domain.IsUnlimitedRole(profile.Role) || domain.IsUnlimitedRole(actor.Role) {
		return StartPaymentOutput{}, fmt.Errorf("%w: plan limits do not apply to this account", domain.ErrInvalidInput)
	}

	plan, err := s.plans.GetByName(ctx, input.PlanName)
	if err != nil {
		return StartPaymentOutput{}, err
	}
	if strings.EqualFold(profile.PlanName, plan.Name) {
		return StartPaymentOutput{}, fmt.Errorf("%w: already subscribed to plan %s", domain.ErrConflict, plan.Name)
	}

	cfg, err := s.config.Snapshot(ctx)
	if err != nil {
		return StartPaymentOutput{}, err
	}
	if missing := cfg.Settlement.MissingFields(method); len(missing) > 0 {
		return StartPaymentOutput{}, fmt.Errorf("%w: %s is not configured, missing %s",
			domain.ErrInvalidInput, method, strings.Join(missing, ", "))
	}

	// Fast path before taking the lock: a caller retrying startPayment should
	// get their open payment back without contending with anyone.
	if existing, err := s.repos.SubscriptionPayments().FindNonTerminal(ctx, actor.SubjectID, plan.PlanID); err == nil {
		return StartPaymentOutput{
			Payment:      *existing,
			Plan:         *plan,
			Instructions: domain.ResolveInstructions(cfg.Settlement, existing.Provider, existing.PaymentID, existing.TotalChargeCents),
			Existing:     true,
		}, nil
	} else if !isNotFound(err) {
		return StartPaymentOutput{}, err
	}

	var out StartPaymentOutput
	err = s.locks.WithLock(ctx, subscriptionLockKey(actor.SubjectID, plan.PlanID), func(ctx context.Context, tx ports.TxRepositories) error {
		if existing, err := tx.SubscriptionPayments().FindNonTerminal(ctx, actor.SubjectID, plan.PlanID); err == nil {
			out = StartPaymentOutput{Payment: *existing, Plan: *plan, Existing: true}
			return nil
		} else if !isNotFound(err) {
			return err
		}

		now := s.nowFn()
		payment := domain.SubscriptionPayment{
			PaymentID:        s.idFn(),
			UserID:           actor.SubjectID,
			PlanID:           plan.PlanID,
			Provider:         method,
			Status:           domain.SubscriptionPaymentInitiated,
			PriceCents:       plan.PriceCents,
			TotalChargeCents: plan.PriceCents,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.SubscriptionPayments().Create(ctx, &payment); err != nil {
			return err
		}
		if err := s.enqueuePaymentEvent(ctx, tx.Outbox(), eventPaymentInitiated, payment); err != nil {
			return err
		}
		out = StartPaymentOutput{Payment: payment, Plan: *plan}
		return nil
	})
	if err != nil {
		return StartPaymentOutput{}, err
	}
	out.Instructions = domain.ResolveInstructions(cfg.Settlement, out.Payment.Provider, out.Payment.PaymentID, out.Payment.TotalChargeCents)
	return out, nil
}

// SubmitPayment records the payer's proof of transfer and moves the payment
// to SUBMITTED. Submitting an already submitted or verified payment returns
// it unchanged.
func (s *Service) SubmitPayment(ctx context.Context, actor Actor, input SubmitPaymentInput) (domain.SubscriptionPayment, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.SubscriptionPayment{}, domain.ErrUnauthorized
	}
	if err := domain.ValidateSubmitPaymentInput(input.PaymentID, input.Reference); err != nil {
		return domain.SubscriptionPayment{}, err
	}

	// Unlocked read to resolve the lock key; ownership is re-checked inside.
	payment, err := s.repos.SubscriptionPayments().GetByID(ctx, input.PaymentID)
	if err != nil {
		return domain.SubscriptionPayment{}, err
	}
	if payment.UserID != actor.SubjectID && !actor.IsAdmin() {
		return domain.SubscriptionPayment{}, domain.ErrForbidden
	}

	var out domain.SubscriptionPayment
	err = s.locks.WithLock(ctx, subscriptionLockKey(payment.UserID, payment.PlanID), func(ctx context.Context, tx ports.TxRepositories) error {
		current, err := tx.SubscriptionPayments().GetByID(ctx, input.PaymentID)
		if err != nil {
			return err
		}
		if current.UserID != actor.SubjectID && !actor.IsAdmin() {
			return domain.ErrForbidden
		}

		switch current.Status {
		case domain.SubscriptionPaymentSubmitted, domain.SubscriptionPaymentVerified:
			out = *current
			return nil
		case domain.SubscriptionPaymentInitiated:
			now := s.nowFn()
			current.Status = domain.SubscriptionPaymentSubmitted
			current.Reference = strings.TrimSpace(input.Reference)
			current.ProofURL = strings.TrimSpace(input.ProofURL)
			current.Note = strings.TrimSpace(input.Note)
			current.UpdatedAt = now
			if err := tx.SubscriptionPayments().Update(ctx, current); err != nil {
				return err
			}
			s.notify(ctx, tx, current.UserID, domain.NotificationTypePaymentSubmitted,
				"Payment submitted",
				fmt.Sprintf("Your payment %s is awaiting verification.", current.PaymentID),
				"/billing/payments/"+current.PaymentID,
				map[string]string{"payment_id": current.PaymentID})
			if err := s.enqueuePaymentEvent(ctx, tx.Outbox(), eventPaymentSubmitted, *current); err != nil {
				return err
			}
			out = *current
			return nil
		default:
			return fmt.Errorf("%w: payment %s is in unexpected status %s", domain.ErrConflict, current.PaymentID, current.Status)
		}
	})
	if err != nil {
		return domain.SubscriptionPayment{}, err
	}
	return out, nil
}

// GetSubscriptionPayment returns one payment to its owner or an admin.
func (s *Service) GetSubscriptionPayment(ctx context.Context, actor Actor, paymentID string) (domain.SubscriptionPayment, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.SubscriptionPayment{}, domain.ErrUnauthorized
	}
	payment, err := s.repos.SubscriptionPayments().GetByID(ctx, paymentID)
	if err != nil {
		return domain.SubscriptionPayment{}, err
	}
	if payment.UserID != actor.SubjectID && !actor.IsAdmin() {
		return domain.SubscriptionPayment{}, domain.ErrForbidden
	}
	return *payment, nil
}
