package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/marketloop/escrow-settlement-service/internal/application"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

func TestStartPaymentCreatesInitiatedPayment(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})
	actor := application.Actor{SubjectID: "buyer-1", Role: "user"}

	out, err := svc.StartPayment(context.Background(), actor, application.StartPaymentInput{PlanName: "Pro", Provider: "MOMO"})
	if err != nil {
		t.Fatalf("start payment: %v", err)
	}
	if out.Existing {
		t.Fatalf("fresh start must not report an existing payment")
	}
	if out.Payment.Status != domain.SubscriptionPaymentInitiated {
		t.Fatalf("expected INITIATED, got %s", out.Payment.Status)
	}
	if out.Payment.TotalChargeCents != 2500 {
		t.Fatalf("expected plan price as total, got %d", out.Payment.TotalChargeCents)
	}

	var gotReference bool
	for _, f := range out.Instructions.Fields {
		if f.Label == "Reference" && f.Value == out.Payment.PaymentID {
			gotReference = true
		}
	}
	if !gotReference {
		t.Fatalf("instructions missing payment reference: %+v", out.Instructions.Fields)
	}
}

func TestStartPaymentReturnsOpenPayment(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})
	actor := application.Actor{SubjectID: "buyer-1", Role: "user"}
	input := application.StartPaymentInput{PlanName: "Pro", Provider: "MOMO"}

	first, err := svc.StartPayment(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.StartPayment(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.Existing {
		t.Fatalf("expected existing payment on retry")
	}
	if first.Payment.PaymentID != second.Payment.PaymentID {
		t.Fatalf("retry created a second payment")
	}
	if got := store.PaymentCount(); got != 1 {
		t.Fatalf("expected one payment row, got %d", got)
	}
}

func TestStartPaymentConcurrentCallsCreateOne(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})
	actor := application.Actor{SubjectID: "buyer-1", Role: "user"}
	input := application.StartPaymentInput{PlanName: "Pro", Provider: "MOMO"}

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := svc.StartPayment(context.Background(), actor, input)
			ids[i], errs[i] = out.Payment.PaymentID, err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	for i := 1; i < callers; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("callers observed different payments: %s vs %s", ids[0], ids[i])
		}
	}
	if got := store.PaymentCount(); got != 1 {
		t.Fatalf("expected one payment row, got %d", got)
	}
}

func TestStartPaymentRejectsUnlimitedRoles(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})
	store.SeedTrader(domain.TraderProfile{UserID: "admin-1", Role: "admin"})

	_, err := svc.StartPayment(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"},
		application.StartPaymentInput{PlanName: "Pro", Provider: "MOMO"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unlimited role, got %v", err)
	}
}

func TestStartPaymentRejectsCurrentPlan(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})
	store.SeedTrader(domain.TraderProfile{UserID: "buyer-2", Role: "user", PlanName: "Pro"})

	_, err := svc.StartPayment(context.Background(), application.Actor{SubjectID: "buyer-2", Role: "user"},
		application.StartPaymentInput{PlanName: "Pro", Provider: "MOMO"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for current plan, got %v", err)
	}
}

func TestStartPaymentRejectsUnconfiguredMethod(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPlan(domain.Plan{PlanID: "plan-pro", Name: "Pro", BillingType: "monthly", PriceCents: 2500})

	// The test config has no bank details provisioned.
	_, err := svc.StartPayment(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"},
		application.StartPaymentInput{PlanName: "Pro", Provider: "BANK"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), "bank_name") {
		t.Fatalf("error should name the missing fields, got %q", err)
	}
}

func TestStartPaymentUnknownPlan(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.StartPayment(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"},
		application.StartPaymentInput{PlanName: "Enterprise", Provider: "MOMO"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmitPaymentMovesToSubmitted(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPayment(domain.SubscriptionPayment{
		PaymentID: "pay-1", UserID: "buyer-1", PlanID: "plan-pro",
		Provider: domain.MethodMomo, Status: domain.SubscriptionPaymentInitiated,
		PriceCents: 2500, TotalChargeCents: 2500,
	})
	actor := application.Actor{SubjectID: "buyer-1", Role: "user"}

	updated, err := svc.SubmitPayment(context.Background(), actor, application.SubmitPaymentInput{
		PaymentID: "pay-1", Reference: "MTN-778899", Note: "sent from +265990000001",
	})
	if err != nil {
		t.Fatalf("submit payment: %v", err)
	}
	if updated.Status != domain.SubscriptionPaymentSubmitted {
		t.Fatalf("expected SUBMITTED, got %s", updated.Status)
	}
	if updated.Reference != "MTN-778899" {
		t.Fatalf("expected reference recorded, got %q", updated.Reference)
	}
	if got := store.NotificationCount(); got != 1 {
		t.Fatalf("expected one notification, got %d", got)
	}
}

func TestSubmitPaymentReplayLeavesPaymentUnchanged(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPayment(domain.SubscriptionPayment{
		PaymentID: "pay-1", UserID: "buyer-1", PlanID: "plan-pro",
		Provider: domain.MethodMomo, Status: domain.SubscriptionPaymentInitiated,
		PriceCents: 2500, TotalChargeCents: 2500,
	})
	actor := application.Actor{SubjectID: "buyer-1", Role: "user"}
	input := application.SubmitPaymentInput{PaymentID: "pay-1", Reference: "MTN-778899"}

	first, err := svc.SubmitPayment(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	input.Reference = "MTN-000000"
	second, err := svc.SubmitPayment(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Reference != first.Reference {
		t.Fatalf("replay must not rewrite the reference, got %q", second.Reference)
	}
	if got := store.NotificationCount(); got != 1 {
		t.Fatalf("replay must not notify again, got %d", got)
	}
}

func TestSubmitPaymentRequiresReference(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.SubmitPayment(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"},
		application.SubmitPaymentInput{PaymentID: "pay-1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSubmitPaymentForbiddenForOtherUser(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedPayment(domain.SubscriptionPayment{
		PaymentID: "pay-1", UserID: "buyer-1", PlanID: "plan-pro",
		Provider: domain.MethodMomo, Status: domain.SubscriptionPaymentInitiated,
	})
	_, err := svc.SubmitPayment(context.Background(), application.Actor{SubjectID: "buyer-2", Role: "user"},
		application.SubmitPaymentInput{PaymentID: "pay-1", Reference: "REF-1"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
