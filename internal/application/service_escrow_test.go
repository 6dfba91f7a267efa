package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/marketloop/escrow-settlement-service/internal/adapters/memory"
	"github.com/marketloop/escrow-settlement-service/internal/application"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

func newTestService(t *testing.T) (*application.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedConfig(domain.AppConfig{
		DefaultFeeBps:   300,
		MinFeeCents:     500,
		AutoReleaseDays: 3,
		EscrowAgentID:   "agent-1",
		Settlement: domain.SettlementConfig{
			BTCAddress:      "bc1qexampleaddress",
			BTCNetwork:      "mainnet",
			MomoProvider:    "MTN",
			MomoNumber:      "+265990000000",
			MomoAccountName: "Market Escrow Ltd",
			ContactEmail:    "support@example.com",
		},
	})
	store.SeedListing(domain.Listing{
		ListingID:  "lst-1",
		SellerID:   "seller-1",
		Platform:   "instagram",
		Title:      "25k follower account",
		PriceCents: 10000,
		Status:     domain.ListingStatusActive,
	})
	store.SeedTrader(domain.TraderProfile{UserID: "buyer-1", Role: "user"})
	store.SeedTrader(domain.TraderProfile{UserID: "seller-1", Role: "user"})

	svc := application.NewService(application.Dependencies{
		Locks:     memory.NewLockManager(store),
		Repos:     store,
		Plans:     store.Plans(),
		AppConfig: store.ConfigSource(),
		Users:     store.Directory(),
		Views:     memory.NewViewMarker(),
	})
	return svc, store
}

func seedFeePaidEscrow(store *memory.Store) domain.EscrowTransaction {
	escrow := domain.EscrowTransaction{
		EscrowID:         "esc-1",
		ListingID:        "lst-1",
		BuyerID:          "buyer-1",
		SellerID:         "seller-1",
		EscrowAgentID:    "agent-1",
		Mode:             domain.EscrowModeFastest,
		Provider:         domain.EscrowProviderBTC,
		Status:           domain.EscrowStatusFeePaid,
		PriceCents:       10000,
		FeeCents:         500,
		TotalChargeCents: 10500,
	}
	store.SeedEscrow(escrow)
	return escrow
}

func TestCreateEscrowFreezesFeeAndTotal(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	out, err := svc.CreateEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, application.CreateEscrowInput{
		ListingID: "lst-1",
		Mode:      "FASTEST",
		Provider:  "BTC",
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if out.Escrow.Status != domain.EscrowStatusInitiated {
		t.Fatalf("expected INITIATED, got %s", out.Escrow.Status)
	}
	// 300 bps of $100.00 is $3.00, below the $5.00 floor.
	if out.Escrow.FeeCents != 500 {
		t.Fatalf("expected fee floored at 500, got %d", out.Escrow.FeeCents)
	}
	if out.Escrow.TotalChargeCents != 10500 {
		t.Fatalf("expected total 10500, got %d", out.Escrow.TotalChargeCents)
	}
	if out.Escrow.EscrowAgentID != "agent-1" {
		t.Fatalf("expected agent assignment, got %q", out.Escrow.EscrowAgentID)
	}

	var gotReference bool
	for _, f := range out.Instructions.Fields {
		if f.Label == "Reference" && f.Value == out.Escrow.EscrowID {
			gotReference = true
		}
	}
	if !gotReference {
		t.Fatalf("instructions missing escrow reference: %+v", out.Instructions.Fields)
	}
	if out.Instructions.QRURL == "" {
		t.Fatalf("expected BTC QR url")
	}
}

func TestCreateEscrowSafestChargesFeeOnly(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	out, err := svc.CreateEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, application.CreateEscrowInput{
		ListingID: "lst-1",
		Mode:      "SAFEST",
		Provider:  "MOMO",
	})
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	if out.Escrow.TotalChargeCents != out.Escrow.FeeCents {
		t.Fatalf("safest mode should charge the fee only, got total %d fee %d",
			out.Escrow.TotalChargeCents, out.Escrow.FeeCents)
	}
}

func TestCreateEscrowRejectsOwnListing(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.CreateEscrow(context.Background(), application.Actor{SubjectID: "seller-1", Role: "user"}, application.CreateEscrowInput{
		ListingID: "lst-1",
		Mode:      "FASTEST",
		Provider:  "BTC",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCreateEscrowRejectsInactiveListing(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedListing(domain.Listing{
		ListingID: "lst-sold", SellerID: "seller-1", PriceCents: 5000, Status: domain.ListingStatusSold,
	})
	_, err := svc.CreateEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, application.CreateEscrowInput{
		ListingID: "lst-sold",
		Mode:      "FASTEST",
		Provider:  "BTC",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateEscrowRequiresConfiguredAgent(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.SeedConfig(domain.AppConfig{DefaultFeeBps: 300, MinFeeCents: 500})
	_, err := svc.CreateEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, application.CreateEscrowInput{
		ListingID: "lst-1",
		Mode:      "FASTEST",
		Provider:  "BTC",
	})
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected config missing, got %v", err)
	}
}

func TestVerifyPaymentFirstTime(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	admin := application.Actor{SubjectID: "admin-1", Role: "admin"}

	out, err := svc.VerifyPayment(context.Background(), admin, "esc-1")
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if out.Replayed {
		t.Fatalf("first verification must not be a replay")
	}
	if out.Escrow.Status != domain.EscrowStatusFullyPaid {
		t.Fatalf("expected FULLY_PAID, got %s", out.Escrow.Status)
	}
	if out.Escrow.FundedAt == nil {
		t.Fatalf("expected funded timestamp")
	}
	if listing, _ := store.ListingByID("lst-1"); listing.Status != domain.ListingStatusSold {
		t.Fatalf("expected listing marked sold, got %s", listing.Status)
	}
	purchase, ok := store.PurchaseByListing("lst-1")
	if !ok {
		t.Fatalf("expected purchase record")
	}
	if purchase.BuyerID != "buyer-1" || purchase.AmountCents != 10000 {
		t.Fatalf("unexpected purchase %+v", purchase)
	}
	if got := store.NotificationCount(); got != 3 {
		t.Fatalf("expected 3 notifications (buyer, seller, agent), got %d", got)
	}
}

func TestVerifyPaymentReplayIsSideEffectFree(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	admin := application.Actor{SubjectID: "admin-1", Role: "admin"}

	first, err := svc.VerifyPayment(context.Background(), admin, "esc-1")
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	second, err := svc.VerifyPayment(context.Background(), admin, "esc-1")
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected replay marker on second verification")
	}
	if first.Purchase.PurchaseID != second.Purchase.PurchaseID {
		t.Fatalf("replay returned a different purchase")
	}
	if got := store.NotificationCount(); got != 3 {
		t.Fatalf("replay must not notify again, got %d notifications", got)
	}
}

func TestVerifyPaymentConcurrentCallsConverge(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	admin := application.Actor{SubjectID: "admin-1", Role: "admin"}

	const callers = 8
	results := make([]application.VerifyPaymentOutput, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.VerifyPayment(context.Background(), admin, "esc-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	for i := 1; i < callers; i++ {
		if results[i].Purchase.PurchaseID != results[0].Purchase.PurchaseID {
			t.Fatalf("callers observed different purchases")
		}
	}
	if got := store.NotificationCount(); got != 3 {
		t.Fatalf("expected exactly one notification fan-out, got %d", got)
	}
}

func TestVerifyPaymentWrongStatusNamesStatus(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.EscrowID = "esc-init"
	escrow.Status = domain.EscrowStatusInitiated
	store.SeedEscrow(escrow)

	_, err := svc.VerifyPayment(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-init")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if !strings.Contains(err.Error(), string(domain.EscrowStatusInitiated)) {
		t.Fatalf("error should name the current status, got %q", err)
	}
}

func TestVerifyPaymentRejectsPostFundingStatus(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.EscrowID = "esc-wait"
	escrow.Status = domain.EscrowStatusWaiting7Days
	store.SeedEscrow(escrow)

	_, err := svc.VerifyPayment(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-wait")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input past funding, got %v", err)
	}
	if !strings.Contains(err.Error(), string(domain.EscrowStatusWaiting7Days)) {
		t.Fatalf("error should name the current status, got %q", err)
	}
	if got := store.NotificationCount(); got != 0 {
		t.Fatalf("rejected verification must not notify, got %d", got)
	}
}

func TestVerifyPaymentRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	_, err := svc.VerifyPayment(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, "esc-1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestVerifyPaymentWithoutNotificationCapability(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	store.DisableNotifications()
	seedFeePaidEscrow(store)

	out, err := svc.VerifyPayment(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1")
	if err != nil {
		t.Fatalf("verify payment: %v", err)
	}
	if out.Escrow.Status != domain.EscrowStatusFullyPaid {
		t.Fatalf("expected FULLY_PAID, got %s", out.Escrow.Status)
	}
	if got := store.NotificationCount(); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
}

func TestApplyEscrowActionRejectsBackwardMove(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusFullyPaid
	store.SeedEscrow(escrow)

	_, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1", "markFeePaid")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestApplyEscrowActionMarkFeePaidSetsFundedAt(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.EscrowID = "esc-new"
	escrow.Status = domain.EscrowStatusInitiated
	store.SeedEscrow(escrow)

	updated, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-new", "markFeePaid")
	if err != nil {
		t.Fatalf("apply action: %v", err)
	}
	if updated.Status != domain.EscrowStatusFeePaid {
		t.Fatalf("expected FEE_PAID, got %s", updated.Status)
	}
	if updated.FundedAt == nil {
		t.Fatalf("expected funded timestamp on fee payment")
	}
}

func TestApplyEscrowActionReleaseRequiresTransferredStatus(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusWaiting7Days
	store.SeedEscrow(escrow)

	_, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1", "release")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for early release, got %v", err)
	}

	current, err := svc.GetEscrow(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1")
	if err != nil {
		t.Fatalf("get escrow: %v", err)
	}
	if current.Status != domain.EscrowStatusWaiting7Days {
		t.Fatalf("escrow must stay in WAITING_7_DAYS, got %s", current.Status)
	}
	if current.ReleasedAt != nil {
		t.Fatalf("early release must not set a release timestamp")
	}
}

func TestApplyEscrowActionReleaseFromTransferred(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusTransferredToBuyer
	store.SeedEscrow(escrow)

	updated, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1", "release")
	if err != nil {
		t.Fatalf("apply action: %v", err)
	}
	if updated.Status != domain.EscrowStatusReleased {
		t.Fatalf("expected RELEASED, got %s", updated.Status)
	}
	if updated.ReleasedAt == nil {
		t.Fatalf("expected release timestamp")
	}
	if got := store.NotificationCount(); got != 2 {
		t.Fatalf("expected seller and agent notifications, got %d", got)
	}
}

func TestApplyEscrowActionTransferSetsAutoRelease(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusReadyForFinalTransfer
	store.SeedEscrow(escrow)

	updated, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1", "markTransferredToBuyer")
	if err != nil {
		t.Fatalf("apply action: %v", err)
	}
	if updated.Status != domain.EscrowStatusTransferredToBuyer {
		t.Fatalf("expected TRANSFERRED_TO_BUYER, got %s", updated.Status)
	}
	if updated.AutoReleaseAt == nil {
		t.Fatalf("expected auto release deadline")
	}
	if got := store.NotificationCount(); got != 1 {
		t.Fatalf("expected buyer notification, got %d", got)
	}
}

func TestApplyEscrowActionStart7DayWaitSetsDeadline(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusFullyPaid
	store.SeedEscrow(escrow)

	updated, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "esc-1", "start7DayWait")
	if err != nil {
		t.Fatalf("apply action: %v", err)
	}
	if updated.Status != domain.EscrowStatusWaiting7Days {
		t.Fatalf("expected WAITING_7_DAYS, got %s", updated.Status)
	}
	if updated.OwnershipReadyAt == nil {
		t.Fatalf("expected ownership deadline")
	}
}

func TestApplyEscrowActionRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	_, err := svc.ApplyEscrowAction(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, "esc-1", "start7DayWait")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReleaseEscrowByBuyer(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusTransferredToBuyer
	store.SeedEscrow(escrow)

	updated, err := svc.ReleaseEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, "esc-1")
	if err != nil {
		t.Fatalf("release escrow: %v", err)
	}
	if updated.Status != domain.EscrowStatusReleased {
		t.Fatalf("expected RELEASED, got %s", updated.Status)
	}
	if updated.ReleasedAt == nil {
		t.Fatalf("expected release timestamp")
	}
	if got := store.NotificationCount(); got != 2 {
		t.Fatalf("expected seller and agent notifications, got %d", got)
	}
}

func TestReleaseEscrowForbiddenForNonBuyer(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	escrow := seedFeePaidEscrow(store)
	escrow.Status = domain.EscrowStatusTransferredToBuyer
	store.SeedEscrow(escrow)

	_, err := svc.ReleaseEscrow(context.Background(), application.Actor{SubjectID: "seller-1", Role: "user"}, "esc-1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestReleaseEscrowRequiresTransferredStatus(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)
	_, err := svc.ReleaseEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, "esc-1")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestGetEscrowVisibility(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	seedFeePaidEscrow(store)

	if _, err := svc.GetEscrow(context.Background(), application.Actor{SubjectID: "buyer-1", Role: "user"}, "esc-1"); err != nil {
		t.Fatalf("buyer should see own escrow: %v", err)
	}
	if _, err := svc.GetEscrow(context.Background(), application.Actor{SubjectID: "stranger", Role: "user"}, "esc-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for outsider, got %v", err)
	}
	if _, err := svc.GetEscrow(context.Background(), application.Actor{SubjectID: "admin-1", Role: "admin"}, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
