package domain

import (
	"errors"
	"testing"
)

func TestEscrowStatusOrdering(t *testing.T) {
	t.Parallel()

	ordered := []EscrowStatus{
		EscrowStatusInitiated,
		EscrowStatusFeePaid,
		EscrowStatusFullyPaid,
		EscrowStatusWaiting7Days,
		EscrowStatusReadyForFinalTransfer,
		EscrowStatusTransferredToBuyer,
		EscrowStatusReleased,
	}
	for i, status := range ordered {
		if status.Index() != i {
			t.Fatalf("%s: expected index %d, got %d", status, i, status.Index())
		}
	}
	if EscrowStatus("UNKNOWN").Index() != -1 {
		t.Fatalf("unknown status must index as -1")
	}
}

func TestCanAdvanceToIsStrictlyForward(t *testing.T) {
	t.Parallel()

	if !EscrowStatusFeePaid.CanAdvanceTo(EscrowStatusFullyPaid) {
		t.Fatalf("forward move rejected")
	}
	if !EscrowStatusInitiated.CanAdvanceTo(EscrowStatusReleased) {
		t.Fatalf("forward skip rejected")
	}
	if EscrowStatusFullyPaid.CanAdvanceTo(EscrowStatusFeePaid) {
		t.Fatalf("backward move allowed")
	}
	if EscrowStatusFullyPaid.CanAdvanceTo(EscrowStatusFullyPaid) {
		t.Fatalf("same-status move allowed")
	}
	if EscrowStatus("UNKNOWN").CanAdvanceTo(EscrowStatusReleased) {
		t.Fatalf("unknown status allowed to advance")
	}
}

func TestTotalChargeByMode(t *testing.T) {
	t.Parallel()

	if got := TotalCharge(EscrowModeFastest, 10000, 500); got != 10500 {
		t.Fatalf("fastest: expected 10500, got %d", got)
	}
	if got := TotalCharge(EscrowModeSafest, 10000, 500); got != 500 {
		t.Fatalf("safest: expected 500, got %d", got)
	}
}

func TestParseEscrowInputs(t *testing.T) {
	t.Parallel()

	if mode, err := ParseEscrowMode(" fastest "); err != nil || mode != EscrowModeFastest {
		t.Fatalf("expected FASTEST, got %v %v", mode, err)
	}
	if _, err := ParseEscrowMode("TURBO"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if provider, err := ParseEscrowProvider("btc"); err != nil || provider != EscrowProviderBTC {
		t.Fatalf("expected BTC, got %v %v", provider, err)
	}
	if _, err := ParseEscrowAction("markFeePaid"); err != nil {
		t.Fatalf("expected known action, got %v", err)
	}
	if _, err := ParseEscrowAction("rollBack"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestPaymentMethodForProvider(t *testing.T) {
	t.Parallel()

	cases := map[EscrowProvider]PaymentMethod{
		EscrowProviderBTC:    MethodBTC,
		EscrowProviderMomo:   MethodMomo,
		EscrowProviderPayPal: MethodPayPal,
		EscrowProviderManual: MethodManual,
	}
	for provider, want := range cases {
		if got := PaymentMethodForProvider(provider); got != want {
			t.Fatalf("%s: expected %s, got %s", provider, want, got)
		}
	}
}
