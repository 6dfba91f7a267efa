package domain

import (
	"errors"
	"testing"
)

func TestComputeServiceFeeDefaultRate(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{DefaultBps: 300, MinFeeCents: 100}
	out := ComputeServiceFee(policy, FeeInput{PriceCents: 10000, Platform: "instagram"})
	if out.FeeBps != 300 {
		t.Fatalf("expected 300 bps, got %d", out.FeeBps)
	}
	if out.FeeCents != 300 {
		t.Fatalf("expected 300 cents, got %d", out.FeeCents)
	}
	if len(out.Discounts) != 0 {
		t.Fatalf("expected no discounts, got %+v", out.Discounts)
	}
}

func TestComputeServiceFeePlatformOverride(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{
		DefaultBps:  300,
		PlatformBps: map[string]int64{"tiktok": 450},
	}
	out := ComputeServiceFee(policy, FeeInput{PriceCents: 10000, Platform: "TikTok"})
	if out.FeeBps != 450 {
		t.Fatalf("expected platform override 450 bps, got %d", out.FeeBps)
	}
}

func TestComputeServiceFeeMinimumFloor(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{DefaultBps: 300, MinFeeCents: 500}
	out := ComputeServiceFee(policy, FeeInput{PriceCents: 10000})
	if out.FeeCents != 500 {
		t.Fatalf("expected floor at 500, got %d", out.FeeCents)
	}
	if out.FeeBps != 300 {
		t.Fatalf("floor must not rewrite the rate, got %d bps", out.FeeBps)
	}
}

func TestComputeServiceFeeRoundsHalfUp(t *testing.T) {
	t.Parallel()

	// 250 bps of 333 cents is 8.325, rounds to 8.
	policy := FeePolicy{DefaultBps: 250}
	if out := ComputeServiceFee(policy, FeeInput{PriceCents: 333}); out.FeeCents != 8 {
		t.Fatalf("expected 8 cents, got %d", out.FeeCents)
	}
	// 300 bps of 350 cents is 10.5, rounds to 11.
	policy = FeePolicy{DefaultBps: 300}
	if out := ComputeServiceFee(policy, FeeInput{PriceCents: 350}); out.FeeCents != 11 {
		t.Fatalf("expected 11 cents, got %d", out.FeeCents)
	}
}

func TestComputeServiceFeeDiscountsAreAudited(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{
		DefaultBps:         500,
		TierDiscountBps:    map[string]int64{"GOLD": 100},
		LoyaltyThreshold:   10,
		LoyaltyDiscountBps: 50,
	}
	out := ComputeServiceFee(policy, FeeInput{
		PriceCents:          10000,
		BuyerTier:           "gold",
		BuyerCompletedDeals: 12,
	})
	if out.FeeBps != 350 {
		t.Fatalf("expected 500-100-50=350 bps, got %d", out.FeeBps)
	}
	if len(out.Discounts) != 2 {
		t.Fatalf("expected 2 discount records, got %+v", out.Discounts)
	}
	rules := map[string]int64{}
	for _, d := range out.Discounts {
		rules[d.Rule] = d.AmountBps
	}
	if rules["tier:buyer:GOLD"] != 100 || rules["loyalty:buyer"] != 50 {
		t.Fatalf("unexpected discount audit: %+v", out.Discounts)
	}
}

func TestComputeServiceFeeNeverGoesNegative(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{
		DefaultBps:      100,
		TierDiscountBps: map[string]int64{"GOLD": 500},
	}
	out := ComputeServiceFee(policy, FeeInput{PriceCents: 10000, BuyerTier: "GOLD", SellerTier: "GOLD"})
	if out.FeeBps != 0 {
		t.Fatalf("expected rate clamped at 0, got %d", out.FeeBps)
	}
	if out.FeeCents != 0 {
		t.Fatalf("expected zero fee, got %d", out.FeeCents)
	}
}

func TestComputeServiceFeeIsDeterministic(t *testing.T) {
	t.Parallel()

	policy := FeePolicy{DefaultBps: 275, MinFeeCents: 50}
	input := FeeInput{PriceCents: 123457, Platform: "youtube"}
	first := ComputeServiceFee(policy, input)
	for i := 0; i < 5; i++ {
		if got := ComputeServiceFee(policy, input); got.FeeCents != first.FeeCents || got.FeeBps != first.FeeBps {
			t.Fatalf("non-deterministic result on run %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestValidateFeePolicyRange(t *testing.T) {
	t.Parallel()

	if err := ValidateFeePolicy(FeePolicy{DefaultBps: 10001}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for >10000 bps, got %v", err)
	}
	if err := ValidateFeePolicy(FeePolicy{DefaultBps: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for negative bps, got %v", err)
	}
	if err := ValidateFeePolicy(FeePolicy{DefaultBps: 300, PlatformBps: map[string]int64{"x": 20000}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for platform bps, got %v", err)
	}
	if err := ValidateFeePolicy(FeePolicy{DefaultBps: 300, MinFeeCents: 100}); err != nil {
		t.Fatalf("expected valid policy, got %v", err)
	}
}
