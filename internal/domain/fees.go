package domain

import (
	"fmt"
	"strings"
)

// AppliedDiscount is an auditable record of one rate adjustment. AmountBps is
// the number of basis points removed from the effective rate by the rule.
type AppliedDiscount struct {
	Rule      string `json:"rule"`
	AmountBps int64  `json:"amount_bps"`
}

// FeePolicy is the snapshot of fee configuration an escrow is priced against.
// It is read once at creation; the resulting breakdown is frozen on the row.
type FeePolicy struct {
	DefaultBps         int64            `json:"default_bps"`
	PlatformBps        map[string]int64 `json:"platform_bps,omitempty"`
	MinFeeCents        int64            `json:"min_fee_cents"`
	TierDiscountBps    map[string]int64 `json:"tier_discount_bps,omitempty"`
	LoyaltyThreshold   int              `json:"loyalty_threshold"`
	LoyaltyDiscountBps int64            `json:"loyalty_discount_bps"`
}

type FeeInput struct {
	PriceCents           int64
	Platform             string
	BuyerTier            string
	SellerTier           string
	BuyerCompletedDeals  int
	SellerCompletedDeals int
}

type FeeBreakdown struct {
	FeeBps      int64             `json:"fee_bps"`
	FeeCents    int64             `json:"fee_cents"`
	MinFeeCents int64             `json:"min_fee_cents"`
	Discounts   []AppliedDiscount `json:"discounts"`
}

// ValidateFeePolicy rejects rates outside the representable 0..10000 bps range.
func ValidateFeePolicy(policy FeePolicy) error {
	if policy.DefaultBps < 0 || policy.DefaultBps > 10000 {
		return fmt.Errorf("%w: default fee basis points %d out of range [0,10000]", ErrInvalidInput, policy.DefaultBps)
	}
	for platform, bps := range policy.PlatformBps {
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("%w: fee basis points %d for platform %s out of range [0,10000]", ErrInvalidInput, bps, platform)
		}
	}
	if policy.MinFeeCents < 0 {
		return fmt.Errorf("%w: min fee cents must not be negative", ErrInvalidInput)
	}
	return nil
}

// ComputeServiceFee prices one transaction. It is deterministic and free of
// side effects: the same policy and input always produce the same breakdown.
// The nominal fee is rounded half-up in integer arithmetic and floored at the
// policy minimum.
func ComputeServiceFee(policy FeePolicy, input FeeInput) FeeBreakdown {
	baseBps := policy.DefaultBps
	if bps, ok := policy.PlatformBps[normalizePlatform(input.Platform)]; ok {
		baseBps = bps
	}

	discounts := make([]AppliedDiscount, 0, 4)
	feeBps := baseBps

	if d := policy.TierDiscountBps[strings.ToUpper(strings.TrimSpace(input.BuyerTier))]; d > 0 {
		discounts = append(discounts, AppliedDiscount{Rule: "tier:buyer:" + strings.ToUpper(strings.TrimSpace(input.BuyerTier)), AmountBps: d})
		feeBps -= d
	}
	if d := policy.TierDiscountBps[strings.ToUpper(strings.TrimSpace(input.SellerTier))]; d > 0 {
		discounts = append(discounts, AppliedDiscount{Rule: "tier:seller:" + strings.ToUpper(strings.TrimSpace(input.SellerTier)), AmountBps: d})
		feeBps -= d
	}
	if policy.LoyaltyThreshold > 0 && policy.LoyaltyDiscountBps > 0 {
		if input.BuyerCompletedDeals >= policy.LoyaltyThreshold {
			discounts = append(discounts, AppliedDiscount{Rule: "loyalty:buyer", AmountBps: policy.LoyaltyDiscountBps})
			feeBps -= policy.LoyaltyDiscountBps
		}
		if input.SellerCompletedDeals >= policy.LoyaltyThreshold {
			discounts = append(discounts, AppliedDiscount{Rule: "loyalty:seller", AmountBps: policy.LoyaltyDiscountBps})
			feeBps -= policy.LoyaltyDiscountBps
		}
	}
	if feeBps < 0 {
		feeBps = 0
	}

	nominal := roundBps(input.PriceCents, feeBps)
	feeCents := nominal
	if feeCents < policy.MinFeeCents {
		feeCents = policy.MinFeeCents
	}

	return FeeBreakdown{
		FeeBps:      feeBps,
		FeeCents:    feeCents,
		MinFeeCents: policy.MinFeeCents,
		Discounts:   discounts,
	}
}

// roundBps computes round(priceCents*bps/10000) half-up without floats.
func roundBps(priceCents, bps int64) int64 {
	return (priceCents*bps + 5000) / 10000
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
