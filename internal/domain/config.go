package domain

import (
	"fmt"
	"strings"
	"time"
)

// AppConfig is the singleton "global" configuration row: default fee rates,
// the escrow agent identity, the auto-release window, and per-method
// settlement details. It is read-mostly and served through a short-TTL cache.
type AppConfig struct {
	DefaultFeeBps      int64            `json:"default_fee_bps"`
	PlatformFeeBps     map[string]int64 `json:"platform_fee_bps,omitempty"`
	MinFeeCents        int64            `json:"min_fee_cents"`
	TierDiscountBps    map[string]int64 `json:"tier_discount_bps,omitempty"`
	LoyaltyThreshold   int              `json:"loyalty_threshold"`
	LoyaltyDiscountBps int64            `json:"loyalty_discount_bps"`
	AutoReleaseDays    int              `json:"auto_release_days"`
	EscrowAgentID      string           `json:"escrow_agent_id"`
	Settlement         SettlementConfig `json:"settlement"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// FeePolicySnapshot projects the fee-relevant part of the config into the
// policy the fee engine consumes.
func (c AppConfig) FeePolicySnapshot() FeePolicy {
	return FeePolicy{
		DefaultBps:         c.DefaultFeeBps,
		PlatformBps:        c.PlatformFeeBps,
		MinFeeCents:        c.MinFeeCents,
		TierDiscountBps:    c.TierDiscountBps,
		LoyaltyThreshold:   c.LoyaltyThreshold,
		LoyaltyDiscountBps: c.LoyaltyDiscountBps,
	}
}

// RequireEscrowAgent fails the calling action when no escrow agent identity
// is provisioned; proceeding with an undefined agent is never acceptable.
func (c AppConfig) RequireEscrowAgent() (string, error) {
	agent := strings.TrimSpace(c.EscrowAgentID)
	if agent == "" {
		return "", fmt.Errorf("%w: escrow agent identity is not provisioned", ErrConfigMissing)
	}
	return agent, nil
}
