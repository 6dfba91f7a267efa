package domain

import (
	"fmt"
	"strings"
	"time"
)

type SubscriptionPaymentStatus string

const (
	SubscriptionPaymentInitiated SubscriptionPaymentStatus = "INITIATED"
	SubscriptionPaymentSubmitted SubscriptionPaymentStatus = "SUBMITTED"
	SubscriptionPaymentVerified  SubscriptionPaymentStatus = "VERIFIED"
)

// IsTerminal reports whether the payment has left the open workflow.
// VERIFIED is reached by an external verification step.
func (s SubscriptionPaymentStatus) IsTerminal() bool {
	return s == SubscriptionPaymentVerified
}

type SubscriptionPayment struct {
	PaymentID        string                    `json:"payment_id"`
	UserID           string                    `json:"user_id"`
	PlanID           string                    `json:"plan_id"`
	Provider         PaymentMethod             `json:"provider"`
	ProviderRef      string                    `json:"provider_ref,omitempty"`
	Status           SubscriptionPaymentStatus `json:"status"`
	PriceCents       int64                     `json:"price_cents"`
	FeeCents         int64                     `json:"fee_cents"`
	TotalChargeCents int64                     `json:"total_charge_cents"`
	Reference        string                    `json:"reference,omitempty"`
	ProofURL         string                    `json:"proof_url,omitempty"`
	Note             string                    `json:"note,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

type Plan struct {
	PlanID      string `json:"plan_id"`
	Name        string `json:"name"`
	BillingType string `json:"billing_type"`
	PriceCents  int64  `json:"price_cents"`
	TierGranted string `json:"tier_granted,omitempty"`
}

// unlimitedRoles never pay for plans; limits do not apply to them.
var unlimitedRoles = map[string]bool{
	"admin":     true,
	"unlimited": true,
}

func IsUnlimitedRole(role string) bool {
	return unlimitedRoles[strings.ToLower(strings.TrimSpace(role))]
}

func ValidateSubmitPaymentInput(paymentID, reference string) error {
	if strings.TrimSpace(paymentID) == "" {
		return fmt.Errorf("%w: payment_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(reference) == "" {
		return fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}
	return nil
}
