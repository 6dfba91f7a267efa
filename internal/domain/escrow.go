package domain

import (
	"fmt"
	"strings"
	"time"
)

type EscrowStatus string
type EscrowMode string
type EscrowProvider string
type EscrowAction string

const (
	EscrowStatusInitiated             EscrowStatus = "INITIATED"
	EscrowStatusFeePaid               EscrowStatus = "FEE_PAID"
	EscrowStatusFullyPaid             EscrowStatus = "FULLY_PAID"
	EscrowStatusWaiting7Days          EscrowStatus = "WAITING_7_DAYS"
	EscrowStatusReadyForFinalTransfer EscrowStatus = "READY_FOR_FINAL_TRANSFER"
	EscrowStatusTransferredToBuyer    EscrowStatus = "TRANSFERRED_TO_BUYER"
	EscrowStatusReleased              EscrowStatus = "RELEASED"
)

const (
	EscrowModeFastest EscrowMode = "FASTEST"
	EscrowModeSafest  EscrowMode = "SAFEST"
)

const (
	EscrowProviderManual EscrowProvider = "MANUAL"
	EscrowProviderMomo   EscrowProvider = "MOMO"
	EscrowProviderBTC    EscrowProvider = "BTC"
	EscrowProviderPayPal EscrowProvider = "PAYPAL"
)

const (
	EscrowActionMarkFeePaid               EscrowAction = "markFeePaid"
	EscrowActionMarkFullyPaid             EscrowAction = "markFullyPaid"
	EscrowActionStart7DayWait             EscrowAction = "start7DayWait"
	EscrowActionMarkReadyForFinalTransfer EscrowAction = "markReadyForFinalTransfer"
	EscrowActionMarkTransferredToBuyer    EscrowAction = "markTransferredToBuyer"
	EscrowActionRelease                   EscrowAction = "release"
)

// escrowStatusOrder fixes the forward-only ordering of the custody lifecycle.
var escrowStatusOrder = map[EscrowStatus]int{
	EscrowStatusInitiated:             0,
	EscrowStatusFeePaid:               1,
	EscrowStatusFullyPaid:             2,
	EscrowStatusWaiting7Days:          3,
	EscrowStatusReadyForFinalTransfer: 4,
	EscrowStatusTransferredToBuyer:    5,
	EscrowStatusReleased:              6,
}

func (s EscrowStatus) Index() int {
	idx, ok := escrowStatusOrder[s]
	if !ok {
		return -1
	}
	return idx
}

// CanAdvanceTo reports whether moving to next is a strictly forward transition.
func (s EscrowStatus) CanAdvanceTo(next EscrowStatus) bool {
	cur, target := s.Index(), next.Index()
	return cur >= 0 && target > cur
}

type EscrowTransaction struct {
	EscrowID         string            `json:"escrow_id"`
	ListingID        string            `json:"listing_id"`
	BuyerID          string            `json:"buyer_id"`
	SellerID         string            `json:"seller_id"`
	EscrowAgentID    string            `json:"escrow_agent_id"`
	Mode             EscrowMode        `json:"mode"`
	Provider         EscrowProvider    `json:"provider"`
	Status           EscrowStatus      `json:"status"`
	PriceCents       int64             `json:"price_cents"`
	FeeBps           int64             `json:"fee_bps"`
	FeeCents         int64             `json:"fee_cents"`
	MinFeeCents      int64             `json:"min_fee_cents"`
	Discounts        []AppliedDiscount `json:"discounts"`
	TotalChargeCents int64             `json:"total_charge_cents"`
	FundedAt         *time.Time        `json:"funded_at,omitempty"`
	OwnershipReadyAt *time.Time        `json:"ownership_ready_at,omitempty"`
	AutoReleaseAt    *time.Time        `json:"auto_release_at,omitempty"`
	ReleasedAt       *time.Time        `json:"released_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TotalCharge freezes what the buyer owes at creation time. FASTEST collects
// the full price plus the service fee through escrow; SAFEST collects only
// the fee because the price settles directly between the parties.
func TotalCharge(mode EscrowMode, priceCents, feeCents int64) int64 {
	if mode == EscrowModeFastest {
		return priceCents + feeCents
	}
	return feeCents
}

func ParseEscrowMode(raw string) (EscrowMode, error) {
	switch EscrowMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case EscrowModeFastest:
		return EscrowModeFastest, nil
	case EscrowModeSafest:
		return EscrowModeSafest, nil
	default:
		return "", fmt.Errorf("%w: mode must be FASTEST or SAFEST", ErrInvalidInput)
	}
}

func ParseEscrowProvider(raw string) (EscrowProvider, error) {
	switch EscrowProvider(strings.ToUpper(strings.TrimSpace(raw))) {
	case EscrowProviderManual:
		return EscrowProviderManual, nil
	case EscrowProviderMomo:
		return EscrowProviderMomo, nil
	case EscrowProviderBTC:
		return EscrowProviderBTC, nil
	case EscrowProviderPayPal:
		return EscrowProviderPayPal, nil
	default:
		return "", fmt.Errorf("%w: provider must be one of MANUAL, MOMO, BTC, PAYPAL", ErrInvalidInput)
	}
}

func ParseEscrowAction(raw string) (EscrowAction, error) {
	switch EscrowAction(strings.TrimSpace(raw)) {
	case EscrowActionMarkFeePaid,
		EscrowActionMarkFullyPaid,
		EscrowActionStart7DayWait,
		EscrowActionMarkReadyForFinalTransfer,
		EscrowActionMarkTransferredToBuyer,
		EscrowActionRelease:
		return EscrowAction(strings.TrimSpace(raw)), nil
	default:
		return "", fmt.Errorf("%w: unknown escrow action %q", ErrInvalidInput, strings.TrimSpace(raw))
	}
}

// PaymentMethodForProvider maps an escrow funding provider to the settlement
// instruction template used for it.
func PaymentMethodForProvider(provider EscrowProvider) PaymentMethod {
	switch provider {
	case EscrowProviderBTC:
		return MethodBTC
	case EscrowProviderMomo:
		return MethodMomo
	case EscrowProviderPayPal:
		return MethodPayPal
	default:
		return MethodManual
	}
}
