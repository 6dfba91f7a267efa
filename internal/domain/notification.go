package domain

import "time"

const (
	NotificationTypeEscrowFunded      = "escrow_funded"
	NotificationTypeEscrowSold        = "escrow_sold"
	NotificationTypeEscrowAssigned    = "escrow_assigned"
	NotificationTypeEscrowTransferred = "escrow_transferred"
	NotificationTypeEscrowReleased    = "escrow_released"
	NotificationTypePaymentSubmitted  = "subscription_payment_submitted"
)

// Notification is an in-app record created as a side effect of a first-time
// workflow transition, inside the same transaction as the transition itself.
type Notification struct {
	NotificationID string            `json:"notification_id"`
	UserID         string            `json:"user_id"`
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	URL            string            `json:"url,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
	IsRead         bool              `json:"is_read"`
	CreatedAt      time.Time         `json:"created_at"`
}
