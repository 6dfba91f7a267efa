package contracts

import (
	"encoding/json"
	"time"
)

// Integration event types published to the bus.
const (
	EventEscrowCreated         = "escrow.created"
	EventEscrowActionApplied   = "escrow.action_applied"
	EventEscrowPaymentVerified = "escrow.payment_verified"
	EventEscrowReleased        = "escrow.released"
	EventPaymentInitiated      = "subscription.payment_initiated"
	EventPaymentSubmitted      = "subscription.payment_submitted"
)

// EventEnvelope is the wire shape of every outbound event. Consumers dedupe
// on EventID; Payload carries the entity snapshot at emission time.
type EventEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}
