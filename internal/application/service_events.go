package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marketloop/escrow-settlement-service/internal/contracts"
	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

const (
	eventEscrowCreated         = contracts.EventEscrowCreated
	eventEscrowActionApplied   = contracts.EventEscrowActionApplied
	eventEscrowPaymentVerified = contracts.EventEscrowPaymentVerified
	eventEscrowReleased        = contracts.EventEscrowReleased
	eventPaymentInitiated      = contracts.EventPaymentInitiated
	eventPaymentSubmitted      = contracts.EventPaymentSubmitted
)

func (s *Service) enqueueEscrowEvent(ctx context.Context, outbox ports.OutboxRepository, eventType string, escrow domain.EscrowTransaction) error {
	return s.enqueueEvent(ctx, outbox, eventType, escrow.EscrowID, escrow)
}

func (s *Service) enqueuePaymentEvent(ctx context.Context, outbox ports.OutboxRepository, eventType string, payment domain.SubscriptionPayment) error {
	return s.enqueueEvent(ctx, outbox, eventType, payment.UserID, payment)
}

// enqueueEvent stores an integration event in the outbox alongside the state
// change that produced it. A worker drains the outbox to the bus afterwards.
func (s *Service) enqueueEvent(ctx context.Context, outbox ports.OutboxRepository, eventType, partitionKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	now := s.nowFn()
	envelope := contracts.EventEnvelope{
		EventID:    s.idFn(),
		EventType:  eventType,
		OccurredAt: now,
		Payload:    body,
	}
	blob, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	return outbox.Enqueue(ctx, &ports.OutboxEvent{
		EventID:      envelope.EventID,
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      blob,
		OccurredAt:   now,
	})
}
