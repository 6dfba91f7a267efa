package ports

import (
	"context"
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

type EscrowRepository interface {
	Create(ctx context.Context, tx *domain.EscrowTransaction) error
	Update(ctx context.Context, tx *domain.EscrowTransaction) error
	GetByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error)
	ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]domain.EscrowTransaction, error)
}

type ListingRepository interface {
	GetByID(ctx context.Context, listingID string) (*domain.Listing, error)
	MarkSold(ctx context.Context, listingID string) error
	IncrementViews(ctx context.Context, listingID string) error
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *domain.Purchase) error
	GetByListingID(ctx context.Context, listingID string) (*domain.Purchase, error)
}

type SubscriptionPaymentRepository interface {
	Create(ctx context.Context, p *domain.SubscriptionPayment) error
	Update(ctx context.Context, p *domain.SubscriptionPayment) error
	GetByID(ctx context.Context, paymentID string) (*domain.SubscriptionPayment, error)
	// FindNonTerminal returns the open payment for the user/plan pair, or a
	// not-found error when every payment for the pair is terminal.
	FindNonTerminal(ctx context.Context, userID, planID string) (*domain.SubscriptionPayment, error)
}

type PlanRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Plan, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error)
}

type AppConfigRepository interface {
	Get(ctx context.Context) (*domain.AppConfig, error)
}

type OutboxEvent struct {
	ID           int64
	EventID      string
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
	PublishedAt  *time.Time
	Attempts     int
	LastError    string
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event *OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
}
