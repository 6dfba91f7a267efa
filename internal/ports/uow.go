package ports

import "context"

// TxRepositories exposes the repository set bound to one transaction. All
// writes made through it commit or roll back together.
//
// Notifications returns nil when the deployment runs without the in-app
// notification capability; callers must tolerate the absence.
type TxRepositories interface {
	Escrows() EscrowRepository
	Listings() ListingRepository
	Purchases() PurchaseRepository
	SubscriptionPayments() SubscriptionPaymentRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository
}

// LockManager serializes critical sections by name. WithLock acquires an
// exclusive lock on key, opens a transaction, runs fn with the transaction's
// repositories, and releases the lock when the transaction ends. Concurrent
// callers on the same key block; distinct keys do not contend.
type LockManager interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context, tx TxRepositories) error) error
}
