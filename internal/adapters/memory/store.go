// Package memory provides map-backed adapters for every port. They keep the
// application layer testable without Postgres or Redis and double as the
// reference semantics for the production adapters.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

type Store struct {
	mu sync.RWMutex

	escrows       map[string]domain.EscrowTransaction
	listings      map[string]domain.Listing
	purchases     map[string]domain.Purchase // keyed by listing id
	payments      map[string]domain.SubscriptionPayment
	notifications []domain.Notification
	plans         map[string]domain.Plan // keyed by lowercase name
	outbox        []ports.OutboxEvent
	traders       map[string]domain.TraderProfile
	config        domain.AppConfig

	notificationsEnabled bool
	nextOutboxID         int64
}

func NewStore() *Store {
	return &Store{
		escrows:              make(map[string]domain.EscrowTransaction),
		listings:             make(map[string]domain.Listing),
		purchases:            make(map[string]domain.Purchase),
		payments:             make(map[string]domain.SubscriptionPayment),
		plans:                make(map[string]domain.Plan),
		traders:              make(map[string]domain.TraderProfile),
		notificationsEnabled: true,
	}
}

// DisableNotifications makes the store behave like a deployment without the
// in-app notification capability.
func (s *Store) DisableNotifications() { s.notificationsEnabled = false }

func (s *Store) SeedListing(l domain.Listing)             { s.mu.Lock(); s.listings[l.ListingID] = l; s.mu.Unlock() }
func (s *Store) SeedTrader(t domain.TraderProfile)        { s.mu.Lock(); s.traders[t.UserID] = t; s.mu.Unlock() }
func (s *Store) SeedPlan(p domain.Plan)                   { s.mu.Lock(); s.plans[lowered(p.Name)] = p; s.mu.Unlock() }
func (s *Store) SeedConfig(c domain.AppConfig)            { s.mu.Lock(); s.config = c; s.mu.Unlock() }
func (s *Store) SeedEscrow(e domain.EscrowTransaction)    { s.mu.Lock(); s.escrows[e.EscrowID] = e; s.mu.Unlock() }
func (s *Store) SeedPayment(p domain.SubscriptionPayment) { s.mu.Lock(); s.payments[p.PaymentID] = p; s.mu.Unlock() }

// TxRepositories wiring. The store is autocommit; transactional grouping is
// approximated by the lock manager serializing whole critical sections.

func (s *Store) Escrows() ports.EscrowRepository                           { return (*escrowRepo)(s) }
func (s *Store) Listings() ports.ListingRepository                         { return (*listingRepo)(s) }
func (s *Store) Purchases() ports.PurchaseRepository                       { return (*purchaseRepo)(s) }
func (s *Store) SubscriptionPayments() ports.SubscriptionPaymentRepository { return (*paymentRepo)(s) }
func (s *Store) Outbox() ports.OutboxRepository                            { return (*outboxRepo)(s) }

func (s *Store) Notifications() ports.NotificationRepository {
	if !s.notificationsEnabled {
		return nil
	}
	return (*notificationRepo)(s)
}

type escrowRepo Store

func (r *escrowRepo) Create(_ context.Context, tx *domain.EscrowTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.escrows[tx.EscrowID]; ok {
		return fmt.Errorf("%w: escrow %s exists", domain.ErrConflict, tx.EscrowID)
	}
	r.escrows[tx.EscrowID] = *tx
	return nil
}

func (r *escrowRepo) Update(_ context.Context, tx *domain.EscrowTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.escrows[tx.EscrowID]; !ok {
		return fmt.Errorf("%w: escrow %s", domain.ErrNotFound, tx.EscrowID)
	}
	r.escrows[tx.EscrowID] = *tx
	return nil
}

func (r *escrowRepo) GetByID(_ context.Context, escrowID string) (*domain.EscrowTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.escrows[escrowID]
	if !ok {
		return nil, fmt.Errorf("%w: escrow %s", domain.ErrNotFound, escrowID)
	}
	out := tx
	return &out, nil
}

func (r *escrowRepo) ListByParticipant(_ context.Context, userID string, limit, offset int) ([]domain.EscrowTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.EscrowTransaction
	for _, tx := range r.escrows {
		if tx.BuyerID == userID || tx.SellerID == userID {
			all = append(all, tx)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []domain.EscrowTransaction{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type listingRepo Store

func (r *listingRepo) GetByID(_ context.Context, listingID string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[listingID]
	if !ok {
		return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}
	out := l
	return &out, nil
}

func (r *listingRepo) MarkSold(_ context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}
	l.Status = domain.ListingStatusSold
	r.listings[listingID] = l
	return nil
}

func (r *listingRepo) IncrementViews(_ context.Context, listingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[listingID]
	if !ok {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}
	l.ViewsCount++
	r.listings[listingID] = l
	return nil
}

type purchaseRepo Store

func (r *purchaseRepo) Create(_ context.Context, p *domain.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.ListingID]; ok {
		return fmt.Errorf("%w: purchase for listing %s exists", domain.ErrConflict, p.ListingID)
	}
	r.purchases[p.ListingID] = *p
	return nil
}

func (r *purchaseRepo) GetByListingID(_ context.Context, listingID string) (*domain.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.purchases[listingID]
	if !ok {
		return nil, fmt.Errorf("%w: purchase for listing %s", domain.ErrNotFound, listingID)
	}
	out := p
	return &out, nil
}

type paymentRepo Store

func (r *paymentRepo) Create(_ context.Context, p *domain.SubscriptionPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.PaymentID]; ok {
		return fmt.Errorf("%w: payment %s exists", domain.ErrConflict, p.PaymentID)
	}
	for _, existing := range r.payments {
		if existing.UserID == p.UserID && existing.PlanID == p.PlanID && !existing.Status.IsTerminal() {
			return fmt.Errorf("%w: open payment exists for user %s plan %s", domain.ErrPaymentInProgress, p.UserID, p.PlanID)
		}
	}
	r.payments[p.PaymentID] = *p
	return nil
}

func (r *paymentRepo) Update(_ context.Context, p *domain.SubscriptionPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.PaymentID]; !ok {
		return fmt.Errorf("%w: payment %s", domain.ErrNotFound, p.PaymentID)
	}
	r.payments[p.PaymentID] = *p
	return nil
}

func (r *paymentRepo) GetByID(_ context.Context, paymentID string) (*domain.SubscriptionPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, paymentID)
	}
	out := p
	return &out, nil
}

func (r *paymentRepo) FindNonTerminal(_ context.Context, userID, planID string) (*domain.SubscriptionPayment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.UserID == userID && p.PlanID == planID && !p.Status.IsTerminal() {
			out := p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: no open payment for user %s plan %s", domain.ErrNotFound, userID, planID)
}

type notificationRepo Store

func (r *notificationRepo) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			all = append(all, n)
		}
	}
	if offset >= len(all) {
		return []domain.Notification{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type outboxRepo Store

func (r *outboxRepo) Enqueue(_ context.Context, event *ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextOutboxID++
	event.ID = r.nextOutboxID
	r.outbox = append(r.outbox, *event)
	return nil
}

func (r *outboxRepo) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ports.OutboxEvent
	for _, ev := range r.outbox {
		if ev.PublishedAt == nil {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *outboxRepo) MarkPublished(_ context.Context, id int64, publishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.outbox {
		if r.outbox[i].ID == id {
			at := publishedAt
			r.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return fmt.Errorf("%w: outbox event %d", domain.ErrNotFound, id)
}

func (r *outboxRepo) MarkFailed(_ context.Context, id int64, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.outbox {
		if r.outbox[i].ID == id {
			r.outbox[i].Attempts++
			r.outbox[i].LastError = lastError
			return nil
		}
	}
	return fmt.Errorf("%w: outbox event %d", domain.ErrNotFound, id)
}

// Test inspection helpers.

func (s *Store) ListingByID(listingID string) (domain.Listing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[listingID]
	return l, ok
}

func (s *Store) PurchaseByListing(listingID string) (domain.Purchase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.purchases[listingID]
	return p, ok
}

func (s *Store) NotificationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

func (s *Store) PaymentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

func (s *Store) OutboxEvents() []ports.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.OutboxEvent, len(s.outbox))
	copy(out, s.outbox)
	return out
}

func lowered(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
