package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
	"gorm.io/gorm"
)

// Repositories binds every repository port to one gorm handle. The same
// constructor backs both the autocommit set used for plain reads and the
// transaction-bound set handed out by the unit of work.
type Repositories struct {
	db                   *gorm.DB
	notificationsEnabled bool
}

func NewRepositories(db *gorm.DB, notificationsEnabled bool) *Repositories {
	return &Repositories{db: db, notificationsEnabled: notificationsEnabled}
}

func (r *Repositories) Escrows() ports.EscrowRepository     { return &escrowRepository{db: r.db} }
func (r *Repositories) Listings() ports.ListingRepository   { return &listingRepository{db: r.db} }
func (r *Repositories) Purchases() ports.PurchaseRepository { return &purchaseRepository{db: r.db} }
func (r *Repositories) Outbox() ports.OutboxRepository      { return &outboxRepository{db: r.db} }

func (r *Repositories) SubscriptionPayments() ports.SubscriptionPaymentRepository {
	return &subscriptionPaymentRepository{db: r.db}
}

func (r *Repositories) Notifications() ports.NotificationRepository {
	if !r.notificationsEnabled {
		return nil
	}
	return &notificationRepository{db: r.db}
}

func (r *Repositories) Plans() ports.PlanRepository          { return &planRepository{db: r.db} }
func (r *Repositories) AppConfig() ports.AppConfigRepository { return &appConfigRepository{db: r.db} }

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

type escrowRepository struct {
	db *gorm.DB
}

func (r *escrowRepository) Create(ctx context.Context, tx *domain.EscrowTransaction) error {
	rec, err := toEscrowModel(tx)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: escrow %s exists", domain.ErrConflict, tx.EscrowID)
		}
		return err
	}
	return nil
}

func (r *escrowRepository) Update(ctx context.Context, tx *domain.EscrowTransaction) error {
	rec, err := toEscrowModel(tx)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&escrowModel{}).
		Where("escrow_id = ?", tx.EscrowID).
		Select("*").Omit("escrow_id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: escrow %s", domain.ErrNotFound, tx.EscrowID)
	}
	return nil
}

func (r *escrowRepository) GetByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error) {
	var rec escrowModel
	if err := r.db.WithContext(ctx).Where("escrow_id = ?", escrowID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: escrow %s", domain.ErrNotFound, escrowID)
		}
		return nil, err
	}
	return toDomainEscrow(rec)
}

func (r *escrowRepository) ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]domain.EscrowTransaction, error) {
	var recs []escrowModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.EscrowTransaction, 0, len(recs))
	for _, rec := range recs {
		tx, err := toDomainEscrow(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, nil
}

type listingRepository struct {
	db *gorm.DB
}

func (r *listingRepository) GetByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	var rec listingModel
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
		}
		return nil, err
	}
	listing := toDomainListing(rec)
	return &listing, nil
}

func (r *listingRepository) MarkSold(ctx context.Context, listingID string) error {
	res := r.db.WithContext(ctx).Model(&listingModel{}).
		Where("listing_id = ?", listingID).
		Updates(map[string]any{"status": string(domain.ListingStatusSold), "updated_at": gorm.Expr("now()")})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}
	return nil
}

func (r *listingRepository) IncrementViews(ctx context.Context, listingID string) error {
	res := r.db.WithContext(ctx).Model(&listingModel{}).
		Where("listing_id = ?", listingID).
		Update("views_count", gorm.Expr("views_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: listing %s", domain.ErrNotFound, listingID)
	}
	return nil
}

type purchaseRepository struct {
	db *gorm.DB
}

func (r *purchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	rec := purchaseModel{
		PurchaseID:  p.PurchaseID,
		ListingID:   p.ListingID,
		BuyerID:     p.BuyerID,
		SellerID:    p.SellerID,
		AmountCents: p.AmountCents,
		SessionRef:  p.SessionRef,
		CreatedAt:   p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: purchase for listing %s exists", domain.ErrConflict, p.ListingID)
		}
		return err
	}
	return nil
}

func (r *purchaseRepository) GetByListingID(ctx context.Context, listingID string) (*domain.Purchase, error) {
	var rec purchaseModel
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: purchase for listing %s", domain.ErrNotFound, listingID)
		}
		return nil, err
	}
	return &domain.Purchase{
		PurchaseID:  rec.PurchaseID,
		ListingID:   rec.ListingID,
		BuyerID:     rec.BuyerID,
		SellerID:    rec.SellerID,
		AmountCents: rec.AmountCents,
		SessionRef:  rec.SessionRef,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

type subscriptionPaymentRepository struct {
	db *gorm.DB
}

func (r *subscriptionPaymentRepository) Create(ctx context.Context, p *domain.SubscriptionPayment) error {
	rec := toPaymentModel(p)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		// The partial unique index on (user_id, plan_id) over open statuses
		// turns a double create into a conflict we can name.
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: open payment exists for user %s plan %s", domain.ErrPaymentInProgress, p.UserID, p.PlanID)
		}
		return err
	}
	return nil
}

func (r *subscriptionPaymentRepository) Update(ctx context.Context, p *domain.SubscriptionPayment) error {
	rec := toPaymentModel(p)
	res := r.db.WithContext(ctx).Model(&subscriptionPaymentModel{}).
		Where("payment_id = ?", p.PaymentID).
		Select("*").Omit("payment_id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: payment %s", domain.ErrNotFound, p.PaymentID)
	}
	return nil
}

func (r *subscriptionPaymentRepository) GetByID(ctx context.Context, paymentID string) (*domain.SubscriptionPayment, error) {
	var rec subscriptionPaymentModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, paymentID)
		}
		return nil, err
	}
	payment := toDomainPayment(rec)
	return &payment, nil
}

func (r *subscriptionPaymentRepository) FindNonTerminal(ctx context.Context, userID, planID string) (*domain.SubscriptionPayment, error) {
	var rec subscriptionPaymentModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND status IN ?", userID, planID,
			[]string{string(domain.SubscriptionPaymentInitiated), string(domain.SubscriptionPaymentSubmitted)}).
		Order("created_at DESC").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no open payment for user %s plan %s", domain.ErrNotFound, userID, planID)
		}
		return nil, err
	}
	payment := toDomainPayment(rec)
	return &payment, nil
}

type planRepository struct {
	db *gorm.DB
}

func (r *planRepository) GetByName(ctx context.Context, name string) (*domain.Plan, error) {
	var rec planModel
	if err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, name)
		}
		return nil, err
	}
	return &domain.Plan{
		PlanID:      rec.PlanID,
		Name:        rec.Name,
		BillingType: rec.BillingType,
		PriceCents:  rec.PriceCents,
		TierGranted: rec.TierGranted,
	}, nil
}

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	meta := "{}"
	if len(n.Meta) > 0 {
		blob, err := json.Marshal(n.Meta)
		if err != nil {
			return fmt.Errorf("marshal notification meta: %w", err)
		}
		meta = string(blob)
	}
	rec := notificationModel{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		URL:            n.URL,
		Meta:           meta,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Notification, error) {
	var recs []notificationModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(recs))
	for _, rec := range recs {
		n := domain.Notification{
			NotificationID: rec.NotificationID,
			UserID:         rec.UserID,
			Type:           rec.Type,
			Title:          rec.Title,
			Body:           rec.Body,
			URL:            rec.URL,
			IsRead:         rec.IsRead,
			CreatedAt:      rec.CreatedAt,
		}
		if rec.Meta != "" && rec.Meta != "{}" {
			if err := json.Unmarshal([]byte(rec.Meta), &n.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal notification meta: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, nil
}

type appConfigRepository struct {
	db *gorm.DB
}

func (r *appConfigRepository) Get(ctx context.Context) (*domain.AppConfig, error) {
	var rec appConfigModel
	if err := r.db.WithContext(ctx).Where("id = 1").Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: app config row missing", domain.ErrConfigMissing)
		}
		return nil, err
	}
	cfg := domain.AppConfig{
		DefaultFeeBps:      rec.DefaultFeeBps,
		MinFeeCents:        rec.MinFeeCents,
		LoyaltyThreshold:   rec.LoyaltyThreshold,
		LoyaltyDiscountBps: rec.LoyaltyDiscountBps,
		AutoReleaseDays:    rec.AutoReleaseDays,
		EscrowAgentID:      rec.EscrowAgentID,
		UpdatedAt:          rec.UpdatedAt,
	}
	if rec.PlatformFeeBps != "" {
		if err := json.Unmarshal([]byte(rec.PlatformFeeBps), &cfg.PlatformFeeBps); err != nil {
			return nil, fmt.Errorf("unmarshal platform fee bps: %w", err)
		}
	}
	if rec.TierDiscountBps != "" {
		if err := json.Unmarshal([]byte(rec.TierDiscountBps), &cfg.TierDiscountBps); err != nil {
			return nil, fmt.Errorf("unmarshal tier discount bps: %w", err)
		}
	}
	if rec.Settlement != "" {
		if err := json.Unmarshal([]byte(rec.Settlement), &cfg.Settlement); err != nil {
			return nil, fmt.Errorf("unmarshal settlement config: %w", err)
		}
	}
	return &cfg, nil
}

type outboxRepository struct {
	db *gorm.DB
}

func (r *outboxRepository) Enqueue(ctx context.Context, event *ports.OutboxEvent) error {
	rec := outboxModel{
		EventID:      event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(event.Payload),
		OccurredAt:   event.OccurredAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return err
	}
	event.ID = rec.ID
	return nil
}

func (r *outboxRepository) FetchUnpublished(ctx context.Context, limit int) ([]ports.OutboxEvent, error) {
	var recs []outboxModel
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.OutboxEvent, 0, len(recs))
	for _, rec := range recs {
		ev := ports.OutboxEvent{
			ID:           rec.ID,
			EventID:      rec.EventID,
			EventType:    rec.EventType,
			PartitionKey: rec.PartitionKey,
			Payload:      []byte(rec.Payload),
			OccurredAt:   rec.OccurredAt,
			PublishedAt:  rec.PublishedAt,
			Attempts:     rec.Attempts,
		}
		if rec.LastError != nil {
			ev.LastError = *rec.LastError
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", id).
		Update("published_at", publishedAt)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: outbox event %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	res := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: outbox event %d", domain.ErrNotFound, id)
	}
	return nil
}

func toEscrowModel(tx *domain.EscrowTransaction) (escrowModel, error) {
	discounts := "[]"
	if len(tx.Discounts) > 0 {
		blob, err := json.Marshal(tx.Discounts)
		if err != nil {
			return escrowModel{}, fmt.Errorf("marshal discounts: %w", err)
		}
		discounts = string(blob)
	}
	return escrowModel{
		EscrowID:         tx.EscrowID,
		ListingID:        tx.ListingID,
		BuyerID:          tx.BuyerID,
		SellerID:         tx.SellerID,
		EscrowAgentID:    tx.EscrowAgentID,
		Mode:             string(tx.Mode),
		Provider:         string(tx.Provider),
		Status:           string(tx.Status),
		PriceCents:       tx.PriceCents,
		FeeBps:           tx.FeeBps,
		FeeCents:         tx.FeeCents,
		MinFeeCents:      tx.MinFeeCents,
		Discounts:        discounts,
		TotalChargeCents: tx.TotalChargeCents,
		FundedAt:         tx.FundedAt,
		OwnershipReadyAt: tx.OwnershipReadyAt,
		AutoReleaseAt:    tx.AutoReleaseAt,
		ReleasedAt:       tx.ReleasedAt,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}, nil
}

func toDomainEscrow(rec escrowModel) (*domain.EscrowTransaction, error) {
	tx := domain.EscrowTransaction{
		EscrowID:         rec.EscrowID,
		ListingID:        rec.ListingID,
		BuyerID:          rec.BuyerID,
		SellerID:         rec.SellerID,
		EscrowAgentID:    rec.EscrowAgentID,
		Mode:             domain.EscrowMode(rec.Mode),
		Provider:         domain.EscrowProvider(rec.Provider),
		Status:           domain.EscrowStatus(rec.Status),
		PriceCents:       rec.PriceCents,
		FeeBps:           rec.FeeBps,
		FeeCents:         rec.FeeCents,
		MinFeeCents:      rec.MinFeeCents,
		TotalChargeCents: rec.TotalChargeCents,
		FundedAt:         rec.FundedAt,
		OwnershipReadyAt: rec.OwnershipReadyAt,
		AutoReleaseAt:    rec.AutoReleaseAt,
		ReleasedAt:       rec.ReleasedAt,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
	if rec.Discounts != "" && rec.Discounts != "[]" {
		if err := json.Unmarshal([]byte(rec.Discounts), &tx.Discounts); err != nil {
			return nil, fmt.Errorf("unmarshal discounts: %w", err)
		}
	}
	return &tx, nil
}

func toDomainListing(rec listingModel) domain.Listing {
	return domain.Listing{
		ListingID:  rec.ListingID,
		SellerID:   rec.SellerID,
		Platform:   rec.Platform,
		Title:      rec.Title,
		PriceCents: rec.PriceCents,
		Status:     domain.ListingStatus(rec.Status),
		ViewsCount: rec.ViewsCount,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
}

func toPaymentModel(p *domain.SubscriptionPayment) subscriptionPaymentModel {
	return subscriptionPaymentModel{
		PaymentID:        p.PaymentID,
		UserID:           p.UserID,
		PlanID:           p.PlanID,
		Provider:         string(p.Provider),
		ProviderRef:      p.ProviderRef,
		Status:           string(p.Status),
		PriceCents:       p.PriceCents,
		FeeCents:         p.FeeCents,
		TotalChargeCents: p.TotalChargeCents,
		Reference:        p.Reference,
		ProofURL:         p.ProofURL,
		Note:             p.Note,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toDomainPayment(rec subscriptionPaymentModel) domain.SubscriptionPayment {
	return domain.SubscriptionPayment{
		PaymentID:        rec.PaymentID,
		UserID:           rec.UserID,
		PlanID:           rec.PlanID,
		Provider:         domain.PaymentMethod(rec.Provider),
		ProviderRef:      rec.ProviderRef,
		Status:           domain.SubscriptionPaymentStatus(rec.Status),
		PriceCents:       rec.PriceCents,
		FeeCents:         rec.FeeCents,
		TotalChargeCents: rec.TotalChargeCents,
		Reference:        rec.Reference,
		ProofURL:         rec.ProofURL,
		Note:             rec.Note,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}
