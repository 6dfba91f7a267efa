package postgres

import (
	"time"
)

type escrowModel struct {
	EscrowID         string     `gorm:"column:escrow_id;type:uuid;primaryKey"`
	ListingID        string     `gorm:"column:listing_id;type:uuid"`
	BuyerID          string     `gorm:"column:buyer_id;type:uuid"`
	SellerID         string     `gorm:"column:seller_id;type:uuid"`
	EscrowAgentID    string     `gorm:"column:escrow_agent_id;type:uuid"`
	Mode             string     `gorm:"column:mode"`
	Provider         string     `gorm:"column:provider"`
	Status           string     `gorm:"column:status"`
	PriceCents       int64      `gorm:"column:price_cents"`
	FeeBps           int64      `gorm:"column:fee_bps"`
	FeeCents         int64      `gorm:"column:fee_cents"`
	MinFeeCents      int64      `gorm:"column:min_fee_cents"`
	Discounts        string     `gorm:"column:discounts;type:jsonb"`
	TotalChargeCents int64      `gorm:"column:total_charge_cents"`
	FundedAt         *time.Time `gorm:"column:funded_at"`
	OwnershipReadyAt *time.Time `gorm:"column:ownership_ready_at"`
	AutoReleaseAt    *time.Time `gorm:"column:auto_release_at"`
	ReleasedAt       *time.Time `gorm:"column:released_at"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (escrowModel) TableName() string { return "escrow_transactions" }

type listingModel struct {
	ListingID  string    `gorm:"column:listing_id;type:uuid;primaryKey"`
	SellerID   string    `gorm:"column:seller_id;type:uuid"`
	Platform   string    `gorm:"column:platform"`
	Title      string    `gorm:"column:title"`
	PriceCents int64     `gorm:"column:price_cents"`
	Status     string    `gorm:"column:status"`
	ViewsCount int64     `gorm:"column:views_count"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (listingModel) TableName() string { return "listings" }

type purchaseModel struct {
	PurchaseID  string    `gorm:"column:purchase_id;type:uuid;primaryKey"`
	ListingID   string    `gorm:"column:listing_id;type:uuid"`
	BuyerID     string    `gorm:"column:buyer_id;type:uuid"`
	SellerID    string    `gorm:"column:seller_id;type:uuid"`
	AmountCents int64     `gorm:"column:amount_cents"`
	SessionRef  string    `gorm:"column:session_ref"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (purchaseModel) TableName() string { return "purchases" }

type subscriptionPaymentModel struct {
	PaymentID        string    `gorm:"column:payment_id;type:uuid;primaryKey"`
	UserID           string    `gorm:"column:user_id;type:uuid"`
	PlanID           string    `gorm:"column:plan_id;type:uuid"`
	Provider         string    `gorm:"column:provider"`
	ProviderRef      string    `gorm:"column:provider_ref"`
	Status           string    `gorm:"column:status"`
	PriceCents       int64     `gorm:"column:price_cents"`
	FeeCents         int64     `gorm:"column:fee_cents"`
	TotalChargeCents int64     `gorm:"column:total_charge_cents"`
	Reference        string    `gorm:"column:reference"`
	ProofURL         string    `gorm:"column:proof_url"`
	Note             string    `gorm:"column:note"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (subscriptionPaymentModel) TableName() string { return "subscription_payments" }

type planModel struct {
	PlanID      string    `gorm:"column:plan_id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name"`
	BillingType string    `gorm:"column:billing_type"`
	PriceCents  int64     `gorm:"column:price_cents"`
	TierGranted string    `gorm:"column:tier_granted"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (planModel) TableName() string { return "plans" }

type notificationModel struct {
	NotificationID string    `gorm:"column:notification_id;type:uuid;primaryKey"`
	UserID         string    `gorm:"column:user_id;type:uuid"`
	Type           string    `gorm:"column:type"`
	Title          string    `gorm:"column:title"`
	Body           string    `gorm:"column:body"`
	URL            string    `gorm:"column:url"`
	Meta           string    `gorm:"column:meta;type:jsonb"`
	IsRead         bool      `gorm:"column:is_read"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (notificationModel) TableName() string { return "notifications" }

type appConfigModel struct {
	ID                 int16     `gorm:"column:id;primaryKey"`
	DefaultFeeBps      int64     `gorm:"column:default_fee_bps"`
	PlatformFeeBps     string    `gorm:"column:platform_fee_bps;type:jsonb"`
	MinFeeCents        int64     `gorm:"column:min_fee_cents"`
	TierDiscountBps    string    `gorm:"column:tier_discount_bps;type:jsonb"`
	LoyaltyThreshold   int       `gorm:"column:loyalty_threshold"`
	LoyaltyDiscountBps int64     `gorm:"column:loyalty_discount_bps"`
	AutoReleaseDays    int       `gorm:"column:auto_release_days"`
	EscrowAgentID      string    `gorm:"column:escrow_agent_id"`
	Settlement         string    `gorm:"column:settlement;type:jsonb"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (appConfigModel) TableName() string { return "app_config" }

type outboxModel struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID      string     `gorm:"column:event_id;type:uuid"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	OccurredAt   time.Time  `gorm:"column:occurred_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	Attempts     int        `gorm:"column:attempts"`
	LastError    *string    `gorm:"column:last_error"`
}

func (outboxModel) TableName() string { return "escrow_outbox" }
