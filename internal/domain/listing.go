package domain

import "time"

type ListingStatus string

const (
	ListingStatusActive  ListingStatus = "ACTIVE"
	ListingStatusSold    ListingStatus = "SOLD"
	ListingStatusPaused  ListingStatus = "PAUSED"
	ListingStatusRemoved ListingStatus = "REMOVED"
)

type Listing struct {
	ListingID  string        `json:"listing_id"`
	SellerID   string        `json:"seller_id"`
	Platform   string        `json:"platform"`
	Title      string        `json:"title"`
	PriceCents int64         `json:"price_cents"`
	Status     ListingStatus `json:"status"`
	ViewsCount int64         `json:"views_count"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Purchase is the sale record written exactly once per listing when escrow
// funds are verified.
type Purchase struct {
	PurchaseID  string    `json:"purchase_id"`
	ListingID   string    `json:"listing_id"`
	BuyerID     string    `json:"buyer_id"`
	SellerID    string    `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	SessionRef  string    `json:"session_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

// TraderProfile is the slice of a user the settlement core needs: role for
// authorization shortcuts, tier and deal history for fee pricing, and the
// current plan for subscription checks. It comes from an external directory.
type TraderProfile struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	Tier           string `json:"tier"`
	CompletedDeals int    `json:"completed_deals"`
	PlanName       string `json:"plan_name,omitempty"`
}
