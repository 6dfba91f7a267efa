package application

import (
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

type Config struct {
	ServiceName       string
	AutoReleaseDays   int
	OwnershipWaitDays int
	ViewDedupWindow   time.Duration
	DefaultListLimit  int
}

type Actor struct {
	SubjectID string
	Role      string
	RequestID string
}

func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

type CreateEscrowInput struct {
	ListingID string
	Mode      string
	Provider  string
}

type CreateEscrowOutput struct {
	Escrow       domain.EscrowTransaction
	Breakdown    domain.FeeBreakdown
	Instructions domain.Instructions
}

type VerifyPaymentOutput struct {
	Escrow   domain.EscrowTransaction
	Purchase domain.Purchase
	// Replayed is true when verification had already happened and this call
	// changed nothing.
	Replayed bool
}

type StartPaymentInput struct {
	PlanName string
	Provider string
}

type StartPaymentOutput struct {
	Payment      domain.SubscriptionPayment
	Plan         domain.Plan
	Instructions domain.Instructions
	// Existing is true when an open payment for the same user and plan was
	// returned instead of a new one being created.
	Existing bool
}

type SubmitPaymentInput struct {
	PaymentID string
	Reference string
	ProofURL  string
	Note      string
}

type Service struct {
	cfg    Config
	locks  ports.LockManager
	repos  ports.TxRepositories
	plans  ports.PlanRepository
	config ports.ConfigSource
	users  ports.UserDirectory
	views  ports.ViewMarker
	nowFn  func() time.Time
	idFn   func() string
}

type Dependencies struct {
	Config    Config
	Locks     ports.LockManager
	Repos     ports.TxRepositories
	Plans     ports.PlanRepository
	AppConfig ports.ConfigSource
	Users     ports.UserDirectory
	Views     ports.ViewMarker
	IDFn      func() string
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "escrow-settlement-service"
	}
	if cfg.AutoReleaseDays <= 0 {
		cfg.AutoReleaseDays = 3
	}
	if cfg.OwnershipWaitDays <= 0 {
		cfg.OwnershipWaitDays = 7
	}
	if cfg.ViewDedupWindow <= 0 {
		cfg.ViewDedupWindow = 24 * time.Hour
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = 20
	}
	idFn := deps.IDFn
	if idFn == nil {
		idFn = newID
	}
	return &Service{
		cfg:    cfg,
		locks:  deps.Locks,
		repos:  deps.Repos,
		plans:  deps.Plans,
		config: deps.AppConfig,
		users:  deps.Users,
		views:  deps.Views,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   idFn,
	}
}
