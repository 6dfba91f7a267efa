package ports

import (
	"context"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

// UserDirectory resolves trader profiles from the identity service.
type UserDirectory interface {
	GetTrader(ctx context.Context, userID string) (*domain.TraderProfile, error)
}

// ConfigSource serves the current application config snapshot, typically
// through a short-TTL cache in front of the config repository.
type ConfigSource interface {
	Snapshot(ctx context.Context) (*domain.AppConfig, error)
}
