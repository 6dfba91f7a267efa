package grpc

import (
	"context"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
)

// DirectoryClient resolves trader profiles from the identity mesh. Until the
// upstream contract ships it degrades to a permissive default profile so the
// settlement flows stay runnable in local and staging environments.
type DirectoryClient struct {
	addr string
}

func NewDirectoryClient(addr string) *DirectoryClient {
	return &DirectoryClient{addr: addr}
}

func (c *DirectoryClient) GetTrader(_ context.Context, userID string) (*domain.TraderProfile, error) {
	return &domain.TraderProfile{
		UserID: userID,
		Role:   "user",
		Tier:   "STANDARD",
	}, nil
}
