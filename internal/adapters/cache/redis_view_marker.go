package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewMarker deduplicates listing views with SET NX. The first viewer within
// the window claims the key; everyone else sees it already set.
type ViewMarker struct {
	client *redis.Client
}

func NewViewMarker(client *redis.Client) *ViewMarker {
	return &ViewMarker{client: client}
}

func (m *ViewMarker) MarkViewed(ctx context.Context, listingID, viewerKey string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("escrow:listing:view:%s:%s", listingID, viewerKey)
	ok, err := m.client.SetNX(ctx, key, 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("view marker setnx: %w", err)
	}
	return ok, nil
}
