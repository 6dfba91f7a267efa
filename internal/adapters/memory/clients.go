package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marketloop/escrow-settlement-service/internal/domain"
	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

func (s *Store) Plans() ports.PlanRepository { return (*planRepo)(s) }

type planRepo Store

func (r *planRepo) GetByName(_ context.Context, name string) (*domain.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plans[lowered(name)]
	if !ok {
		return nil, fmt.Errorf("%w: plan %s", domain.ErrNotFound, name)
	}
	out := p
	return &out, nil
}

func (s *Store) Directory() ports.UserDirectory { return (*directory)(s) }

type directory Store

func (d *directory) GetTrader(_ context.Context, userID string) (*domain.TraderProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.traders[userID]
	if !ok {
		return nil, fmt.Errorf("%w: trader %s", domain.ErrNotFound, userID)
	}
	out := t
	return &out, nil
}

func (s *Store) ConfigSource() ports.ConfigSource { return (*configSource)(s) }

type configSource Store

func (c *configSource) Snapshot(_ context.Context) (*domain.AppConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.config
	return &out, nil
}

// ViewMarker remembers listing/viewer pairs with an expiry, mirroring the
// Redis SET NX adapter.
type ViewMarker struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	nowFn func() time.Time
}

func NewViewMarker() *ViewMarker {
	return &ViewMarker{seen: make(map[string]time.Time), nowFn: time.Now}
}

func (m *ViewMarker) MarkViewed(_ context.Context, listingID, viewerKey string, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := listingID + "|" + viewerKey
	now := m.nowFn()
	if expiry, ok := m.seen[key]; ok && expiry.After(now) {
		return false, nil
	}
	m.seen[key] = now.Add(window)
	return true, nil
}
