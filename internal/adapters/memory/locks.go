package memory

import (
	"context"
	"sync"

	"github.com/marketloop/escrow-settlement-service/internal/ports"
)

// LockManager serializes critical sections with one mutex per key. It mirrors
// the advisory-lock semantics of the Postgres adapter closely enough for
// concurrency tests: same key blocks, different keys run in parallel.
type LockManager struct {
	store *Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockManager(store *Store) *LockManager {
	return &LockManager{store: store, locks: make(map[string]*sync.Mutex)}
}

func (m *LockManager) WithLock(ctx context.Context, key string, fn func(ctx context.Context, tx ports.TxRepositories) error) error {
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, m.store)
}
