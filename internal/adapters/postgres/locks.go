package postgres

import (
	"context"

	"github.com/marketloop/escrow-settlement-service/internal/ports"
	"gorm.io/gorm"
)

// LockingUnitOfWork implements the lock manager port with transaction-scoped
// advisory locks. The lock is taken as the first statement of the transaction
// and Postgres releases it on commit or rollback, so a crashed worker can
// never strand it.
type LockingUnitOfWork struct {
	db                   *gorm.DB
	notificationsEnabled bool
}

func NewLockingUnitOfWork(db *gorm.DB, notificationsEnabled bool) *LockingUnitOfWork {
	return &LockingUnitOfWork{db: db, notificationsEnabled: notificationsEnabled}
}

func (u *LockingUnitOfWork) WithLock(ctx context.Context, key string, fn func(ctx context.Context, tx ports.TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return err
		}
		return fn(ctx, NewRepositories(tx, u.notificationsEnabled))
	})
}
