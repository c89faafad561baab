package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tenantkeeper/internal/common"
	"github.com/dmitrijs2005/tenantkeeper/internal/dbx"
	"github.com/dmitrijs2005/tenantkeeper/internal/logging"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	lockTimeoutQuery = "SET LOCAL lock_timeout = '%dms'"
	xactLockQuery    = "SELECT pg_advisory_xact_lock($1)"

	// lock_not_available
	sqlStateLockNotAvailable = "55P03"
)

// PostgresLocker takes a transaction-scoped advisory lock keyed by LockID and
// runs fn while the transaction is open. Committing or rolling back releases
// the lock, so a crashed caller never leaves it held.
//
// fn does not run inside the transaction; its own statements use other
// connections from the pool, so the pool needs room for at least two.
type PostgresLocker struct {
	db     *sql.DB
	wait   time.Duration
	logger logging.Logger
}

// NewPostgresLocker returns a PostgresLocker on db. A positive wait is applied
// as lock_timeout to the lock statement.
func NewPostgresLocker(db *sql.DB, wait time.Duration, logger logging.Logger) *PostgresLocker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PostgresLocker{db: db, wait: wait, logger: logger}
}

// WithLock returns fn's result once fn has run. A failure to end the lock
// transaction afterwards is only logged: the lock is released with the
// connection either way.
func (l *PostgresLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	var (
		ran   bool
		fnErr error
	)

	err := dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if l.wait > 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(lockTimeoutQuery, l.wait.Milliseconds())); err != nil {
				return fmt.Errorf("set lock timeout: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, xactLockQuery, LockID(key)); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == sqlStateLockNotAvailable {
				return common.ErrLockTimeout
			}
			return fmt.Errorf("advisory lock: %w", err)
		}

		ran = true
		fnErr = fn(ctx)
		return fnErr
	})

	if !ran {
		return err
	}
	if err != nil && fnErr == nil {
		l.logger.Warn(ctx, "advisory lock release failed", "key", key, "error", err)
	}
	return fnErr
}
