// internal/infrastructure/database/postgres/tx.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// TxOptions configures a transaction and its retry budget
type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	ReadOnly       bool
	MaxRetries     int
}

// DefaultTxOptions returns read-committed with three retries
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: sql.LevelReadCommitted,
		ReadOnly:       false,
		MaxRetries:     3,
	}
}

// WithTransaction runs fn in a single transaction. Any error from fn rolls
// the transaction back and is returned unchanged.
func WithTransaction(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin(&sql.TxOptions{
		Isolation: opts.IsolationLevel,
		ReadOnly:  opts.ReadOnly,
	})
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithRetry behaves like WithTransaction but replays the whole transaction
// with jittered exponential backoff when Postgres reports a serialization
// failure, deadlock or lock timeout.
func WithRetry(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	var lastErr error
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := WithTransaction(ctx, db, opts, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == opts.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, err)
		}
		lastErr = err

		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}
