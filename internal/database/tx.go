package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// DefaultTxAttempts bounds how many times a logical operation is re-executed
// when the storage layer reports a transient conflict.
const DefaultTxAttempts = 3

// PostgreSQL error codes that indicate the transaction lost a race and may
// safely be re-run from scratch.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsTransient reports whether err is a conflict the caller should retry.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// TxRunner executes a function inside a database transaction with
// all-or-nothing visibility.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type txRunner struct {
	db       *sql.DB
	attempts int
	logger   *zap.Logger
}

// NewTxRunner creates a TxRunner over db. attempts is the total number of
// times a logical operation may execute before a transient conflict is
// surfaced to the caller; values below 1 fall back to DefaultTxAttempts.
func NewTxRunner(db *sql.DB, attempts int, logger *zap.Logger) TxRunner {
	if attempts < 1 {
		attempts = DefaultTxAttempts
	}
	return &txRunner{db: db, attempts: attempts, logger: logger}
}

// RunInTx begins a transaction, runs fn, and commits. Any error from fn or
// from the commit rolls the whole transaction back. Transient serialization
// conflicts re-run fn from scratch with backoff, a bounded number of times;
// every other error is returned as-is on the first occurrence.
func (r *txRunner) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	backoff := retry.WithMaxRetries(uint64(r.attempts-1), retry.NewFibonacci(10*time.Millisecond))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			r.logger.Warn("Transaction conflict, retrying",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *txRunner) runOnce(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
