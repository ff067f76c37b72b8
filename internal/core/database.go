// AngelaMos | 2026
// database.go

package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/streamflix/internal/config"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Database owns the connection pool. WriteTimeout bounds every transaction
// started through WithTx.
type Database struct {
	DB           *sqlx.DB
	WriteTimeout time.Duration
}

func NewDatabase(
	ctx context.Context,
	cfg config.DatabaseConfig,
) (*Database, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Database{DB: db, WriteTimeout: cfg.WriteTimeout}, nil
}

func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.DB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (d *Database) Stats() sql.DBStats {
	return d.DB.Stats()
}

// WithTx runs fn as one atomic unit bounded by the write timeout.
func (d *Database) WithTx(
	ctx context.Context,
	fn func(tx *sqlx.Tx) error,
) error {
	if d.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.WriteTimeout)
		defer cancel()
	}
	return InTx(ctx, d.DB, fn)
}

type DBTX interface {
	sqlx.ExtContext
	sqlx.ExecerContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(
		ctx context.Context,
		dest any,
		query string,
		args ...any,
	) error
}

func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	return InTxWithOptions(ctx, db, nil, fn)
}

// InTxWithOptions commits when fn returns nil and rolls back otherwise,
// including on panic. The returned error is classified into the taxonomy.
func InTxWithOptions(
	ctx context.Context,
	db *sqlx.DB,
	opts *sql.TxOptions,
	fn func(tx *sqlx.Tx) error,
) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return ClassifyError(fmt.Errorf("begin transaction: %w", err))
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback() //nolint:errcheck // best-effort rollback on panic
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil &&
			!errors.Is(rbErr, sql.ErrTxDone) {
			return ClassifyError(
				fmt.Errorf("rollback failed: %w (original: %w)", rbErr, err),
			)
		}
		return ClassifyError(err)
	}

	if err := tx.Commit(); err != nil {
		return ClassifyError(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// ClassifyError attaches a taxonomy sentinel to a store error. Errors that
// already carry one pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		ErrInvalidInput,
		ErrNotFound,
		ErrDuplicateKey,
		ErrTransaction,
		ErrUnauthorized,
		ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	switch {
	case IsPgError(err, pgUniqueViolation):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case IsPgError(err, pgForeignKeyViolation),
		IsPgError(err, pgCheckViolation):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransaction, err)
	}
}

func IsPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func IsDuplicateKey(err error) bool {
	return IsPgError(err, pgUniqueViolation)
}

type LockScope uint32

const (
	LockSubscriptionID LockScope = iota + 1
	LockRatingID
	LockMovieID
)

func (s LockScope) String() string {
	switch s {
	case LockSubscriptionID:
		return "subscription"
	case LockRatingID:
		return "rating"
	case LockMovieID:
		return "movie"
	default:
		return "unknown"
	}
}

// LockKey packs a scope and a per-scope key into one advisory lock id.
func LockKey(scope LockScope, key int64) int64 {
	return int64(scope)<<32 | int64(uint32(key)) //nolint:gosec // G115: lock ids only need stable bits
}

// AcquireLock takes a transaction-scoped advisory lock. It is released by
// the commit or rollback of the enclosing transaction.
func AcquireLock(
	ctx context.Context,
	q sqlx.ExecerContext,
	scope LockScope,
	key int64,
) error {
	if _, err := q.ExecContext(
		ctx,
		`SELECT pg_advisory_xact_lock($1)`,
		LockKey(scope, key),
	); err != nil {
		return fmt.Errorf("acquire %s lock: %w", scope, err)
	}
	return nil
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
