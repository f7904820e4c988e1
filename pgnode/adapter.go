// Package pgnode provides a PostgreSQL-backed dlm.NodeAdapter: a second
// concrete remote master node implementation, so a Redlock deployment can
// mix store technologies per spec.md §3 (Node Client Adapter is storage
// agnostic). It is grounded in go-lockbox's pg.PostgresLockAdapter
// (INSERT ... ON CONFLICT ... RETURNING for atomic acquire, a single
// DELETE ... WHERE for atomic release) and the Txova platform's
// postgres.Migrator for schema management.
package pgnode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dorico-Dynamics/txova-go-redlock/apperrors"
	"github.com/Dorico-Dynamics/txova-go-redlock/dlm"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the slice of pgxpool.Pool that TryAcquire/Release actually
// call, mirroring the teacher's postgres.Querier. Narrowing to an
// interface lets tests substitute pgxmock for a real pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Adapter is a dlm.NodeAdapter backed by a single PostgreSQL database.
// Two independent Adapters pointed at two independent databases count as
// two independent masters for Redlock's quorum math; pointing two
// Adapters at the same database defeats the algorithm's independent
// failure assumption (spec.md §9).
type Adapter struct {
	db         querier
	pool       *pgxpool.Pool // nil when built over a bare querier (tests); Migrate/Ping/Close need it
	config     Config
	poolConfig PoolConfig // only consulted by New(), which builds its own pool
	logger     *slog.Logger
	owned      bool // true if New() created the pool and must close it
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithConfig sets the schema/table naming. Defaults to DefaultConfig().
func WithConfig(cfg Config) Option {
	return func(a *Adapter) {
		a.config = cfg
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithPoolConfig sets the connection pool sizing used by New. It has no
// effect on NewFromPool or newFromQuerier, since those wrap a pool the
// caller already built.
func WithPoolConfig(cfg PoolConfig) Option {
	return func(a *Adapter) {
		a.poolConfig = cfg
	}
}

// New creates an Adapter from a PostgreSQL DSN, building and owning its
// own connection pool. Call Close when done.
func New(ctx context.Context, dsn string, opts ...Option) (*Adapter, error) {
	if dsn == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "pgnode: dsn must not be empty")
	}

	a := &Adapter{config: DefaultConfig(), poolConfig: DefaultPoolConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	pool, err := newPool(ctx, dsn, a.poolConfig)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConnection, "pgnode: failed to create pool", err)
	}
	a.db = pool
	a.pool = pool
	a.owned = true
	return a, nil
}

// NewFromPool wraps an already-constructed pgxpool.Pool. Use this when the
// caller already manages pooling (e.g. a shared application pool).
func NewFromPool(pool *pgxpool.Pool, opts ...Option) *Adapter {
	a := &Adapter{db: pool, pool: pool, config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// newFromQuerier builds an Adapter over a bare querier, bypassing the real
// pgxpool.Pool entirely. Used by tests to substitute pgxmock.
func newFromQuerier(db querier, opts ...Option) *Adapter {
	a := &Adapter{db: db, config: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the pool if it was created by New. NewFromPool callers
// own the pool's lifecycle themselves.
func (a *Adapter) Close() {
	if a.owned {
		a.pool.Close()
	}
}

// Ping verifies the database connection is healthy.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeConnection, "pgnode: ping failed", err)
	}
	return nil
}

// acquireSQL performs the whole try-acquire as one atomic statement: insert
// a fresh row, or steal an existing one whose lease has already expired.
// A racing acquirer loses the ON CONFLICT DO UPDATE's WHERE clause and the
// statement affects zero rows, which RETURNING surfaces as pgx.ErrNoRows —
// there's no separate read-then-write step for a second connection to
// interleave with.
const acquireSQL = `
INSERT INTO %s AS t (key, fingerprint, expires_at)
VALUES ($1, $2, now() + $3 * interval '1 millisecond')
ON CONFLICT (key) DO UPDATE
	SET fingerprint = EXCLUDED.fingerprint, expires_at = EXCLUDED.expires_at
	WHERE t.expires_at < now()
RETURNING fingerprint
`

const releaseSQL = `DELETE FROM %s WHERE key = $1 AND fingerprint = $2`

// TryAcquire implements dlm.NodeAdapter.
func (a *Adapter) TryAcquire(ctx context.Context, resource, fingerprint string, ttl time.Duration) (dlm.AcquireResult, error) {
	sql := fmt.Sprintf(acquireSQL, a.config.qualifiedLockTable())

	var got string
	err := a.db.QueryRow(ctx, sql, resource, fingerprint, ttl.Milliseconds()).Scan(&got)
	if errors.Is(err, pgx.ErrNoRows) {
		return dlm.AlreadyHeld, nil
	}
	if err != nil {
		a.logger.Debug("pgnode try_acquire transport error", "key", resource, "error", err)
		return dlm.TransportError, apperrors.Wrap(classifyPgError(err), "pgnode: acquire query failed", err)
	}
	return dlm.Acquired, nil
}

// Release implements dlm.NodeAdapter via the atomic ownership-checked
// DELETE. It only removes the row if the fingerprint still matches,
// exactly as go-lockbox's Release does with its lease_id/server_nonce
// pair, collapsed to the single fingerprint spec.md defines.
func (a *Adapter) Release(ctx context.Context, resource, fingerprint string) (dlm.ReleaseResult, error) {
	sql := fmt.Sprintf(releaseSQL, a.config.qualifiedLockTable())

	tag, err := a.db.Exec(ctx, sql, resource, fingerprint)
	if err != nil {
		a.logger.Debug("pgnode release transport error", "key", resource, "error", err)
		return dlm.ReleaseTransportError, apperrors.Wrap(classifyPgError(err), "pgnode: release query failed", err)
	}
	if tag.RowsAffected() == 0 {
		return dlm.NotOwned, nil
	}
	return dlm.Released, nil
}
