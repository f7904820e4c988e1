package pgnode

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConfig holds the connection pool knobs a pgnode.Adapter cares about,
// trimmed from the teacher's postgres.PoolConfig down to what a lock
// adapter's short, high-frequency statements actually need — no
// SlowQueryThreshold/query logging, since TryAcquire/Release already log
// their own outcome.
type PoolConfig struct {
	// MaxConns is the maximum number of pooled connections.
	MaxConns int32
	// MinConns is the minimum number of pooled connections kept warm.
	MinConns int32
	// MaxConnLifetime bounds how long a connection may be reused.
	MaxConnLifetime time.Duration
	// MaxConnIdleTime closes a connection that's been idle this long.
	MaxConnIdleTime time.Duration
	// HealthCheckPeriod is the interval between background health checks.
	HealthCheckPeriod time.Duration
	// ConnectTimeout bounds establishing a new connection.
	ConnectTimeout time.Duration
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults, following
// the teacher's postgres.DefaultPoolConfig.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          10,
		MinConns:          1,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    5 * time.Second,
	}
}

// PoolOption is a functional option for PoolConfig, mirroring the teacher's
// postgres.Option.
type PoolOption func(*PoolConfig)

// WithMaxConns sets the maximum number of pooled connections.
func WithMaxConns(n int32) PoolOption {
	return func(c *PoolConfig) { c.MaxConns = n }
}

// WithMinConns sets the minimum number of pooled connections.
func WithMinConns(n int32) PoolOption {
	return func(c *PoolConfig) { c.MinConns = n }
}

// WithMaxConnLifetime sets the maximum lifetime of a pooled connection.
func WithMaxConnLifetime(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.MaxConnLifetime = d }
}

// WithMaxConnIdleTime sets the maximum idle time of a pooled connection.
func WithMaxConnIdleTime(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.MaxConnIdleTime = d }
}

// WithHealthCheckPeriod sets the interval between background health checks.
func WithHealthCheckPeriod(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.HealthCheckPeriod = d }
}

// WithConnectTimeout sets the timeout for establishing a new connection.
func WithConnectTimeout(d time.Duration) PoolOption {
	return func(c *PoolConfig) { c.ConnectTimeout = d }
}

// Validate rejects a PoolConfig that pgxpool would otherwise accept and
// misbehave on.
func (c PoolConfig) Validate() error {
	if c.MaxConns < 1 {
		return fmt.Errorf("pgnode: max conns must be at least 1")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("pgnode: min conns cannot be negative")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("pgnode: min conns (%d) cannot exceed max conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// newPool builds a pgxpool.Pool from a DSN and PoolConfig, following the
// option-application shape of the teacher's postgres.newPoolFromConfig.
func newPool(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgnode: parsing connection string: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgnode: creating connection pool: %w", err)
	}
	return pool, nil
}
