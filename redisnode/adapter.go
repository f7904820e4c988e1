// Package redisnode provides a Redis-backed dlm.NodeAdapter: one of the
// concrete remote master node implementations the Redlock core can be
// handed. It is grounded in the Txova platform's redis.Locker (SET NX with
// a TTL for acquisition, a Lua compare-and-delete script for release),
// generalized from a single-node advisory lock into one quorum member.
package redisnode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Dorico-Dynamics/txova-go-redlock/apperrors"
	"github.com/Dorico-Dynamics/txova-go-redlock/dlm"
	"github.com/redis/go-redis/v9"
)

// releaseScript is the atomic server-side compare-and-delete: it deletes
// the key only if its current value equals the supplied fingerprint. This
// must run as a single Lua evaluation, not a GET followed by a DEL,
// because the key's TTL could fire between the two round trips and let a
// racing client re-acquire it under the same name (spec.md §4.1).
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Adapter is a dlm.NodeAdapter backed by a single Redis server (or
// cluster/sentinel deployment, via redis.UniversalClient).
type Adapter struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKeyPrefix sets a prefix applied to every lock key, so one Redis
// deployment can host keyspaces for more than one Manager.
func WithKeyPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.keyPrefix = prefix
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an Adapter from a Redis address (host:port). For cluster or
// sentinel deployments, build a redis.UniversalClient yourself and use
// NewFromClient.
func New(addr string, opts ...Option) (*Adapter, error) {
	if addr == "" {
		return nil, apperrors.New(apperrors.CodeInternal, "redis address must not be empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return NewFromClient(client, opts...), nil
}

// NewFromClient wraps an already-constructed redis.UniversalClient (a
// *redis.Client, *redis.ClusterClient, or *redis.FailoverClient). Use this
// when the caller already manages connection pooling, TLS, or sentinel
// discovery.
func NewFromClient(client redis.UniversalClient, opts ...Option) *Adapter {
	a := &Adapter{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewWithConfig builds the go-redis client from cfg (standalone, cluster,
// or sentinel) and wraps it, following the teacher's
// redis.NewWithConfig mode switch.
func NewWithConfig(cfg ClientConfig, opts ...Option) (*Adapter, error) {
	if len(cfg.Addresses) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "redisnode: at least one address is required")
	}
	if cfg.Mode == ModeSentinel && cfg.MasterName == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "redisnode: master name is required for sentinel mode")
	}

	var client redis.UniversalClient
	switch cfg.Mode {
	case ModeCluster:
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           cfg.Addresses,
			Password:        cfg.Password,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			DialTimeout:     cfg.DialTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
		})
	case ModeSentinel:
		client = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:      cfg.MasterName,
			SentinelAddrs:   cfg.Addresses,
			Password:        cfg.Password,
			DB:              cfg.DB,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			DialTimeout:     cfg.DialTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
		})
	default:
		client = redis.NewClient(&redis.Options{
			Addr:            cfg.Addresses[0],
			Password:        cfg.Password,
			DB:              cfg.DB,
			PoolSize:        cfg.PoolSize,
			MinIdleConns:    cfg.MinIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
			DialTimeout:     cfg.DialTimeout,
			ReadTimeout:     cfg.ReadTimeout,
			WriteTimeout:    cfg.WriteTimeout,
		})
	}

	return NewFromClient(client, opts...), nil
}

// Close closes the underlying Redis client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Ping verifies the Redis connection is healthy.
func (a *Adapter) Ping(ctx context.Context) error {
	if err := a.client.Ping(ctx).Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeConnection, "redis ping failed", err)
	}
	return nil
}

func (a *Adapter) key(resource string) string {
	if a.keyPrefix == "" {
		return resource
	}
	return a.keyPrefix + ":" + resource
}

// TryAcquire implements dlm.NodeAdapter. It performs a single SET key
// value PX ttl NX round trip: atomic create-with-expiry-if-absent, which
// is exactly the capability spec.md §6 requires of the remote store.
func (a *Adapter) TryAcquire(ctx context.Context, resource, fingerprint string, ttl time.Duration) (dlm.AcquireResult, error) {
	key := a.key(resource)

	ok, err := a.client.SetNX(ctx, key, fingerprint, ttl).Result()
	if err != nil {
		a.logger.Debug("redisnode try_acquire transport error", "key", key, "error", err)
		return dlm.TransportError, apperrors.Wrap(apperrors.CodeConnection, "redis SETNX failed", err)
	}
	if !ok {
		return dlm.AlreadyHeld, nil
	}
	return dlm.Acquired, nil
}

// Release implements dlm.NodeAdapter via the atomic Lua compare-and-delete
// script.
func (a *Adapter) Release(ctx context.Context, resource, fingerprint string) (dlm.ReleaseResult, error) {
	key := a.key(resource)

	result, err := releaseScript.Run(ctx, a.client, []string{key}, fingerprint).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		a.logger.Debug("redisnode release transport error", "key", key, "error", err)
		return dlm.ReleaseTransportError, apperrors.Wrap(apperrors.CodeConnection, "redis release script failed", err)
	}
	if result == 0 {
		return dlm.NotOwned, nil
	}
	return dlm.Released, nil
}
