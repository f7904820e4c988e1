// Package dlm implements a client-side Distributed Lock Manager using the
// Redlock algorithm against N independent, non-replicated remote
// key-value master nodes. A majority of nodes (the quorum) must agree
// that a lock is held before the manager considers it acquired; no single
// node is trusted to be continuously available.
//
// The package is deliberately agnostic to the remote store: it is handed
// already-constructed NodeAdapter implementations (see redisnode and
// pgnode for concrete backends) and only orchestrates the quorum
// acquisition, validity-window, and retry protocol described in spec.md.
package dlm

import (
	"log/slog"
	"time"
)

// Defaults per spec.md §6.
const (
	// DefaultRetryCount is R, the maximum number of acquisition passes.
	DefaultRetryCount = 3
	// DefaultRetryDelay is D, the delay slept between failed passes.
	DefaultRetryDelay = 200 * time.Millisecond
	// DefaultClockDriftFactor is F, the fractional drift allowance.
	DefaultClockDriftFactor = 0.01
	// DefaultJitterFraction caps the retry-delay jitter at ±D/2 (spec.md §4.4).
	DefaultJitterFraction = 0.5
	// minNodeTimeout is the floor for the per-node timeout rule of thumb
	// (ttl/100, or this, whichever is larger).
	minNodeTimeout = 20 * time.Millisecond
)

// Manager owns an ordered, immutable list of node adapters and the
// acquisition policy (retry count, retry delay, clock-drift factor). It is
// created once per process via New and is safe for concurrent use by
// multiple goroutines iff the underlying adapters are (see spec.md §5).
type Manager struct {
	adapters         []NodeAdapter
	quorum           int
	retryCount       int
	retryDelay       time.Duration
	jitterFraction   float64
	clockDriftFactor float64
	logger           *slog.Logger
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithRetryCount overrides R, the maximum number of acquisition passes.
func WithRetryCount(n int) Option {
	return func(m *Manager) {
		m.retryCount = n
	}
}

// WithRetryDelay overrides D, the delay slept between failed passes.
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.retryDelay = d
	}
}

// WithJitterFraction overrides the fraction of D used as the maximum
// random jitter applied to the inter-pass sleep (spec.md §4.4 recommends
// up to ±D/2, i.e. a fraction of 0.5). Zero disables jitter.
func WithJitterFraction(f float64) Option {
	return func(m *Manager) {
		m.jitterFraction = f
	}
}

// WithClockDriftFactor overrides F, the fractional clock-drift allowance.
func WithClockDriftFactor(f float64) Option {
	return func(m *Manager) {
		m.clockDriftFactor = f
	}
}

// WithLogger sets the logger used for absorbed transient errors (debug)
// and terminal failures (warn). Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager over the given, already-constructed node adapters.
//
// Quorum Q is computed as floor(N/2)+1 over len(adapters) — the adapters
// slice IS the usable-node set (invariant: a Manager with zero adapters is
// not constructible). Callers that build adapters from a list of
// configured endpoints, where some endpoints may fail to yield a usable
// adapter, should use NewFromAttempts instead so the majority-construction
// rule of spec.md §6 is applied against the originally configured N, not
// just the ones that happened to succeed.
func New(adapters []NodeAdapter, opts ...Option) (*Manager, error) {
	if len(adapters) == 0 {
		return nil, ErrNotEnoughMasters
	}
	return newManager(adapters, len(adapters), opts...)
}

// NewFromAttempts creates a Manager from a set of constructed adapters,
// given the total number of endpoints that were originally configured
// (attempted). Construction fails with ErrNotEnoughMasters if fewer than
// quorum(attempted) adapters were actually constructed — the stricter
// majority rule spec.md §6 prefers over demanding all N succeed, so that
// bootstrap tolerates the same minority of failures the runtime protocol
// already tolerates.
//
// Quorum is fixed at construction as quorum(attempted), not
// quorum(len(adapters)): the unconstructed endpoints still count toward
// the node population the algorithm reasons about, so acquisition may
// require every surviving adapter to agree, never fewer than it would
// have needed with the full node set.
func NewFromAttempts(attempted int, adapters []NodeAdapter, opts ...Option) (*Manager, error) {
	q := quorumOf(attempted)
	if len(adapters) < q {
		return nil, ErrNotEnoughMasters
	}
	m, err := newManager(adapters, attempted, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newManager(adapters []NodeAdapter, quorumBase int, opts ...Option) (*Manager, error) {
	m := &Manager{
		adapters:         adapters,
		quorum:           quorumOf(quorumBase),
		retryCount:       DefaultRetryCount,
		retryDelay:       DefaultRetryDelay,
		jitterFraction:   DefaultJitterFraction,
		clockDriftFactor: DefaultClockDriftFactor,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// quorumOf computes floor(n/2)+1, the minimum number of nodes that must
// agree for a lock to be considered held.
func quorumOf(n int) int {
	return n/2 + 1
}

// Quorum returns Q, the minimum number of nodes that must agree.
func (m *Manager) Quorum() int {
	return m.quorum
}

// NodeCount returns N, the number of node adapters this Manager acts on.
func (m *Manager) NodeCount() int {
	return len(m.adapters)
}

// nodeTimeout implements the per-node timeout rule of thumb from spec.md
// §4.3 step 2: ttl/100, or minNodeTimeout, whichever is larger.
func nodeTimeout(ttl time.Duration) time.Duration {
	t := ttl / 100
	if t < minNodeTimeout {
		return minNodeTimeout
	}
	return t
}
