package dlm

import (
	"context"
	"math/rand"
	"time"

	"github.com/Dorico-Dynamics/txova-go-redlock/apperrors"
)

// Acquire runs up to R acquisition passes for (resource, ttl), per
// spec.md §4.4. Each failed pass triggers a best-effort release to every
// node before the next attempt; the inter-pass sleep is D seconds with up
// to ±D/2 random jitter (spec.md §4.4) to desynchronize competing
// clients. A single fingerprint is reused across retries within one
// Acquire call.
//
// Returns ErrInvalidArgument if ttl <= 0 or resource is empty.
// Returns ErrCannotObtain if all R passes fail quorum or validity.
func (m *Manager) Acquire(ctx context.Context, resource string, ttl time.Duration) (*LockHandle, error) {
	if resource == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "resource name must not be empty")
	}
	if ttl <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "ttl must be positive")
	}

	fingerprint := NewFingerprint()

	for pass := 0; pass < m.retryCount; pass++ {
		result := m.attempt(ctx, resource, fingerprint, ttl)
		if result.handle != nil {
			return result.handle, nil
		}

		m.logger.Debug("acquisition pass failed",
			"resource", resource, "pass", pass, "acquired", result.acquiredCount,
			"quorum", m.quorum, "elapsed", result.elapsed)

		m.releaseEverywhere(ctx, resource, fingerprint, ttl)

		if pass == m.retryCount-1 {
			break
		}
		if err := m.sleepBetweenPasses(ctx); err != nil {
			return nil, err
		}
	}

	m.logger.Warn("could not obtain lock after all passes",
		"resource", resource, "retry_count", m.retryCount)
	return nil, ErrCannotObtain
}

// sleepBetweenPasses sleeps D seconds (with up to ±D/2 jitter), returning
// early with ctx.Err() if the context is cancelled first.
func (m *Manager) sleepBetweenPasses(ctx context.Context) error {
	delay := m.retryDelay
	if m.jitterFraction > 0 {
		jitterRange := float64(delay) * m.jitterFraction
		jitter := time.Duration((rand.Float64()*2 - 1) * jitterRange)
		delay += jitter
		if delay < 0 {
			delay = 0
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
