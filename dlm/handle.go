package dlm

import "time"

// LockHandle is the opaque object returned on a successful acquisition. It
// is immutable and carries no reference back to the Manager that produced
// it; release it by passing it to Manager.Release.
type LockHandle struct {
	resource    string
	fingerprint string
	validity    time.Duration
	acquiredAt  time.Time
}

// Resource returns the name of the locked resource.
func (h *LockHandle) Resource() string {
	return h.resource
}

// Fingerprint returns the random token proving ownership of this handle.
// It is opaque; no structure is assumed by any other component.
func (h *LockHandle) Fingerprint() string {
	return h.fingerprint
}

// Validity returns the effective validity window computed at acquisition
// time (spec.md §4.3 step 5): ttl minus elapsed acquisition cost minus the
// clock-drift allowance. Always positive for a handle that was returned to
// a caller.
func (h *LockHandle) Validity() time.Duration {
	return h.validity
}

// AcquiredAt returns the wall-clock time the lock attempt completed.
func (h *LockHandle) AcquiredAt() time.Time {
	return h.acquiredAt
}

// StillValid reports whether the caller may still assume mutual exclusion,
// i.e. whether less than Validity() has elapsed since AcquiredAt().
//
// This is a lower bound on safety, not a guarantee: scheduling delays
// between this check and any subsequent critical-section operation only
// shrink the true remaining window further. Callers must treat it as
// advisory.
func (h *LockHandle) StillValid() bool {
	return time.Since(h.acquiredAt) < h.validity
}
