package dlm

import (
	"context"
	"sync"
)

// Release issues a compare-and-delete for h to every node (spec.md §4.6),
// consuming the handle. The overall outcome is success if every node
// returned Released or NotOwned; it is ErrReleaseIncomplete if any node
// returned TransportError, in which case the binding on that node will
// clear when its server-side expiry fires.
//
// Release is idempotent: releasing an already-released handle observes
// NotOwned everywhere and still returns success.
func (m *Manager) Release(ctx context.Context, h *LockHandle) error {
	if h == nil {
		return ErrInvalidArgument
	}

	// h carries no raw ttl (only the validity window derived from it), but
	// validity is always <= the original ttl, so sizing the per-node
	// deadline off it is at least as conservative as engine.go's
	// nodeTimeout(ttl) call for the same attempt.
	perNodeTimeout := nodeTimeout(h.validity)

	var (
		mu         sync.Mutex
		incomplete bool
		wg         sync.WaitGroup
	)
	wg.Add(len(m.adapters))
	for i, adapter := range m.adapters {
		i, adapter := i, adapter
		go func() {
			defer wg.Done()
			nodeCtx, cancel := context.WithTimeout(ctx, perNodeTimeout)
			defer cancel()
			result, err := adapter.Release(nodeCtx, h.resource, h.fingerprint)
			if err != nil || result == ReleaseTransportError {
				mu.Lock()
				incomplete = true
				mu.Unlock()
				m.logger.Warn("release could not confirm deletion on node",
					"resource", h.resource, "node", i, "error", err)
				return
			}
		}()
	}
	wg.Wait()

	if incomplete {
		return ErrReleaseIncomplete
	}
	return nil
}
