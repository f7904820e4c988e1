package dlm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newAdapters(n int) ([]NodeAdapter, []*fakeAdapter) {
	fakes := make([]*fakeAdapter, n)
	adapters := make([]NodeAdapter, n)
	for i := range fakes {
		fakes[i] = newFakeAdapter()
		adapters[i] = fakes[i]
	}
	return adapters, fakes
}

func TestNew_ZeroAdapters(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	if !errors.Is(err, ErrNotEnoughMasters) {
		t.Errorf("New(nil) error = %v, want ErrNotEnoughMasters", err)
	}
}

func TestNew_Quorum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{5, 3},
		{7, 4},
	}
	for _, tt := range tests {
		adapters, _ := newAdapters(tt.n)
		m, err := New(adapters)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if got := m.Quorum(); got != tt.want {
			t.Errorf("N=%d: Quorum() = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestNewFromAttempts_NotEnoughMasters(t *testing.T) {
	t.Parallel()

	// 3 endpoints configured, only 1 usable adapter constructed: quorum
	// of 3 is 2, so 1 usable adapter is not enough.
	adapters, _ := newAdapters(1)
	_, err := NewFromAttempts(3, adapters)
	if !errors.Is(err, ErrNotEnoughMasters) {
		t.Errorf("NewFromAttempts() error = %v, want ErrNotEnoughMasters", err)
	}
}

func TestNewFromAttempts_MajorityIsEnough(t *testing.T) {
	t.Parallel()

	// 3 endpoints configured, 2 usable adapters constructed: quorum of 3
	// is 2, so this is exactly enough.
	adapters, _ := newAdapters(2)
	m, err := NewFromAttempts(3, adapters)
	if err != nil {
		t.Fatalf("NewFromAttempts() error = %v", err)
	}
	if m.Quorum() != 2 {
		t.Errorf("Quorum() = %d, want 2", m.Quorum())
	}
	if m.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", m.NodeCount())
	}
}

func TestAcquire_InvalidArgument(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(1)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()

	if _, err := m.Acquire(ctx, "", time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Acquire(empty resource) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := m.Acquire(ctx, "r", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Acquire(ttl=0) error = %v, want ErrInvalidArgument", err)
	}
	if _, err := m.Acquire(ctx, "r", -time.Second); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Acquire(ttl<0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestAcquire_SingleNodeHappyPath(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(1)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "r", 5*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if h.Resource() != "r" {
		t.Errorf("Resource() = %q, want %q", h.Resource(), "r")
	}
	if len(h.Fingerprint()) < 22 {
		t.Errorf("Fingerprint() len = %d, want >= 22", len(h.Fingerprint()))
	}
	if !h.StillValid() {
		t.Error("StillValid() = false immediately after acquisition")
	}

	wantMin := 5*time.Second - 100*time.Millisecond
	wantMax := 5 * time.Second
	if h.Validity() <= 0 || h.Validity() < wantMin || h.Validity() > wantMax {
		t.Errorf("Validity() = %v, want in (%v, %v]", h.Validity(), wantMin, wantMax)
	}
}

func TestAcquire_MultiNodeQuorum(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(3)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "r", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if h == nil {
		t.Fatal("Acquire() returned nil handle with nil error")
	}

	// A second concurrent acquire on the same resource must fail.
	m2, _ := New(adapters)
	m2.retryCount = 1 // fail fast instead of waiting out R*D
	if _, err := m2.Acquire(ctx, "r", 10*time.Second); !errors.Is(err, ErrCannotObtain) {
		t.Errorf("second Acquire() error = %v, want ErrCannotObtain", err)
	}
}

func TestAcquire_MinorityFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	adapters, fakes := newAdapters(3)
	fakes[2].setDown(true)

	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "r", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v, want success with 2/3 nodes", err)
	}

	// Release should report ReleaseIncomplete: the down node can't confirm.
	if err := m.Release(ctx, h); !errors.Is(err, ErrReleaseIncomplete) {
		t.Errorf("Release() error = %v, want ErrReleaseIncomplete", err)
	}
}

func TestAcquire_Expiry(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(1)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "r", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if h.StillValid() {
		t.Error("StillValid() = true after expiry window elapsed")
	}

	// A fresh acquire succeeds without explicit release once the
	// server-side binding has expired.
	h2, err := m.Acquire(ctx, "r", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("second Acquire() error = %v, want success after expiry", err)
	}
	if h2.Fingerprint() == h.Fingerprint() {
		t.Error("expected a fresh fingerprint on the new acquisition")
	}
}

func TestRelease_Idempotent(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(3)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	h, err := m.Acquire(ctx, "r", 5*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if err := m.Release(ctx, h); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := m.Release(ctx, h); err != nil {
		t.Fatalf("second Release() error = %v, want idempotent success", err)
	}
}

func TestRelease_NilHandle(t *testing.T) {
	t.Parallel()

	adapters, _ := newAdapters(1)
	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := m.Release(context.Background(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Release(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestAcquire_CleanupOnPartialAcquire(t *testing.T) {
	t.Parallel()

	// 5 nodes, 3 already held by someone else (quorum is 3, so 2/5 is
	// not enough): the engine must release the 2 it did acquire so a
	// fresh attempt can succeed immediately.
	adapters, fakes := newAdapters(5)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := fakes[i].TryAcquire(ctx, "r", "someone-else", time.Minute); err != nil {
			t.Fatalf("seed TryAcquire() error = %v", err)
		}
	}

	m, err := New(adapters)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.retryCount = 1 // fail fast

	if _, err := m.Acquire(ctx, "r", 2*time.Second); !errors.Is(err, ErrCannotObtain) {
		t.Fatalf("Acquire() error = %v, want ErrCannotObtain", err)
	}

	for i := 3; i < 5; i++ {
		if fakes[i].holds("r") {
			t.Errorf("node %d still holds the binding after cleanup", i)
		}
	}
}

func TestFingerprintUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		fp := NewFingerprint()
		if seen[fp] {
			t.Fatalf("duplicate fingerprint generated: %s", fp)
		}
		seen[fp] = true
	}
}
