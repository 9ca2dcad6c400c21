package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-rod/rod"

	"github.com/menuwatch/menuwatch/models"
)

// scriptedBackend counts lifecycle calls and can fail Start on demand.
type scriptedBackend struct {
	lifetime time.Duration
	startErr error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Start(context.Context) (*rod.Browser, error) {
	b.starts.Add(1)
	return nil, b.startErr
}

func (b *scriptedBackend) Stop(*rod.Browser) error {
	b.stops.Add(1)
	return nil
}

func (b *scriptedBackend) Lifetime() time.Duration { return b.lifetime }

func TestStartIsIdempotent(t *testing.T) {
	b := &scriptedBackend{lifetime: time.Minute}
	m := NewManager(b, 0, nil)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := b.starts.Load(); got != 1 {
		t.Errorf("backend starts = %d, want 1", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	b := &scriptedBackend{lifetime: time.Minute}
	m := NewManager(b, 0, nil)

	m.Start(context.Background())
	m.Stop()
	m.Stop()

	if got := b.stops.Load(); got != 1 {
		t.Errorf("backend stops = %d, want 1", got)
	}
}

func TestFreshnessAgainstLifetime(t *testing.T) {
	b := &scriptedBackend{lifetime: time.Minute}
	m := NewManager(b, 0, nil)

	if m.IsFresh(time.Second) {
		t.Error("inactive bounded session reported fresh")
	}

	m.Start(context.Background())
	if !m.IsFresh(30 * time.Second) {
		t.Error("new session with full lifetime not fresh")
	}
	if m.IsFresh(2 * time.Minute) {
		t.Error("session fresh for more than its whole lifetime")
	}
}

func TestUnboundedSessionsAlwaysFresh(t *testing.T) {
	m := NewManager(&scriptedBackend{lifetime: 0}, 0, nil)
	if !m.IsFresh(time.Hour) {
		t.Error("unbounded backend should always be fresh")
	}
}

func TestEnsureFreshReplacesAgedSession(t *testing.T) {
	b := &scriptedBackend{lifetime: 40 * time.Millisecond}
	m := NewManager(b, 0, nil)

	if err := m.EnsureFresh(context.Background(), 30*time.Millisecond); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	time.Sleep(25 * time.Millisecond)

	// under the required margin now, so the session must be replaced
	if err := m.EnsureFresh(context.Background(), 30*time.Millisecond); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if got := b.starts.Load(); got != 2 {
		t.Errorf("backend starts = %d, want 2 (replacement)", got)
	}
	if got := b.stops.Load(); got != 1 {
		t.Errorf("backend stops = %d, want 1", got)
	}
}

func TestEnsureFreshReconnectsWhenRequiredExceedsLifetime(t *testing.T) {
	// asking for more time than the ceiling can never be satisfied by
	// waiting; every call must hand out a brand-new session
	b := &scriptedBackend{lifetime: 60 * time.Millisecond}
	m := NewManager(b, 0, nil)
	m.Start(context.Background())

	if err := m.EnsureFresh(context.Background(), 65*time.Millisecond); err != nil {
		t.Fatalf("EnsureFresh: %v", err)
	}
	if got := b.starts.Load(); got != 2 {
		t.Errorf("backend starts = %d, want 2", got)
	}
	if m.RemainingTime() < 50*time.Millisecond {
		t.Errorf("reconnect did not reset the session clock: remaining = %v", m.RemainingTime())
	}
}

func TestWithRetryPassesThroughNonExpiryErrors(t *testing.T) {
	m := NewManager(&scriptedBackend{lifetime: time.Minute}, 0, nil)

	opErr := errors.New("element not found")
	calls := 0
	err := m.WithRetry(context.Background(), func() error {
		calls++
		return opErr
	}, 3, time.Second)

	if !errors.Is(err, opErr) {
		t.Fatalf("err = %v, want the operation's own error", err)
	}
	if calls != 1 {
		t.Errorf("op ran %d times, want 1 (no retry for non-expiry errors)", calls)
	}
}

func TestWithRetryReconnectsOnExpiry(t *testing.T) {
	b := &scriptedBackend{lifetime: time.Minute}
	m := NewManager(b, 0, nil)

	calls := 0
	err := m.WithRetry(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errors.New("rod: target closed")
		}
		return nil
	}, 2, time.Second)

	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 2 {
		t.Errorf("op ran %d times, want 2", calls)
	}
	if got := b.starts.Load(); got != 2 {
		t.Errorf("backend starts = %d, want 2 (initial + reconnect)", got)
	}
}

func TestWithRetryExhaustionYieldsSessionExpired(t *testing.T) {
	m := NewManager(&scriptedBackend{lifetime: time.Minute}, 0, nil)

	err := m.WithRetry(context.Background(), func() error {
		return errors.New("protocol error: connection closed")
	}, 2, time.Second)

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if models.CodeOf(err) != models.ErrCodeSessionExpired {
		t.Errorf("error code = %q, want %q", models.CodeOf(err), models.ErrCodeSessionExpired)
	}
}

func TestIsSessionExpired(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("rod: target closed"), true},
		{errors.New("Protocol error (Target.activateTarget): Session closed"), true},
		{errors.New("websocket error: bad handshake"), true},
		{errors.New("net::ERR_CONNECTION_CLOSED"), true},
		{errors.New("element not found"), false},
		{errors.New("context deadline exceeded"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsSessionExpired(tt.err); got != tt.want {
			t.Errorf("IsSessionExpired(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
