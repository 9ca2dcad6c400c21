package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/metrics"
	"github.com/menuwatch/menuwatch/models"
)

// Manager owns one browser session for one in-flight scrape. It tracks
// session age against the backend's lifetime ceiling and replaces (never
// repairs) a session once it is too old or observed dead.
//
// A Manager must not be shared across concurrent scrapes.
type Manager struct {
	backend     Backend
	settleDelay time.Duration
	met         *metrics.Metrics

	mu        sync.Mutex
	browser   *rod.Browser
	active    bool
	createdAt time.Time
}

// NewManager wraps a backend. met may be nil.
func NewManager(backend Backend, settleDelay time.Duration, met *metrics.Metrics) *Manager {
	return &Manager{
		backend:     backend,
		settleDelay: settleDelay,
		met:         met,
	}
}

// Factory builds a fresh Manager per scrape job, choosing the remote
// backend when a provider token is configured and the local browser
// otherwise. Each job owns its Manager exclusively.
func Factory(cfg config.SessionConfig, met *metrics.Metrics) func() *Manager {
	return func() *Manager {
		var backend Backend
		if cfg.ProviderToken != "" {
			backend = NewRemoteBackend(cfg)
		} else {
			backend = NewLocalBackend(cfg)
		}
		return NewManager(backend, cfg.SettleDelay, met)
	}
}

// Start establishes a session if none is active.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	if m.active {
		return nil
	}
	browser, err := m.backend.Start(ctx)
	if err != nil {
		return err
	}
	m.browser = browser
	m.active = true
	m.createdAt = time.Now()
	return nil
}

// Browser returns the live browser handle, or nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser
}

// RemainingTime estimates how long until the provider expires the
// session. Returns 0 when no session is active; local sessions report
// their full (unbounded) allowance as a very large duration.
func (m *Manager) RemainingTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remainingLocked()
}

func (m *Manager) remainingLocked() time.Duration {
	if !m.active {
		return 0
	}
	lifetime := m.backend.Lifetime()
	if lifetime == 0 {
		return time.Duration(1<<62 - 1)
	}
	remaining := lifetime - time.Since(m.createdAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFresh reports whether at least required time remains. Local sessions
// are always fresh; a provider session with no connection is never fresh.
func (m *Manager) IsFresh(required time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backend.Lifetime() == 0 {
		return true
	}
	if !m.active {
		return false
	}
	return m.remainingLocked() >= required
}

// EnsureFresh guarantees the session has at least required time left,
// reconnecting when it does not. Callers must invoke this before any
// operation whose worst case could outlive the current session.
func (m *Manager) EnsureFresh(ctx context.Context, required time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend.Lifetime() == 0 {
		return m.startLocked(ctx)
	}
	if !m.active {
		return m.startLocked(ctx)
	}

	remaining := m.remainingLocked()
	if remaining >= required {
		return nil
	}

	slog.Info("session too old, reconnecting",
		"remaining", remaining, "required", required)
	m.stopLocked()
	if err := m.settle(ctx); err != nil {
		return err
	}
	if err := m.startLocked(ctx); err != nil {
		return err
	}
	m.met.IncSessionReconnects()
	return nil
}

// WithRetry ensures freshness, then runs op. Errors matching a
// session-expiry signature trigger a reconnect and retry up to
// maxRetries; anything else is returned immediately. Exhausting the
// retry budget yields a SessionExpired error distinct from op's own
// failures.
func (m *Manager) WithRetry(ctx context.Context, op func() error, maxRetries int, required time.Duration) error {
	if err := m.EnsureFresh(ctx, required); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsSessionExpired(err) {
			return err
		}
		lastErr = err

		if attempt < maxRetries {
			slog.Warn("session expired during operation, reconnecting",
				"attempt", attempt+1, "error", err)
			m.mu.Lock()
			m.stopLocked()
			if serr := m.settle(ctx); serr != nil {
				m.mu.Unlock()
				return serr
			}
			serr := m.startLocked(ctx)
			m.mu.Unlock()
			if serr != nil {
				return serr
			}
			m.met.IncSessionReconnects()
		}
	}

	return models.NewScrapeError(models.ErrCodeSessionExpired,
		fmt.Sprintf("session expired after %d attempts", maxRetries+1), lastErr)
}

// settle pauses briefly between stop and start to avoid tripping the
// provider's rate limiter. Honors context cancellation. Callers hold mu.
func (m *Manager) settle(ctx context.Context) error {
	if m.settleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return models.NewScrapeError(models.ErrCodeConnection, "reconnect canceled", ctx.Err())
	case <-time.After(m.settleDelay):
		return nil
	}
}

// Stop releases the session. Idempotent; close-time errors are swallowed
// so teardown never masks an operation's own failure.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if !m.active {
		return
	}
	if err := m.backend.Stop(m.browser); err != nil {
		slog.Warn("session close failed", "backend", m.backend.Name(), "error", err)
	}
	m.browser = nil
	m.active = false
	m.createdAt = time.Time{}
}
