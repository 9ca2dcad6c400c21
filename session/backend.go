// Package session owns the browser connection lifecycle: establishing a
// remote or local browser, tracking session age against the provider's
// hard ceiling, and recovering from mid-operation expiry.
package session

import (
	"context"
	"time"

	"github.com/go-rod/rod"
)

// Backend is the capability a session manager drives. Two variants exist:
// RemoteBackend (rate/time-limited provider over CDP websocket) and
// LocalBackend (locally launched browser, effectively unbounded).
type Backend interface {
	// Name identifies the backend ("remote" or "local") in logs.
	Name() string

	// Start establishes a browser connection. Remote backends retry
	// transient failures with exponential backoff.
	Start(ctx context.Context) (*rod.Browser, error)

	// Stop releases the connection. Best-effort; errors are reported
	// but callers are expected to swallow them.
	Stop(browser *rod.Browser) error

	// Lifetime is the provider's advertised session ceiling.
	// Zero means no practical limit.
	Lifetime() time.Duration
}
