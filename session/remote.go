package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
)

// RemoteBackend connects to a rate-limited remote browser provider over a
// CDP websocket. Free-tier providers cap each session at a fixed lifetime
// (typically 60s), so every connection is disposable.
type RemoteBackend struct {
	endpoint  string
	token     string
	lifetime  time.Duration
	attempts  int
	baseDelay time.Duration
}

// NewRemoteBackend builds a RemoteBackend from config.
func NewRemoteBackend(cfg config.SessionConfig) *RemoteBackend {
	return &RemoteBackend{
		endpoint:  cfg.ProviderURL,
		token:     cfg.ProviderToken,
		lifetime:  cfg.Lifetime,
		attempts:  cfg.ConnectAttempts,
		baseDelay: cfg.ConnectBaseDelay,
	}
}

func (b *RemoteBackend) Name() string { return "remote" }

func (b *RemoteBackend) Lifetime() time.Duration { return b.lifetime }

// controlURL assembles the provider websocket URL with the token and the
// session timeout the provider should advertise.
func (b *RemoteBackend) controlURL() string {
	q := url.Values{}
	q.Set("token", b.token)
	q.Set("timeout", fmt.Sprintf("%d", b.lifetime.Milliseconds()))
	return b.endpoint + "?" + q.Encode()
}

// Start connects with bounded retries and exponential backoff. Rate-limit
// responses are retried until the budget is exhausted, then surfaced as a
// distinct RateLimited error; configuration errors fail immediately.
func (b *RemoteBackend) Start(ctx context.Context) (*rod.Browser, error) {
	var lastErr error

	for attempt := 0; attempt < b.attempts; attempt++ {
		if attempt > 0 {
			delay := b.baseDelay * (1 << (attempt - 1))
			slog.Info("retrying provider connection", "attempt", attempt+1, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, models.NewScrapeError(models.ErrCodeConnection, "connection canceled", ctx.Err())
			case <-time.After(delay):
			}
		}

		browser := rod.New().ControlURL(b.controlURL()).Context(ctx)
		err := browser.Connect()
		if err == nil {
			slog.Info("connected to browser provider", "lifetime", b.lifetime)
			return browser, nil
		}
		lastErr = err

		switch classifyConnectErr(err) {
		case connectErrRateLimited:
			slog.Warn("provider rate limited", "attempt", attempt+1, "error", err)
			continue
		case connectErrConfig:
			return nil, models.NewScrapeError(models.ErrCodeConnection,
				"invalid browser provider configuration, check the token", err)
		default:
			slog.Warn("provider connection failed", "attempt", attempt+1, "error", err)
			continue
		}
	}

	if classifyConnectErr(lastErr) == connectErrRateLimited {
		return nil, models.NewScrapeError(models.ErrCodeRateLimited,
			"browser provider rate limit exceeded, try again shortly", lastErr)
	}
	return nil, models.NewScrapeError(models.ErrCodeConnection,
		"failed to connect to browser provider", lastErr)
}

// Stop closes the websocket. The remote browser process itself belongs to
// the provider and is reclaimed on its side.
func (b *RemoteBackend) Stop(browser *rod.Browser) error {
	if browser == nil {
		return nil
	}
	return browser.Close()
}

type connectErrKind int

const (
	connectErrTransient connectErrKind = iota
	connectErrRateLimited
	connectErrConfig
)

// classifyConnectErr maps a provider connection failure to a retry
// decision. This is the single source of truth for connect-time
// classification; keep new patterns here.
func classifyConnectErr(err error) connectErrKind {
	if err == nil {
		return connectErrTransient
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "too many requests"):
		return connectErrRateLimited
	case strings.Contains(msg, "400"), strings.Contains(msg, "bad request"),
		strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "forbidden"):
		return connectErrConfig
	default:
		return connectErrTransient
	}
}
