package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Scraper   ScraperConfig
	Worker    WorkerConfig
	Tracker   TrackerConfig
	Sched     SchedConfig
	Alert     AlertConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// SessionConfig controls the browser session backends.
type SessionConfig struct {
	// ProviderToken is the remote browser provider access token.
	// When empty, a local browser is launched instead.
	ProviderToken string

	// ProviderURL is the remote provider websocket endpoint.
	ProviderURL string // default: "wss://chrome.browserless.io"

	// Lifetime is the provider's advertised session ceiling.
	Lifetime time.Duration // default: 60s

	// ConnectAttempts bounds retries when establishing a remote session.
	ConnectAttempts int // default: 3

	// ConnectBaseDelay is the exponential backoff base for connect retries.
	ConnectBaseDelay time.Duration // default: 5s

	// SettleDelay is the anti-rate-limit pause between stopping a stale
	// session and starting a fresh one.
	SettleDelay time.Duration // default: 2s

	// MaxRetries bounds mid-operation reconnects on session expiry.
	MaxRetries int // default: 2

	// RequiredTime is the minimum remaining lifetime demanded before
	// starting a page capture.
	RequiredTime time.Duration // default: 30s

	// Headless controls the local browser fallback.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// BrowserBin overrides the local Chromium binary path.
	BrowserBin string
}

// ScraperConfig controls page capture behavior.
type ScraperConfig struct {
	// NavigationTimeout is the max time for navigation alone.
	NavigationTimeout time.Duration // default: 60s

	// ScrollCycles caps the incremental scroll iterations.
	ScrollCycles int // default: 20

	// ScrollStep is the pixel distance per scroll cycle.
	ScrollStep int // default: 500

	// ScrollSettle is the pause between scroll cycles so lazy content loads.
	ScrollSettle time.Duration // default: 300ms

	// JobTimeout is the wall-clock ceiling for one whole scrape job.
	JobTimeout time.Duration // default: 180s
}

// WorkerConfig controls the background job pool.
type WorkerConfig struct {
	// Workers is the number of concurrent job consumers.
	Workers int // default: 2

	// QueueSize is the pending-job buffer before Enqueue rejects.
	QueueSize int // default: 64
}

// TrackerConfig controls job status retention.
type TrackerConfig struct {
	// MaxJobs is the number of most-recent jobs kept; oldest are evicted.
	MaxJobs int // default: 100
}

// SchedConfig controls the periodic scrape sweep.
type SchedConfig struct {
	// Enabled toggles the scheduler.
	Enabled bool // default: true

	// CronSpec is a 5-field cron expression for the sweep.
	CronSpec string // default: "0 6 * * *"
}

// AlertConfig controls webhook delivery for price alerts and job events.
type AlertConfig struct {
	// WebhookURL receives alert events; empty disables delivery.
	WebhookURL string

	// WebhookSecret signs event payloads when non-empty.
	WebhookSecret string
}

// RateLimitConfig controls per-client API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("MENUWATCH_HOST", "0.0.0.0"),
			Port: envIntOr("MENUWATCH_PORT", 8080),
			Mode: envOr("MENUWATCH_MODE", "release"),
		},
		Session: SessionConfig{
			ProviderToken:    os.Getenv("BROWSERLESS_TOKEN"),
			ProviderURL:      envOr("MENUWATCH_PROVIDER_URL", "wss://chrome.browserless.io"),
			Lifetime:         envDurationOr("MENUWATCH_SESSION_LIFETIME", 60*time.Second),
			ConnectAttempts:  envIntOr("MENUWATCH_CONNECT_ATTEMPTS", 3),
			ConnectBaseDelay: envDurationOr("MENUWATCH_CONNECT_BASE_DELAY", 5*time.Second),
			SettleDelay:      envDurationOr("MENUWATCH_SETTLE_DELAY", 2*time.Second),
			MaxRetries:       envIntOr("MENUWATCH_SESSION_RETRIES", 2),
			RequiredTime:     envDurationOr("MENUWATCH_REQUIRED_TIME", 30*time.Second),
			Headless:         envBoolOr("MENUWATCH_HEADLESS", true),
			NoSandbox:        envBoolOr("MENUWATCH_NO_SANDBOX", true),
			BrowserBin:       os.Getenv("MENUWATCH_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			NavigationTimeout: envDurationOr("MENUWATCH_NAV_TIMEOUT", 60*time.Second),
			ScrollCycles:      envIntOr("MENUWATCH_SCROLL_CYCLES", 20),
			ScrollStep:        envIntOr("MENUWATCH_SCROLL_STEP", 500),
			ScrollSettle:      envDurationOr("MENUWATCH_SCROLL_SETTLE", 300*time.Millisecond),
			JobTimeout:        envDurationOr("MENUWATCH_JOB_TIMEOUT", 180*time.Second),
		},
		Worker: WorkerConfig{
			Workers:   envIntOr("MENUWATCH_WORKERS", 2),
			QueueSize: envIntOr("MENUWATCH_QUEUE_SIZE", 64),
		},
		Tracker: TrackerConfig{
			MaxJobs: envIntOr("MENUWATCH_MAX_JOBS", 100),
		},
		Sched: SchedConfig{
			Enabled:  envBoolOr("MENUWATCH_SCHED_ENABLED", true),
			CronSpec: envOr("MENUWATCH_SCHED_CRON", "0 6 * * *"),
		},
		Alert: AlertConfig{
			WebhookURL:    os.Getenv("MENUWATCH_WEBHOOK_URL"),
			WebhookSecret: os.Getenv("MENUWATCH_WEBHOOK_SECRET"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("MENUWATCH_RATE_RPS", 5.0),
			Burst:             envIntOr("MENUWATCH_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("MENUWATCH_LOG_LEVEL", "info"),
			Format: envOr("MENUWATCH_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
