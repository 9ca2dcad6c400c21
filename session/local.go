package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
)

// LocalBackend launches a Chromium process on this machine. There is no
// provider ceiling, so sessions never expire on a clock.
type LocalBackend struct {
	headless  bool
	noSandbox bool
	bin       string

	launcher *launcher.Launcher
}

// NewLocalBackend builds a LocalBackend from config.
func NewLocalBackend(cfg config.SessionConfig) *LocalBackend {
	return &LocalBackend{
		headless:  cfg.Headless,
		noSandbox: cfg.NoSandbox,
		bin:       cfg.BrowserBin,
	}
}

func (b *LocalBackend) Name() string { return "local" }

// Lifetime is zero: a local browser has no practical session ceiling.
func (b *LocalBackend) Lifetime() time.Duration { return 0 }

func (b *LocalBackend) Start(ctx context.Context) (*rod.Browser, error) {
	l := launcher.New().
		Headless(b.headless).
		NoSandbox(b.noSandbox)

	if b.bin != "" {
		l = l.Bin(b.bin)
	}

	// Low-profile launch flags; delivery platforms fingerprint automation.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeConnection,
			"failed to launch local browser", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeConnection,
			"failed to connect to local browser", err)
	}

	b.launcher = l
	slog.Info("local browser launched", "headless", b.headless)
	return browser, nil
}

// Stop closes the browser and reaps the Chromium process.
func (b *LocalBackend) Stop(browser *rod.Browser) error {
	var err error
	if browser != nil {
		err = browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}
