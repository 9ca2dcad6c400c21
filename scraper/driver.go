// Package scraper drives a live browser session through one page capture:
// navigate, humanlike interaction to trigger lazy-loaded content, and
// rendered-markup extraction, all within the session's remaining time.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/session"
)

// Capture is the rendered output of one page visit.
type Capture struct {
	// HTML is the fully rendered page markup.
	HTML string

	// Title is the document title.
	Title string

	// Heading is the first h1 text, used as a restaurant-name fallback.
	Heading string
}

// Driver performs budget-aware page captures on a session's browser.
type Driver struct {
	cfg config.ScraperConfig
}

// NewDriver creates a Driver.
func NewDriver(cfg config.ScraperConfig) *Driver {
	return &Driver{cfg: cfg}
}

// interactionPlan decides which non-essential steps run, given how much
// session time remains. As remaining time shrinks the driver sheds cookie
// dismissal first, then scrolling, so the markup capture always lands
// before expiry.
type interactionPlan struct {
	dismissCookies bool
	scrollCycles   int
}

// planInteraction shapes the interaction steps around remaining session
// time. maxCycles is the configured scroll ceiling.
func planInteraction(remaining time.Duration, maxCycles int) interactionPlan {
	switch {
	case remaining < 10*time.Second:
		return interactionPlan{dismissCookies: false, scrollCycles: 0}
	case remaining < 20*time.Second:
		return interactionPlan{dismissCookies: false, scrollCycles: maxCycles / 4}
	case remaining < 35*time.Second:
		return interactionPlan{dismissCookies: true, scrollCycles: maxCycles / 2}
	default:
		return interactionPlan{dismissCookies: true, scrollCycles: maxCycles}
	}
}

// Capture navigates to targetURL on the manager's session and returns the
// rendered markup plus quick-access metadata.
//
// Lifecycle:
//
//  1. Create page             – fresh tab on the session browser
//  2. DEFER: close page       – release on all exit paths
//  3. Stealth + disguise      – before navigation, or it has no effect
//  4. Navigate                – bounded by NavigationTimeout
//  5. Settle                  – DOM-stable wait, best-effort
//  6. Cookie banner           – best-effort, skipped when time is short
//  7. Scroll cycles           – capped, shortened or skipped per budget
//  8. Extract                 – HTML + title + h1, must run before expiry
func (d *Driver) Capture(ctx context.Context, mgr *session.Manager, targetURL string) (*Capture, error) {
	browser := mgr.Browser()
	if browser == nil {
		return nil, models.NewScrapeError(models.ErrCodeConnection, "no active browser session", nil)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, categorizeNavErr(err, "failed to open page")
	}
	// Close with the original page reference so cleanup succeeds even if
	// the request context has already expired.
	defer func() { _ = page.Close() }()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", err)
	}
	applyDisguise(page)

	navCtx, cancel := context.WithTimeout(ctx, d.cfg.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeNavErr(err, "navigation to target URL failed")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not stabilize, proceeding with current state", "error", err)
	}

	plan := planInteraction(mgr.RemainingTime(), d.cfg.ScrollCycles)
	if plan.dismissCookies {
		dismissCookieBanner(p)
	}
	if plan.scrollCycles > 0 {
		d.scrollForLazyContent(ctx, p, plan.scrollCycles)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, categorizeNavErr(err, "failed to extract page HTML")
	}

	return &Capture{
		HTML:    html,
		Title:   evalStringOrEmpty(p, `() => document.title`),
		Heading: evalStringOrEmpty(p, `() => { const h = document.querySelector("h1"); return h ? h.textContent.trim() : ""; }`),
	}, nil
}

// dismissCookieBanner clicks common consent-accept buttons. Non-fatal if
// the banner is absent or the click fails.
func dismissCookieBanner(p *rod.Page) {
	const js = `() => {
		const byTestID = document.querySelector('[data-testid="cookie-banner-accept"]');
		if (byTestID) { byTestID.click(); return true; }
		const labels = ["accept", "got it", "agree"];
		for (const btn of document.querySelectorAll("button")) {
			const text = (btn.textContent || "").trim().toLowerCase();
			if (labels.some(l => text.startsWith(l))) { btn.click(); return true; }
		}
		return false;
	}`
	if _, err := p.Eval(js); err != nil {
		slog.Debug("cookie banner dismissal failed", "error", err)
	}
}

// scrollForLazyContent scrolls down in fixed steps, pausing between steps
// so lazy-loaded items render. Stops early when the page stops growing or
// the context is done, then returns to the top.
func (d *Driver) scrollForLazyContent(ctx context.Context, p *rod.Page, maxCycles int) {
	position := 0
	for i := 0; i < maxCycles; i++ {
		position += d.cfg.ScrollStep
		if _, err := p.Eval(`(y) => window.scrollTo(0, y)`, position); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.cfg.ScrollSettle):
		}

		res, err := p.Eval(`() => document.body.scrollHeight`)
		if err != nil {
			return
		}
		if position >= res.Value.Int() {
			break
		}
	}
	_, _ = p.Eval(`() => window.scrollTo(0, 0)`)
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors (useful for optional metadata).
func evalStringOrEmpty(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeNavErr wraps raw navigation errors into typed ScrapeErrors so
// the orchestrator can tell timeouts from hard failures.
func categorizeNavErr(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "capture canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
