// Package worker runs scrape jobs end to end: session acquisition, page
// capture, extraction, storage and job-state bookkeeping. A bounded pool
// consumes jobs from a queue; each job gets its own browser session and a
// hard wall-clock budget.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/extract"
	"github.com/menuwatch/menuwatch/metrics"
	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/scraper"
	"github.com/menuwatch/menuwatch/session"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
)

// Fetcher captures a rendered page through a managed browser session.
// *scraper.Driver is the production implementation.
type Fetcher interface {
	Capture(ctx context.Context, mgr *session.Manager, url string) (*scraper.Capture, error)
}

// Notifier receives job and price events. *alert.Notifier is the
// production implementation; a nil Notifier disables delivery.
type Notifier interface {
	JobCompleted(snap models.JobSnapshot)
	PriceAlerts(jobID string, alerts []store.PriceAlert)
}

// Orchestrator executes one scrape job at a time per worker.
type Orchestrator struct {
	cfg        config.ScraperConfig
	sessionCfg config.SessionConfig
	tracker    *tracker.Tracker
	menus      *store.MenuStore
	sources    *store.SourceRegistry
	mapper     store.CategoryMapper
	fetch      Fetcher
	newSession func() *session.Manager
	met        *metrics.Metrics
	notify     Notifier
	log        *slog.Logger
}

// NewOrchestrator wires the scrape pipeline. met and notify may be nil.
func NewOrchestrator(
	cfg config.ScraperConfig,
	sessionCfg config.SessionConfig,
	tr *tracker.Tracker,
	menus *store.MenuStore,
	sources *store.SourceRegistry,
	mapper store.CategoryMapper,
	fetch Fetcher,
	newSession func() *session.Manager,
	met *metrics.Metrics,
	notify Notifier,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		cfg:        cfg,
		sessionCfg: sessionCfg,
		tracker:    tr,
		menus:      menus,
		sources:    sources,
		mapper:     mapper,
		fetch:      fetch,
		newSession: newSession,
		met:        met,
		notify:     notify,
		log:        log,
	}
}

// Run executes one job to a terminal state. The job's whole lifecycle,
// including session setup and retries, shares one wall-clock budget; when
// that budget expires the job lands in the timeout state, which is
// distinct from an ordinary failure.
func (o *Orchestrator) Run(ctx context.Context, jobID string) {
	job, ok := o.tracker.Get(jobID)
	if !ok {
		o.log.Warn("job vanished before execution", "job_id", jobID)
		return
	}
	if !o.tracker.MarkRunning(jobID) {
		o.log.Warn("job not in pending state, skipping", "job_id", jobID, "state", job.State)
		return
	}

	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.JobTimeout)
	defer cancel()

	result, err := o.scrape(ctx, job)
	elapsed := time.Since(started)

	switch {
	case err != nil && isTimeout(ctx, err):
		msg := fmt.Sprintf("Scrape exceeded the %s budget and was stopped.", o.cfg.JobTimeout)
		o.finish(jobID, models.StateTimeout, 0, msg, elapsed)
	case err != nil:
		o.finish(jobID, models.StateFailed, 0, userFacingMessage(err), elapsed)
	case !result.Success:
		o.finish(jobID, models.StateFailed, 0, result.ErrorMessage, elapsed)
	default:
		o.storeResult(jobID, result)
		o.finish(jobID, models.StateSuccess, len(result.Items), "", elapsed)
	}
}

// scrape captures the page through a fresh session, parses it and wraps
// the outcome as a ScrapeResult, whose construction enforces that
// success means a non-empty item list. The session is always released
// before returning.
func (o *Orchestrator) scrape(ctx context.Context, job models.JobSnapshot) (models.ScrapeResult, error) {
	extractor, ok := extract.ForPlatform(job.Platform)
	if !ok {
		return models.ScrapeResult{}, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("no extractor for platform %q", job.Platform), nil)
	}

	mgr := o.newSession()
	defer mgr.Stop()

	var capture *scraper.Capture
	err := mgr.WithRetry(ctx, func() error {
		c, err := o.fetch.Capture(ctx, mgr, job.URL)
		if err != nil {
			return err
		}
		capture = c
		return nil
	}, o.sessionCfg.MaxRetries, o.sessionCfg.RequiredTime)
	if err != nil {
		return models.ScrapeResult{}, err
	}

	result := models.BuildResult(job.SourceID, job.Platform, extractor.Parse(capture.HTML),
		"The page loaded but no menu items could be extracted. The site layout may have changed.")
	o.log.Info("extraction finished",
		"job_id", job.JobID,
		"platform", result.Platform,
		"items", len(result.Items),
		"success", result.Success,
		"page_title", capture.Title)
	return result, nil
}

// storeResult persists a successful result's menu, maps categories and
// fans out alerts.
func (o *Orchestrator) storeResult(jobID string, result models.ScrapeResult) {
	if o.mapper != nil {
		for i := range result.Items {
			if result.Items[i].Category != "" {
				result.Items[i].Category = o.mapper.Map(result.Items[i].Category)
			}
		}
	}

	sum := o.menus.ReplaceMenu(result.Source, result.Platform, result.Items)
	o.sources.TouchScraped(result.Source, result.ScrapedAt)
	o.met.AddItems(len(result.Items))
	o.met.AddAlerts(len(sum.Alerts))

	if o.notify != nil && len(sum.Alerts) > 0 {
		o.notify.PriceAlerts(jobID, sum.Alerts)
	}
}

func (o *Orchestrator) finish(jobID string, state models.ScrapeState, items int, errMsg string, elapsed time.Duration) {
	o.tracker.Complete(jobID, state, items, errMsg)
	o.met.IncJob(string(state))
	o.met.ObserveScrape(elapsed)

	o.log.Info("job finished",
		"job_id", jobID,
		"state", state,
		"items", items,
		"elapsed", elapsed.Round(time.Millisecond),
		"error", errMsg)

	if o.notify != nil {
		if snap, ok := o.tracker.Get(jobID); ok {
			o.notify.JobCompleted(snap)
		}
	}
}

// isTimeout distinguishes the job budget expiring from other failures.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
