// Package sched runs the periodic scrape sweep: on a cron schedule it
// enqueues one job per enabled source and platform URL.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
)

// Enqueuer accepts job ids for execution. *worker.Pool is the production
// implementation.
type Enqueuer interface {
	Enqueue(jobID string) error
}

// Scheduler ticks once a minute and fires a sweep whenever the cron
// expression has come due since the last run.
type Scheduler struct {
	expr    *cronexpr.Expression
	sources *store.SourceRegistry
	tracker *tracker.Tracker
	pool    Enqueuer
	log     *slog.Logger

	mu           sync.Mutex
	running      bool
	lastRun      time.Time
	lastEnqueued int

	stop chan struct{}
	done chan struct{}
}

// New parses the cron spec and wires the sweep dependencies.
func New(cfg config.SchedConfig, sources *store.SourceRegistry, tr *tracker.Tracker, pool Enqueuer, log *slog.Logger) (*Scheduler, error) {
	expr, err := cronexpr.Parse(cfg.CronSpec)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			"invalid cron expression "+cfg.CronSpec, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		expr:    expr,
		sources: sources,
		tracker: tr,
		pool:    pool,
		log:     log,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the minute ticker. The schedule anchor is start time:
// the first sweep fires at the first cron occurrence after Start.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.running = true
	s.lastRun = time.Now()
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case now := <-ticker.C:
				s.tick(now)
			}
		}
	}()
	s.log.Info("scheduler started", "next_run", s.expr.Next(time.Now()).Format(time.RFC3339))
}

// Stop halts the ticker and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()

	if !isDue(s.expr, last, now) {
		return
	}
	enqueued := s.Sweep()

	s.mu.Lock()
	s.lastRun = now
	s.lastEnqueued = enqueued
	s.mu.Unlock()
}

// isDue reports whether the next cron occurrence after last has passed.
func isDue(expr *cronexpr.Expression, last, now time.Time) bool {
	next := expr.Next(last)
	return !next.IsZero() && !next.After(now)
}

// Sweep enqueues a job for every enabled source and platform URL and
// returns how many it handed off. A full queue ends the sweep early;
// the next occurrence retries. A job whose enqueue fails is completed
// failed immediately so it never lingers in the active set with no
// consumer.
func (s *Scheduler) Sweep() int {
	enqueued := 0
	for _, src := range s.sources.Enabled() {
		for platform, url := range src.PlatformURLs {
			if url == "" {
				continue
			}
			job := s.tracker.Create(src.Type, src.ID, platform, url)
			if err := s.pool.Enqueue(job.JobID); err != nil {
				s.tracker.Complete(job.JobID, models.StateFailed, 0, "scrape queue is full")
				s.log.Warn("sweep stopped, queue full",
					"source_id", src.ID, "enqueued", enqueued)
				return enqueued
			}
			enqueued++
		}
	}
	s.log.Info("scheduled sweep enqueued", "jobs", enqueued)
	return enqueued
}

// Status snapshots scheduler state for the API.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.SchedulerStatus{
		Running:      s.running,
		LastEnqueued: s.lastEnqueued,
	}
	if !s.lastRun.IsZero() {
		st.LastRun = s.lastRun.UTC().Format(time.RFC3339)
	}
	if s.running {
		st.NextRun = s.expr.Next(time.Now()).UTC().Format(time.RFC3339)
	}
	return st
}
