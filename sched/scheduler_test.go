package sched

import (
	"context"
	"testing"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
)

type captureEnqueuer struct {
	jobIDs []string
	full   bool
}

func (c *captureEnqueuer) Enqueue(jobID string) error {
	if c.full {
		return models.NewScrapeError(models.ErrCodeRateLimited, "queue full", nil)
	}
	c.jobIDs = append(c.jobIDs, jobID)
	return nil
}

func newScheduler(t *testing.T, pool Enqueuer) (*Scheduler, *store.SourceRegistry, *tracker.Tracker) {
	t.Helper()

	sources := store.NewSourceRegistry()
	tr, err := tracker.New(100, nil)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	s, err := New(config.SchedConfig{CronSpec: "0 6 * * *"}, sources, tr, pool, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, sources, tr
}

func TestNewRejectsBadCronSpec(t *testing.T) {
	_, sources, _ := newScheduler(t, &captureEnqueuer{})
	tr, _ := tracker.New(10, nil)

	if _, err := New(config.SchedConfig{CronSpec: "not a cron"}, sources, tr, &captureEnqueuer{}, nil); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestIsDue(t *testing.T) {
	expr := cronexpr.MustParse("0 6 * * *")
	day := func(h int) time.Time {
		return time.Date(2026, 3, 10, h, 0, 0, 0, time.UTC)
	}

	if isDue(expr, day(5), day(5).Add(30*time.Minute)) {
		t.Error("due before the 06:00 occurrence")
	}
	if !isDue(expr, day(5), day(7)) {
		t.Error("not due after the 06:00 occurrence passed")
	}
	if isDue(expr, day(7), day(8)) {
		t.Error("due twice for the same occurrence")
	}
}

func TestSweepEnqueuesEnabledSources(t *testing.T) {
	pool := &captureEnqueuer{}
	s, sources, tr := newScheduler(t, pool)

	sources.Create(models.SourceRequest{
		Name: "Both Platforms",
		Type: "competitor",
		PlatformURLs: map[string]string{
			models.PlatformUberEats: "https://example.com/ue",
			models.PlatformDoorDash: "https://example.com/dd",
		},
	})
	off := false
	sources.Create(models.SourceRequest{
		Name:            "Disabled",
		Type:            "competitor",
		PlatformURLs:    map[string]string{models.PlatformUberEats: "https://example.com/off"},
		ScrapingEnabled: &off,
	})
	sources.Create(models.SourceRequest{
		Name:         "Empty URL",
		Type:         "operator",
		PlatformURLs: map[string]string{models.PlatformUberEats: ""},
	})

	if got := s.Sweep(); got != 2 {
		t.Fatalf("enqueued = %d, want 2", got)
	}
	if len(pool.jobIDs) != 2 {
		t.Fatalf("pool received %d jobs, want 2", len(pool.jobIDs))
	}
	for _, id := range pool.jobIDs {
		if _, ok := tr.Get(id); !ok {
			t.Errorf("enqueued job %q not tracked", id)
		}
	}
}

func TestSweepStopsWhenQueueFull(t *testing.T) {
	pool := &captureEnqueuer{full: true}
	s, sources, tr := newScheduler(t, pool)

	sources.Create(models.SourceRequest{
		Name:         "Testaurant",
		Type:         "competitor",
		PlatformURLs: map[string]string{models.PlatformUberEats: "https://example.com"},
	})

	if got := s.Sweep(); got != 0 {
		t.Fatalf("enqueued = %d, want 0 with a full queue", got)
	}

	// a job the pool never accepted must not linger as pending
	if active := tr.Active(); len(active) != 0 {
		t.Fatalf("active jobs after failed sweep = %+v, want none", active)
	}
	snap, ok := tr.LatestForSource("src_1")
	if !ok {
		t.Fatal("rejected sweep job not tracked")
	}
	if snap.State != string(models.StateFailed) || snap.ErrorMessage == "" {
		t.Errorf("rejected sweep job = %+v, want failed with a message", snap)
	}
}

func TestStatusReflectsLifecycle(t *testing.T) {
	s, _, _ := newScheduler(t, &captureEnqueuer{})

	st := s.Status()
	if st.Running {
		t.Error("scheduler reported running before Start")
	}

	s.Start(context.Background())
	st = s.Status()
	if !st.Running {
		t.Error("scheduler not running after Start")
	}
	if st.NextRun == "" {
		t.Error("running scheduler missing next-run time")
	}

	s.Stop()
	if s.Status().Running {
		t.Error("scheduler still running after Stop")
	}
}
