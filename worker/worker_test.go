package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-rod/rod"

	"github.com/menuwatch/menuwatch/config"
	"github.com/menuwatch/menuwatch/models"
	"github.com/menuwatch/menuwatch/scraper"
	"github.com/menuwatch/menuwatch/session"
	"github.com/menuwatch/menuwatch/store"
	"github.com/menuwatch/menuwatch/tracker"
)

const menuPage = `<html><head><script type="application/ld+json">
{"@type": "Restaurant", "hasMenu": {"@type": "Menu", "hasMenuSection": [
  {"@type": "MenuSection", "name": "Burgers", "hasMenuItem": [
    {"@type": "MenuItem", "name": "Classic Burger", "offers": {"@type": "Offer", "price": "11.99"}},
    {"@type": "MenuItem", "name": "Fries", "offers": {"@type": "Offer", "price": "4.99"}}
  ]}
]}}
</script></head><body></body></html>`

type fakeBackend struct{}

func (fakeBackend) Name() string                                { return "fake" }
func (fakeBackend) Start(context.Context) (*rod.Browser, error) { return nil, nil }
func (fakeBackend) Stop(*rod.Browser) error                     { return nil }
func (fakeBackend) Lifetime() time.Duration                     { return 0 }

// fakeFetcher scripts Capture outcomes per call.
type fakeFetcher struct {
	calls   atomic.Int32
	capture func(ctx context.Context, call int) (*scraper.Capture, error)
}

func (f *fakeFetcher) Capture(ctx context.Context, _ *session.Manager, _ string) (*scraper.Capture, error) {
	return f.capture(ctx, int(f.calls.Add(1)))
}

type testHarness struct {
	tracker *tracker.Tracker
	menus   *store.MenuStore
	sources *store.SourceRegistry
	orch    *Orchestrator
	source  store.Source
}

func newHarness(t *testing.T, fetch Fetcher, jobTimeout time.Duration) *testHarness {
	t.Helper()

	tr, err := tracker.New(100, nil)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	menus := store.NewMenuStore(nil)
	sources := store.NewSourceRegistry()
	src, err := sources.Create(models.SourceRequest{Name: "Testaurant", Type: "competitor"})
	if err != nil {
		t.Fatalf("source: %v", err)
	}

	orch := NewOrchestrator(
		config.ScraperConfig{JobTimeout: jobTimeout},
		config.SessionConfig{MaxRetries: 2, RequiredTime: 30 * time.Second},
		tr, menus, sources, store.StaticMapper{}, fetch,
		func() *session.Manager { return session.NewManager(fakeBackend{}, 0, nil) },
		nil, nil, nil,
	)
	return &testHarness{tracker: tr, menus: menus, sources: sources, orch: orch, source: src}
}

func (h *testHarness) runJob(t *testing.T, platform, url string) models.JobSnapshot {
	t.Helper()
	job := h.tracker.Create(h.source.Type, h.source.ID, platform, url)
	h.orch.Run(context.Background(), job.JobID)

	got, ok := h.tracker.Get(job.JobID)
	if !ok {
		t.Fatalf("job %s missing after run", job.JobID)
	}
	return got
}

func TestRunSuccessStoresMenu(t *testing.T) {
	fetch := &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		return &scraper.Capture{HTML: menuPage, Title: "Testaurant"}, nil
	}}
	h := newHarness(t, fetch, time.Minute)

	got := h.runJob(t, models.PlatformUberEats, "https://example.com/menu")

	if got.State != string(models.StateSuccess) {
		t.Fatalf("state = %q (%s), want success", got.State, got.ErrorMessage)
	}
	if got.ItemsScraped != 2 {
		t.Errorf("items scraped = %d, want 2", got.ItemsScraped)
	}

	menu := h.menus.Menu(h.source.ID, models.PlatformUberEats)
	if len(menu) != 2 {
		t.Fatalf("stored menu = %d items, want 2", len(menu))
	}
	if menu[0].Category != "Mains" {
		t.Errorf("category = %q, want mapped canonical %q", menu[0].Category, "Mains")
	}

	src, _ := h.sources.Get(h.source.ID)
	if src.LastScrapedAt.IsZero() {
		t.Error("source last-scraped timestamp not updated")
	}
}

func TestRunTimeoutLandsInTimeoutState(t *testing.T) {
	fetch := &fakeFetcher{capture: func(ctx context.Context, _ int) (*scraper.Capture, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	h := newHarness(t, fetch, 30*time.Millisecond)

	got := h.runJob(t, models.PlatformUberEats, "https://example.com/menu")

	if got.State != string(models.StateTimeout) {
		t.Fatalf("state = %q, want timeout", got.State)
	}
	if got.ErrorMessage == "" {
		t.Error("timeout job missing explanation")
	}
}

func TestRunFailureUsesFriendlyMessage(t *testing.T) {
	fetch := &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
	}}
	h := newHarness(t, fetch, time.Minute)

	got := h.runJob(t, models.PlatformDoorDash, "https://example.com/menu")

	if got.State != string(models.StateFailed) {
		t.Fatalf("state = %q, want failed", got.State)
	}
	if got.ErrorMessage != "A network error interrupted the scrape. Check connectivity and try again." {
		t.Errorf("message = %q", got.ErrorMessage)
	}
}

func TestRunEmptyExtractionFails(t *testing.T) {
	fetch := &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		return &scraper.Capture{HTML: "<html><body><p>blocked</p></body></html>"}, nil
	}}
	h := newHarness(t, fetch, time.Minute)

	got := h.runJob(t, models.PlatformUberEats, "https://example.com/menu")

	if got.State != string(models.StateFailed) {
		t.Fatalf("state = %q, want failed", got.State)
	}
	if got.ErrorMessage != "The page loaded but no menu items could be extracted. The site layout may have changed." {
		t.Errorf("message = %q", got.ErrorMessage)
	}
	if got.ItemsScraped != 0 {
		t.Errorf("items scraped = %d, want 0", got.ItemsScraped)
	}
	// nothing may be persisted for an unsuccessful result
	if menu := h.menus.Menu(h.source.ID, models.PlatformUberEats); len(menu) != 0 {
		t.Errorf("stored menu = %+v, want empty", menu)
	}
}

type recordingNotifier struct {
	completed []models.JobSnapshot
	alertJobs []string
	alerts    int
}

func (n *recordingNotifier) JobCompleted(snap models.JobSnapshot) {
	n.completed = append(n.completed, snap)
}

func (n *recordingNotifier) PriceAlerts(jobID string, alerts []store.PriceAlert) {
	n.alertJobs = append(n.alertJobs, jobID)
	n.alerts += len(alerts)
}

func TestRunFansOutPriceAlerts(t *testing.T) {
	fetch := &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		return &scraper.Capture{HTML: menuPage}, nil
	}}
	h := newHarness(t, fetch, time.Minute)
	notify := &recordingNotifier{}
	h.orch.notify = notify

	// previous scrape at a much lower price so the next one alerts
	h.menus.ReplaceMenu(h.source.ID, models.PlatformUberEats, []models.MenuItem{
		{Name: "Classic Burger", Price: 899},
	})

	got := h.runJob(t, models.PlatformUberEats, "https://example.com/menu")
	if got.State != string(models.StateSuccess) {
		t.Fatalf("state = %q (%s), want success", got.State, got.ErrorMessage)
	}

	if notify.alerts != 1 || len(notify.alertJobs) != 1 {
		t.Fatalf("notifier saw %d alerts over %d calls, want 1 over 1", notify.alerts, len(notify.alertJobs))
	}
	if notify.alertJobs[0] != got.JobID {
		t.Errorf("alert job id = %q, want %q", notify.alertJobs[0], got.JobID)
	}
	if len(notify.completed) != 1 || notify.completed[0].JobID != got.JobID {
		t.Errorf("completion events = %+v", notify.completed)
	}
}

func TestRunRetriesExpiredSession(t *testing.T) {
	fetch := &fakeFetcher{capture: func(_ context.Context, call int) (*scraper.Capture, error) {
		if call == 1 {
			return nil, errors.New("rod: target closed")
		}
		return &scraper.Capture{HTML: menuPage}, nil
	}}
	h := newHarness(t, fetch, time.Minute)

	got := h.runJob(t, models.PlatformUberEats, "https://example.com/menu")

	if got.State != string(models.StateSuccess) {
		t.Fatalf("state = %q (%s), want success after reconnect", got.State, got.ErrorMessage)
	}
	if fetch.calls.Load() != 2 {
		t.Errorf("capture calls = %d, want 2", fetch.calls.Load())
	}
}

func TestClassifyMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			models.NewScrapeError(models.ErrCodeRateLimited, "429", nil),
			"The browser provider is rate limiting requests. Try again in a few minutes.",
		},
		{
			errors.New("websocket: close 1006"),
			"The browser session ended unexpectedly during the scrape. Try again shortly.",
		},
		{
			errors.New("navigation timed out after 60s"),
			"The scrape took too long and was stopped. The site may be slow or blocking automated access.",
		},
	}
	for _, tt := range tests {
		if got := userFacingMessage(tt.err); got != tt.want {
			t.Errorf("userFacingMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestClassifyTruncatesUnknownErrors(t *testing.T) {
	long := errors.New(fmt.Sprintf("%0*d", 400, 0))
	if got := userFacingMessage(long); len(got) != maxRawErrorLen {
		t.Errorf("len = %d, want %d", len(got), maxRawErrorLen)
	}
}

func TestPoolProcessesQueuedJobs(t *testing.T) {
	done := make(chan struct{}, 4)
	fetch := &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		defer func() { done <- struct{}{} }()
		return &scraper.Capture{HTML: menuPage}, nil
	}}
	h := newHarness(t, fetch, time.Minute)

	pool := NewPool(h.orch, 2, 8, nil)
	pool.Start(context.Background())
	defer pool.Shutdown()

	for i := 0; i < 3; i++ {
		job := h.tracker.Create("competitor", h.source.ID, models.PlatformUberEats, "https://example.com")
		if err := pool.Enqueue(job.JobID); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("queued jobs did not run")
		}
	}
}

func TestPoolRejectsWhenQueueFull(t *testing.T) {
	h := newHarness(t, &fakeFetcher{capture: func(context.Context, int) (*scraper.Capture, error) {
		return &scraper.Capture{HTML: menuPage}, nil
	}}, time.Minute)

	// never started, so nothing drains the queue
	pool := NewPool(h.orch, 1, 1, nil)
	if err := pool.Enqueue("job_a"); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	err := pool.Enqueue("job_b")
	if err == nil {
		t.Fatal("expected queue-full error")
	}
	if models.CodeOf(err) != models.ErrCodeRateLimited {
		t.Errorf("error code = %q, want %q", models.CodeOf(err), models.ErrCodeRateLimited)
	}
}
