// Package tracker owns scrape-job identity and lifecycle state. Jobs move
// pending → running → one terminal state and never back; the tracker keeps
// a bounded window of recent jobs and evicts the oldest beyond it.
package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/menuwatch/menuwatch/models"
)

// Tracker is a concurrency-safe registry of scrape jobs.
type Tracker struct {
	mu      sync.Mutex
	jobs    *lru.Cache[string, *models.ScrapeJob]
	counter int
	log     *slog.Logger
}

// New creates a tracker retaining at most maxJobs entries.
func New(maxJobs int, log *slog.Logger) (*Tracker, error) {
	if maxJobs <= 0 {
		return nil, fmt.Errorf("tracker: max jobs must be positive, got %d", maxJobs)
	}
	if log == nil {
		log = slog.Default()
	}
	cache, err := lru.New[string, *models.ScrapeJob](maxJobs)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	return &Tracker{jobs: cache, log: log}, nil
}

// Create registers a new pending job for a source and returns its snapshot.
func (t *Tracker) Create(sourceType, sourceID, platform, url string) models.JobSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	job := &models.ScrapeJob{
		ID:         fmt.Sprintf("scrape_%d_%d", t.counter, time.Now().Unix()),
		SourceType: sourceType,
		SourceID:   sourceID,
		Platform:   platform,
		URL:        url,
		State:      models.StatePending,
		StartedAt:  time.Now().UTC(),
	}
	if evicted := t.jobs.Add(job.ID, job); evicted {
		t.log.Debug("evicted oldest job", "capacity", t.jobs.Len())
	}
	return job.Snapshot()
}

// MarkRunning transitions a pending job to running. Any other current
// state leaves the job untouched.
func (t *Tracker) MarkRunning(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs.Peek(id)
	if !ok || job.State != models.StatePending {
		return false
	}
	job.State = models.StateRunning
	job.StartedAt = time.Now().UTC()
	return true
}

// Complete moves a job to a terminal state with its outcome. Transitions
// out of an already-terminal state are rejected; the first completion
// wins.
func (t *Tracker) Complete(id string, state models.ScrapeState, itemsScraped int, errMsg string) bool {
	if !state.Terminal() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs.Peek(id)
	if !ok || job.State.Terminal() {
		return false
	}
	job.State = state
	job.CompletedAt = time.Now().UTC()
	job.ItemsScraped = itemsScraped
	job.ErrorMessage = errMsg
	return true
}

// Get returns a snapshot of one job.
func (t *Tracker) Get(id string) (models.JobSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs.Peek(id)
	if !ok {
		return models.JobSnapshot{}, false
	}
	return job.Snapshot(), true
}

// LatestForSource returns the most recently started job for a source.
func (t *Tracker) LatestForSource(sourceID string) (models.JobSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var latest *models.ScrapeJob
	for _, id := range t.jobs.Keys() {
		job, ok := t.jobs.Peek(id)
		if !ok || job.SourceID != sourceID {
			continue
		}
		if latest == nil || job.StartedAt.After(latest.StartedAt) {
			latest = job
		}
	}
	if latest == nil {
		return models.JobSnapshot{}, false
	}
	return latest.Snapshot(), true
}

// Active returns snapshots of all jobs not yet in a terminal state,
// oldest first.
func (t *Tracker) Active() []models.JobSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []models.JobSnapshot
	for _, id := range t.jobs.Keys() {
		if job, ok := t.jobs.Peek(id); ok && !job.State.Terminal() {
			out = append(out, job.Snapshot())
		}
	}
	return out
}
