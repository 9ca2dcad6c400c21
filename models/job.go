package models

import "time"

// ScrapeState is the lifecycle state of a scrape job.
// Transitions only move forward: pending → running → terminal.
type ScrapeState string

const (
	StatePending ScrapeState = "pending"
	StateRunning ScrapeState = "running"
	StateSuccess ScrapeState = "success"
	StateFailed  ScrapeState = "failed"
	StateTimeout ScrapeState = "timeout"
)

// Terminal reports whether the state is final.
func (s ScrapeState) Terminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateTimeout
}

// ScrapeJob is one tracked scrape attempt. Jobs are owned by the tracker
// and mutated only through its locked methods.
type ScrapeJob struct {
	ID           string
	SourceType   string // "operator" or "competitor"
	SourceID     string
	Platform     string
	URL          string
	State        ScrapeState
	StartedAt    time.Time
	CompletedAt  time.Time
	ItemsScraped int
	ErrorMessage string
}

// JobSnapshot is the plain record exposed to API callers.
type JobSnapshot struct {
	JobID        string `json:"job_id"`
	SourceType   string `json:"source_type"`
	SourceID     string `json:"source_id"`
	Platform     string `json:"platform"`
	URL          string `json:"url"`
	State        string `json:"state"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
	ItemsScraped int    `json:"items_scraped"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Snapshot copies the job into its API-facing form with ISO-8601 timestamps.
func (j *ScrapeJob) Snapshot() JobSnapshot {
	s := JobSnapshot{
		JobID:        j.ID,
		SourceType:   j.SourceType,
		SourceID:     j.SourceID,
		Platform:     j.Platform,
		URL:          j.URL,
		State:        string(j.State),
		StartedAt:    j.StartedAt.UTC().Format(time.RFC3339),
		ItemsScraped: j.ItemsScraped,
		ErrorMessage: j.ErrorMessage,
	}
	if !j.CompletedAt.IsZero() {
		s.CompletedAt = j.CompletedAt.UTC().Format(time.RFC3339)
	}
	return s
}
