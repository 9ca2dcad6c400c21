// Package metrics bundles Prometheus collectors for the scrape pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all collectors on a dedicated registry. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	Registry               *prometheus.Registry
	JobsTotal              *prometheus.CounterVec
	ItemsScrapedTotal      prometheus.Counter
	SessionReconnectsTotal prometheus.Counter
	AlertsTotal            prometheus.Counter
	ScrapeDuration         prometheus.Histogram
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuwatch_jobs_total",
			Help: "Scrape jobs finished, by terminal state.",
		},
		[]string{"state"},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menuwatch_items_scraped_total",
			Help: "Total menu items extracted across all jobs.",
		},
	)
	reconnects := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menuwatch_session_reconnects_total",
			Help: "Browser sessions replaced due to age or expiry.",
		},
	)
	alerts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "menuwatch_price_alerts_total",
			Help: "Price-change alerts created by the store.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "menuwatch_scrape_duration_seconds",
			Help:    "Wall-clock duration of one scrape job.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		},
	)

	registry.MustRegister(jobs, items, reconnects, alerts, duration)

	return &Metrics{
		Registry:               registry,
		JobsTotal:              jobs,
		ItemsScrapedTotal:      items,
		SessionReconnectsTotal: reconnects,
		AlertsTotal:            alerts,
		ScrapeDuration:         duration,
	}
}

// IncJob records a job reaching a terminal state.
func (m *Metrics) IncJob(state string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(state).Inc()
}

// AddItems records extracted menu items.
func (m *Metrics) AddItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsScrapedTotal.Add(float64(n))
}

// IncSessionReconnects records a session replacement.
func (m *Metrics) IncSessionReconnects() {
	if m == nil {
		return
	}
	m.SessionReconnectsTotal.Inc()
}

// AddAlerts records created price alerts.
func (m *Metrics) AddAlerts(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AlertsTotal.Add(float64(n))
}

// ObserveScrape records a job's duration.
func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}
