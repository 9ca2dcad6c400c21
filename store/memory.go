package store

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/menuwatch/menuwatch/models"
)

// alertThresholdPct is the relative price move that raises an alert.
const alertThresholdPct = 5.0

// maxHistoryPoints caps per-item price history.
const maxHistoryPoints = 50

// MenuStore keeps current menus keyed by source and platform, with
// per-item price history and alert detection on replacement.
type MenuStore struct {
	mu     sync.RWMutex
	menus  map[menuKey]map[string]*StoredItem // item name → stored item
	alerts []PriceAlert
	log    *slog.Logger
}

type menuKey struct {
	sourceID string
	platform string
}

func NewMenuStore(log *slog.Logger) *MenuStore {
	if log == nil {
		log = slog.Default()
	}
	return &MenuStore{
		menus: make(map[menuKey]map[string]*StoredItem),
		log:   log,
	}
}

// ReplaceMenu swaps in a freshly scraped menu for a source and platform.
// Items matching a previous scrape by name keep their price history and
// get a new observation appended; price moves beyond the alert threshold
// are recorded and returned. Items absent from the new scrape are
// dropped.
func (s *MenuStore) ReplaceMenu(sourceID, platform string, items []models.MenuItem) ReplaceSummary {
	now := time.Now().UTC()
	key := menuKey{sourceID: sourceID, platform: platform}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.menus[key]
	next := make(map[string]*StoredItem, len(items))
	var alerts []PriceAlert

	for _, item := range items {
		stored := &StoredItem{
			MenuItem:  item,
			SourceID:  sourceID,
			UpdatedAt: now,
		}
		if old, ok := prev[item.Name]; ok {
			stored.History = old.History
			if alert, fired := priceAlert(sourceID, platform, item.Name, old.Price, item.Price, now); fired {
				alerts = append(alerts, alert)
			}
		}
		stored.History = append(stored.History, PricePoint{Price: item.Price, ObservedAt: now})
		if len(stored.History) > maxHistoryPoints {
			stored.History = stored.History[len(stored.History)-maxHistoryPoints:]
		}
		next[item.Name] = stored
	}

	s.menus[key] = next
	s.alerts = append(s.alerts, alerts...)

	if len(alerts) > 0 {
		s.log.Info("price alerts detected",
			"source_id", sourceID,
			"platform", platform,
			"count", len(alerts))
	}
	return ReplaceSummary{Stored: len(next), Alerts: alerts}
}

// priceAlert decides whether a price move crosses the alert threshold.
// A move from or to zero never alerts; zero means the price was unknown.
func priceAlert(sourceID, platform, name string, oldP, newP models.Price, at time.Time) (PriceAlert, bool) {
	if oldP == 0 || newP == 0 || oldP == newP {
		return PriceAlert{}, false
	}
	pct := (newP.Float() - oldP.Float()) / oldP.Float() * 100
	if math.Abs(pct) <= alertThresholdPct {
		return PriceAlert{}, false
	}
	return PriceAlert{
		SourceID:   sourceID,
		Platform:   platform,
		ItemName:   name,
		OldPrice:   oldP,
		NewPrice:   newP,
		ChangePct:  math.Round(pct*100) / 100,
		DetectedAt: at,
	}, true
}

// Menu returns the current menu for a source and platform, ordered by
// scrape position.
func (s *MenuStore) Menu(sourceID, platform string) []StoredItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.menus[menuKey{sourceID: sourceID, platform: platform}]
	out := make([]StoredItem, 0, len(items))
	for _, it := range items {
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// History returns the price history for one item, oldest first.
func (s *MenuStore) History(sourceID, platform, itemName string) []PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.menus[menuKey{sourceID: sourceID, platform: platform}][itemName]
	if !ok {
		return nil
	}
	out := make([]PricePoint, len(item.History))
	copy(out, item.History)
	return out
}

// Alerts returns the most recent alerts, newest first, up to limit.
func (s *MenuStore) Alerts(limit int) []PriceAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.alerts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]PriceAlert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.alerts[i])
	}
	return out
}
