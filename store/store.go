// Package store holds scraped menu state: the source registry, current
// menus with price history, and the category mapper. Everything is
// in-memory; the process is the system of record for the freshness
// window it serves.
package store

import (
	"time"

	"github.com/menuwatch/menuwatch/models"
)

// Source is a tracked restaurant whose platform pages get scraped.
type Source struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Type            string            `json:"type"` // "operator" or "competitor"
	PlatformURLs    map[string]string `json:"platform_urls"`
	ScrapingEnabled bool              `json:"scraping_enabled"`
	CreatedAt       time.Time         `json:"created_at"`
	LastScrapedAt   time.Time         `json:"last_scraped_at,omitzero"`
}

// PricePoint is one observation of an item's price.
type PricePoint struct {
	Price      models.Price `json:"price"`
	ObservedAt time.Time    `json:"observed_at"`
}

// StoredItem is a menu item plus its observation history for one source
// and platform.
type StoredItem struct {
	models.MenuItem
	SourceID  string       `json:"source_id"`
	UpdatedAt time.Time    `json:"updated_at"`
	History   []PricePoint `json:"history,omitempty"`
}

// PriceAlert records a significant price move detected on replace.
type PriceAlert struct {
	SourceID   string       `json:"source_id"`
	Platform   string       `json:"platform"`
	ItemName   string       `json:"item_name"`
	OldPrice   models.Price `json:"old_price"`
	NewPrice   models.Price `json:"new_price"`
	ChangePct  float64      `json:"change_pct"`
	DetectedAt time.Time    `json:"detected_at"`
}

// ReplaceSummary reports what a menu replacement did.
type ReplaceSummary struct {
	Stored int
	Alerts []PriceAlert
}
