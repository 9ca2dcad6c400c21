// Package extract parses rendered delivery-platform pages into normalized
// menu items. Structured embedded data is authoritative when present;
// heuristic DOM parsing is the fallback. Both paths share the same noise
// filter and dedup pass.
//
// The concrete DOM patterns here track live site markup and will go stale
// as the platforms change; the strategy (structured-first, heuristic
// fallback, noise filter) is the stable part.
package extract

import (
	"github.com/menuwatch/menuwatch/models"
)

// Extractor parses one platform's page markup into menu items.
type Extractor interface {
	// Platform is the tag this extractor handles, e.g. "ubereats".
	Platform() string

	// Parse extracts menu items from rendered markup. Returns nil or an
	// empty slice when nothing usable is found; parsing never errors, an
	// empty result is the failure signal.
	Parse(html string) []models.MenuItem
}

var registry = map[string]Extractor{
	models.PlatformUberEats: UberEats{},
	models.PlatformDoorDash: DoorDash{},
}

// ForPlatform returns the extractor registered for a platform tag.
func ForPlatform(platform string) (Extractor, bool) {
	e, ok := registry[platform]
	return e, ok
}
