package extract

import (
	"strings"

	"github.com/menuwatch/menuwatch/models"
)

// UI-chrome phrases that show up in item-shaped containers but are not
// menu items. Matched as substrings of the lowercased candidate name.
var uberEatsNoise = []string{
	"sign up", "log in", "sign in", "view cart", "checkout",
	"delivery fee", "service fee", "get it delivered",
	"enter your address", "group order", "schedule",
}

var doorDashNoise = []string{
	"sign up", "log in", "sign in", "group order", "see more", "see less",
	"items in cart", "delivery fee", "view cart", "checkout", "add to cart",
	"schedule", "asap", "pickup only", "delivery", "featured", "popular",
	"most ordered", "previous", "next", "$0 delivery", "promo", "free delivery",
}

// sanitize applies the noise filter and name dedup to extraction
// candidates, in order. The first occurrence of a name wins and the
// position counter advances only for accepted items.
func sanitize(candidates []models.MenuItem, noise []string) []models.MenuItem {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]models.MenuItem, 0, len(candidates))
	position := 0

	for _, c := range candidates {
		name := strings.TrimSpace(c.Name)
		if isNoise(name, noise) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		c.Name = name
		c.Available = true
		c.Position = position
		position++
		out = append(out, c)
	}
	return out
}

// isNoise reports whether a candidate name is UI chrome or degenerate:
// too short, a known phrase, or purely numeric.
func isNoise(name string, phrases []string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	if len(lower) < 3 {
		return true
	}
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '$', '£', '.', ',', ' ':
			return -1
		}
		return r
	}, lower)
	if stripped != "" && strings.Trim(stripped, "0123456789") == "" {
		return true
	}
	return false
}
