package extract

import (
	"encoding/json"

	"github.com/PuerkitoBio/goquery"

	"github.com/menuwatch/menuwatch/models"
)

// parseStructuredMenu walks schema.org JSON-LD blocks looking for a
// menu → section → item tree and lifts names, prices, descriptions and
// section categories directly from the structured fields. This path is
// authoritative: any result means heuristic parsing is skipped entirely.
//
// Accepted shapes: a Menu object, anything carrying hasMenu, a top-level
// array, or an @graph wrapper.
func parseStructuredMenu(doc *goquery.Document) []models.MenuItem {
	var out []models.MenuItem

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return
		}
		for _, node := range ldNodes(raw) {
			for _, menu := range menusOf(node) {
				out = append(out, menuItems(menu)...)
			}
		}
	})

	return out
}

// menuItems flattens one Menu object's sections into item candidates.
// Items in sections inherit the section name as category; items attached
// directly to the menu stay uncategorized.
func menuItems(menu map[string]any) []models.MenuItem {
	var out []models.MenuItem

	for _, sec := range asSlice(menu["hasMenuSection"]) {
		secMap, ok := sec.(map[string]any)
		if !ok {
			continue
		}
		category := str(secMap["name"])
		for _, it := range asSlice(secMap["hasMenuItem"]) {
			if item, ok := menuItem(it, category); ok {
				out = append(out, item)
			}
		}
	}

	for _, it := range asSlice(menu["hasMenuItem"]) {
		if item, ok := menuItem(it, ""); ok {
			out = append(out, item)
		}
	}

	return out
}

func menuItem(v any, category string) (models.MenuItem, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return models.MenuItem{}, false
	}
	name := str(m["name"])
	if name == "" {
		return models.MenuItem{}, false
	}
	item := models.MenuItem{
		Name:        name,
		Category:    category,
		Description: str(m["description"]),
		Available:   true,
	}
	if offers, ok := m["offers"].(map[string]any); ok {
		item.Price = priceOf(offers["price"])
	}
	return item, true
}

// menusOf returns the Menu objects reachable from one JSON-LD node:
// the node itself when typed Menu, or whatever hangs off hasMenu.
func menusOf(node map[string]any) []map[string]any {
	if typeIs(node, "Menu") {
		return []map[string]any{node}
	}
	var out []map[string]any
	for _, m := range asSlice(node["hasMenu"]) {
		if mm, ok := m.(map[string]any); ok {
			out = append(out, mm)
		}
	}
	return out
}

// ldNodes collects candidate objects from a decoded JSON-LD document,
// expanding top-level arrays and @graph wrappers one level deep.
func ldNodes(raw any) []map[string]any {
	var out []map[string]any
	switch v := raw.(type) {
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
	case map[string]any:
		out = append(out, v)
		for _, e := range asSlice(v["@graph"]) {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func typeIs(node map[string]any, want string) bool {
	switch t := node["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// asSlice normalizes a JSON-LD value that may be a single object or an
// array of objects.
func asSlice(v any) []any {
	switch vv := v.(type) {
	case nil:
		return nil
	case []any:
		return vv
	default:
		return []any{v}
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// priceOf converts a JSON-LD offers.price, which appears both as a string
// ("11.99") and as a bare number, to a Price.
func priceOf(v any) models.Price {
	switch vv := v.(type) {
	case string:
		return models.ParsePrice(vv)
	case float64:
		return models.PriceFromFloat(vv)
	default:
		return 0
	}
}
