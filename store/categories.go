package store

import "strings"

// CategoryMapper normalizes platform-specific section names into the
// canonical category set used for cross-platform comparison.
type CategoryMapper interface {
	// Map returns the canonical category for a raw section name, or the
	// raw name unchanged when nothing matches well enough.
	Map(raw string) string
}

// canonical categories with the section-name tokens that vote for them.
var canonicalCategories = map[string][]string{
	"Starters": {"starter", "starters", "appetizer", "appetizers", "small", "plates", "sides", "side"},
	"Mains":    {"main", "mains", "entree", "entrees", "burgers", "pizza", "pasta", "curry", "bowls", "sandwiches"},
	"Desserts": {"dessert", "desserts", "sweet", "sweets", "cake", "ice", "cream"},
	"Drinks":   {"drink", "drinks", "beverage", "beverages", "soda", "juice", "coffee", "tea", "shakes"},
}

// matchThreshold is the share of a raw name's tokens that must vote for
// one canonical category.
const matchThreshold = 0.5

// StaticMapper maps by token overlap against a fixed vocabulary.
type StaticMapper struct{}

func (StaticMapper) Map(raw string) string {
	tokens := strings.Fields(strings.ToLower(raw))
	if len(tokens) == 0 {
		return raw
	}

	best, bestScore := "", 0.0
	for canon, vocab := range canonicalCategories {
		hits := 0
		for _, tok := range tokens {
			for _, v := range vocab {
				if tok == v {
					hits++
					break
				}
			}
		}
		score := float64(hits) / float64(len(tokens))
		if score > bestScore {
			best, bestScore = canon, score
		}
	}

	if bestScore >= matchThreshold {
		return best
	}
	return raw
}
