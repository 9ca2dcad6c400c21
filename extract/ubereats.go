package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/menuwatch/menuwatch/models"
)

// UberEats extracts menu items from Uber Eats store pages.
type UberEats struct{}

func (UberEats) Platform() string { return models.PlatformUberEats }

func (UberEats) Parse(html string) []models.MenuItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	if items := parseStructuredMenu(doc); len(items) > 0 {
		return sanitize(items, uberEatsNoise)
	}
	return sanitize(uberEatsHeuristic(doc), uberEatsNoise)
}

// uberEatsHeuristic walks the store-item containers the current markup
// tags with a store-item test id and recovers name, price, category and
// a calorie-note description per container.
func uberEatsHeuristic(doc *goquery.Document) []models.MenuItem {
	var out []models.MenuItem

	doc.Find(`[data-testid^="store-item-"]`).Each(func(_ int, card *goquery.Selection) {
		name := uberEatsItemName(card)
		if name == "" {
			return
		}
		text := card.Text()
		out = append(out, models.MenuItem{
			Name:        name,
			Price:       findPrice(text),
			Category:    uberEatsCategory(card),
			Description: calorieNote(text),
		})
	})

	return out
}

// uberEatsItemName picks the most reliable name source in a card:
// the item image's alt text, then a heading, then the first span that
// looks like a dish name rather than a price or badge.
func uberEatsItemName(card *goquery.Selection) string {
	if alt, ok := card.Find("img").First().Attr("alt"); ok {
		if alt = strings.TrimSpace(alt); alt != "" {
			return alt
		}
	}
	if h := strings.TrimSpace(card.Find("h3").First().Text()); h != "" {
		return h
	}

	var name string
	card.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		// lower bound matches the noise filter so 3-rune names survive
		if len(t) < 3 || len(t) >= 80 {
			return true
		}
		if strings.HasPrefix(t, "$") || strings.HasPrefix(t, "£") || strings.HasPrefix(t, "#") {
			return true
		}
		name = t
		return false
	})
	return name
}

// uberEatsCategory reads the enclosing catalog section's title, when the
// card sits inside one.
func uberEatsCategory(card *goquery.Selection) string {
	title := card.Closest("section").Find(`[data-testid="catalog-section-title"]`).First()
	return strings.TrimSpace(title.Text())
}
