package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/menuwatch/menuwatch/models"
)

// DoorDash extracts menu items from DoorDash store pages.
type DoorDash struct{}

func (DoorDash) Platform() string { return models.PlatformDoorDash }

// DoorDash markup is less regular than Uber Eats: the MenuItem test ids
// survive most redesigns, but some page variants drop them. When the
// selector pass yields almost nothing, a price-anchored walk over raw
// text nodes recovers items from whatever containers hold a price.
func (DoorDash) Parse(htmlSrc string) []models.MenuItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil
	}

	if items := parseStructuredMenu(doc); len(items) > 0 {
		return sanitize(items, doorDashNoise)
	}

	candidates := doorDashHeuristic(doc)
	if len(candidates) < 3 {
		candidates = append(candidates, doorDashPriceAnchored(doc)...)
	}
	return sanitize(candidates, doorDashNoise)
}

var doorDashItemSelectors = []string{
	`[data-testid*="MenuItem"]`,
	`[data-anchor-id*="MenuItem"]`,
	`button[data-testid]`,
}

func doorDashHeuristic(doc *goquery.Document) []models.MenuItem {
	var out []models.MenuItem
	seen := make(map[*html.Node]struct{})

	for _, sel := range doorDashItemSelectors {
		doc.Find(sel).Each(func(_ int, card *goquery.Selection) {
			node := card.Get(0)
			if _, dup := seen[node]; dup {
				return
			}
			seen[node] = struct{}{}

			name := doorDashItemName(card)
			if name == "" {
				return
			}
			out = append(out, models.MenuItem{
				Name:        name,
				Price:       findPrice(card.Text()),
				Category:    doorDashCategory(card),
				Description: doorDashItemDesc(card, name),
			})
		})
	}
	return out
}

// doorDashItemName tries heading elements first, then any short text
// element that reads like a dish name.
func doorDashItemName(card *goquery.Selection) string {
	var name string
	card.Find("h3, h4, span, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if len(t) < 3 || len(t) >= 100 {
			return true
		}
		if pricePattern.MatchString(t) && len(pricePattern.ReplaceAllString(t, "")) < 3 {
			return true
		}
		name = t
		return false
	})
	return name
}

func doorDashItemDesc(card *goquery.Selection, name string) string {
	var desc string
	card.Find(`p, [class*="desc"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if t == "" || t == name {
			return true
		}
		desc = t
		return false
	})
	return desc
}

func doorDashCategory(card *goquery.Selection) string {
	return strings.TrimSpace(card.Closest("section").Find("h2").First().Text())
}

// containerSel matches the nearest ancestor worth treating as an item
// container in the price-anchored fallback.
var containerSel = cascadia.MustCompile("div, button, a")

// doorDashPriceAnchored finds text nodes containing a price, climbs to
// the nearest container element and extracts an item from it. This is
// the last-resort path for markup variants with no usable test ids.
func doorDashPriceAnchored(doc *goquery.Document) []models.MenuItem {
	var out []models.MenuItem
	seen := make(map[*html.Node]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && pricePattern.MatchString(n.Data) {
			if container := climbTo(n, containerSel); container != nil {
				if _, dup := seen[container]; !dup {
					seen[container] = struct{}{}
					card := goquery.NewDocumentFromNode(container).Selection
					if name := doorDashItemName(card); name != "" {
						out = append(out, models.MenuItem{
							Name:     name,
							Price:    findPrice(card.Text()),
							Category: doorDashCategory(card),
						})
					}
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range doc.Nodes {
		walk(root)
	}
	return out
}

func climbTo(n *html.Node, sel cascadia.Selector) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && sel.Match(p) {
			return p
		}
	}
	return nil
}
