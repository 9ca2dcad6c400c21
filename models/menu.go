package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Price is a currency amount in cents. Menu prices only ever need two
// decimal places, so integer cents avoids float drift in comparisons
// and price-history math.
type Price int64

// ParsePrice converts a decimal string like "11.99" or "4" to a Price.
// Returns 0 for anything that does not parse as a non-negative amount.
func ParsePrice(s string) Price {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0
	}
	cents := w * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0
		}
		cents += f
	}
	return Price(cents)
}

// PriceFromFloat converts a float amount (e.g. a JSON number from
// structured data) to a Price, rounding to the nearest cent.
func PriceFromFloat(f float64) Price {
	if f < 0 {
		return 0
	}
	return Price(f*100 + 0.5)
}

// String renders the price with two decimal places, e.g. "11.99".
func (p Price) String() string {
	if p < 0 {
		p = 0
	}
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// MarshalJSON renders the price as a JSON number with two decimals.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// Float returns the price as a float64 amount, for percentage math.
func (p Price) Float() float64 {
	return float64(p) / 100
}

// MenuItem is one extracted menu entity. Name is the natural dedup key
// within a single scrape; there is no other identity.
type MenuItem struct {
	Name        string `json:"name"`
	Price       Price  `json:"price"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"is_available"`
	Position    int    `json:"position"`
}

// ScrapeResult is the output of one extraction attempt.
//
// Invariant: Success is true iff Items is non-empty; when Items is empty
// ErrorMessage is always populated. Use BuildResult to construct one.
type ScrapeResult struct {
	Source       string     `json:"source"`
	Platform     string     `json:"platform"`
	ScrapedAt    time.Time  `json:"scraped_at"`
	Items        []MenuItem `json:"items"`
	Success      bool       `json:"success"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// BuildResult assembles a ScrapeResult while enforcing the success/items
// invariant. emptyMsg is used as the error message when items is empty.
func BuildResult(source, platform string, items []MenuItem, emptyMsg string) ScrapeResult {
	r := ScrapeResult{
		Source:    source,
		Platform:  platform,
		ScrapedAt: time.Now().UTC(),
		Items:     items,
		Success:   len(items) > 0,
	}
	if !r.Success {
		if emptyMsg == "" {
			emptyMsg = "no menu items found"
		}
		r.ErrorMessage = emptyMsg
	}
	return r
}
