package models

import "strings"

// Platforms the extractors know how to parse.
const (
	PlatformUberEats = "ubereats"
	PlatformDoorDash = "doordash"
)

// TriggerRequest is the body of POST /api/v1/scrape/trigger.
type TriggerRequest struct {
	SourceType string `json:"source_type" binding:"required"`
	SourceID   string `json:"source_id" binding:"required"`
	Platform   string `json:"platform" binding:"required"`
	URL        string `json:"url" binding:"required,url"`
}

// Normalize lowercases the enum-ish fields so handlers can compare directly.
func (r *TriggerRequest) Normalize() {
	r.SourceType = strings.ToLower(strings.TrimSpace(r.SourceType))
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
}

// Validate checks the enum fields after Normalize.
func (r *TriggerRequest) Validate() *ScrapeError {
	if r.SourceType != "operator" && r.SourceType != "competitor" {
		return NewScrapeError(ErrCodeInvalidInput, "source_type must be operator or competitor", nil)
	}
	if r.Platform != PlatformUberEats && r.Platform != PlatformDoorDash {
		return NewScrapeError(ErrCodeInvalidInput, "platform must be ubereats or doordash", nil)
	}
	return nil
}

// SourceRequest is the body for creating or updating a tracked source.
// Updates are partial; zero-valued fields are left unchanged, which is
// why nothing here carries binding tags.
type SourceRequest struct {
	Name            string            `json:"name"`
	Type            string            `json:"type"`
	PlatformURLs    map[string]string `json:"platform_urls"`
	ScrapingEnabled *bool             `json:"scraping_enabled"`
}
