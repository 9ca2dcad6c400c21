package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/menuwatch/menuwatch/models"
)

// SourceRegistry is the in-memory registry of tracked sources.
type SourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]*Source
	counter int
}

func NewSourceRegistry() *SourceRegistry {
	return &SourceRegistry{sources: make(map[string]*Source)}
}

// Create registers a new source. Scraping defaults to enabled unless the
// request says otherwise.
func (r *SourceRegistry) Create(req models.SourceRequest) (Source, error) {
	if req.Name == "" {
		return Source{}, models.NewScrapeError(models.ErrCodeInvalidInput, "source name is required", nil)
	}
	if req.Type != "operator" && req.Type != "competitor" {
		return Source{}, models.NewScrapeError(models.ErrCodeInvalidInput,
			"source type must be operator or competitor", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	src := &Source{
		ID:              fmt.Sprintf("src_%d", r.counter),
		Name:            req.Name,
		Type:            req.Type,
		PlatformURLs:    cloneURLs(req.PlatformURLs),
		ScrapingEnabled: req.ScrapingEnabled == nil || *req.ScrapingEnabled,
		CreatedAt:       time.Now().UTC(),
	}
	r.sources[src.ID] = src
	return *src, nil
}

// Update applies a partial update to an existing source.
func (r *SourceRegistry) Update(id string, req models.SourceRequest) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[id]
	if !ok {
		return Source{}, models.NewScrapeError(models.ErrCodeInvalidInput, "source not found", nil)
	}
	if req.Name != "" {
		src.Name = req.Name
	}
	if req.Type != "" {
		if req.Type != "operator" && req.Type != "competitor" {
			return Source{}, models.NewScrapeError(models.ErrCodeInvalidInput,
				"source type must be operator or competitor", nil)
		}
		src.Type = req.Type
	}
	if req.PlatformURLs != nil {
		src.PlatformURLs = cloneURLs(req.PlatformURLs)
	}
	if req.ScrapingEnabled != nil {
		src.ScrapingEnabled = *req.ScrapingEnabled
	}
	return *src, nil
}

// Delete removes a source from the registry.
func (r *SourceRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[id]; !ok {
		return false
	}
	delete(r.sources, id)
	return true
}

// Get returns one source by id.
func (r *SourceRegistry) Get(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.sources[id]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// List returns all sources ordered by id.
func (r *SourceRegistry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		out = append(out, *src)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Enabled returns the sources whose scraping is switched on.
func (r *SourceRegistry) Enabled() []Source {
	var out []Source
	for _, src := range r.List() {
		if src.ScrapingEnabled {
			out = append(out, src)
		}
	}
	return out
}

// TouchScraped records when a source was last scraped.
func (r *SourceRegistry) TouchScraped(id string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.sources[id]; ok {
		src.LastScrapedAt = at.UTC()
	}
}

func cloneURLs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
