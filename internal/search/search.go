// Package search queries a web search backend under a chain of fallback
// strategies and collects full-page text for every hit.
package search

import (
	"context"
	"log/slog"
)

// Result is one retrieved page.
type Result struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	FullContent string `json:"full_content"`
	URL         string `json:"url"`
}

// Strategy is one immutable backend parameterization. Strategies are tried
// in order; the first one returning any hit wins.
type Strategy struct {
	Region     string // backend region code, empty for unscoped
	SafeSearch string // "moderate" or "off"
}

// DefaultStrategies compensates for regional and rate-limit inconsistency of
// a single backend: unscoped first, then global, then the cn-zh region with
// safe search off.
var DefaultStrategies = []Strategy{
	{Region: "", SafeSearch: "moderate"},
	{Region: "wt-wt", SafeSearch: "moderate"},
	{Region: "cn-zh", SafeSearch: "off"},
}

// Hit is a bare backend result before page content is attached.
type Hit struct {
	Title   string
	URL     string
	Snippet string
}

// Backend issues a single search call under one strategy.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int, st Strategy) ([]Hit, error)
}

// PageFetcher retrieves visible text for a hit URL; empty string on failure.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, maxLen int) string
}

// Adapter runs the strategy chain over one backend.
type Adapter struct {
	backend    Backend
	fetcher    PageFetcher
	strategies []Strategy
	pageMax    int
}

// Config wires an Adapter.
type Config struct {
	Backend    Backend
	Fetcher    PageFetcher
	Strategies []Strategy // nil means DefaultStrategies
	PageMax    int        // max chars of fetched page text per hit
}

const defaultPageMax = 3000

// NewAdapter creates an Adapter from cfg.
func NewAdapter(cfg Config) *Adapter {
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	pageMax := cfg.PageMax
	if pageMax <= 0 {
		pageMax = defaultPageMax
	}
	return &Adapter{
		backend:    cfg.Backend,
		fetcher:    cfg.Fetcher,
		strategies: strategies,
		pageMax:    pageMax,
	}
}

// Search tries each strategy in order until one yields at least one hit, then
// fetches full text for every hit of that strategy, one page at a time. A
// strategy error is logged and skipped. Exhausting the chain returns an empty
// slice; Search never returns an error.
func (a *Adapter) Search(ctx context.Context, query string, maxResults int) []Result {
	for i, st := range a.strategies {
		hits, err := a.backend.Search(ctx, query, maxResults, st)
		if err != nil {
			slog.Warn("search: strategy failed",
				"backend", a.backend.Name(), "strategy", i+1,
				"region", st.Region, "safesearch", st.SafeSearch, "error", err)
			continue
		}
		if len(hits) == 0 {
			slog.Debug("search: strategy returned no hits", "strategy", i+1, "query", query)
			continue
		}

		results := make([]Result, 0, len(hits))
		for _, h := range hits {
			full := a.fetcher.Fetch(ctx, h.URL, a.pageMax)
			if full == "" {
				// Page fetch failed; the snippet is better than nothing.
				full = h.Snippet
			}
			results = append(results, Result{
				Title:       h.Title,
				Snippet:     h.Snippet,
				FullContent: full,
				URL:         h.URL,
			})
		}
		slog.Info("search: strategy succeeded",
			"strategy", i+1, "query", query, "results", len(results))
		return results
	}

	slog.Warn("search: all strategies exhausted", "query", query)
	return nil
}
