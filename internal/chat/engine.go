// Package chat sequences one grounded conversation turn: decide whether to
// search, reuse or compute a summary, inject it into the system prompt, and
// generate the in-character reply.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/seekforge/groundchat/internal/cache"
	"github.com/seekforge/groundchat/internal/grounding"
	"github.com/seekforge/groundchat/internal/providers"
	"github.com/seekforge/groundchat/internal/search"
)

// Per-token generation rates (USD), prompt and completion classes.
const (
	promptTokenRate     = 0.000005
	completionTokenRate = 0.000015
)

// Character is the persona the reply is voiced as.
type Character struct {
	Name string
}

// TurnRequest carries everything needed for one user turn.
type TurnRequest struct {
	UserMessage  string
	Character    Character
	SystemPrompt string
	History      []providers.Message
	EnableSearch bool
	Model        string
	Temperature  float32
	MaxTokens    int
}

// TurnResult is the outcome of one turn. The Search* fields are populated
// exactly when the search path ran.
type TurnResult struct {
	TurnID          string          `json:"turn_id"`
	Response        string          `json:"response"`
	TokensUsed      int             `json:"tokens_used"`
	Cost            float64         `json:"cost"`
	SearchPerformed bool            `json:"search_performed"`
	SearchQuery     string          `json:"search_query"`
	SearchSummary   string          `json:"search_summary"`
	SearchResults   []search.Result `json:"search_results"`
}

// Decider judges whether a turn needs grounding.
type Decider interface {
	Decide(ctx context.Context, userMessage, characterName string) grounding.Decision
}

// Searcher retrieves web results for a query; empty slice when nothing found.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []search.Result
}

// Summarizer condenses results into a brief.
type Summarizer interface {
	Summarize(ctx context.Context, query string, results []search.Result) string
}

// Config wires an Engine. Cache defaults to an unbounded in-memory map.
type Config struct {
	Provider   providers.Provider
	Decider    Decider
	Searcher   Searcher
	Summarizer Summarizer
	Cache      cache.Cache
	MaxResults int // search results per query, default 8
}

const defaultMaxResults = 8

// Engine runs turns. Safe for concurrent use; turns themselves stay
// synchronous and sequential internally.
type Engine struct {
	provider   providers.Provider
	decider    Decider
	searcher   Searcher
	summarizer Summarizer
	cache      cache.Cache
	maxResults int
	flight     singleflight.Group
}

// NewEngine creates an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	c := cfg.Cache
	if c == nil {
		c = cache.NewMemory()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Engine{
		provider:   cfg.Provider,
		decider:    cfg.Decider,
		searcher:   cfg.Searcher,
		summarizer: cfg.Summarizer,
		cache:      c,
		maxResults: maxResults,
	}
}

// RunTurn executes one turn. It never returns an error: every failure path
// degrades to a usable, well-formed result.
func (e *Engine) RunTurn(ctx context.Context, req TurnRequest) TurnResult {
	result := TurnResult{
		TurnID:        uuid.NewString(),
		SearchResults: []search.Result{},
	}
	log := slog.With("turn", result.TurnID)

	systemPrompt := req.SystemPrompt

	if req.EnableSearch {
		decision := e.decider.Decide(ctx, req.UserMessage, req.Character.Name)
		if decision.NeedSearch {
			log.Info("search triggered", "query", decision.SearchQuery, "reason", decision.Reason)

			entry := e.lookupOrSearch(ctx, decision.SearchQuery, log)

			enhanced := grounding.EnhanceContext(req.UserMessage, req.Character.Name, entry.Summary)
			systemPrompt = fmt.Sprintf("%s\n\n%s", systemPrompt, enhanced)

			result.SearchPerformed = true
			result.SearchQuery = decision.SearchQuery
			result.SearchSummary = entry.Summary
			result.SearchResults = entry.Results
		}
	}

	messages := make([]providers.Message, 0, len(req.History)+2)
	messages = append(messages, providers.Message{Role: providers.RoleSystem, Content: systemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, providers.Message{Role: providers.RoleUser, Content: req.UserMessage})

	resp, err := e.provider.Chat(ctx, providers.ChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		log.Warn("generation failed", "error", err)
		result.Response = fmt.Sprintf("抱歉，回复生成失败：%v", err)
		return result
	}

	result.Response = resp.Content
	result.TokensUsed = resp.Usage.TotalTokens
	result.Cost = float64(resp.Usage.PromptTokens)*promptTokenRate +
		float64(resp.Usage.CompletionTokens)*completionTokenRate
	return result
}

// lookupOrSearch returns the cached entry for query or computes one. The
// miss path runs search then summarize and writes the cache only when the
// search found something, so a transient empty result is retried next turn.
// Concurrent turns on the same uncached query share a single computation.
func (e *Engine) lookupOrSearch(ctx context.Context, query string, log *slog.Logger) cache.Entry {
	if entry, ok := e.cache.Get(query); ok {
		log.Info("using cached search results", "query", query)
		return entry
	}

	v, _, _ := e.flight.Do(query, func() (any, error) {
		// Double check: a concurrent winner may have filled the cache.
		if entry, ok := e.cache.Get(query); ok {
			return entry, nil
		}

		results := e.searcher.Search(ctx, query, e.maxResults)
		if len(results) == 0 {
			log.Warn("search returned nothing", "query", query)
			return cache.Entry{Summary: grounding.NoInformation, Results: []search.Result{}}, nil
		}

		summary := e.summarizer.Summarize(ctx, query, results)
		entry := cache.Entry{Summary: summary, Results: results}
		e.cache.Put(query, entry)
		log.Info("search complete", "query", query, "results", len(results))
		return entry, nil
	})
	return v.(cache.Entry)
}
