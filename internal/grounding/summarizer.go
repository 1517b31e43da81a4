package grounding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/seekforge/groundchat/internal/providers"
	"github.com/seekforge/groundchat/internal/search"
)

const (
	summaryMaxSources    = 5
	summarySourceChars   = 1500 // runes of full content per source in the prompt
	summarySourceFloor   = 200  // never shrink a source below this
	fallbackSourceChars  = 300  // runes per source in the no-model fallback
	summaryMaxTokens     = 1000
	summaryTemperature   = 0.3
	summaryPromptBudget  = 6000 // token ceiling for the assembled prompt
	summaryTokenEncoding = "cl100k_base"
)

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// Summarizer condenses retrieved pages into a structured Chinese brief.
type Summarizer struct {
	provider providers.Provider
	model    string
}

// NewSummarizer creates a Summarizer using the given model.
func NewSummarizer(provider providers.Provider, model string) *Summarizer {
	return &Summarizer{provider: provider, model: model}
}

// Summarize returns a non-empty, bounded brief for the results. Empty input
// returns NoInformation without a model call. A model failure falls back to a
// deterministic concatenation of titles and leading content, so the caller
// always gets something usable.
func (s *Summarizer) Summarize(ctx context.Context, query string, results []search.Result) string {
	if len(results) == 0 {
		return NoInformation
	}

	prompt := s.buildPrompt(query, results)

	resp, err := s.provider.Chat(ctx, providers.ChatRequest{
		Model:       s.model,
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: prompt}},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		slog.Warn("grounding: summary call failed, using fallback", "error", err)
		return fallbackSummary(results)
	}

	slog.Debug("grounding: summary complete", "chars", len(resp.Content))
	return resp.Content
}

// buildPrompt assembles the summary prompt, shrinking the per-source content
// slice until the whole prompt fits the token budget. The instruction lines
// sit after the sources, so the trimming must happen inside the source
// blocks, never at the prompt tail.
func (s *Summarizer) buildPrompt(query string, results []search.Result) string {
	n := len(results)
	if n > summaryMaxSources {
		n = summaryMaxSources
	}

	contentMax := summarySourceChars
	for {
		blocks := make([]string, 0, n)
		for i := 0; i < n; i++ {
			blocks = append(blocks, sourceBlock(i, results[i], contentMax))
		}
		prompt := fmt.Sprintf(summaryPromptTemplate, query, joinSourceBlocks(blocks))

		tokens, ok := tokenCount(prompt)
		if !ok || tokens <= summaryPromptBudget {
			return prompt
		}
		if contentMax <= summarySourceFloor {
			slog.Warn("grounding: summary prompt over token budget at minimum source size",
				"tokens", tokens)
			return prompt
		}
		slog.Debug("grounding: shrinking summary sources",
			"tokens", tokens, "chars_per_source", contentMax)
		contentMax /= 2
	}
}

// fallbackSummary is the deterministic no-model tier: titles plus leading
// content of the first sources.
func fallbackSummary(results []search.Result) string {
	n := len(results)
	if n > summaryMaxSources {
		n = summaryMaxSources
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("【%s】\n%s",
			results[i].Title, truncateRunes(results[i].FullContent, fallbackSourceChars)))
	}
	return strings.Join(parts, "\n\n")
}

// tokenCount reports the token length of s under the configured encoding.
// ok is false when the BPE data is unavailable; callers then rely on the
// rune bounds alone.
func tokenCount(s string) (int, bool) {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(summaryTokenEncoding)
		if err != nil {
			slog.Warn("grounding: token encoding unavailable", "error", err)
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return 0, false
	}
	return len(encoding.Encode(s, nil, nil)), true
}
