// Package grounding holds the two model-judgment steps of the search
// pipeline: deciding whether a user turn needs web grounding, and condensing
// retrieved pages into a brief the chat model can lean on.
package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/seekforge/groundchat/internal/providers"
)

// Decision is the outcome of one search-necessity judgment. Produced once
// per user turn and discarded after use.
type Decision struct {
	NeedSearch  bool   `json:"need_search"`
	SearchQuery string `json:"search_query"`
	Reason      string `json:"reason"`
}

// failedDecision is the fail-closed default: no search on any error.
var failedDecision = Decision{NeedSearch: false, SearchQuery: "", Reason: "决策失败"}

const decisionTemperature = 0.3

// Decider asks a model whether a query needs grounding and what to search.
type Decider struct {
	provider providers.Provider
	model    string
}

// NewDecider creates a Decider using the given (typically cheap) model.
func NewDecider(provider providers.Provider, model string) *Decider {
	return &Decider{provider: provider, model: model}
}

// Decide classifies the user message. Any call or decode failure yields the
// fail-closed default rather than an error: a broken judgment step must not
// trigger spurious searches.
func (d *Decider) Decide(ctx context.Context, userMessage, characterName string) Decision {
	prompt := fmt.Sprintf(decisionPromptTemplate, characterName, userMessage)

	resp, err := d.provider.Chat(ctx, providers.ChatRequest{
		Model:       d.model,
		Messages:    []providers.Message{{Role: providers.RoleUser, Content: prompt}},
		Temperature: decisionTemperature,
		JSONMode:    true,
	})
	if err != nil {
		slog.Warn("grounding: decision call failed", "error", err)
		return failedDecision
	}

	var decision Decision
	if err := json.Unmarshal([]byte(resp.Content), &decision); err != nil {
		slog.Warn("grounding: decision reply not valid JSON", "error", err, "content", resp.Content)
		return failedDecision
	}

	slog.Debug("grounding: decision",
		"need_search", decision.NeedSearch,
		"query", decision.SearchQuery,
		"reason", decision.Reason)
	return decision
}
