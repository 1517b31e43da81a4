// Package config loads the host configuration from a JSON5 file with
// environment overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/titanous/json5"
)

// Defaults matching the models and limits the pipeline was tuned with.
const (
	DefaultModel         = "gpt-4o-ca"
	DefaultDecisionModel = "gpt-4o-mini"
)

// ProviderConfig selects the chat-completion endpoint and models.
type ProviderConfig struct {
	APIKey        string `json:"api_key"`
	APIBase       string `json:"api_base"`
	Model         string `json:"model"`
	DecisionModel string `json:"decision_model"`
}

// SearchConfig tunes the grounding pipeline.
type SearchConfig struct {
	Enabled       bool   `json:"enabled"`
	MaxResults    int    `json:"max_results"`
	FetchMaxChars int    `json:"fetch_max_chars"`
	Cache         string `json:"cache"`      // "memory", "lru", or "sqlite"
	CacheSize     int    `json:"cache_size"` // lru only
	CacheTTLMin   int    `json:"cache_ttl_minutes"`
	CachePath     string `json:"cache_path"` // sqlite only
}

// ChatConfig tunes final generation.
type ChatConfig struct {
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Config is the full host configuration.
type Config struct {
	Provider ProviderConfig `json:"provider"`
	Search   SearchConfig   `json:"search"`
	Chat     ChatConfig     `json:"chat"`
}

// Default returns a usable configuration with no credentials.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Model:         DefaultModel,
			DecisionModel: DefaultDecisionModel,
		},
		Search: SearchConfig{
			Enabled:       true,
			MaxResults:    8,
			FetchMaxChars: 3000,
			Cache:         "memory",
			CacheSize:     256,
		},
		Chat: ChatConfig{
			Temperature: 0.8,
			MaxTokens:   2000,
		},
	}
}

// Load reads the JSON5 file at path on top of defaults, then applies
// environment overrides. A missing file is not an error: defaults plus
// environment are enough for a working setup.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := json5.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// ResolvePath returns the config path: $GROUNDCHAT_CONFIG, or
// ~/.groundchat/config.json5.
func ResolvePath() string {
	if p := os.Getenv("GROUNDCHAT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json5"
	}
	return filepath.Join(home, ".groundchat", "config.json5")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_BASE"); v != "" {
		c.Provider.APIBase = v
	}
}

func (c *Config) normalize() {
	if c.Provider.Model == "" {
		c.Provider.Model = DefaultModel
	}
	if c.Provider.DecisionModel == "" {
		c.Provider.DecisionModel = DefaultDecisionModel
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 8
	}
	if c.Search.FetchMaxChars <= 0 {
		c.Search.FetchMaxChars = 3000
	}
	if c.Search.Cache == "" {
		c.Search.Cache = "memory"
	}
	if c.Search.CacheSize <= 0 {
		c.Search.CacheSize = 256
	}
	if c.Search.CachePath == "" {
		c.Search.CachePath = "groundchat-cache.db"
	}
	if c.Chat.MaxTokens <= 0 {
		c.Chat.MaxTokens = 2000
	}
}
