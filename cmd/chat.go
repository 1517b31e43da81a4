package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seekforge/groundchat/internal/cache"
	"github.com/seekforge/groundchat/internal/chat"
	"github.com/seekforge/groundchat/internal/config"
	"github.com/seekforge/groundchat/internal/fetch"
	"github.com/seekforge/groundchat/internal/grounding"
	"github.com/seekforge/groundchat/internal/providers"
	"github.com/seekforge/groundchat/internal/search"
)

func chatCmd() *cobra.Command {
	var (
		characterName string
		systemPrompt  string
		message       string
		noSearch      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a character, interactively or one-shot",
		Long: `Chat with a character. Turns that need factual grounding trigger a web
search whose summary is injected before the reply is generated.

Examples:
  groundchat chat --character 孙悟空                 # Interactive REPL
  groundchat chat -c 孙悟空 -m "泰山的传说故事"       # One-shot message
  groundchat chat --no-search                        # Plain roleplay chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(characterName, systemPrompt, message, !noSearch)
		},
	}

	cmd.Flags().StringVarP(&characterName, "character", "c", "助手", "character name")
	cmd.Flags().StringVarP(&systemPrompt, "system", "s", "", "system prompt (default: built from character name)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "one-shot message (omit for interactive mode)")
	cmd.Flags().BoolVar(&noSearch, "no-search", false, "disable search grounding")

	return cmd
}

func runChat(characterName, systemPrompt, message string, enableSearch bool) error {
	cfg, err := config.Load(config.ResolvePath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("no API key: set OPENAI_API_KEY or provider.api_key in %s", config.ResolvePath())
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	if systemPrompt == "" {
		systemPrompt = fmt.Sprintf("你是%s。请始终保持角色，用%s的口吻、性格和知识背景与用户对话。",
			characterName, characterName)
	}

	character := chat.Character{Name: characterName}

	if message != "" {
		runTurn(engine, cfg, character, systemPrompt, nil, message, enableSearch)
		return nil
	}

	// Interactive REPL keeping in-process history, like the standalone chat
	// mode: no persistence, history lives for the session.
	fmt.Fprintf(os.Stderr, "Chatting with %s (Ctrl-D to exit)\n", characterName)
	var history []providers.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		result := runTurn(engine, cfg, character, systemPrompt, history, line, enableSearch)
		history = append(history,
			providers.Message{Role: providers.RoleUser, Content: line},
			providers.Message{Role: providers.RoleAssistant, Content: result.Response},
		)
	}
	return scanner.Err()
}

func runTurn(engine *chat.Engine, cfg *config.Config, character chat.Character,
	systemPrompt string, history []providers.Message, message string, enableSearch bool) chat.TurnResult {

	result := engine.RunTurn(context.Background(), chat.TurnRequest{
		UserMessage:  message,
		Character:    character,
		SystemPrompt: systemPrompt,
		History:      history,
		EnableSearch: enableSearch && cfg.Search.Enabled,
		Model:        cfg.Provider.Model,
		Temperature:  cfg.Chat.Temperature,
		MaxTokens:    cfg.Chat.MaxTokens,
	})

	fmt.Println(result.Response)
	if result.SearchPerformed {
		fmt.Fprintf(os.Stderr, "[searched %q, %d results]\n", result.SearchQuery, len(result.SearchResults))
	}
	fmt.Fprintf(os.Stderr, "[tokens %d, cost $%.6f]\n", result.TokensUsed, result.Cost)
	return result
}

func buildEngine(cfg *config.Config) (*chat.Engine, error) {
	provider := providers.NewOpenAIProvider("openai", cfg.Provider.APIKey, cfg.Provider.APIBase)

	searchCache, err := buildCache(cfg)
	if err != nil {
		return nil, err
	}

	adapter := search.NewAdapter(search.Config{
		Backend: search.NewDuckDuckGo(),
		Fetcher: fetch.New(),
		PageMax: cfg.Search.FetchMaxChars,
	})

	return chat.NewEngine(chat.Config{
		Provider:   provider,
		Decider:    grounding.NewDecider(provider, cfg.Provider.DecisionModel),
		Searcher:   adapter,
		Summarizer: grounding.NewSummarizer(provider, cfg.Provider.DecisionModel),
		Cache:      searchCache,
		MaxResults: cfg.Search.MaxResults,
	}), nil
}

func buildCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Search.Cache {
	case "", "memory":
		return cache.NewMemory(), nil
	case "lru":
		ttl := time.Duration(cfg.Search.CacheTTLMin) * time.Minute
		return cache.NewLRU(cfg.Search.CacheSize, ttl), nil
	case "sqlite":
		return cache.NewSQLite(cfg.Search.CachePath)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Search.Cache)
	}
}
