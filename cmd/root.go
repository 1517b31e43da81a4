package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groundchat",
		Short: "Search-grounded character chat",
		Long: `groundchat hosts the search-grounding library behind a small chat REPL:
each turn is classified for search need, grounded with summarized web
content when warranted, and answered in the configured character's voice.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.AddCommand(chatCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd().Execute()
}
