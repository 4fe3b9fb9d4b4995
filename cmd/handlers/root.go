package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsdesk/internal/config"
	"newsdesk/internal/logger"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsdesk",
		Short: "newsdesk ingests world news and answers questions about it.",
		Long: `newsdesk collects articles from news feeds and listing pages, summarizes
and embeds them with an LLM, stores them in a vector index, and serves
a daily briefing and a grounded question-answering API.

Typical usage:
  newsdesk ingest            # one ingestion run
  newsdesk serve             # HTTP API and static front-end
  newsdesk schedule          # recurring ingestion
  newsdesk ask "question"    # answer from the stored news
  newsdesk briefing          # print today's briefing as JSON`,
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.newsdesk.yaml or $HOME/.newsdesk.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewIngestCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewScheduleCmd())
	rootCmd.AddCommand(NewAskCmd())
	rootCmd.AddCommand(NewBriefingCmd())
	rootCmd.AddCommand(NewMigrateCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies its logging settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	return cfg, nil
}
