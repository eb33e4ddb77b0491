package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/krishicore/internal/config"
	"github.com/vampirenirmal/krishicore/internal/orchestrator"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "krishicore",
	Short: "Farming-advice query orchestration core",
	Long: `krishicore answers farming questions through a multi-phase reasoning
pipeline with live progress, multilingual answers, and cached news refresh.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		slog.SetDefault(slog.New(handler))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(speakCmd)
}

// newAdvisor loads config and wires the facade for one command run.
func newAdvisor() (*orchestrator.Advisor, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return orchestrator.New(cfg)
}
