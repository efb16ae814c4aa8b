package command

// root.go defines the root command for the prompterest binary.
// Subcommands load configuration themselves so "--help" works without a .env.

import (
	"fmt"
	"log/slog"
	"os"

	"prompterest/internal/config"
	"prompterest/internal/logger"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "prompterest",
	Short: "prompterest - a feed of AI prompts with ratings and comments",
	Long: `prompterest serves the prompt feed API and manages its database schema.

Use "prompterest serve" to start the HTTP API and "prompterest migrate up" to apply migrations.
Configuration comes from the environment or a .env file in the working directory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())
}

// loadRuntime reads and validates configuration and builds the logger
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	return cfg, log, nil
}
