// Package main provides the pitwall command line: the API server and one-shot
// queries over the results dataset, the race calendar and the news feeds.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/pitwall/internal/config"
	"github.com/yourusername/pitwall/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	jsonOutput bool
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(serveCmd, standingsCmd, constructorsCmd, circuitsCmd, compareCmd, topCmd,
		scheduleCmd, countdownCmd, newsCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "pitwall",
	Short: "Formula 1 statistics and race calendar",
	Long: `pitwall aggregates the historical Formula 1 results dataset into championship,
constructor, circuit and driver views, classifies the current season's calendar
and serves both over a JSON API with a live countdown stream.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pitwall %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	secretsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return err
	}

	appLog = logger.NewLogger(logger.Options{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		Output:      os.Stdout,
	})
	return nil
}
