package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/config"
	"github.com/triagehq/triage/internal/linkage"
	"github.com/triagehq/triage/internal/storage"
	"github.com/triagehq/triage/internal/sweep"
)

var (
	cfgPath string
	cfg     *config.Config
	store   storage.Storage
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Aggregate issue reports into a ranked backlog",
	Long: `Triage ingests issue observations from chat, support-ticket, tracker and
document sources, de-duplicates them by (source, source_id) identity, and
maintains a frequency-and-severity ranked backlog with external tracker
linkage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		store, err = storage.NewStorage(cmd.Context(), &storage.Config{Path: cfg.DBPath})
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

// newRunner builds a sweep runner from the loaded configuration
func newRunner() (*sweep.Runner, error) {
	resolver, err := cfg.BuildResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}

	enricher, err := linkage.NewEnricher(store, resolver, cfg.EnrichConcurrency)
	if err != nil {
		return nil, err
	}

	adapters, err := cfg.BuildAdapters()
	if err != nil {
		return nil, fmt.Errorf("failed to build source adapters: %w", err)
	}

	return sweep.New(store, adapters, enricher)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "triage.yaml", "path to configuration file")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
