package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/linkage"
	"github.com/triagehq/triage/internal/sources"
	"github.com/triagehq/triage/internal/sweep"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data through the ingestion pipeline",
	Long: `Run a sweep over built-in demo sources.

Seed data flows through the same reconciliation and linkage pipeline as
real sources, so running it twice merges instead of duplicating.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, err := cfg.BuildResolver()
		if err != nil {
			return fmt.Errorf("failed to build resolver: %w", err)
		}
		enricher, err := linkage.NewEnricher(store, resolver, cfg.EnrichConcurrency)
		if err != nil {
			return err
		}

		runner, err := sweep.New(store, sources.SeedAdapters(), enricher)
		if err != nil {
			return err
		}

		report, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s seeded %d observations: %d created, %d merged\n",
			green("✓"), report.Fetched, len(report.Reconcile.Created), report.Reconcile.MergedCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
