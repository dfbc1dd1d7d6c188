package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion sweep across all configured sources",
	Long: `Fetch observations from every configured source, reconcile them into the
backlog, and enrich newly created issues with tracker linkage. Source and
per-item failures are isolated; the sweep reports them without aborting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}

		report, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Sweep %s ===", report.SweepID)))
		fmt.Printf("Fetched:  %d observations\n", report.Fetched)
		fmt.Printf("Created:  %d issues\n", len(report.Reconcile.Created))
		fmt.Printf("Merged:   %d observations\n", report.Reconcile.MergedCount)
		if report.Reconcile.RejectedCount > 0 {
			fmt.Printf("Rejected: %s\n", yellow(fmt.Sprintf("%d observations", report.Reconcile.RejectedCount)))
		}

		if len(report.FailedSources) > 0 {
			fmt.Printf("\n%s\n", red("Failed sources:"))
			names := make([]string, 0, len(report.FailedSources))
			for name := range report.FailedSources {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", name, report.FailedSources[name])
			}
		}

		if report.Enrichment != nil {
			fmt.Printf("\nLinkage: %d linked, %d unlinked, %d failed\n",
				report.Enrichment.Linked, report.Enrichment.Unlinked, report.Enrichment.Failed)
		}

		fmt.Printf("\nDone in %v\n", report.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
