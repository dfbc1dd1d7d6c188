package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Re-check tracker linkage for every issue",
	Long: `Re-run tracker resolution for all stored issues.

Linkage recorded during past sweeps goes stale when tickets are filed or
closed in the external tracker. Resync re-resolves every issue and
overwrites its linkage with whatever the tracker says now.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner()
		if err != nil {
			return err
		}

		report, err := runner.Resync(cmd.Context())
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("resync: %s linked, %d unlinked", green(report.Linked), report.Unlinked)
		if report.Failed > 0 {
			fmt.Printf(", %s failed", yellow(report.Failed))
		}
		fmt.Println()

		if report.Failed > 0 {
			fmt.Fprintf(os.Stderr, "some issues could not be resolved; re-run resync to retry\n")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}
