package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show backlog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := store.GetStatistics(cmd.Context())
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Backlog Statistics ==="))
		fmt.Printf("Total issues:    %d\n", stats.TotalIssues)
		fmt.Printf("Open issues:     %d\n", stats.OpenIssues)
		if stats.CriticalIssues > 0 {
			fmt.Printf("Critical (S4+):  %s\n", red(fmt.Sprintf("%d", stats.CriticalIssues)))
		} else {
			fmt.Printf("Critical (S4+):  0\n")
		}
		fmt.Printf("Mean severity:   %.1f\n", stats.MeanSeverity)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
