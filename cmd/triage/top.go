package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/rank"
	"github.com/triagehq/triage/internal/types"
)

var topLimit int

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the ranked backlog",
	Long: `List issues ordered by priority score (frequency x severity), highest
first. Equal scores rank the more recently created issue first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ranker, err := rank.New(store)
		if err != nil {
			return err
		}

		issues, err := ranker.TopIssues(cmd.Context(), topLimit)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Top Issues ==="))
		if len(issues) == 0 {
			fmt.Printf("  %s\n", gray("Backlog is empty"))
			return nil
		}

		for i, issue := range issues {
			fmt.Printf("%2d. %s %s %s\n", i+1, severityBadge(issue.Severity), issue.ID, issue.Title)
			details := []string{
				fmt.Sprintf("score %d", issue.Score()),
				fmt.Sprintf("freq %d", issue.Frequency),
				fmt.Sprintf("sev %d", issue.Severity),
				string(issue.Source),
				string(issue.Status),
			}
			if issue.TrackerState == types.TrackerLinked {
				details = append(details, fmt.Sprintf("%s (%s)", issue.TrackerKey, issue.TrackerStatus))
			}
			fmt.Printf("    %s\n", gray(strings.Join(details, " · ")))
		}

		stats := rank.Stats(issues)
		fmt.Printf("\n%d issues · %d open · %d critical · mean severity %.1f\n",
			stats.TotalIssues, stats.OpenIssues, stats.CriticalIssues, stats.MeanSeverity)

		return nil
	},
}

// severityBadge renders severity as a colored marker
func severityBadge(severity int) string {
	switch {
	case severity >= 5:
		return color.New(color.FgRed, color.Bold).Sprint("[S5]")
	case severity == 4:
		return color.New(color.FgRed).Sprint("[S4]")
	case severity == 3:
		return color.New(color.FgYellow).Sprint("[S3]")
	default:
		return color.New(color.FgHiBlack).Sprintf("[S%d]", severity)
	}
}

func init() {
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 10, "maximum issues to show")
	rootCmd.AddCommand(topCmd)
}
