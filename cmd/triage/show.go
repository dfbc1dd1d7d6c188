package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show one issue in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := store.GetIssue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if issue == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s %s %s\n\n", severityBadge(issue.Severity), cyan(issue.ID), issue.Title)
		if issue.Description != "" {
			fmt.Printf("%s\n\n", issue.Description)
		}

		fmt.Printf("Source:     %s", issue.Source)
		if issue.SourceID != "" {
			fmt.Printf(" (%s)", issue.SourceID)
		}
		fmt.Println()
		fmt.Printf("Status:     %s (%s)\n", issue.Status, issue.IssueType)
		fmt.Printf("Score:      %d (frequency %d x severity %d)\n", issue.Score(), issue.Frequency, issue.Severity)
		if len(issue.Tags) > 0 {
			fmt.Printf("Tags:       %s\n", strings.Join(issue.Tags, ", "))
		}

		switch issue.TrackerState {
		case types.TrackerLinked:
			fmt.Printf("Tracker:    %s (%s)\n", issue.TrackerKey, issue.TrackerStatus)
		case types.TrackerUnlinked:
			fmt.Printf("Tracker:    not found\n")
		default:
			fmt.Printf("Tracker:    %s\n", gray("not yet checked"))
		}

		fmt.Printf("\n%s\n", gray(fmt.Sprintf("created %s · updated %s",
			issue.CreatedAt.Format("2006-01-02 15:04"), issue.UpdatedAt.Format("2006-01-02 15:04"))))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
