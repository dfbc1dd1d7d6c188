package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/types"
)

var closeCmd = &cobra.Command{
	Use:   "close <issue-id>",
	Short: "Close an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := store.GetIssue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if issue == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}
		if issue.Status == types.StatusClosed {
			fmt.Printf("%s is already closed\n", issue.ID)
			return nil
		}

		err = store.UpdateIssue(cmd.Context(), issue.ID, map[string]interface{}{
			"status": string(types.StatusClosed),
		})
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s closed %s: %s\n", green("✓"), issue.ID, issue.Title)
		return nil
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen <issue-id>",
	Short: "Reopen a closed issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := store.GetIssue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if issue == nil {
			return fmt.Errorf("issue %s not found", args[0])
		}
		if issue.Status == types.StatusOpen {
			fmt.Printf("%s is already open\n", issue.ID)
			return nil
		}

		err = store.UpdateIssue(cmd.Context(), issue.ID, map[string]interface{}{
			"status": string(types.StatusOpen),
		})
		if err != nil {
			return err
		}

		fmt.Printf("reopened %s: %s\n", issue.ID, issue.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(reopenCmd)
}
