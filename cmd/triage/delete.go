package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <issue-id>",
	Short: "Permanently delete an issue",
	Long: `Delete an issue from the backlog.

Deletion erases the issue's accumulated frequency. If the underlying
problem is fixed, prefer 'triage close': a closed issue keeps its history
and can be reopened when reports resurface.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteForce {
			return fmt.Errorf("refusing to delete %s without --force", args[0])
		}

		deleted, err := store.DeleteIssue(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("issue %s not found", args[0])
		}

		red := color.New(color.FgRed).SprintFunc()
		fmt.Printf("%s deleted %s\n", red("✗"), args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "confirm permanent deletion")
	rootCmd.AddCommand(deleteCmd)
}
