package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/triagehq/triage/internal/types"
)

var (
	createDescription string
	createSource      string
	createSourceID    string
	createSeverity    int
	createType        string
	createTags        []string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an issue by hand",
	Long: `Create an issue directly, bypassing source ingestion.

Useful for issues reported out of band (hallway conversations, incident
reviews) that have no feed to ingest from.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue := &types.Issue{
			Title:       args[0],
			Description: createDescription,
			Source:      types.Source(createSource),
			SourceID:    createSourceID,
			Severity:    createSeverity,
			Frequency:   1,
			IssueType:   types.IssueType(createType),
			Tags:        createTags,
		}

		if err := store.CreateIssue(cmd.Context(), issue); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s created %s: %s\n", green("✓"), issue.ID, issue.Title)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "issue description")
	createCmd.Flags().StringVarP(&createSource, "source", "s", string(types.SourceOther), "origin channel (chat, ticket, tracker, document, other)")
	createCmd.Flags().StringVar(&createSourceID, "source-id", "", "stable identifier within the source")
	createCmd.Flags().IntVar(&createSeverity, "severity", 3, "severity 1-5")
	createCmd.Flags().StringVarP(&createType, "type", "t", string(types.TypeBug), "issue type (bug or feature)")
	createCmd.Flags().StringSliceVar(&createTags, "tag", nil, "tag (repeatable)")
	rootCmd.AddCommand(createCmd)
}
