package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	commitMessage string
	commitIgnore  []string
)

// commitCmd defines the "commit" command with its usage and flags.
var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record the working tree as a new state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		report, err := repo.Commit(commitMessage, commitIgnore)
		if err != nil {
			return err
		}

		fmt.Printf("%s %d: %s\n", color.GreenString("state"), report.StateID, report.Message)
		fmt.Printf("  %s: %.0f\n", color.CyanString("timestamp"), report.Timestamp)
		fmt.Printf("  added %d, modified %d, removed %d, intact %d\n",
			report.Added, report.Modified, report.Removed, report.Intact)
		return nil
	},
}

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "commit message")
	commitCmd.Flags().StringArrayVar(&commitIgnore, "ignore", nil, "glob pattern to ignore (repeatable)")
	rootCmd.AddCommand(commitCmd)
}
