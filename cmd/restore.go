package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	restoreStateID int
	restoreIgnore  []string
)

// restoreCmd moves the working tree and the active-state pointer
// back to a prior state, cascading through deletion of every later
// state.
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the working tree to a prior state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		if err := repo.RestoreState(restoreStateID, restoreIgnore); err != nil {
			return err
		}

		fmt.Printf("%s state %d\n", color.GreenString("restored to"), restoreStateID)
		return nil
	},
}

func init() {
	restoreCmd.Flags().IntVar(&restoreStateID, "state-id", -1, "state id to restore to")
	restoreCmd.Flags().StringArrayVar(&restoreIgnore, "ignore", nil, "glob pattern to ignore (repeatable)")
	restoreCmd.MarkFlagRequired("state-id")
	rootCmd.AddCommand(restoreCmd)
}
