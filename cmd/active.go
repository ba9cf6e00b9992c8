package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// activeCmd prints the active state id, per the CLI surface's "active"
// command.
var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Print the active state id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		if id := repo.ActiveStateID(); id < 0 {
			fmt.Println("No active state")
		} else {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(activeCmd)
}
