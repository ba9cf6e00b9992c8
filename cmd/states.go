package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// statesCmd lists every recorded state, marking the active one.
// Grounded on the teacher's cmd/log.go, which walked a commit parent
// chain; FVS has no parent chain, just a flat id -> summary map, so
// this instead walks the manifest's states in id order.
var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List recorded states",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}

		states := repo.States()
		if len(states) == 0 {
			fmt.Println("No states")
			return nil
		}

		ids := make([]int, 0, len(states))
		for id := range states {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		active := repo.ActiveStateID()
		for _, id := range ids {
			summary := states[id]
			marker := "  "
			if id == active {
				marker = color.GreenString("* ")
			}
			ts := time.Unix(int64(summary.Timestamp), 0).Format(time.RFC1123)
			fmt.Printf("%sstate %d: %s (%s)\n", marker, id, summary.Message, ts)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statesCmd)
}
