package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbrombin/fvs/internal/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "fvs",
	Short: "fvs is a content-addressed, deduplicated local file versioning system",
	Long: `fvs tracks numbered states of a working tree in a .fvs control directory,
deduplicating identical file content across paths and states.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{Verbose: verbose})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
