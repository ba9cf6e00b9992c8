// cmd/init.go
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mbrombin/fvs/internal/repository"
)

var (
	initPath           string
	initIgnore         []string
	initUseCompression bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		absDir, err := filepath.Abs(initPath)
		if err != nil {
			return &ErrInvalidDirectory{Path: initPath, Err: err}
		}

		repo, report, err := repository.Init(absDir, initUseCompression, initIgnore)
		if err != nil {
			return err
		}

		fmt.Printf("Initialized fvs repository in %s\n", repo.Root())
		if report != nil {
			fmt.Printf("%s state %d: %s (added %d, modified %d, removed %d, intact %d)\n",
				color.GreenString("seeded"), report.StateID, report.Message,
				report.Added, report.Modified, report.Removed, report.Intact)
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", ".", "directory to initialize the repository in")
	initCmd.Flags().StringArrayVar(&initIgnore, "ignore", nil, "glob pattern to ignore (repeatable)")
	initCmd.Flags().BoolVar(&initUseCompression, "use-compression", false, "store blobs as gzip-tar archives")
	rootCmd.AddCommand(initCmd)
}
