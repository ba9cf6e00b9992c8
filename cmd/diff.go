package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

// diffCmd is additive, read-only, and outside the core specification:
// it shows a line-level diff between a state's recorded content for a
// path and the same path's current content in the working tree.
// Grounded on the teacher's internal/merge/diff.go, which already
// depends directly on sergi/go-diff/diffmatchpatch for three-way
// merges; here it drives a plain two-way diff instead.
var diffCmd = &cobra.Command{
	Use:   "diff <state-id> <path>",
	Short: "Show a line diff between a state's content and the working tree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var stateID int
		if _, err := fmt.Sscanf(args[0], "%d", &stateID); err != nil {
			return fmt.Errorf("invalid state id %q", args[0])
		}
		relPath := filepath.ToSlash(args[1])

		repo, err := openRepository()
		if err != nil {
			return err
		}

		stateContent, err := repo.BlobContent(stateID, relPath)
		if err != nil {
			return fmt.Errorf("failed to read %s from state %d: %w", relPath, stateID, err)
		}

		workingContent, err := os.ReadFile(filepath.Join(repo.Root(), filepath.FromSlash(relPath)))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s from the working tree: %w", relPath, err)
		}

		dmp := diffmatchpatch.New()
		stateChars, workingChars, lines := dmp.DiffLinesToChars(string(stateContent), string(workingContent))
		diffs := dmp.DiffMain(stateChars, workingChars, false)
		diffs = dmp.DiffCharsToLines(diffs, lines)
		diffs = dmp.DiffCleanupSemantic(diffs)

		fmt.Println(dmp.DiffPrettyText(diffs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
