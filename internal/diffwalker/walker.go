// Package diffwalker walks a working tree against the repository's
// active state and classifies every file as added, modified, removed
// or intact (§4.5). Grounded on the teacher's internal/core index-vs-
// worktree diffing (core/fs.go's status walk), generalized away from
// git's staging index toward FVS's single active-state index.
package diffwalker

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/mbrombin/fvs/core"
	"github.com/mbrombin/fvs/internal/hashutil"
	"github.com/mbrombin/fvs/internal/ignore"
)

// Mode selects how a modified entry's digest is recorded.
type Mode int

const (
	// Commit records the newly computed digest for modified entries.
	Commit Mode = iota
	// Restore records the active state's original digest for modified
	// entries, so the file can be pulled back from the object pool.
	Restore
)

// Entry is one classified occurrence: a file name, its digest, and
// the relative path it was found (or is to be restored) at.
type Entry struct {
	FileName     string
	Digest       string
	RelativePath string
}

// Result is the walk's output, per §4.5.
type Result struct {
	Count    int // changed entries: added + modified + removed, intact excluded
	Added    []Entry
	Modified []Entry
	Removed  []Entry
	Intact   []Entry
}

// ActiveIndex is the subset of the active state's persisted file
// index the walker needs: digest lookup by relative path, and the
// full set of relative paths the state claims (to detect removals).
type ActiveIndex interface {
	Digest(relativePath string) (digest string, ok bool)
	Paths() []string
}

// Walk computes the diff between the working tree rooted at root and
// index, the active state's file index. index may be nil, meaning
// there is no active state: every walked file is then added and
// nothing is removed.
func Walk(root string, matcher *ignore.Matcher, index ActiveIndex, mode Mode) (*Result, error) {
	paths, err := collectPaths(root, matcher)
	if err != nil {
		return nil, err
	}

	digests, unhashable := hashAll(root, paths)

	result := &Result{}
	seen := make(map[string]bool, len(paths))

	for i, relPath := range paths {
		if unhashable[i] {
			// Missing, unreadable, or otherwise unhashable: per
			// §4.1, treated as absent rather than failing the walk.
			// Leaving it out of seen lets the removed-detection pass
			// below pick it up if the active state still claims it.
			continue
		}

		digest := digests[i]
		fileName := filepath.Base(relPath)
		seen[relPath] = true

		if index == nil {
			result.Added = append(result.Added, Entry{fileName, digest, relPath})
			continue
		}

		stateDigest, existed := index.Digest(relPath)
		switch {
		case existed && stateDigest == digest:
			result.Intact = append(result.Intact, Entry{fileName, digest, relPath})
		case existed:
			recorded := digest
			if mode == Restore {
				recorded = stateDigest
			}
			result.Modified = append(result.Modified, Entry{fileName, recorded, relPath})
		default:
			result.Added = append(result.Added, Entry{fileName, digest, relPath})
		}
	}

	if index != nil {
		statePaths := append([]string(nil), index.Paths()...)
		sort.Strings(statePaths)
		for _, relPath := range statePaths {
			if seen[relPath] {
				continue
			}
			digest, _ := index.Digest(relPath)
			result.Removed = append(result.Removed, Entry{filepath.Base(relPath), digest, relPath})
		}
	}

	result.Count = len(result.Added) + len(result.Modified) + len(result.Removed)
	return result, nil
}

// collectPaths walks root, skipping the .fvs control directory and
// any path the ignore matcher excludes, and returns the surviving
// relative paths in sorted order for deterministic classification.
func collectPaths(root string, matcher *ignore.Matcher) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && d.Name() == core.FVSDirName {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if strings.HasPrefix(relPath, core.FVSDirName+"/") {
			return nil
		}
		if matcher.Ignored(relPath) {
			return nil
		}
		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("diffwalker: failed to walk %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// hashAll computes the digest of every path in paths, using a bounded
// pool of goroutines. Results land in a slice indexed by position, so
// output order stays deterministic regardless of completion order —
// per spec §5's explicit allowance for parallel hashing. A path that
// hashutil.File can't hash (missing, unreadable, a directory) is
// reported via the parallel unhashable slice rather than aborting the
// walk — §4.1 treats such entries as absent, not as a fatal error.
func hashAll(root string, paths []string) ([]string, []bool) {
	digests := make([]string, len(paths))
	unhashable := make([]bool, len(paths))

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > len(paths) {
		workers = len(paths)
	}
	if workers == 0 {
		return digests, unhashable
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				digest, err := hashutil.File(filepath.Join(root, filepath.FromSlash(paths[i])))
				if err != nil {
					unhashable[i] = true
					continue
				}
				digests[i] = digest
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return digests, unhashable
}
