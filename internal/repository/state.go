package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mbrombin/fvs/core"
	"github.com/mbrombin/fvs/internal/diffwalker"
	"github.com/mbrombin/fvs/internal/logging"
	"github.com/mbrombin/fvs/internal/objects"
)

// bucketEntry is one coalesced catalog-adjacent record: a digest,
// the file name it came from, and every relative path in this state
// that currently holds that digest (§4.6, §6 files.json schema).
type bucketEntry struct {
	FileName      string   `json:"file_name"`
	Digest        string   `json:"sha1"`
	RelativePaths []string `json:"relative_paths"`
}

type bucket map[string]*bucketEntry

func (b bucket) add(fileName, digest, relativePath string) {
	entry, ok := b[digest]
	if !ok {
		entry = &bucketEntry{FileName: fileName, Digest: digest}
		b[digest] = entry
	}
	entry.RelativePaths = append(entry.RelativePaths, relativePath)
}

func (b bucket) hasPath(relativePath string) bool {
	for _, entry := range b {
		for _, p := range entry.RelativePaths {
			if p == relativePath {
				return true
			}
		}
	}
	return false
}

// fileIndex is the on-disk shape of a state's files.json, §6.
type fileIndex struct {
	Count    int    `json:"count"`
	Added    bucket `json:"added"`
	Modified bucket `json:"modified"`
	Removed  bucket `json:"removed"`
	Intact   bucket `json:"intact"`
}

func newFileIndex() fileIndex {
	return fileIndex{
		Added:    bucket{},
		Modified: bucket{},
		Removed:  bucket{},
		Intact:   bucket{},
	}
}

// State is an immutable, numbered snapshot of the working tree. Its
// mutators, commit and breakReferences, are unexported: this is the
// Go expression of the caller-identity guard the original carries as
// a runtime stack check (spec's "CallerWrongClass") — only code in
// this package (namely Repository) can invoke them, so there is
// nothing left to check at runtime.
type State struct {
	repo  *Repository
	id    int
	index fileIndex
	paths map[string]string // relative path -> digest, added ∪ modified ∪ intact
}

// newState returns an uninitialized state ready to commit.
func newState(repo *Repository) *State {
	return &State{repo: repo, id: -1, index: newFileIndex()}
}

// loadState loads a persisted state by id.
func loadState(repo *Repository, id int) (*State, error) {
	dir := repo.paths.StateDir(id)
	if !core.FileExists(dir) {
		return nil, newError(KindStateNotFound, "state %d not found", id)
	}

	indexPath := repo.paths.StateIndexPath(id)
	if !core.FileExists(indexPath) {
		return nil, newError(KindMissingStateIndex, "state %d has no file index", id)
	}

	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read state %d index: %w", id, err)
	}
	if len(data) == 0 {
		return nil, newError(KindEmptyStateIndex, "state %d file index is empty", id)
	}

	idx := newFileIndex()
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse state %d index: %w", id, err)
	}

	s := &State{repo: repo, id: id, index: idx}
	s.rebuildPathIndex()
	return s, nil
}

func (s *State) rebuildPathIndex() {
	s.paths = map[string]string{}
	for _, b := range []bucket{s.index.Added, s.index.Modified, s.index.Intact} {
		for digest, entry := range b {
			for _, p := range entry.RelativePaths {
				s.paths[p] = digest
			}
		}
	}
}

// Digest and Paths make State satisfy diffwalker.ActiveIndex.
func (s *State) Digest(relativePath string) (string, bool) {
	d, ok := s.paths[relativePath]
	return d, ok
}

func (s *State) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	return out
}

// fileNameFor returns the file name recorded alongside digest in
// this state's added/modified/intact buckets.
func (s *State) fileNameFor(digest string) string {
	for _, b := range []bucket{s.index.Added, s.index.Modified, s.index.Intact} {
		if entry, ok := b[digest]; ok {
			return entry.FileName
		}
	}
	return ""
}

// HasRelativePath reports whether relativePath appears in the named
// bucket. bucket must be one of "any", "added", "modified", "intact".
func (s *State) HasRelativePath(bucketName, relativePath string) (bool, error) {
	switch bucketName {
	case "any":
		_, ok := s.paths[relativePath]
		return ok, nil
	case "added":
		return s.index.Added.hasPath(relativePath), nil
	case "modified":
		return s.index.Modified.hasPath(relativePath), nil
	case "intact":
		return s.index.Intact.hasPath(relativePath), nil
	default:
		return false, newError(KindUnsupportedKey, "unsupported bucket %q", bucketName)
	}
}

// commit claims a state id (unless one was already bound), stages
// the change set into the object store, and persists the state's
// file index. See spec §4.6 for the step-by-step contract; the order
// below — add transaction, delete transaction, index write — matches
// it exactly and is load-bearing for crash recovery (§4.8).
func (s *State) commit(message string, changeSet *diffwalker.Result) error {
	if s.id != -1 && core.FileExists(s.repo.paths.StateDir(s.id)) {
		return newError(KindCommittingToExistingState, "state %d already has a persisted directory", s.id)
	}
	if strings.TrimSpace(message) == "" {
		return newError(KindEmptyCommitMessage, "commit message must not be empty")
	}
	if changeSet == nil {
		return newError(KindWrongUnstagedDict, "change set is missing")
	}

	if s.id == -1 {
		s.id = s.repo.NextStateID()
	}

	log := logging.WithComponent("state")
	log.Debug().Msgf("committing state %d with %d added, %d modified, %d removed, %d intact",
		s.id, len(changeSet.Added), len(changeSet.Modified), len(changeSet.Removed), len(changeSet.Intact))

	addTxn := s.repo.pool.Begin(s.id)
	for _, e := range changeSet.Added {
		fh := objects.New(s.repo.paths.Root, e.FileName, e.Digest, e.RelativePath, s.repo.compression)
		if err := addTxn.AddFile(fh); err != nil {
			return err
		}
		s.index.Added.add(e.FileName, e.Digest, e.RelativePath)
	}
	for _, e := range changeSet.Modified {
		fh := objects.New(s.repo.paths.Root, e.FileName, e.Digest, e.RelativePath, s.repo.compression)
		if err := addTxn.AddFile(fh); err != nil {
			return err
		}
		s.index.Modified.add(e.FileName, e.Digest, e.RelativePath)
	}
	if err := addTxn.Complete(); err != nil {
		return err
	}

	delTxn := s.repo.pool.Begin(s.id)
	for _, e := range changeSet.Removed {
		fh := objects.New(s.repo.paths.Root, e.FileName, e.Digest, e.RelativePath, s.repo.compression)
		if err := delTxn.DeleteFile(fh, s.id); err != nil {
			return err
		}
		s.index.Removed.add(e.FileName, e.Digest, e.RelativePath)
	}
	if err := delTxn.Complete(); err != nil {
		return err
	}

	for _, e := range changeSet.Intact {
		s.index.Intact.add(e.FileName, e.Digest, e.RelativePath)
	}

	s.index.Count = len(changeSet.Added) + len(changeSet.Modified) + len(changeSet.Removed)
	s.rebuildPathIndex()

	return s.save()
}

// breakReferences drops this state's references to every digest in
// its added and modified buckets. A digest referenced from this state
// under several relative paths holds a refcount equal to that path
// count (each AddFile call during commit bumped it by one), so it
// takes one DeleteFile per relative path to fully release the state's
// hold on it — a single call would only chip the count down by one
// and leave the blob stranded. Called only during cascade delete.
func (s *State) breakReferences() error {
	log := logging.WithComponent("state")
	log.Debug().Msgf("breaking references for state %d", s.id)

	txn := s.repo.pool.Begin(s.id)
	for _, b := range []bucket{s.index.Added, s.index.Modified} {
		for digest, entry := range b {
			fh := objects.New(s.repo.paths.Root, entry.FileName, digest, "", s.repo.compression)
			for range entry.RelativePaths {
				if err := txn.DeleteFile(fh, s.id); err != nil {
					return err
				}
			}
		}
	}
	return txn.Complete()
}

func (s *State) save() error {
	if core.FileExists(s.repo.paths.StateIndexPath(s.id)) {
		return newError(KindStateAlreadyExists, "state %d already has a persisted file index", s.id)
	}
	if err := core.EnsureDirExists(s.repo.paths.StateDir(s.id)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state %d index: %w", s.id, err)
	}
	if err := os.WriteFile(s.repo.paths.StateIndexPath(s.id), data, 0644); err != nil {
		return fmt.Errorf("failed to write state %d index: %w", s.id, err)
	}
	return nil
}
