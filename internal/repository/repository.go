// Package repository implements the repository orchestration layer:
// init, commit, states listing and state restore (§4.7), built on top
// of the object store (internal/objects) and the diff walker
// (internal/diffwalker). Grounded on the teacher's
// internal/repository/repository.go, whose CreateRepository /
// CreateBareRepo pair this module's Init replaces with a single
// idempotent operation, since FVS has no bare-repository concept.
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mbrombin/fvs/core"
	"github.com/mbrombin/fvs/internal/diffwalker"
	"github.com/mbrombin/fvs/internal/ignore"
	"github.com/mbrombin/fvs/internal/logging"
	"github.com/mbrombin/fvs/internal/objects"
)

// Repository is the orchestration handle for one working tree's
// control directory.
type Repository struct {
	paths       core.Paths
	compression bool
	pool        *objects.Pool
	manifest    *Manifest
}

// CommitReport summarizes a successful commit, per the CLI surface's
// "prints state id, message, timestamp, and counts" requirement.
type CommitReport struct {
	StateID   int
	Message   string
	Timestamp float64
	Added     int
	Modified  int
	Removed   int
	Intact    int
}

// Init ensures the control directory layout exists at root and writes
// a default manifest if one is not already present; it is safe to
// call on an existing repository. useCompression only takes effect on
// the very first init — an existing repository keeps the compression
// mode it was created with. On first creation it also attempts a
// seed commit with message "Init"; a resulting NothingToCommit (an
// empty tree) is swallowed rather than returned as an error, per
// spec §7's explicit carve-out for this one case.
func Init(root string, useCompression bool, ignorePatterns []string) (*Repository, *CommitReport, error) {
	paths := core.NewPaths(root)
	firstTime := !core.FileExists(paths.ManifestPath())

	if err := core.EnsureDirExists(paths.FVSDir()); err != nil {
		return nil, nil, err
	}
	if err := core.EnsureDirExists(paths.StatesDir()); err != nil {
		return nil, nil, err
	}

	manifest, err := loadManifest(paths)
	if err != nil {
		return nil, nil, err
	}
	if firstTime {
		manifest.Compression = useCompression
		if err := manifest.save(paths); err != nil {
			return nil, nil, err
		}
	}

	pool, err := objects.Open(paths, manifest.Compression)
	if err != nil {
		return nil, nil, err
	}

	repo := &Repository{paths: paths, compression: manifest.Compression, pool: pool, manifest: manifest}

	if !firstTime {
		return repo, nil, nil
	}

	logging.WithComponent("repository").Debug().Msg("seeding new repository with an initial commit")
	report, err := repo.Commit("Init", ignorePatterns)
	if err != nil {
		if Is(err, KindNothingToCommit) {
			return repo, nil, nil
		}
		return repo, nil, err
	}
	return repo, report, nil
}

// Open loads an existing repository rooted at root.
func Open(root string) (*Repository, error) {
	paths := core.NewPaths(root)
	if !core.FileExists(paths.ManifestPath()) {
		return nil, fmt.Errorf("repository: no repository found at %s", root)
	}

	manifest, err := loadManifest(paths)
	if err != nil {
		return nil, err
	}
	pool, err := objects.Open(paths, manifest.Compression)
	if err != nil {
		return nil, err
	}

	return &Repository{paths: paths, compression: manifest.Compression, pool: pool, manifest: manifest}, nil
}

// Root returns the working tree root this repository manages.
func (r *Repository) Root() string { return r.paths.Root }

// NextStateID is max(existing ids) + 1, or 0 if the repository has
// no states yet.
func (r *Repository) NextStateID() int {
	max := -1
	for id := range r.manifest.States {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// ActiveStateID returns the active state id, or -1 if there is none.
func (r *Repository) ActiveStateID() int { return r.manifest.ActiveStateID }

// States returns the manifest's recorded states, keyed by id.
func (r *Repository) States() map[int]StateSummary {
	return r.manifest.States
}

func (r *Repository) loadActiveState() (*State, error) {
	if r.manifest.ActiveStateID < 0 {
		return nil, nil
	}
	return loadState(r, r.manifest.ActiveStateID)
}

// Commit runs the diff walker in commit mode against the active
// state, fails with NothingToCommit if nothing changed, and otherwise
// builds and persists a new state before advancing the manifest's
// active pointer.
func (r *Repository) Commit(message string, ignorePatterns []string) (*CommitReport, error) {
	active, err := r.loadActiveState()
	if err != nil {
		return nil, err
	}

	var index diffwalker.ActiveIndex
	if active != nil {
		index = active
	}

	matcher := ignore.New(ignorePatterns)
	result, err := diffwalker.Walk(r.paths.Root, matcher, index, diffwalker.Commit)
	if err != nil {
		return nil, err
	}
	if result.Count == 0 {
		return nil, newError(KindNothingToCommit, "nothing to commit")
	}

	state := newState(r)
	if err := state.commit(message, result); err != nil {
		return nil, err
	}

	timestamp := float64(time.Now().UnixNano()) / 1e9
	r.manifest.States[state.id] = StateSummary{Message: message, Timestamp: timestamp}
	r.manifest.ActiveStateID = state.id
	if err := r.manifest.save(r.paths); err != nil {
		return nil, err
	}

	return &CommitReport{
		StateID:   state.id,
		Message:   message,
		Timestamp: timestamp,
		Added:     len(result.Added),
		Modified:  len(result.Modified),
		Removed:   len(result.Removed),
		Intact:    len(result.Intact),
	}, nil
}

// RestoreState moves the working tree and the active-state pointer
// back to stateID, cascading through deletion of every later state.
// See spec §4.7 for the exact step order this mirrors.
func (r *Repository) RestoreState(stateID int, ignorePatterns []string) error {
	if _, ok := r.manifest.States[stateID]; !ok {
		return newError(KindStateNotFound, "state %d not found", stateID)
	}

	r.manifest.ActiveStateID = stateID

	target, err := loadState(r, stateID)
	if err != nil {
		return err
	}

	matcher := ignore.New(ignorePatterns)
	result, err := diffwalker.Walk(r.paths.Root, matcher, target, diffwalker.Restore)
	if err != nil {
		return err
	}
	if result.Count == 0 {
		return newError(KindNothingToRestore, "nothing to restore")
	}

	subsequent := -1
	for id := range r.manifest.States {
		if id > stateID && (subsequent == -1 || id < subsequent) {
			subsequent = id
		}
	}
	if subsequent != -1 {
		if err := r.deleteStateCascade(subsequent); err != nil {
			return err
		}
	}

	log := logging.WithComponent("repository")
	for _, e := range result.Added {
		path := filepath.Join(r.paths.Root, filepath.FromSlash(e.RelativePath))
		log.Debug().Msgf("restore: removing %s (absent from state %d)", e.RelativePath, stateID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s during restore: %w", e.RelativePath, err)
		}
	}
	for _, e := range append(append([]diffwalker.Entry{}, result.Modified...), result.Removed...) {
		fh := objects.New(r.paths.Root, e.FileName, e.Digest, e.RelativePath, r.compression)
		if err := fh.Restore(r.pool.ShardDir(e.FileName)); err != nil {
			return err
		}
	}

	return r.manifest.save(r.paths)
}

// deleteStateCascade deletes fromID and every state with a greater
// id: breaking each one's object-store references, rewinding the
// active pointer to the nearest smaller surviving id, and removing
// its state directory.
func (r *Repository) deleteStateCascade(fromID int) error {
	var ids []int
	for id := range r.manifest.States {
		if id >= fromID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		if id == 0 {
			return newError(KindStateZeroNotDeletable, "state 0 cannot be deleted")
		}

		st, err := loadState(r, id)
		if err != nil {
			return err
		}
		if err := st.breakReferences(); err != nil {
			return err
		}

		delete(r.manifest.States, id)
		r.manifest.ActiveStateID = r.nearestSurvivingID(id)

		if err := os.RemoveAll(r.paths.StateDir(id)); err != nil {
			return fmt.Errorf("failed to remove state %d directory: %w", id, err)
		}
	}
	return nil
}

func (r *Repository) nearestSurvivingID(below int) int {
	best := 0
	for id := range r.manifest.States {
		if id < below && id > best {
			best = id
		}
	}
	return best
}
