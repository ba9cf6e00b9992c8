package core

import (
	"path/filepath"
	"strconv"
)

// Paths resolves the on-disk locations inside a repository's control
// directory, per spec §6's control-directory layout; blob paths within
// a shard are resolved by internal/objects. It carries no
// behavior beyond path arithmetic; mutation is the job of the
// repository, state and objects packages.
type Paths struct {
	Root string // working tree root
}

// NewPaths returns a Paths rooted at root.
func NewPaths(root string) Paths {
	return Paths{Root: root}
}

// FVSDir is the hidden control directory, ".fvs", at the tree root.
func (p Paths) FVSDir() string { return filepath.Join(p.Root, FVSDirName) }

// ManifestPath is the repository manifest file, ".fvs/repo.json".
func (p Paths) ManifestPath() string { return filepath.Join(p.FVSDir(), "repo.json") }

// StatesDir is the per-state directory root, ".fvs/states".
func (p Paths) StatesDir() string { return filepath.Join(p.FVSDir(), "states") }

// StateDir is the directory for a single state id, ".fvs/states/<id>".
func (p Paths) StateDir(stateID int) string {
	return filepath.Join(p.StatesDir(), strconv.Itoa(stateID))
}

// StateIndexPath is a state's file index, ".fvs/states/<id>/files.json".
func (p Paths) StateIndexPath(stateID int) string {
	return filepath.Join(p.StateDir(stateID), "files.json")
}

// DataDir is the object pool root, ".fvs/data".
func (p Paths) DataDir() string { return filepath.Join(p.FVSDir(), "data") }

// CatalogPath is the object pool catalog, ".fvs/data/data.json".
func (p Paths) CatalogPath() string { return filepath.Join(p.DataDir(), "data.json") }

// LogPath is ".fvs/fvs.log". Nothing in this module writes to it;
// internal/logging writes to stderr.
func (p Paths) LogPath() string { return filepath.Join(p.FVSDir(), "fvs.log") }
