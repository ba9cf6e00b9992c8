package repository

import (
	"sort"

	"github.com/mbrombin/fvs/internal/objects"
)

// BlobContent reads the content a state recorded for relativePath,
// straight out of the object pool, without touching the working
// tree. It exists for read-only inspection (the bonus diff command);
// core commit/restore flows go through FileHandle.Restore instead.
func (r *Repository) BlobContent(stateID int, relativePath string) ([]byte, error) {
	state, err := loadState(r, stateID)
	if err != nil {
		return nil, err
	}

	digest, ok := state.Digest(relativePath)
	if !ok {
		return nil, newError(KindStateNotFound, "state %d has no entry for %s", stateID, relativePath)
	}

	fileName := state.fileNameFor(digest)
	fh := objects.New(r.paths.Root, fileName, digest, relativePath, r.compression)
	return fh.Content(r.pool.ShardDir(fileName))
}

// Paths returns every relative path state stateID currently claims
// (added ∪ modified ∪ intact), sorted, for commands that need to
// enumerate a state's content.
func (r *Repository) Paths(stateID int) ([]string, error) {
	state, err := loadState(r, stateID)
	if err != nil {
		return nil, err
	}
	paths := state.Paths()
	sort.Strings(paths)
	return paths, nil
}
