// Package objects implements the content-addressed object pool
// (§4.3) and the file handle that moves content in and out of it
// (§4.4). Grounded on the teacher's internal/objects/blob.go (plain
// on-disk blob storage keyed by a hash, one file per blob) and on the
// original Python fvs/data.py's catalog/transaction design, upgraded
// per spec §3 to per-state reference counts instead of a flat list of
// state ids.
package objects

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mbrombin/fvs/core"
	"github.com/mbrombin/fvs/internal/logging"
)

// shards lists the 37 shard directories under the pool root, per
// spec §3 ("a-z, 0-9, -").
var shards = func() []string {
	s := make([]string, 0, 37)
	for c := 'a'; c <= 'z'; c++ {
		s = append(s, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		s = append(s, string(c))
	}
	s = append(s, "-")
	return s
}()

// ShardFor returns the shard bucket for a file name: the lowercase
// first character if it is [a-z0-9], else "-".
func ShardFor(fileName string) string {
	if fileName == "" {
		return "-"
	}
	c := strings.ToLower(fileName[:1])
	if c >= "a" && c <= "z" {
		return c
	}
	if c >= "0" && c <= "9" {
		return c
	}
	return "-"
}

// CatalogEntry is one digest's catalog record (§3, §6).
type CatalogEntry struct {
	FileName string      `json:"file_name"`
	Digest   string      `json:"sha1"`
	States   map[int]int `json:"states"`
}

// Catalog is the object pool's digest -> entry map (§6, data.json).
type Catalog map[string]*CatalogEntry

// ErrTransactionAlreadyStarted is returned when a transaction already
// committed to one kind (add or delete) is asked to perform the other.
var ErrTransactionAlreadyStarted = fmt.Errorf("objects: a transaction may only add or only delete, not both")

// ErrNoState is returned when a transaction operation is attempted
// without a bound state id.
var ErrNoState = fmt.Errorf("objects: object-store transaction has no state")

// Kind distinguishes the two transaction shapes the pool supports.
type Kind int

const (
	kindUnset Kind = iota
	KindAdd
	KindDelete
)

// Pool is the repository's content-addressed blob store.
type Pool struct {
	paths       core.Paths
	compression bool
	catalog     Catalog
}

// Open loads (or initializes) the object pool rooted at paths,
// creating the 37 shard directories and an empty catalog on first use.
func Open(paths core.Paths, compression bool) (*Pool, error) {
	if err := core.EnsureDirExists(paths.DataDir()); err != nil {
		return nil, err
	}
	for _, shard := range shards {
		if err := core.EnsureDirExists(filepath.Join(paths.DataDir(), shard)); err != nil {
			return nil, err
		}
	}

	catalog := Catalog{}
	if core.FileExists(paths.CatalogPath()) {
		data, err := os.ReadFile(paths.CatalogPath())
		if err != nil {
			return nil, fmt.Errorf("failed to read object catalog: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &catalog); err != nil {
				return nil, fmt.Errorf("failed to parse object catalog: %w", err)
			}
		}
	} else if err := writeCatalog(paths, catalog); err != nil {
		return nil, err
	}

	return &Pool{paths: paths, compression: compression, catalog: catalog}, nil
}

func writeCatalog(paths core.Paths, catalog Catalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode object catalog: %w", err)
	}
	if err := os.WriteFile(paths.CatalogPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write object catalog: %w", err)
	}
	return nil
}

// ShardDir returns the on-disk directory for a given file name's shard.
func (p *Pool) ShardDir(fileName string) string {
	return filepath.Join(p.paths.DataDir(), ShardFor(fileName))
}

// Has reports whether the catalog already contains an entry for digest.
func (p *Pool) Has(digest string) bool {
	_, ok := p.catalog[digest]
	return ok
}

// Transaction is a single-kind batch of catalog edits against one
// state id, per §4.3's contract. Blob copies/removals are queued and
// only performed on Complete, after which the catalog is persisted —
// blobs first, catalog last, per the crash-ordering in §4.8.
type Transaction struct {
	pool    *Pool
	stateID int
	kind    Kind
	pending []*FileHandle
}

// Begin starts a transaction scoped to stateID. Its kind is
// determined by the first AddFile/DeleteFile call.
func (p *Pool) Begin(stateID int) *Transaction {
	return &Transaction{pool: p, stateID: stateID}
}

func (t *Transaction) setKind(k Kind) error {
	if t.kind == kindUnset {
		t.kind = k
		return nil
	}
	if t.kind != k {
		return ErrTransactionAlreadyStarted
	}
	return nil
}

// AddFile records that fh's digest is referenced once more by t's
// state, queuing a blob copy if the digest or the state association
// is new. fh must carry exactly the single relative path being added
// so CopyTo can read the right source file; see FileHandle.
func (t *Transaction) AddFile(fh *FileHandle) error {
	if t.stateID < 0 {
		return ErrNoState
	}
	if err := t.setKind(KindAdd); err != nil {
		return err
	}

	log := logging.WithComponent("pool")
	entry, exists := t.pool.catalog[fh.Digest]
	if !exists {
		log.Debug().Msgf("adding digest %s (%s) to catalog", fh.Digest, fh.FileName)
		entry = &CatalogEntry{
			FileName: fh.FileName,
			Digest:   fh.Digest,
			States:   map[int]int{t.stateID: 1},
		}
		t.pool.catalog[fh.Digest] = entry
		t.pending = append(t.pending, fh)
		return nil
	}

	if _, hasState := entry.States[t.stateID]; !hasState {
		log.Debug().Msgf("linking state %d to digest %s", t.stateID, fh.Digest)
		entry.States[t.stateID] = 1
		t.pending = append(t.pending, fh)
		return nil
	}

	entry.States[t.stateID]++
	log.Debug().Msgf("digest %s already in catalog for state %d, bumping refcount to %d", fh.Digest, t.stateID, entry.States[t.stateID])
	return nil
}

// DeleteFile decrements the reference count that stateID holds on
// fh's digest, queuing the blob for removal (and dropping the
// catalog entry) once the last state reference is gone. Missing
// entries are tolerated (logged, not erred), per §4.3.
func (t *Transaction) DeleteFile(fh *FileHandle, stateID int) error {
	if err := t.setKind(KindDelete); err != nil {
		return err
	}

	log := logging.WithComponent("pool")
	entry, exists := t.pool.catalog[fh.Digest]
	if !exists {
		log.Debug().Msgf("digest %s not in catalog, ignoring delete", fh.Digest)
		return nil
	}

	count, hasState := entry.States[stateID]
	if !hasState {
		log.Debug().Msgf("digest %s has no state %d, ignoring delete", fh.Digest, stateID)
		return nil
	}

	count--
	if count > 0 {
		entry.States[stateID] = count
		return nil
	}

	delete(entry.States, stateID)
	if len(entry.States) == 0 {
		log.Debug().Msgf("state %d was the last reference to digest %s, removing blob", stateID, fh.Digest)
		delete(t.pool.catalog, fh.Digest)
		t.pending = append(t.pending, fh)
	}
	return nil
}

// Complete flushes the transaction: performs queued blob copies
// (KindAdd) or removals (KindDelete), then rewrites the catalog file.
// This order — blobs, then catalog — is load-bearing: see §4.8.
func (t *Transaction) Complete() error {
	switch t.kind {
	case KindAdd:
		for _, fh := range t.pending {
			if err := fh.CopyTo(t.pool.ShardDir(fh.FileName)); err != nil {
				return fmt.Errorf("failed to store blob for %s: %w", fh.Digest, err)
			}
		}
	case KindDelete:
		for _, fh := range t.pending {
			if err := fh.Remove(t.pool.ShardDir(fh.FileName)); err != nil {
				return fmt.Errorf("failed to remove blob for %s: %w", fh.Digest, err)
			}
		}
	}

	return writeCatalog(t.pool.paths, t.pool.catalog)
}
