package objects

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbrombin/fvs/core"
)

// ErrBlobMissing is returned when a handle's backing blob is absent
// from its shard, whether during restore or a read-only content read.
var ErrBlobMissing = fmt.Errorf("objects: blob missing from the pool")

// FileHandle names one occurrence of content moving through the
// object pool: the file's original base name, its digest, and the
// relative path (from the working tree root) it is being read from
// or restored to. Grounded on the original Python fvs/file.py's
// FVSFile, narrowed to a single path per handle — each pool
// transaction call operates on one occurrence at a time, and any
// coalescing into multi-path lists happens one layer up, in the
// state's file index (§4.4, §4.6).
type FileHandle struct {
	FileName     string
	Digest       string
	RelativePath string

	root        string // working tree root, for CopyTo/Restore
	compression bool
}

// New builds a FileHandle rooted at root, the working tree root used
// to resolve RelativePath during CopyTo and Restore.
func New(root, fileName, digest, relativePath string, compression bool) *FileHandle {
	return &FileHandle{
		FileName:     fileName,
		Digest:       digest,
		RelativePath: relativePath,
		root:         root,
		compression:  compression,
	}
}

// blobPath is the on-disk location of this handle's content inside
// its shard directory: the digest, plus a ".tar.gz" suffix when
// compression is enabled.
func (f *FileHandle) blobPath(shardDir string) string {
	if f.compression {
		return filepath.Join(shardDir, f.Digest+".tar.gz")
	}
	return filepath.Join(shardDir, f.Digest)
}

// CopyTo stores the working-tree file named by f.RelativePath into
// shardDir, named by digest. When compression is enabled the content
// is archived via archiveFile instead of copied verbatim.
func (f *FileHandle) CopyTo(shardDir string) error {
	src := filepath.Join(f.root, f.RelativePath)
	dst := f.blobPath(shardDir)

	if core.FileExists(dst) {
		return nil
	}

	if f.compression {
		return archiveFile(src, dst, f.FileName)
	}
	return core.CopyFile(src, dst)
}

// Remove deletes this handle's blob from shardDir. A missing blob is
// not an error: the catalog and the blobs on disk can legitimately
// drift apart across a crash (§4.8), and removal must be idempotent.
func (f *FileHandle) Remove(shardDir string) error {
	path := f.blobPath(shardDir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob %s: %w", path, err)
	}
	return nil
}

// Restore writes this handle's content back into the working tree at
// f.RelativePath, creating parent directories as needed.
func (f *FileHandle) Restore(shardDir string) error {
	dst := filepath.Join(f.root, f.RelativePath)
	if err := core.EnsureDirExists(filepath.Dir(dst)); err != nil {
		return err
	}

	src := f.blobPath(shardDir)
	if !core.FileExists(src) {
		return fmt.Errorf("%w: digest %s", ErrBlobMissing, f.Digest)
	}

	if f.compression {
		return extractFile(src, dst)
	}
	return core.CopyFile(src, dst)
}

// Content reads this handle's blob into memory, decompressing it
// first if compression is enabled. Used for read-only inspection
// (the diff command) that has no reason to touch the working tree.
func (f *FileHandle) Content(shardDir string) ([]byte, error) {
	src := f.blobPath(shardDir)
	if !core.FileExists(src) {
		return nil, ErrBlobMissing
	}

	if !f.compression {
		return os.ReadFile(src)
	}

	tmp, err := os.CreateTemp("", "fvs-blob-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for blob read: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := extractFile(src, tmpPath); err != nil {
		return nil, err
	}
	return os.ReadFile(tmpPath)
}
