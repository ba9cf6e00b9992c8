// Package hashutil computes the stable per-file content digest used
// throughout FVS to identify file content in the object pool.
package hashutil

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// chunkSize is the block size used while hashing file content, per
// spec §4.1 ("blocked reads with a 1 MiB chunk").
const chunkSize = 1 << 20

// ErrUnhashable is returned when path is missing, unreadable, or a
// directory. The diff walker treats such paths as absent.
var ErrUnhashable = errors.New("hashutil: path is missing, unreadable, or a directory")

// File computes the digest of the file at path: SHA-1 of the file's
// byte content followed by the UTF-8 bytes of its base name.
func File(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", ErrUnhashable
	}
	if info.IsDir() {
		return "", ErrUnhashable
	}

	f, err := os.Open(path)
	if err != nil {
		return "", ErrUnhashable
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, chunkSize)
	// The wrapper hides *os.File's WriterTo so CopyBuffer reads through buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", ErrUnhashable
	}
	h.Write([]byte(filepath.Base(path)))

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes computes the digest of in-memory content under the given base
// name, for callers (such as tests) that already hold the content
// rather than a path on disk.
func Bytes(baseName string, content []byte) string {
	h := sha1.New()
	h.Write(content)
	h.Write([]byte(baseName))
	return hex.EncodeToString(h.Sum(nil))
}
