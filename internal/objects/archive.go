package objects

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// archiveFile writes src into a single-entry gzip-tar archive at dst,
// named inside the archive as entryName. Compression mode is fixed
// at repository init (§4.7); no third-party tar/gzip library appears
// anywhere in the example pack, so this stays on the standard
// library's archive/tar and compress/gzip — see DESIGN.md.
func archiveFile(src, dst, entryName string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	header := &tar.Header{
		Name:    entryName,
		Mode:    int64(info.Mode().Perm()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write archive header for %s: %w", entryName, err)
	}
	if _, err := io.Copy(tw, in); err != nil {
		return fmt.Errorf("failed to write archive content for %s: %w", entryName, err)
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

// extractFile reads the single entry out of the gzip-tar archive at
// src and writes its content to dst. The entry name is validated
// against path traversal (zip-slip) even though each archive holds
// exactly one blob, since the archive format itself makes no such
// guarantee.
func extractFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream in %s: %w", src, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	header, err := tr.Next()
	if err != nil {
		return fmt.Errorf("failed to read archive entry in %s: %w", src, err)
	}

	if strings.Contains(header.Name, "..") || filepath.IsAbs(header.Name) {
		return fmt.Errorf("objects: archive entry %q in %s is unsafe", header.Name, src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, tr); err != nil {
		return fmt.Errorf("failed to extract %s: %w", dst, err)
	}
	return nil
}
