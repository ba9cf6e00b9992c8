// Package ignore implements the ignore-pattern predicate: a pure
// glob-style matcher over paths relative to the repository root.
//
// Grounded on the teacher's .vecignore matching in core/fs.go
// (filepath.Match against the relative path and each of its parent
// prefixes), generalized into a standalone, reusable Matcher per
// spec §4.2.
package ignore

import (
	"path/filepath"
	"strings"
)

// Matcher holds a set of shell-style glob patterns (*, ?, [...]) and
// answers whether a given relative path is ignored by any of them.
type Matcher struct {
	patterns []string
}

// New builds a Matcher from the given patterns, dropping blanks.
func New(patterns []string) *Matcher {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m.patterns = append(m.patterns, filepath.Clean(p))
	}
	return m
}

// Ignored reports whether relPath (relative to the repository root,
// using the OS path separator) matches any configured pattern. A
// pattern matches if it matches the full relative path or any of its
// parent directory segments.
func (m *Matcher) Ignored(relPath string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	relPath = filepath.Clean(relPath)
	parts := strings.Split(relPath, string(filepath.Separator))

	for _, pattern := range m.patterns {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		for i := range parts {
			partial := filepath.Join(parts[:i+1]...)
			if matched, _ := filepath.Match(pattern, partial); matched {
				return true
			}
		}
	}
	return false
}
