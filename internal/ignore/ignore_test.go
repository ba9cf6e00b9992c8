package ignore

import "testing"

func TestIgnoredMatchesFullPath(t *testing.T) {
	m := New([]string{"*.log"})
	if !m.Ignored("a.log") {
		t.Errorf("expected a.log to be ignored")
	}
	if m.Ignored("b.txt") {
		t.Errorf("expected b.txt to not be ignored")
	}
}

func TestIgnoredMatchesParentDirectory(t *testing.T) {
	m := New([]string{"build"})
	if !m.Ignored("build/output/bin") {
		t.Errorf("expected a path under an ignored directory to be ignored")
	}
}

func TestNilMatcherIgnoresNothing(t *testing.T) {
	var m *Matcher
	if m.Ignored("anything") {
		t.Errorf("expected a nil matcher to ignore nothing")
	}
}

func TestEmptyPatternsAreDropped(t *testing.T) {
	m := New([]string{"", "   ", "*.tmp"})
	if len(m.patterns) != 1 {
		t.Fatalf("expected blank patterns to be dropped, got %v", m.patterns)
	}
}
