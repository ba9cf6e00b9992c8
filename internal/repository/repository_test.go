package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mbrombin/fvs/internal/hashutil"
	"github.com/mbrombin/fvs/internal/objects"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	full := filepath.Join(root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("failed to create parent dir for %s: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", relPath, err)
	}
}

func readFile(t *testing.T, root, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		t.Fatalf("failed to read %s: %v", relPath, err)
	}
	return string(data)
}

func TestInitOnEmptyDirectoryHasNoActiveState(t *testing.T) {
	root := t.TempDir()

	repo, report, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if report != nil {
		t.Fatalf("expected no seed commit report for an empty directory, got %+v", report)
	}
	if repo.ActiveStateID() != -1 {
		t.Fatalf("expected no active state, got %d", repo.ActiveStateID())
	}
	if len(repo.States()) != 0 {
		t.Fatalf("expected no states, got %v", repo.States())
	}
}

func TestInitSeedsFirstCommitWhenTreeIsNonEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "hello.txt", "hi")

	repo, report, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if report == nil {
		t.Fatalf("expected a seed commit report")
	}
	if report.StateID != 0 {
		t.Fatalf("expected seed commit to claim state 0, got %d", report.StateID)
	}
	if repo.ActiveStateID() != 0 {
		t.Fatalf("expected active state 0, got %d", repo.ActiveStateID())
	}
}

func TestFirstCommitShardsBlobsByFileNameFirstCharacter(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "hello.txt", "a")
	writeFile(t, root, "Hello2.TXT", "b")
	writeFile(t, root, "3rd.dat", "c")
	writeFile(t, root, "-weird.bin", "d")

	report, err := repo.Commit("first", nil)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if report.StateID != 0 {
		t.Fatalf("expected state 0, got %d", report.StateID)
	}
	if report.Added != 4 {
		t.Fatalf("expected 4 added entries, got %d", report.Added)
	}

	expectShards := map[string]string{
		"hello.txt":  "h",
		"Hello2.TXT": "h",
		"3rd.dat":    "3",
		"-weird.bin": "-",
	}
	for name, shard := range expectShards {
		dir := filepath.Join(root, ".fvs", "data", shard)
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read shard dir for %s: %v", name, err)
		}
		if len(entries) == 0 {
			t.Errorf("expected a blob in shard %q for %s", shard, name)
		}
	}
}

func TestDedupAcrossRelativePathsSharesOneBlob(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "a.txt", "x")
	writeFile(t, root, "b.txt", "x")
	if _, err := repo.Commit("two files, same content different names", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	writeFile(t, root, "sub/a.txt", "x")
	report, err := repo.Commit("copy a.txt into sub/", nil)
	if err != nil {
		t.Fatalf("commit 1 failed: %v", err)
	}
	if report.Added != 1 {
		t.Fatalf("expected exactly one added entry (sub/a.txt), got %d", report.Added)
	}

	state, err := loadState(repo, 1)
	if err != nil {
		t.Fatalf("failed to load state 1: %v", err)
	}
	digest, ok := state.Digest("sub/a.txt")
	if !ok {
		t.Fatalf("state 1 has no entry for sub/a.txt")
	}
	entry := state.index.Added[digest]
	if entry == nil {
		t.Fatalf("expected sub/a.txt's digest in the added bucket")
	}
	if len(entry.RelativePaths) != 1 || entry.RelativePaths[0] != "sub/a.txt" {
		t.Fatalf("expected added bucket for this digest to list only sub/a.txt in state 1, got %v", entry.RelativePaths)
	}
	if other, _ := state.Digest("a.txt"); other != digest {
		t.Fatalf("expected a.txt and sub/a.txt to share digest %s, got %s", digest, other)
	}
	blobs, err := os.ReadDir(filepath.Join(root, ".fvs", "data", objects.ShardFor("a.txt")))
	if err != nil {
		t.Fatalf("failed to read shard dir for a.txt: %v", err)
	}
	if len(blobs) != 1 {
		t.Fatalf("expected exactly one shared blob for a.txt and sub/a.txt, got %d", len(blobs))
	}
}

func TestModifyThenRestoreRoundTrips(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "f", "X")
	if _, err := repo.Commit("state 0", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	writeFile(t, root, "f", "Y")
	if _, err := repo.Commit("state 1", nil); err != nil {
		t.Fatalf("commit 1 failed: %v", err)
	}

	if err := repo.RestoreState(0, nil); err != nil {
		t.Fatalf("restore to state 0 failed: %v", err)
	}

	if got := readFile(t, root, "f"); got != "X" {
		t.Fatalf("expected f to contain X after restore, got %q", got)
	}
	if repo.ActiveStateID() != 0 {
		t.Fatalf("expected active state 0 after restore, got %d", repo.ActiveStateID())
	}
	if _, ok := repo.States()[1]; ok {
		t.Fatalf("expected state 1 to be deleted after restore")
	}
	if stateDir := filepath.Join(root, ".fvs", "states", "1"); fileExists(stateDir) {
		t.Fatalf("expected state 1 directory to be removed")
	}
}

func TestCascadeDeleteRemovesOnlyUniquelyReferencedBlobs(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "shared.txt", "keep-me")
	writeFile(t, root, "f", "0")
	if _, err := repo.Commit("state 0", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	writeFile(t, root, "f", "1")
	if _, err := repo.Commit("state 1", nil); err != nil {
		t.Fatalf("commit 1 failed: %v", err)
	}

	writeFile(t, root, "f", "2")
	if _, err := repo.Commit("state 2", nil); err != nil {
		t.Fatalf("commit 2 failed: %v", err)
	}

	writeFile(t, root, "f", "3")
	if _, err := repo.Commit("state 3", nil); err != nil {
		t.Fatalf("commit 3 failed: %v", err)
	}

	if err := repo.RestoreState(1, nil); err != nil {
		t.Fatalf("restore to state 1 failed: %v", err)
	}

	for _, id := range []int{2, 3} {
		if _, ok := repo.States()[id]; ok {
			t.Fatalf("expected state %d to be deleted", id)
		}
	}
	if got := readFile(t, root, "shared.txt"); got != "keep-me" {
		t.Fatalf("expected shared.txt to survive the cascade untouched, got %q", got)
	}

	fShard := filepath.Join(root, ".fvs", "data", objects.ShardFor("f"))
	for _, content := range []string{"2", "3"} {
		if blob := filepath.Join(fShard, hashutil.Bytes("f", []byte(content))); fileExists(blob) {
			t.Fatalf("expected blob of f=%q, held only by a deleted state, to be removed", content)
		}
	}
	kept := []string{
		filepath.Join(fShard, hashutil.Bytes("f", []byte("1"))),
		filepath.Join(root, ".fvs", "data", objects.ShardFor("shared.txt"), hashutil.Bytes("shared.txt", []byte("keep-me"))),
	}
	for _, blob := range kept {
		if !fileExists(blob) {
			t.Fatalf("expected blob %s, still held by a surviving state, to be kept", blob)
		}
	}
}

func TestCascadeDeleteFullyReleasesADigestHeldFromMultiplePathsInOneState(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "f", "0")
	if _, err := repo.Commit("state 0", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	// Same basename and content in two places within one state:
	// one digest, referenced twice by state 1.
	writeFile(t, root, "a.txt", "x")
	writeFile(t, root, "sub/a.txt", "x")
	if _, err := repo.Commit("state 1", nil); err != nil {
		t.Fatalf("commit 1 failed: %v", err)
	}

	state1, err := loadState(repo, 1)
	if err != nil {
		t.Fatalf("failed to load state 1: %v", err)
	}
	digest, ok := state1.Digest("a.txt")
	if !ok {
		t.Fatalf("state 1 has no entry for a.txt")
	}
	entry := state1.index.Added[digest]
	if entry == nil || len(entry.RelativePaths) != 2 {
		t.Fatalf("expected a.txt's digest to be held from 2 paths in state 1, got %+v", entry)
	}
	shardDir := filepath.Join(root, ".fvs", "data", objects.ShardFor("a.txt"))
	if !fileExists(filepath.Join(shardDir, digest)) {
		t.Fatalf("expected a blob for %s in %s", digest, shardDir)
	}

	writeFile(t, root, "f", "1")
	if _, err := repo.Commit("state 2", nil); err != nil {
		t.Fatalf("commit 2 failed: %v", err)
	}

	if err := repo.RestoreState(0, nil); err != nil {
		t.Fatalf("restore to state 0 failed: %v", err)
	}

	if fileExists(filepath.Join(shardDir, digest)) {
		t.Fatalf("expected blob %s to be removed once state 1's only holder is cascade-deleted", digest)
	}
}

func TestIgnorePatternExcludesMatchingFiles(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, []string{"*.log"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "a.log", "noise")
	writeFile(t, root, "b.txt", "signal")

	report, err := repo.Commit("with ignore", []string{"*.log"})
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if report.Added != 1 {
		t.Fatalf("expected exactly 1 added entry, got %d", report.Added)
	}

	state, err := loadState(repo, repo.ActiveStateID())
	if err != nil {
		t.Fatalf("failed to load active state: %v", err)
	}
	if _, ok := state.Digest("a.log"); ok {
		t.Fatalf("a.log should not appear in the state index")
	}
	if _, ok := state.Digest("b.txt"); !ok {
		t.Fatalf("b.txt should appear in the state index")
	}
}

func TestCommitTwiceInARowFailsWithNothingToCommit(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "f", "content")
	if _, err := repo.Commit("first", nil); err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	_, err = repo.Commit("second", nil)
	if !Is(err, KindNothingToCommit) {
		t.Fatalf("expected NothingToCommit on an unchanged tree, got %v", err)
	}
}

func TestRestoringUnknownStateFails(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	err = repo.RestoreState(99, nil)
	if !Is(err, KindStateNotFound) {
		t.Fatalf("expected StateNotFound, got %v", err)
	}
}

func TestEmptyCommitMessageIsRejected(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "f", "content")
	_, err = repo.Commit("", nil)
	if !Is(err, KindEmptyCommitMessage) {
		t.Fatalf("expected EmptyCommitMessage, got %v", err)
	}
}

func TestSaveRejectsOverwritingAnExistingPersistedState(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "f", "content")
	if _, err := repo.Commit("state 0", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	collider := &State{repo: repo, id: 0, index: newFileIndex()}
	if err := collider.save(); !Is(err, KindStateAlreadyExists) {
		t.Fatalf("expected StateAlreadyExists when saving over state 0's index, got %v", err)
	}
}

func TestHasRelativePathAgainstEveryBucketKind(t *testing.T) {
	root := t.TempDir()
	repo, _, err := Init(root, false, nil)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	writeFile(t, root, "a.txt", "unchanged")
	writeFile(t, root, "b.txt", "will change")
	if _, err := repo.Commit("state 0", nil); err != nil {
		t.Fatalf("commit 0 failed: %v", err)
	}

	writeFile(t, root, "b.txt", "changed")
	writeFile(t, root, "c.txt", "brand new")
	if _, err := repo.Commit("state 1", nil); err != nil {
		t.Fatalf("commit 1 failed: %v", err)
	}

	state, err := loadState(repo, 1)
	if err != nil {
		t.Fatalf("failed to load state 1: %v", err)
	}

	cases := []struct {
		bucket     string
		path       string
		wantHas    bool
		wantErrOf  Kind
		wantsError bool
	}{
		{bucket: "any", path: "a.txt", wantHas: true},
		{bucket: "any", path: "nope.txt", wantHas: false},
		{bucket: "added", path: "c.txt", wantHas: true},
		{bucket: "added", path: "b.txt", wantHas: false},
		{bucket: "modified", path: "b.txt", wantHas: true},
		{bucket: "modified", path: "a.txt", wantHas: false},
		{bucket: "intact", path: "a.txt", wantHas: true},
		{bucket: "intact", path: "b.txt", wantHas: false},
		{bucket: "bogus", path: "a.txt", wantsError: true, wantErrOf: KindUnsupportedKey},
	}

	for _, c := range cases {
		has, err := state.HasRelativePath(c.bucket, c.path)
		if c.wantsError {
			if !Is(err, c.wantErrOf) {
				t.Errorf("HasRelativePath(%q, %q): expected error kind %s, got %v", c.bucket, c.path, c.wantErrOf, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("HasRelativePath(%q, %q): unexpected error %v", c.bucket, c.path, err)
			continue
		}
		if has != c.wantHas {
			t.Errorf("HasRelativePath(%q, %q) = %v, want %v", c.bucket, c.path, has, c.wantHas)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
