package worktree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/knotvcs/knot/internal/objstore"
)

func TestScanSkipsDotGitAtRoot(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "hello")
	mustMkdir(t, filepath.Join(dir, dotDir))
	mustWrite(t, filepath.Join(dir, dotDir, "data"), "should not be scanned")

	store := objstore.NewStore()
	treeId, err := Scan(dir, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	tree, ok := store.Tree(treeId)
	if !ok {
		t.Fatalf("root tree not stored")
	}
	if len(tree.Lines) != 1 || tree.Lines[0].Path != "a.txt" {
		t.Fatalf("expected only a.txt in root tree, got %+v", tree.Lines)
	}
}

func TestScanNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	mustMkdir(t, filepath.Join(dir, "sub"))
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "world")
	mustWrite(t, filepath.Join(dir, "a.txt"), "hello")

	store := objstore.NewStore()
	treeId, err := Scan(dir, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	tree, _ := store.Tree(treeId)
	if len(tree.Lines) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(tree.Lines), tree.Lines)
	}
	// lexicographic order: "a.txt" before "sub/"
	if tree.Lines[0].Path != "a.txt" || tree.Lines[1].Path != "sub/" {
		t.Fatalf("unexpected order: %+v", tree.Lines)
	}
	if tree.Lines[1].Kind != objstore.SubtreeLine {
		t.Fatalf("sub/ was not recorded as a subtree line")
	}
}

func TestScanDeterministic(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "hello")

	s1 := objstore.NewStore()
	id1, err := Scan(dir, s1)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	s2 := objstore.NewStore()
	id2, err := Scan(dir, s2)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("scanning the same directory twice gave different tree ids")
	}
}

func TestResetMaterializesAndClears(t *testing.T) {
	src := t.TempDir()
	mustMkdir(t, filepath.Join(src, "sub"))
	mustWrite(t, filepath.Join(src, "sub", "b.txt"), "world")
	mustWrite(t, filepath.Join(src, "a.txt"), "hello")

	store := objstore.NewStore()
	treeId, err := Scan(src, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	dst := t.TempDir()
	mustWrite(t, filepath.Join(dst, "stale.txt"), "remove me")
	mustMkdir(t, filepath.Join(dst, dotDir))

	if err := Reset(dst, store, treeId); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "stale.txt")); !os.IsNotExist(err) {
		t.Fatalf("stale.txt was not removed")
	}
	if _, err := os.Stat(filepath.Join(dst, dotDir)); err != nil {
		t.Fatalf(".git was removed by Reset: %v", err)
	}
	gotA := mustRead(t, filepath.Join(dst, "a.txt"))
	if gotA != "hello" {
		t.Fatalf("a.txt = %q, want %q", gotA, "hello")
	}
	gotB := mustRead(t, filepath.Join(dst, "sub", "b.txt"))
	if gotB != "world" {
		t.Fatalf("sub/b.txt = %q, want %q", gotB, "world")
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(b)
}
