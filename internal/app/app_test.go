// # internal/app/app_test.go
package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pyoutline/internal/config"
	"pyoutline/internal/symbol"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, dir string, mutate func(*config.Config)) *App {
	t.Helper()
	cfg := config.Default()
	cfg.WatchPaths = []string{dir}
	cfg.Export = config.Export{ModuleVariables: true, ClassVariables: true, Imports: true}
	cfg.Analysis.RatePerSecond = 10000 // tests should not wait on the limiter
	cfg.Analysis.Burst = 1000
	if mutate != nil {
		mutate(cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestInitialScan(t *testing.T) {
	dir := t.TempDir()
	modPath := writeFile(t, dir, "mod.py",
		"import os\n\nclass C:\n    def m(self):\n        pass\n")
	writeFile(t, dir, "fast.pyx", "cdef int x = 1\n")
	writeFile(t, dir, "notes.txt", "not python")
	writeFile(t, dir, "skip/gen.py", "x = 1\n")

	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.Exclude.Dirs = []string{"skip"}
	})

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatalf("initial scan: %v", err)
	}

	files := a.Files()
	if len(files) != 2 {
		t.Fatalf("outlined files = %v, want 2 entries", files)
	}

	mod := a.Outline(modPath)
	if mod == nil {
		t.Fatal("mod.py has no outline")
	}
	if c := findSymbol(mod, "C"); c == nil || c.Kind != symbol.KindClass {
		t.Errorf("class C missing from outline:\n%s", mod.Dump())
	}

	snap := a.CurrentSnapshot()
	if snap.FileCount != 2 || snap.ErrorCount != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.ClassCount != 1 || snap.MethodCount != 1 || snap.VariableCount != 1 || snap.ImportCount != 1 {
		t.Errorf("kind counts = %+v", snap)
	}
}

func TestHandleChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mod.py", "def f():\n    pass\n")

	a := newTestApp(t, dir, nil)
	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	updates := make(chan Update, 1)
	a.SetUpdateHandler(func(u Update) { updates <- u })

	// Rewrite the file with one more symbol.
	writeFile(t, dir, "mod.py", "def f():\n    pass\ndef g():\n    pass\n")
	a.HandleChanges([]string{path})

	select {
	case u := <-updates:
		if u.FileCount != 1 || u.SymbolCount != 2 {
			t.Errorf("update = %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatal("no update emitted")
	}

	// Deleting the file drops it from the state.
	os.Remove(path)
	a.HandleChanges([]string{path})
	if len(a.Files()) != 0 {
		t.Errorf("files after delete = %v", a.Files())
	}
}

func TestProcessFileFailureTracked(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.py", "def broken(:\n")

	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.Analysis.Strict = true
	})

	if err := a.ProcessFile(context.Background(), path); err == nil {
		t.Fatal("expected strict mode to reject the malformed file")
	}
	snap := a.CurrentSnapshot()
	if snap.ErrorCount != 1 || snap.FileCount != 0 {
		t.Errorf("snapshot = %+v", snap)
	}

	// A later successful pass clears the failure.
	writeFile(t, dir, "broken.py", "def fixed():\n    pass\n")
	if err := a.ProcessFile(context.Background(), path); err != nil {
		t.Fatalf("reprocess: %v", err)
	}
	snap = a.CurrentSnapshot()
	if snap.ErrorCount != 0 || snap.FileCount != 1 {
		t.Errorf("snapshot after fix = %+v", snap)
	}
}

func TestSnapshotPersistence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mod.py", "class C:\n    pass\n")
	dbPath := filepath.Join(t.TempDir(), "outline.db")

	a := newTestApp(t, dir, func(cfg *config.Config) {
		cfg.History.Path = dbPath
	})

	if err := a.InitialScan(context.Background()); err != nil {
		t.Fatal(err)
	}

	snaps, err := a.Store.LoadSnapshots(time.Time{})
	if err != nil {
		t.Fatalf("load snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("persisted snapshots = %d, want 1", len(snaps))
	}
	if snaps[0].ClassCount != 1 {
		t.Errorf("snapshot = %+v", snaps[0])
	}
}

func TestScanDirectoriesExclusions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.py", "x = 1\n")
	writeFile(t, dir, "gen_pb2.py", "x = 1\n")
	writeFile(t, dir, ".git/objects/fake.py", "x = 1\n")

	a := newTestApp(t, dir, nil)
	files, err := a.ScanDirectories([]string{dir}, []string{".git"}, []string{"*_pb2.py"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "keep.py" {
		t.Errorf("scanned files = %v", files)
	}
}

func TestNewRejectsBadVersion(t *testing.T) {
	cfg := config.Default()
	cfg.LanguageVersion = "three.ten"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for malformed language_version")
	}
}

func findSymbol(n *symbol.Node, name string) *symbol.Node {
	for _, c := range n.Children() {
		if c.Name == name {
			return c
		}
		if found := findSymbol(c, name); found != nil {
			return found
		}
	}
	return nil
}
