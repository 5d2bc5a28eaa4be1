// # internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "watchertest")
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"ignored_*.py"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.Watch([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	// Create a source file
	testFile := filepath.Join(tmpDir, "mod.py")
	os.WriteFile(testFile, []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Pattern exclusion and non-source extensions stay silent.
	os.WriteFile(filepath.Join(tmpDir, "ignored_gen.py"), []byte("x = 1\n"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("not source"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "ignored_gen.py" || base == "notes.txt" {
				t.Errorf("Filtered file %s triggered event", base)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.pyx")
	if err := os.WriteFile(subFile, []byte("cdef int x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestTracked(t *testing.T) {
	w, err := NewWatcher(time.Millisecond, nil, []string{"*_gen.py"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{"a/b/mod.py", true},
		{"a/b/fast.pyx", true},
		{"a/b/decls.pxd", true},
		{"a/b/inc.pxi", true},
		{"a/b/mod.PY", true},
		{"a/b/readme.md", false},
		{"a/b/mod.go", false},
		{"a/b/stubs_gen.py", false},
	}
	for _, tt := range tests {
		if got := w.tracked(tt.path); got != tt.want {
			t.Errorf("tracked(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
