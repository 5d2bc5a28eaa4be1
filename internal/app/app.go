// # internal/app/app.go
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"pyoutline/internal/config"
	"pyoutline/internal/history"
	"pyoutline/internal/outline"
	"pyoutline/internal/shared/observability"
	"pyoutline/internal/shared/util"
	"pyoutline/internal/symbol"
	"pyoutline/internal/token"
)

// Update is what watch-mode consumers get after every batch of changes.
type Update struct {
	FileCount   int
	SymbolCount int
	ErrorCount  int
	Changed     []string
}

// App ties the pieces together: it scans the watch paths, keeps one outline
// per source file and persists history snapshots after each pass.
type App struct {
	Config   *config.Config
	Analyzer *outline.Analyzer
	Store    *history.Store // nil when history is disabled

	limiter *util.Limiter

	mu       sync.RWMutex
	outlines map[string]*symbol.Node
	failures map[string]error

	updateMu sync.RWMutex
	onUpdate func(Update)
}

func New(cfg *config.Config) (*App, error) {
	version, err := token.ParseVersion(cfg.LanguageVersion)
	if err != nil {
		return nil, fmt.Errorf("config language_version: %w", err)
	}

	analyzer := outline.New(outline.Config{
		Backend:    outline.Backend(cfg.Backend),
		Version:    version,
		WorkerPath: cfg.WorkerPath,
		Policy: symbol.ExportPolicy{
			ModuleVariables: cfg.Export.ModuleVariables,
			ClassVariables:  cfg.Export.ClassVariables,
			Imports:         cfg.Export.Imports,
		},
		ErrorRecovery: !cfg.Analysis.Strict,
	}, slog.Default())

	a := &App{
		Config:   cfg,
		Analyzer: analyzer,
		limiter:  util.NewLimiter(cfg.Analysis.RatePerSecond, cfg.Analysis.Burst),
		outlines: make(map[string]*symbol.Node),
		failures: make(map[string]error),
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}
	return a, nil
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// InitialScan outlines everything under the configured watch paths.
func (a *App) InitialScan(ctx context.Context) error {
	files, err := a.ScanDirectories(a.Config.WatchPaths, a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return err
	}

	for _, filePath := range files {
		if err := a.ProcessFile(ctx, filePath); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("failed to outline file", "path", filePath, "error", err)
		}
	}

	a.snapshot()
	return nil
}

// ScanDirectories walks the given roots and returns every source file not
// rejected by the exclude patterns.
func (a *App) ScanDirectories(paths []string, excludeDirs, excludeFiles []string) ([]string, error) {
	var files []string

	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	for _, root := range uniqueScanRoots(paths) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			base := filepath.Base(path)
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if !sourceFile(path) {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func sourceFile(path string) bool {
	switch filepath.Ext(path) {
	case ".py", ".pyx", ".pxd", ".pxi":
		return true
	}
	return false
}

func uniqueScanRoots(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			roots = append(roots, clean)
		}
	}
	sort.Strings(roots)
	return roots
}

// ProcessFile outlines one file and records the result. The rate limiter
// slows bulk re-analysis during event storms.
func (a *App) ProcessFile(ctx context.Context, path string) error {
	if err := a.limiter.Wait(ctx, 1); err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	node, err := a.Analyzer.Outline(ctx, path, source)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		delete(a.outlines, path)
		a.failures[path] = err
		return err
	}
	a.outlines[path] = node
	delete(a.failures, path)
	return nil
}

// Outline returns the most recent outline for a file, or nil.
func (a *App) Outline(path string) *symbol.Node {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.outlines[path]
}

// Files returns the outlined file paths in stable order.
func (a *App) Files() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return util.SortedStringKeys(a.outlines)
}

// HandleChanges is the watcher callback: it re-outlines every changed file,
// drops deleted ones, snapshots and notifies the update handler.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()
	ctx := context.Background()

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.mu.Lock()
			delete(a.outlines, path)
			delete(a.failures, path)
			a.mu.Unlock()
			continue
		}

		if err := a.ProcessFile(ctx, path); err != nil {
			slog.Warn("failed to re-outline file", "path", path, "error", err)
		}
	}

	snap := a.snapshot()
	slog.Info("outline pass complete",
		"files", snap.FileCount,
		"symbols", snap.SymbolCount,
		"errors", snap.ErrorCount,
		"elapsed", time.Since(start))

	a.emitUpdate(Update{
		FileCount:   snap.FileCount,
		SymbolCount: snap.SymbolCount,
		ErrorCount:  snap.ErrorCount,
		Changed:     paths,
	})
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// CurrentSnapshot summarizes the in-memory state without persisting it.
func (a *App) CurrentSnapshot() history.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := history.Snapshot{
		SchemaVersion: history.SchemaVersion,
		Timestamp:     time.Now().UTC(),
		FileCount:     len(a.outlines),
		ErrorCount:    len(a.failures),
	}
	for _, node := range a.outlines {
		countKinds(node, &snap)
	}
	snap.SymbolCount = snap.ClassCount + snap.FunctionCount + snap.MethodCount +
		snap.VariableCount + snap.ImportCount
	return snap
}

// snapshot persists the current state when history is enabled and returns
// it either way.
func (a *App) snapshot() history.Snapshot {
	snap := a.CurrentSnapshot()
	if a.Store == nil {
		return snap
	}

	if root := firstExisting(a.Config.WatchPaths); root != "" {
		snap.CommitHash, snap.CommitTimestamp = history.ResolveGitMetadata(root)
	}
	if err := a.Store.SaveSnapshot(snap); err != nil {
		slog.Error("failed to persist snapshot", "error", err)
	}
	return snap
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
	}
	return ""
}

func countKinds(n *symbol.Node, snap *history.Snapshot) {
	for _, c := range n.Children() {
		switch c.Kind {
		case symbol.KindClass:
			snap.ClassCount++
		case symbol.KindFunction:
			snap.FunctionCount++
		case symbol.KindMethod, symbol.KindConstructor, symbol.KindProperty:
			snap.MethodCount++
		case symbol.KindVariable:
			snap.VariableCount++
		case symbol.KindPackage:
			snap.ImportCount++
		}
		countKinds(c, snap)
	}
}

// Health feeds the observability server.
func (a *App) Health(ctx context.Context) observability.Health {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return observability.Health{
		Status:       "up",
		FilesTracked: len(a.outlines),
		HeapAllocMB:  util.GetHeapAllocMB(),
	}
}
