// # internal/outline/outline.go

// Package outline is the front door: it picks an analysis backend, runs it
// and hands back the finished symbol tree for one file.
package outline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pyoutline/internal/bridge"
	"pyoutline/internal/cst"
	"pyoutline/internal/grammar"
	"pyoutline/internal/parse"
	"pyoutline/internal/shared/observability"
	"pyoutline/internal/symbol"
	"pyoutline/internal/token"
)

// Backend selects how a file is analyzed.
type Backend string

const (
	// BackendGrammar parses in-process with the versioned grammar.
	BackendGrammar Backend = "grammar-tree"
	// BackendNative delegates to the external analyzer worker.
	BackendNative Backend = "native-ast"
)

// UnsupportedBackendError rejects a backend name before any parse work
// starts.
type UnsupportedBackendError struct {
	Backend string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported analysis backend %q", e.Backend)
}

// Config carries everything an Analyzer needs; zero values fall back to the
// grammar backend with Python 3.10 semantics.
type Config struct {
	Backend       Backend
	Version       token.Version
	WorkerPath    string
	Policy        symbol.ExportPolicy
	ErrorRecovery bool
}

type Analyzer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.Backend == "" {
		cfg.Backend = BackendGrammar
	}
	if cfg.Version == (token.Version{}) {
		cfg.Version = token.Version{Major: 3, Minor: 10}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

// DialectForPath maps a file name to its grammar dialect: the extension
// variants of the compiled dialect get the extended grammar, everything
// else the base one.
func DialectForPath(path string) grammar.Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pyx", ".pxd", ".pxi":
		return grammar.DialectCython
	default:
		return grammar.DialectPython
	}
}

// Outline analyzes one file. The work runs in its own goroutine so a
// canceled context returns immediately even while a backend is busy.
func (a *Analyzer) Outline(ctx context.Context, path string, source []byte) (*symbol.Node, error) {
	switch a.cfg.Backend {
	case BackendGrammar, BackendNative:
	default:
		return nil, &UnsupportedBackendError{Backend: string(a.cfg.Backend)}
	}

	type result struct {
		node *symbol.Node
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		node, err := a.analyze(ctx, path, source)
		ch <- result{node, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.node, r.err
	}
}

func (a *Analyzer) analyze(ctx context.Context, path string, source []byte) (*symbol.Node, error) {
	ctx, span := observability.Tracer.Start(ctx, "outline.analyze", trace.WithAttributes(
		attribute.String("backend", string(a.cfg.Backend)),
		attribute.String("file", path),
	))
	defer span.End()

	start := time.Now()
	backend := string(a.cfg.Backend)

	var view symbol.SyntaxNode
	var err error
	switch a.cfg.Backend {
	case BackendGrammar:
		view, err = a.grammarView(path, source)
	case BackendNative:
		view, err = a.nativeView(ctx, path)
	}
	if err != nil {
		observability.OutlinesTotal.WithLabelValues(backend, "error").Inc()
		a.logger.Debug("outline failed", "file", path, "backend", backend, "error", err)
		return nil, err
	}

	node := symbol.Build(view, a.cfg.Policy, path)

	observability.OutlinesTotal.WithLabelValues(backend, "ok").Inc()
	observability.OutlineDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	observability.SymbolsEmitted.WithLabelValues(backend).Observe(float64(countSymbols(node)))
	a.logger.Debug("outline built",
		"file", path, "backend", backend,
		"symbols", countSymbols(node), "elapsed", time.Since(start))
	return node, nil
}

func (a *Analyzer) grammarView(path string, source []byte) (symbol.SyntaxNode, error) {
	dialect := DialectForPath(path)
	g, err := grammar.Load(dialect, a.cfg.Version)
	if err != nil {
		return nil, err
	}
	tree, root, err := parse.Parse(string(source), g, a.cfg.ErrorRecovery)
	if err != nil {
		return nil, err
	}
	if hasErrorNodes(tree, root) {
		observability.ParseErrorsTotal.Inc()
	}
	return symbol.FromTree(tree, root), nil
}

func (a *Analyzer) nativeView(ctx context.Context, path string) (symbol.SyntaxNode, error) {
	root, err := bridge.Inspect(ctx, a.cfg.WorkerPath, path)
	if err != nil {
		return nil, err
	}
	return symbol.FromAST(root), nil
}

func hasErrorNodes(t *cst.Tree, root cst.NodeID) bool {
	if t.Type(root) == cst.TypeErrorNode {
		return true
	}
	for _, c := range t.Children(root) {
		if hasErrorNodes(t, c) {
			return true
		}
	}
	return false
}

func countSymbols(n *symbol.Node) int {
	total := n.Len()
	for _, c := range n.Children() {
		total += countSymbols(c)
	}
	return total
}
