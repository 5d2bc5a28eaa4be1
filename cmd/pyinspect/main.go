// # cmd/pyinspect/main.go

// pyinspect is the out-of-process analyzer worker. It parses one source
// file, writes the lowered AST artifact to a temp file and prints that
// file's path on stdout. Stdout carries nothing else; diagnostics go to
// stderr. Exit code 0 means an artifact was produced, 1 means failure.
package main

import (
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"pyoutline/internal/bridge"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) != 2 {
		logger.Error("usage: pyinspect <file>")
		os.Exit(1)
	}
	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read source", "file", path, "error", err)
		os.Exit(1)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(tree_sitter_python.Language())); err != nil {
		logger.Error("load grammar", "error", err)
		os.Exit(1)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		logger.Error("parse failed", "file", path)
		os.Exit(1)
	}
	defer tree.Close()

	artifact, err := bridge.WriteArtifact(bridge.Lower(tree.RootNode(), source))
	if err != nil {
		logger.Error("write artifact", "file", path, "error", err)
		os.Exit(1)
	}
	fmt.Println(artifact)
}
