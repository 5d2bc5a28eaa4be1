// # internal/bridge/artifact.go
package bridge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"pyoutline/internal/shared/util"
)

const artifactExt = ".ast"

// ArtifactDir is where the worker drops its output files. Kept under the
// system temp dir so an interrupted run leaves nothing permanent behind.
func ArtifactDir() string {
	return filepath.Join(os.TempDir(), "pyinspect")
}

// WriteArtifact serializes the tree to a freshly named file and returns its
// path. Names are random so concurrent workers can never collide.
func WriteArtifact(root *ASTNode) (string, error) {
	data, err := cbor.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}
	path := filepath.Join(ArtifactDir(), uuid.NewString()+artifactExt)
	if err := util.WriteFileWithDirs(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// ReadArtifact decodes an artifact file. It does not delete the file; the
// caller owns cleanup.
func ReadArtifact(path string) (*ASTNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var root ASTNode
	if err := cbor.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &root, nil
}
