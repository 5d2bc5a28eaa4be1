// # internal/bridge/ast.go

// Package bridge runs the out-of-process analyzer and decodes the AST
// artifact it leaves behind. The worker writes a serialized tree to a
// temporary file and prints the file's path on stdout; nothing else crosses
// the process boundary.
package bridge

// Node types carried in the artifact.
const (
	NodeModule        = "module"
	NodeClass         = "class"
	NodeFunction      = "function"
	NodeAsyncFunction = "async_function"
	NodeImport        = "import"
	NodeAssign        = "assign"
)

// ASTNode is one node of the serialized analyzer output. Line is 1-based,
// Col 0-based, both pointing at the start of the construct.
type ASTNode struct {
	Type       string     `cbor:"type"`
	Name       string     `cbor:"name,omitempty"`
	Names      []string   `cbor:"names,omitempty"`
	Decorators []string   `cbor:"decorators,omitempty"`
	Line       int        `cbor:"line"`
	Col        int        `cbor:"col"`
	Children   []*ASTNode `cbor:"children,omitempty"`
}
