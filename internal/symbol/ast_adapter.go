// # internal/symbol/ast_adapter.go
package symbol

import (
	"strings"

	"pyoutline/internal/bridge"
)

// astNode is the SyntaxNode view over the external analyzer's artifact.
type astNode struct {
	kind     Kind
	name     string
	line     int
	col      int
	children []SyntaxNode
}

func (n *astNode) Kind() Kind             { return n.kind }
func (n *astNode) Name() string           { return n.name }
func (n *astNode) Line() int              { return n.line }
func (n *astNode) Col() int               { return n.col }
func (n *astNode) Children() []SyntaxNode { return n.children }
func (n *astNode) Dump() string           { return dumpSyntax(n) }

// FromAST adapts a decoded artifact tree into the outline's syntax node
// view. Artifact lines are 1-based and normalized to 0-based here.
func FromAST(root *bridge.ASTNode) SyntaxNode {
	return &astNode{
		kind:     KindPackage,
		line:     root.Line - 1,
		col:      root.Col,
		children: lowerASTChildren(root, false),
	}
}

func lowerASTChildren(node *bridge.ASTNode, inClass bool) []SyntaxNode {
	var out []SyntaxNode
	for _, c := range node.Children {
		if n := lowerAST(c, inClass); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func lowerAST(node *bridge.ASTNode, inClass bool) *astNode {
	n := &astNode{
		name: node.Name,
		line: node.Line - 1,
		col:  node.Col,
	}
	switch node.Type {
	case bridge.NodeClass:
		n.kind = KindClass
		n.children = lowerASTChildren(node, true)
	case bridge.NodeFunction, bridge.NodeAsyncFunction:
		n.kind = functionKind(node, inClass)
		n.children = lowerASTChildren(node, false)
	case bridge.NodeImport:
		n.kind = KindPackage
		n.name = strings.Join(node.Names, ", ")
	case bridge.NodeAssign:
		n.kind = KindVariable
	default:
		return nil
	}
	if n.name == "" {
		return nil
	}
	return n
}

// functionKind applies the refinements only the native backend can see:
// allocator methods surface as constructors and accessor methods marked
// with the property decorator as properties.
func functionKind(node *bridge.ASTNode, inClass bool) Kind {
	if !inClass {
		return KindFunction
	}
	if node.Name == "__new__" {
		return KindConstructor
	}
	for _, d := range node.Decorators {
		if d == "property" || strings.HasSuffix(d, ".setter") || strings.HasSuffix(d, ".getter") {
			return KindProperty
		}
	}
	return KindMethod
}
