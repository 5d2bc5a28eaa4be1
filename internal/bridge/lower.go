// # internal/bridge/lower.go
package bridge

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Lower flattens a parsed syntax tree into the artifact node model, keeping
// only the constructs the outline cares about: definitions, imports and
// module or class level assignments.
func Lower(root *sitter.Node, source []byte) *ASTNode {
	l := &lowerer{source: source}
	module := &ASTNode{
		Type: NodeModule,
		Line: int(root.StartPosition().Row) + 1,
		Col:  int(root.StartPosition().Column),
	}
	module.Children = l.lowerChildren(root)
	return module
}

type lowerer struct {
	source []byte
}

func (l *lowerer) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(l.source[node.StartByte():node.EndByte()])
}

// lowerChildren lowers every statement under node, descending through
// containers (suites, conditionals) that cannot themselves appear in an
// outline.
func (l *lowerer) lowerChildren(node *sitter.Node) []*ASTNode {
	var out []*ASTNode
	for i := uint(0); i < node.ChildCount(); i++ {
		out = append(out, l.lower(node.Child(i), nil)...)
	}
	return out
}

func (l *lowerer) lower(node *sitter.Node, decorators []string) []*ASTNode {
	switch node.Kind() {
	case "decorated_definition":
		return l.lowerDecorated(node)
	case "class_definition":
		return []*ASTNode{l.lowerClass(node, decorators)}
	case "function_definition":
		return []*ASTNode{l.lowerFunction(node, decorators)}
	case "import_statement", "import_from_statement":
		return []*ASTNode{l.lowerImport(node)}
	case "expression_statement":
		if n := l.lowerAssignment(node); n != nil {
			return []*ASTNode{n}
		}
		return nil
	case "if_statement", "try_statement", "with_statement",
		"for_statement", "while_statement", "block", "else_clause",
		"elif_clause", "except_clause", "finally_clause":
		return l.lowerChildren(node)
	default:
		return nil
	}
}

func (l *lowerer) lowerDecorated(node *sitter.Node) []*ASTNode {
	var decorators []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "decorator" {
			decorators = append(decorators, strings.TrimPrefix(l.text(child), "@"))
			continue
		}
		return l.lower(child, decorators)
	}
	return nil
}

func (l *lowerer) lowerClass(node *sitter.Node, decorators []string) *ASTNode {
	out := &ASTNode{
		Type:       NodeClass,
		Name:       l.text(node.ChildByFieldName("name")),
		Decorators: decorators,
		Line:       int(node.StartPosition().Row) + 1,
		Col:        int(node.StartPosition().Column),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		out.Children = l.lowerChildren(body)
	}
	return out
}

func (l *lowerer) lowerFunction(node *sitter.Node, decorators []string) *ASTNode {
	typ := NodeFunction
	if first := node.Child(0); first != nil && first.Kind() == "async" {
		typ = NodeAsyncFunction
	}
	out := &ASTNode{
		Type:       typ,
		Name:       l.text(node.ChildByFieldName("name")),
		Decorators: decorators,
		Line:       int(node.StartPosition().Row) + 1,
		Col:        int(node.StartPosition().Column),
	}
	if body := node.ChildByFieldName("body"); body != nil {
		out.Children = l.lowerChildren(body)
	}
	return out
}

// lowerImport records the names an import binds: the alias when one is
// given, otherwise the first segment of the dotted path.
func (l *lowerer) lowerImport(node *sitter.Node) *ASTNode {
	out := &ASTNode{
		Type: NodeImport,
		Line: int(node.StartPosition().Row) + 1,
		Col:  int(node.StartPosition().Column),
	}
	fromImport := node.Kind() == "import_from_statement"
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			seenImport = true
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				out.Names = append(out.Names, l.text(alias))
			}
		case "dotted_name", "identifier":
			if fromImport && !seenImport {
				continue // the module path after 'from'
			}
			out.Names = append(out.Names, boundName(l.text(child)))
		case "wildcard_import":
			out.Names = append(out.Names, "*")
		}
	}
	return out
}

// boundName reduces a dotted path to the name it binds: `import os.path`
// binds `os`.
func boundName(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

// lowerAssignment maps `NAME = ...` at statement level to an assign node.
// Tuple targets and attribute targets are skipped; they do not introduce a
// single outline-worthy name.
func (l *lowerer) lowerAssignment(stmt *sitter.Node) *ASTNode {
	if stmt.ChildCount() == 0 {
		return nil
	}
	expr := stmt.Child(0)
	if expr.Kind() != "assignment" && expr.Kind() != "augmented_assignment" {
		return nil
	}
	left := expr.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}
	return &ASTNode{
		Type: NodeAssign,
		Name: l.text(left),
		Line: int(stmt.StartPosition().Row) + 1,
		Col:  int(stmt.StartPosition().Column),
	}
}
