// # internal/symbol/builder.go
package symbol

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ExportPolicy controls which symbol classes make it into the tree.
type ExportPolicy struct {
	// ModuleVariables keeps assignments at module scope.
	ModuleVariables bool
	// ClassVariables keeps assignments directly inside a class body.
	ClassVariables bool
	// Imports keeps import statements as package entries.
	Imports bool
}

// Node is one entry of the finished outline. Line and Col are 0-based.
type Node struct {
	Kind Kind
	Name string
	Line int
	Col  int
	File string

	children []*Node
}

func (n *Node) Len() int          { return len(n.children) }
func (n *Node) At(i int) *Node    { return n.children[i] }
func (n *Node) Children() []*Node { return n.children }

// Dump renders the tree one symbol per line, indented by depth. Meant for
// tests and debugging.
func (n *Node) Dump() string {
	var b strings.Builder
	n.writeDump(&b, 0)
	return b.String()
}

func (n *Node) writeDump(b *strings.Builder, depth int) {
	fmt.Fprintf(b, "%s%s %s [%d:%d]\n",
		strings.Repeat("  ", depth), n.Kind, n.Name, n.Line, n.Col)
	for _, c := range n.children {
		c.writeDump(b, depth+1)
	}
}

// Build assembles the outline tree from a backend's syntax view. The root
// entry represents the file itself; policy filtering happens here so both
// backends share one set of rules.
func Build(root SyntaxNode, policy ExportPolicy, file string) *Node {
	out := &Node{
		Kind: KindPackage,
		Name: filepath.Base(file),
		Line: max(root.Line(), 0),
		Col:  root.Col(),
		File: file,
	}
	appendChildren(out, root, policy, file)
	return out
}

func appendChildren(parent *Node, src SyntaxNode, policy ExportPolicy, file string) {
	for _, c := range src.Children() {
		switch c.Kind() {
		case KindNone:
			// Unclassified wrappers contribute no symbol but may still
			// enclose definitions.
			appendChildren(parent, c, policy, file)
			continue
		case KindVariable:
			// Assignments only count as symbols at module or class scope.
			if parent.Kind != KindPackage && parent.Kind != KindClass {
				continue
			}
			show := policy.ModuleVariables
			if parent.Kind == KindClass {
				show = policy.ClassVariables
			}
			if !show {
				appendChildren(parent, c, policy, file)
				continue
			}
		case KindPackage:
			if !policy.Imports {
				continue
			}
			// Import entries keep their names verbatim.
			parent.children = append(parent.children, &Node{
				Kind: KindPackage, Name: c.Name(),
				Line: c.Line(), Col: c.Col(), File: file,
			})
			continue
		}
		node := &Node{
			Kind: c.Kind(),
			Name: c.Name(),
			Line: c.Line(),
			Col:  c.Col(),
			File: file,
		}
		parent.children = append(parent.children, node)
		appendChildren(node, c, policy, file)
	}
}
