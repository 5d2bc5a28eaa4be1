// # internal/cst/tree.go
package cst

import (
	"fmt"
	"strings"

	"pyoutline/internal/token"
)

// NodeID addresses a node inside its Tree's arena. Parent links are plain
// indices, so the tree never forms an owning cycle.
type NodeID int32

// NoNode is the null NodeID; the root's parent.
const NoNode NodeID = -1

type node struct {
	typ      string
	leaf     bool
	value    string
	prefix   string
	start    token.Position
	parent   NodeID
	children []NodeID
}

// Tree is an arena of concrete syntax nodes. All nodes belong to exactly one
// Tree; the Tree owns every child slice, and a node's span is always
// contained in its parent's span because inner nodes derive their positions
// from their children.
type Tree struct {
	nodes []node
}

func NewTree() *Tree {
	return &Tree{}
}

// AddLeaf appends a leaf built from a token.
func (t *Tree) AddLeaf(typ string, tok token.Token) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		typ:    typ,
		leaf:   true,
		value:  tok.Value,
		prefix: tok.Prefix,
		start:  tok.Start,
		parent: NoNode,
	})
	return id
}

// AddNode appends an inner node adopting children. Each child must not
// already have a parent; a node has exactly one parent for its lifetime.
func (t *Tree) AddNode(typ string, children []NodeID) NodeID {
	id := NodeID(len(t.nodes))
	start := token.Position{Line: 1}
	if len(children) > 0 {
		start = t.nodes[children[0]].start
	}
	t.nodes = append(t.nodes, node{
		typ:      typ,
		start:    start,
		parent:   NoNode,
		children: children,
	})
	for _, c := range children {
		if t.nodes[c].parent != NoNode {
			panic(fmt.Sprintf("cst: node %d already has a parent", c))
		}
		t.nodes[c].parent = id
	}
	return id
}

func (t *Tree) Type(id NodeID) string          { return t.nodes[id].typ }
func (t *Tree) IsLeaf(id NodeID) bool          { return t.nodes[id].leaf }
func (t *Tree) Value(id NodeID) string         { return t.nodes[id].value }
func (t *Tree) Prefix(id NodeID) string        { return t.nodes[id].prefix }
func (t *Tree) Start(id NodeID) token.Position { return t.nodes[id].start }
func (t *Tree) Parent(id NodeID) NodeID        { return t.nodes[id].parent }
func (t *Tree) Children(id NodeID) []NodeID    { return t.nodes[id].children }
func (t *Tree) Len() int                       { return len(t.nodes) }

// SetChildren replaces a node's children. Used by constructor-time
// transforms; adopted children must be parentless or already owned by id.
func (t *Tree) SetChildren(id NodeID, children []NodeID) {
	for _, c := range t.nodes[id].children {
		t.nodes[c].parent = NoNode
	}
	for _, c := range children {
		if p := t.nodes[c].parent; p != NoNode && p != id {
			panic(fmt.Sprintf("cst: node %d already owned by %d", c, p))
		}
		t.nodes[c].parent = id
	}
	t.nodes[id].children = children
	if len(children) > 0 {
		t.nodes[id].start = t.nodes[children[0]].start
	}
}

// End returns the position just past the last leaf under id.
func (t *Tree) End(id NodeID) token.Position {
	n := &t.nodes[id]
	if n.leaf {
		return token.Token{Value: n.value, Start: n.start}.End()
	}
	if len(n.children) == 0 {
		return n.start
	}
	return t.End(n.children[len(n.children)-1])
}

// Code reconstructs the source text under id, prefixes included.
func (t *Tree) Code(id NodeID) string {
	var b strings.Builder
	t.writeCode(&b, id)
	return b.String()
}

func (t *Tree) writeCode(b *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	if n.leaf {
		b.WriteString(n.prefix)
		b.WriteString(n.value)
		return
	}
	for _, c := range n.children {
		t.writeCode(b, c)
	}
}

// Dump renders the subtree rooted at id, one node per line.
func (t *Tree) Dump(id NodeID) string {
	var b strings.Builder
	t.writeDump(&b, id, 0)
	return b.String()
}

func (t *Tree) writeDump(b *strings.Builder, id NodeID, depth int) {
	n := &t.nodes[id]
	b.WriteString(strings.Repeat("  ", depth))
	if n.leaf {
		fmt.Fprintf(b, "%s %q @%s\n", n.typ, n.value, n.start)
		return
	}
	fmt.Fprintf(b, "%s @%s\n", n.typ, n.start)
	for _, c := range n.children {
		t.writeDump(b, c, depth+1)
	}
}
