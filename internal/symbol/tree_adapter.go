// # internal/symbol/tree_adapter.go
package symbol

import (
	"strings"

	"pyoutline/internal/cst"
)

// treeNode is the SyntaxNode view over the concrete syntax tree backend.
type treeNode struct {
	kind     Kind
	name     string
	line     int
	col      int
	children []SyntaxNode
}

func (n *treeNode) Kind() Kind             { return n.kind }
func (n *treeNode) Name() string           { return n.name }
func (n *treeNode) Line() int              { return n.line }
func (n *treeNode) Col() int               { return n.col }
func (n *treeNode) Children() []SyntaxNode { return n.children }
func (n *treeNode) Dump() string           { return dumpSyntax(n) }

// FromTree adapts a parsed module into the outline's syntax node view.
func FromTree(t *cst.Tree, root cst.NodeID) SyntaxNode {
	return &treeNode{
		kind:     KindPackage,
		children: lowerStmts(t, t.Children(root), false),
	}
}

func lowerStmts(t *cst.Tree, ids []cst.NodeID, inClass bool) []SyntaxNode {
	var out []SyntaxNode
	for _, id := range ids {
		if t.IsLeaf(id) {
			continue
		}
		out = append(out, lowerStmt(t, id, inClass)...)
	}
	return out
}

func lowerStmt(t *cst.Tree, id cst.NodeID, inClass bool) []SyntaxNode {
	switch t.Type(id) {
	case cst.TypeClassDef, cst.TypeCClassDef:
		if n := defNode(t, id, KindClass, true); n != nil {
			return []SyntaxNode{n}
		}
	case cst.TypeFuncDef, cst.TypeCFuncDef:
		kind := KindFunction
		if inClass {
			kind = KindMethod
		}
		if n := defNode(t, id, kind, false); n != nil {
			return []SyntaxNode{n}
		}
	case cst.TypeAsyncFuncDef:
		children := t.Children(id)
		if len(children) > 1 {
			return lowerStmt(t, children[1], inClass)
		}
	case cst.TypeDecorated:
		children := t.Children(id)
		if len(children) > 0 {
			return lowerStmt(t, children[len(children)-1], inClass)
		}
	case cst.TypeImportName, cst.TypeImportFrom:
		if n := importNode(t, id); n != nil {
			return []SyntaxNode{n}
		}
	case cst.TypeSimpleStmt:
		var out []SyntaxNode
		for _, c := range t.Children(id) {
			if !t.IsLeaf(c) && t.Type(c) == cst.TypeExprStmt {
				if n := assignmentNode(t, c); n != nil {
					out = append(out, n)
				}
			}
		}
		return out
	case cst.TypeCVarDef:
		if n := cvarNode(t, id); n != nil {
			return []SyntaxNode{n}
		}
	case cst.TypeCTypedef:
		// A typedef introduces a type name; surface it alongside classes.
		if leaf := lastNameLeaf(t, id); leaf != cst.NoNode {
			return []SyntaxNode{leafNode(t, leaf, KindClass)}
		}
	case "if_stmt", "while_stmt", "for_stmt", "try_stmt", "with_stmt", "async_stmt":
		// Definitions nested under control flow still belong in the
		// outline, at the same depth as their siblings.
		var out []SyntaxNode
		for _, c := range t.Children(id) {
			if !t.IsLeaf(c) && t.Type(c) == cst.TypeSuite {
				out = append(out, lowerStmts(t, t.Children(c), inClass)...)
			}
		}
		return out
	}
	return nil
}

// defNode builds the node for a definition, named by its identifier and
// positioned at the introducing keyword.
func defNode(t *cst.Tree, id cst.NodeID, kind Kind, isClass bool) *treeNode {
	name := cst.DefName(t, id)
	if name == cst.NoNode {
		return nil
	}
	start := t.Start(id)
	n := &treeNode{
		kind: kind,
		name: t.Value(name),
		line: start.Line - 1,
		col:  start.Col,
	}
	if suite := cst.Suite(t, id); suite != cst.NoNode {
		n.children = lowerStmts(t, t.Children(suite), isClass)
	}
	return n
}

func leafNode(t *cst.Tree, leaf cst.NodeID, kind Kind) *treeNode {
	start := t.Start(leaf)
	return &treeNode{
		kind: kind,
		name: t.Value(leaf),
		line: start.Line - 1,
		col:  start.Col,
	}
}

// importNode names an import statement by the identifiers it binds, joined
// with commas: `import os, numpy as np` reads "os, np".
func importNode(t *cst.Tree, id cst.NodeID) *treeNode {
	children := t.Children(id)
	if len(children) == 0 {
		return nil
	}

	// For from-imports the bound names start after the 'import' keyword;
	// for plain imports, after the leading keyword itself.
	from := 1
	if t.Type(id) == cst.TypeImportFrom {
		from = -1
		for i, c := range children {
			if t.IsLeaf(c) && t.Value(c) == "import" {
				from = i + 1
				break
			}
		}
		if from < 0 {
			return nil
		}
	}

	names := boundNames(t, children[from:])
	if len(names) == 0 {
		return nil
	}
	start := t.Start(children[0])
	return &treeNode{
		kind: KindPackage,
		name: strings.Join(names, ", "),
		line: start.Line - 1,
		col:  start.Col,
	}
}

// boundNames extracts one bound identifier per comma-separated group:
// the alias when 'as' is present, otherwise the first name segment.
func boundNames(t *cst.Tree, ids []cst.NodeID) []string {
	var names []string
	var first, alias string
	afterAs := false
	depth := 0
	flush := func() {
		switch {
		case alias != "":
			names = append(names, alias)
		case first != "":
			names = append(names, first)
		}
		first, alias, afterAs = "", "", false
	}
	for _, c := range ids {
		if !t.IsLeaf(c) {
			continue
		}
		v := t.Value(c)
		switch {
		case v == "(" || v == "[":
			depth++
		case v == ")" || v == "]":
			depth--
		case v == "," && depth <= 1:
			flush()
		case v == "as":
			afterAs = true
		case v == "*":
			first = "*"
		case t.Type(c) == cst.LeafName:
			if afterAs {
				alias = v
			} else if first == "" {
				first = v
			}
		}
	}
	flush()
	return names
}

// assignmentNode maps `NAME = ...` to a variable node. Anything with a
// compound target is skipped.
func assignmentNode(t *cst.Tree, expr cst.NodeID) *treeNode {
	children := t.Children(expr)
	depth := 0
	for _, c := range children {
		if !t.IsLeaf(c) {
			continue
		}
		switch t.Value(c) {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case "=":
			if depth != 0 {
				continue
			}
			if len(children) == 0 || t.Type(children[0]) != cst.LeafName {
				return nil
			}
			return leafNode(t, children[0], KindVariable)
		}
	}
	return nil
}

// cvarNode names a typed declaration by the last name before '=' or the
// line end; everything before it is the C type.
func cvarNode(t *cst.Tree, id cst.NodeID) *treeNode {
	last := cst.NoNode
	for _, c := range t.Children(id) {
		if !t.IsLeaf(c) {
			continue
		}
		if t.Value(c) == "=" {
			break
		}
		if t.Type(c) == cst.LeafName {
			last = c
		}
	}
	if last == cst.NoNode {
		return nil
	}
	return leafNode(t, last, KindVariable)
}

func lastNameLeaf(t *cst.Tree, id cst.NodeID) cst.NodeID {
	last := cst.NoNode
	for _, c := range t.Children(id) {
		if t.IsLeaf(c) && t.Type(c) == cst.LeafName {
			last = c
		}
	}
	return last
}
