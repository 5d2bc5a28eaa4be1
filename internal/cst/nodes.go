// # internal/cst/nodes.go
package cst

// Inner node types produced by the parser. The names follow the grammar's
// production names; dialect-only productions sit alongside the base ones.
const (
	TypeFileInput    = "file_input"
	TypeSimpleStmt   = "simple_stmt"
	TypeExprStmt     = "expr_stmt"
	TypeClassDef     = "classdef"
	TypeFuncDef      = "funcdef"
	TypeAsyncFuncDef = "async_funcdef"
	TypeDecorated    = "decorated"
	TypeDecorators   = "decorators"
	TypeDecorator    = "decorator"
	TypeImportName   = "import_name"
	TypeImportFrom   = "import_from"
	TypeSuite        = "suite"
	TypeParameters   = "parameters"
	TypeParam        = "param"
	TypeCClassDef    = "cclassdef"
	TypeCFuncDef     = "cfuncdef"
	TypeCVarDef      = "cvar_def"
	TypeArglist      = "arglist"
	TypeCTypedef     = "ctypedef_stmt"
	TypeErrorNode    = "error_node"
)

// Leaf types.
const (
	LeafName      = "name"
	LeafKeyword   = "keyword"
	LeafOperator  = "operator"
	LeafString    = "string"
	LeafNumber    = "number"
	LeafNewline   = "newline"
	LeafEndmarker = "endmarker"
	LeafFString   = "fstring"
	LeafError     = "error_leaf"
)

// DefName returns the name leaf of a definition node, or NoNode when the
// node is too malformed to carry one.
func DefName(t *Tree, id NodeID) NodeID {
	children := t.Children(id)
	switch t.Type(id) {
	case TypeClassDef, TypeFuncDef:
		// 'class'/'def' NAME ...
		if len(children) > 1 && t.Type(children[1]) == LeafName {
			return children[1]
		}
	case TypeCClassDef:
		// 'cdef' 'class' NAME ...
		if len(children) > 2 && t.Type(children[2]) == LeafName {
			return children[2]
		}
	case TypeCFuncDef:
		// ('cdef'|'cpdef') [ctype] NAME parameters ...
		// The name is the last name leaf before the parameter list.
		last := NoNode
		for _, c := range children {
			if t.Type(c) == TypeParameters {
				return last
			}
			if t.IsLeaf(c) && t.Type(c) == LeafName {
				last = c
			}
		}
	case TypeAsyncFuncDef:
		if len(children) > 1 {
			return DefName(t, children[1])
		}
	}
	return NoNode
}

// Suite returns the suite node of a compound statement, or NoNode.
func Suite(t *Tree, id NodeID) NodeID {
	for _, c := range t.Children(id) {
		if t.Type(c) == TypeSuite {
			return c
		}
	}
	return NoNode
}

// GroupParams rewrites the raw token run between the parentheses of a
// parameter list into param nodes, one per comma-separated group. It is the
// constructor-time transform shared by funcdef and cfuncdef, which otherwise
// parse through the same code path.
func GroupParams(t *Tree, def NodeID) {
	var params NodeID = NoNode
	for _, c := range t.Children(def) {
		if t.Type(c) == TypeParameters {
			params = c
			break
		}
	}
	if params == NoNode {
		return
	}
	old := t.Children(params)
	if len(old) < 3 { // '(' ')' or less: nothing to group
		return
	}
	for _, c := range old {
		if t.Type(c) == TypeParam {
			return // already grouped
		}
	}
	lparen, rparen := old[0], old[len(old)-1]
	inner := old[1 : len(old)-1]
	t.SetChildren(params, nil)

	rebuilt := []NodeID{lparen}
	var run []NodeID
	flush := func() {
		if len(run) == 0 {
			return
		}
		rebuilt = append(rebuilt, t.AddNode(TypeParam, run))
		run = nil
	}
	depth := 0
	for _, c := range inner {
		run = append(run, c)
		if !t.IsLeaf(c) {
			continue
		}
		switch t.Value(c) {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			// Commas inside nested brackets belong to default values,
			// not to the parameter list itself.
			if depth == 0 {
				flush()
			}
		}
	}
	flush()
	rebuilt = append(rebuilt, rparen)
	t.SetChildren(params, rebuilt)
}

// SuperArglist returns the argument node between the parentheses of a class
// definition header, or NoNode when the header has no or empty parentheses.
func SuperArglist(t *Tree, id NodeID) NodeID {
	children := t.Children(id)
	name := DefName(t, id)
	seen := false
	for i, c := range children {
		if c == name {
			seen = true
			continue
		}
		if !seen {
			continue
		}
		if t.IsLeaf(c) && t.Value(c) == "(" {
			if i+1 < len(children) {
				next := children[i+1]
				if t.IsLeaf(next) && t.Value(next) == ")" {
					return NoNode
				}
				return next
			}
			return NoNode
		}
		if t.IsLeaf(c) && t.Value(c) == ":" {
			return NoNode
		}
	}
	return NoNode
}
