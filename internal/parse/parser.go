// # internal/parse/parser.go
package parse

import (
	"fmt"

	"pyoutline/internal/cst"
	"pyoutline/internal/grammar"
	"pyoutline/internal/token"
)

// SyntaxError is returned when parsing fails and error recovery is
// disabled. Line is 1-based, Col 0-based, pointing at the offending token.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Message)
}

// Parse consumes source under the grammar's production rules and returns the
// concrete syntax tree. With errorRecovery enabled, malformed regions are
// wrapped into error nodes and parsing resynchronizes at the next statement
// boundary; with it disabled the first mismatch aborts with *SyntaxError.
func Parse(source string, g *grammar.Grammar, errorRecovery bool) (t *cst.Tree, root cst.NodeID, err error) {
	p := &parser{
		g:       g,
		recover: errorRecovery,
		tree:    cst.NewTree(),
		toks:    token.Tokenize(source, g.Version),
	}
	p.next()

	defer func() {
		if r := recover(); r != nil {
			se, ok := r.(*SyntaxError)
			if !ok {
				panic(r)
			}
			t, root, err = nil, cst.NoNode, se
		}
	}()

	root = p.parseFileInput()
	return p.tree, root, nil
}

type parser struct {
	g       *grammar.Grammar
	recover bool
	tree    *cst.Tree
	toks    *token.Stream
	cur     token.Token
}

func (p *parser) next() {
	p.cur = p.toks.Next()
}

// leaf consumes the current token into a leaf node typed by the grammar.
func (p *parser) leaf() cst.NodeID {
	id := p.tree.AddLeaf(p.g.LeafType(p.cur), p.cur)
	p.next()
	return id
}

// fail aborts without recovery; with recovery enabled callers must not reach
// it.
func (p *parser) fail(msg string) {
	panic(&SyntaxError{Line: p.cur.Start.Line, Col: p.cur.Start.Col, Message: msg})
}

// bad wraps the children collected so far plus everything up to the next
// statement boundary into an error node. Recovery only.
func (p *parser) bad(children []cst.NodeID) cst.NodeID {
	children = append(children, p.errorLeaves()...)
	return p.tree.AddNode(cst.TypeErrorNode, children)
}

// errorLeaves consumes tokens through the next NEWLINE at the enclosing
// indentation level, turning them into leaves. The NEWLINE itself is
// consumed so the parser resumes at a fresh statement.
func (p *parser) errorLeaves() []cst.NodeID {
	var out []cst.NodeID
	for {
		switch p.cur.Type {
		case token.EndMarker, token.Dedent:
			return out
		case token.Newline:
			out = append(out, p.leaf())
			return out
		default:
			out = append(out, p.leaf())
		}
	}
}

// run consumes a flat expression-level token sequence into leaves. It stops
// at statement boundaries, at error tokens, and, outside brackets, wherever
// stop returns true or a stray closing bracket appears.
func (p *parser) run(stop func(token.Token) bool) []cst.NodeID {
	var out []cst.NodeID
	depth := 0
	for {
		t := p.cur
		switch t.Type {
		case token.EndMarker, token.Newline, token.Indent, token.Dedent, token.ErrorDedent, token.ErrorToken:
			return out
		}
		if depth == 0 && stop != nil && stop(t) {
			return out
		}
		if t.Type == token.Op {
			switch t.Value {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				if depth == 0 {
					return out
				}
				depth--
			}
		}
		out = append(out, p.leaf())
	}
}

func stopValue(values ...string) func(token.Token) bool {
	return func(t token.Token) bool {
		for _, v := range values {
			if t.Value == v {
				return true
			}
		}
		return false
	}
}

// balanced consumes an opening bracket through its matching closer. The
// current token must be the opener.
func (p *parser) balanced() []cst.NodeID {
	open := p.cur.Value
	var closer string
	switch open {
	case "(":
		closer = ")"
	case "[":
		closer = "]"
	default:
		closer = "}"
	}
	out := []cst.NodeID{p.leaf()}
	depth := 1
	for depth > 0 {
		switch p.cur.Type {
		case token.EndMarker, token.Newline, token.Dedent:
			return out // unterminated; caller recovers
		case token.ErrorToken:
			return out
		}
		if p.cur.Type == token.Op {
			switch p.cur.Value {
			case open:
				depth++
			case closer:
				depth--
			}
		}
		out = append(out, p.leaf())
	}
	return out
}

func (p *parser) at(value string) bool {
	return p.cur.Value == value &&
		(p.cur.Type == token.Name || p.cur.Type == token.Op)
}

func (p *parser) parseFileInput() cst.NodeID {
	var children []cst.NodeID
	for {
		switch p.cur.Type {
		case token.EndMarker:
			children = append(children, p.leaf())
			return p.g.Construct(p.tree, cst.TypeFileInput, children)
		case token.Newline:
			children = append(children, p.leaf())
		case token.Indent, token.Dedent, token.ErrorDedent:
			// Stray indentation at module level; drop it and move on.
			p.next()
		default:
			children = append(children, p.parseStmt())
		}
	}
}

func (p *parser) parseStmt() cst.NodeID {
	if p.cur.Type == token.ErrorToken {
		if !p.recover {
			p.fail("invalid token")
		}
		return p.bad(nil)
	}
	if p.cur.Type == token.Op && p.cur.Value == "@" {
		return p.parseDecorated()
	}
	if p.cur.Type == token.Name {
		switch p.cur.Value {
		case "def":
			return p.parseFuncDef()
		case "class":
			return p.parseClassDef()
		case "import":
			return p.parseImportName()
		case "from":
			return p.parseImportFrom()
		case "async":
			return p.parseAsync()
		case "if", "while", "for", "try", "with":
			return p.parseCompound(p.cur.Value)
		case "cdef", "cpdef":
			if p.g.Has(cst.TypeCFuncDef) {
				return p.parseCdef()
			}
		case "ctypedef":
			if p.g.Has(cst.TypeCTypedef) {
				return p.parseCTypedef()
			}
		}
	}
	return p.parseSimpleStmt()
}

func (p *parser) parseSimpleStmt() cst.NodeID {
	var children []cst.NodeID
	for {
		expr := p.run(stopValue(";"))
		if len(expr) > 0 {
			children = append(children, p.g.Construct(p.tree, cst.TypeExprStmt, expr))
		}
		switch {
		case p.at(";"):
			children = append(children, p.leaf())
		case p.cur.Type == token.Newline:
			children = append(children, p.leaf())
			return p.g.Construct(p.tree, cst.TypeSimpleStmt, children)
		case p.cur.Type == token.EndMarker, p.cur.Type == token.Dedent:
			return p.g.Construct(p.tree, cst.TypeSimpleStmt, children)
		default:
			if !p.recover {
				p.fail("invalid syntax")
			}
			children = append(children, p.bad(nil))
			if p.cur.Type == token.Newline {
				children = append(children, p.leaf())
			}
			return p.g.Construct(p.tree, cst.TypeSimpleStmt, children)
		}
	}
}

// parseSuite parses the body of a compound statement: either a simple
// statement on the same line or an indented block. One-line bodies are
// wrapped in a suite node as well so definition nodes always have one.
func (p *parser) parseSuite() cst.NodeID {
	if p.cur.Type != token.Newline {
		stmt := p.parseSimpleStmt()
		return p.g.Construct(p.tree, cst.TypeSuite, []cst.NodeID{stmt})
	}
	children := []cst.NodeID{p.leaf()} // newline
	if p.cur.Type != token.Indent {
		if !p.recover {
			p.fail("expected an indented block")
		}
		return p.g.Construct(p.tree, cst.TypeSuite, children)
	}
	p.next() // indent
	for {
		switch p.cur.Type {
		case token.Dedent:
			p.next()
			return p.g.Construct(p.tree, cst.TypeSuite, children)
		case token.EndMarker:
			return p.g.Construct(p.tree, cst.TypeSuite, children)
		case token.Newline:
			children = append(children, p.leaf())
		case token.Indent, token.ErrorDedent:
			p.next()
		default:
			children = append(children, p.parseStmt())
		}
	}
}

func (p *parser) parseFuncDef() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // def
	if p.cur.Type != token.Name || p.g.Keyword(p.cur.Value) {
		if !p.recover {
			p.fail("expected function name")
		}
		return p.bad(children)
	}
	children = append(children, p.leaf())
	if !p.at("(") {
		if !p.recover {
			p.fail("expected parameter list")
		}
		return p.bad(children)
	}
	children = append(children, p.g.Construct(p.tree, cst.TypeParameters, p.balanced()))
	if p.at("->") {
		children = append(children, p.leaf())
		children = append(children, p.run(stopValue(":"))...)
	}
	return p.finishDef(cst.TypeFuncDef, children)
}

func (p *parser) parseClassDef() cst.NodeID {
	return p.parseClassHeader(cst.TypeClassDef, []cst.NodeID{p.leaf()})
}

// parseClassHeader finishes `... NAME ['(' [arglist] ')'] ':' suite` for
// both classdef and cclassdef.
func (p *parser) parseClassHeader(typ string, children []cst.NodeID) cst.NodeID {
	if p.cur.Type != token.Name || p.g.Keyword(p.cur.Value) {
		if !p.recover {
			p.fail("expected class name")
		}
		return p.bad(children)
	}
	children = append(children, p.leaf())
	if p.at("(") {
		inner := p.balanced()
		if len(inner) > 2 {
			args := inner[1 : len(inner)-1]
			arglist := p.g.Construct(p.tree, cst.TypeArglist, args)
			rebuilt := []cst.NodeID{inner[0], arglist, inner[len(inner)-1]}
			children = append(children, rebuilt...)
		} else {
			children = append(children, inner...)
		}
	}
	return p.finishDef(typ, children)
}

// finishDef expects the `':' suite` tail shared by every definition form.
func (p *parser) finishDef(typ string, children []cst.NodeID) cst.NodeID {
	if !p.at(":") {
		if !p.recover {
			p.fail("expected ':'")
		}
		return p.bad(children)
	}
	children = append(children, p.leaf())
	children = append(children, p.parseSuite())
	return p.g.Construct(p.tree, typ, children)
}

func (p *parser) parseDecorated() cst.NodeID {
	var decorators []cst.NodeID
	for p.at("@") {
		dec := []cst.NodeID{p.leaf()}
		dec = append(dec, p.run(nil)...)
		if p.cur.Type == token.Newline {
			dec = append(dec, p.leaf())
		}
		decorators = append(decorators, p.g.Construct(p.tree, cst.TypeDecorator, dec))
	}
	head := decorators[0]
	if len(decorators) > 1 {
		head = p.g.Construct(p.tree, cst.TypeDecorators, decorators)
	}
	children := []cst.NodeID{head}

	if p.cur.Type == token.Name {
		switch p.cur.Value {
		case "def":
			return p.g.Construct(p.tree, cst.TypeDecorated, append(children, p.parseFuncDef()))
		case "class":
			return p.g.Construct(p.tree, cst.TypeDecorated, append(children, p.parseClassDef()))
		case "async":
			return p.g.Construct(p.tree, cst.TypeDecorated, append(children, p.parseAsync()))
		case "cdef", "cpdef":
			if p.g.Has(cst.TypeCFuncDef) {
				return p.g.Construct(p.tree, cst.TypeDecorated, append(children, p.parseCdef()))
			}
		}
	}
	if !p.recover {
		p.fail("expected a definition after decorator")
	}
	return p.bad(children)
}

func (p *parser) parseAsync() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // async
	if p.cur.Type == token.Name {
		switch p.cur.Value {
		case "def":
			children = append(children, p.parseFuncDef())
			return p.g.Construct(p.tree, cst.TypeAsyncFuncDef, children)
		case "with", "for":
			children = append(children, p.parseCompound(p.cur.Value))
			return p.tree.AddNode("async_stmt", children)
		}
	}
	if !p.recover {
		p.fail("expected 'def', 'with' or 'for' after 'async'")
	}
	return p.bad(children)
}

// clauseKeywords maps a compound statement to the keywords that may
// introduce its continuation clauses.
var clauseKeywords = map[string][]string{
	"if":    {"elif", "else"},
	"while": {"else"},
	"for":   {"else"},
	"try":   {"except", "else", "finally"},
	"with":  {},
}

func (p *parser) parseCompound(kw string) cst.NodeID {
	typ := kw + "_stmt"
	children := p.parseClause()
	for p.cur.Type == token.Name && contains(clauseKeywords[kw], p.cur.Value) {
		children = append(children, p.parseClause()...)
	}
	return p.g.Construct(p.tree, typ, children)
}

// parseClause parses `KEYWORD <head tokens> ':' suite`.
func (p *parser) parseClause() []cst.NodeID {
	children := []cst.NodeID{p.leaf()}
	children = append(children, p.run(stopValue(":"))...)
	if !p.at(":") {
		if !p.recover {
			p.fail("expected ':'")
		}
		return []cst.NodeID{p.bad(children)}
	}
	children = append(children, p.leaf())
	children = append(children, p.parseSuite())
	return children
}

func (p *parser) parseImportName() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // import
	children = append(children, p.run(nil)...)
	return p.finishSimple(cst.TypeImportName, children)
}

func (p *parser) parseImportFrom() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // from
	children = append(children, p.run(stopValue("import"))...)
	if !p.at("import") {
		if !p.recover {
			p.fail("expected 'import'")
		}
		return p.bad(children)
	}
	children = append(children, p.leaf())
	if p.at("(") {
		children = append(children, p.balanced()...)
	} else {
		children = append(children, p.run(nil)...)
	}
	return p.finishSimple(cst.TypeImportFrom, children)
}

// finishSimple expects the trailing NEWLINE of a one-line statement.
func (p *parser) finishSimple(typ string, children []cst.NodeID) cst.NodeID {
	switch p.cur.Type {
	case token.Newline:
		children = append(children, p.leaf())
	case token.EndMarker, token.Dedent:
	default:
		if !p.recover {
			p.fail("invalid syntax")
		}
		return p.bad(children)
	}
	return p.g.Construct(p.tree, typ, children)
}

// parseCdef dispatches the dialect declaration forms that share the
// 'cdef'/'cpdef' introducer: extension classes, C functions and typed
// variables.
func (p *parser) parseCdef() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // cdef | cpdef
	if p.at("class") {
		children = append(children, p.leaf())
		return p.parseClassHeader(cst.TypeCClassDef, children)
	}
	for {
		switch {
		case p.cur.Type == token.Name:
			name := p.leaf()
			if p.at("(") {
				// The name directly before the parameter list is the
				// function name; everything before it was the C type.
				children = append(children, name)
				children = append(children, p.g.Construct(p.tree, cst.TypeParameters, p.balanced()))
				if p.at("except") {
					children = append(children, p.leaf())
					children = append(children, p.run(stopValue(":"))...)
				}
				return p.finishDef(cst.TypeCFuncDef, children)
			}
			children = append(children, name)
		case p.at("*"), p.at("**"):
			children = append(children, p.leaf())
		case p.at("="):
			children = append(children, p.leaf())
			children = append(children, p.run(nil)...)
			return p.finishSimple(cst.TypeCVarDef, children)
		case p.cur.Type == token.Newline, p.cur.Type == token.EndMarker, p.cur.Type == token.Dedent:
			if len(children) < 2 {
				if !p.recover {
					p.fail("expected a declaration after 'cdef'")
				}
				return p.bad(children)
			}
			return p.finishSimple(cst.TypeCVarDef, children)
		default:
			if !p.recover {
				p.fail("invalid 'cdef' declaration")
			}
			return p.bad(children)
		}
	}
}

func (p *parser) parseCTypedef() cst.NodeID {
	children := []cst.NodeID{p.leaf()} // ctypedef
	children = append(children, p.run(nil)...)
	return p.finishSimple(cst.TypeCTypedef, children)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
