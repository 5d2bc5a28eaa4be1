// # internal/grammar/grammar.go
package grammar

import (
	"pyoutline/internal/cst"
	"pyoutline/internal/token"
)

// Dialect names a supported grammar family. Cython is a strict syntactic
// superset of Python: its grammar carries every base production plus the
// dialect-only declaration forms.
type Dialect string

const (
	DialectPython Dialect = "python"
	DialectCython Dialect = "cython"
)

// Production is one BNF rule from a grammar resource file.
type Production struct {
	Name string
	RHS  string
}

// Constructor builds a concrete tree node for a completed production.
type Constructor func(t *cst.Tree, typ string, children []cst.NodeID) cst.NodeID

// Grammar drives one dialect/version pair. Instances are immutable after
// construction and shared between concurrent parses.
type Grammar struct {
	Dialect Dialect
	Version token.Version

	productions map[string]Production
	keywords    map[string]bool
	nodeMap     map[string]Constructor
	defaultNode Constructor
	leafMap     map[token.Type]string
}

// Has reports whether the grammar defines a production. The parser uses this
// to gate dialect-only statements.
func (g *Grammar) Has(name string) bool {
	_, ok := g.productions[name]
	return ok
}

// Production returns a rule by name.
func (g *Grammar) Production(name string) (Production, bool) {
	p, ok := g.productions[name]
	return p, ok
}

// Keyword reports whether a NAME token is reserved by this grammar.
func (g *Grammar) Keyword(value string) bool {
	return g.keywords[value]
}

// Construct builds the node for a completed production, falling back to the
// default constructor for productions without a dedicated entry.
func (g *Grammar) Construct(t *cst.Tree, typ string, children []cst.NodeID) cst.NodeID {
	if c, ok := g.nodeMap[typ]; ok {
		return c(t, typ, children)
	}
	return g.defaultNode(t, typ, children)
}

// LeafType maps a token to the leaf node type it becomes in the tree.
func (g *Grammar) LeafType(tok token.Token) string {
	if tok.Type == token.Name && g.keywords[tok.Value] {
		return cst.LeafKeyword
	}
	if lt, ok := g.leafMap[tok.Type]; ok {
		return lt
	}
	return cst.LeafOperator
}

func defaultConstructor(t *cst.Tree, typ string, children []cst.NodeID) cst.NodeID {
	return t.AddNode(typ, children)
}

// funcConstructor is the definition constructor: the shared token sequence
// is built like any node, then the parameter run is regrouped in place.
func funcConstructor(t *cst.Tree, typ string, children []cst.NodeID) cst.NodeID {
	id := t.AddNode(typ, children)
	cst.GroupParams(t, id)
	return id
}

// newNodeMap assembles the node map for a dialect: the base table first,
// then dialect additions. Additions may never overwrite a base entry.
func newNodeMap(d Dialect) map[string]Constructor {
	m := map[string]Constructor{
		cst.TypeFileInput:    defaultConstructor,
		cst.TypeSimpleStmt:   defaultConstructor,
		cst.TypeExprStmt:     defaultConstructor,
		cst.TypeClassDef:     defaultConstructor,
		cst.TypeFuncDef:      funcConstructor,
		cst.TypeAsyncFuncDef: defaultConstructor,
		cst.TypeDecorated:    defaultConstructor,
		cst.TypeDecorators:   defaultConstructor,
		cst.TypeDecorator:    defaultConstructor,
		cst.TypeImportName:   defaultConstructor,
		cst.TypeImportFrom:   defaultConstructor,
		cst.TypeSuite:        defaultConstructor,
		cst.TypeParameters:   defaultConstructor,
	}
	if d == DialectCython {
		additions := map[string]Constructor{
			cst.TypeCClassDef: defaultConstructor,
			cst.TypeCFuncDef:  funcConstructor,
			cst.TypeCVarDef:   defaultConstructor,
			cst.TypeCTypedef:  defaultConstructor,
		}
		for name, c := range additions {
			if _, exists := m[name]; !exists {
				m[name] = c
			}
		}
	}
	return m
}

func newLeafMap() map[token.Type]string {
	return map[token.Type]string{
		token.Name:          cst.LeafName,
		token.String:        cst.LeafString,
		token.Number:        cst.LeafNumber,
		token.Newline:       cst.LeafNewline,
		token.EndMarker:     cst.LeafEndmarker,
		token.FStringStart:  cst.LeafFString,
		token.FStringString: cst.LeafFString,
		token.FStringEnd:    cst.LeafFString,
		token.Op:            cst.LeafOperator,
		token.ErrorToken:    cst.LeafError,
	}
}
