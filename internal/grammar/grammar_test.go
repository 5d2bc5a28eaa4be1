// # internal/grammar/grammar_test.go
package grammar

import (
	"errors"
	"strings"
	"testing"

	"pyoutline/internal/cst"
	"pyoutline/internal/token"
)

func v(major, minor int) token.Version {
	return token.Version{Major: major, Minor: minor}
}

func TestLoadCachesPerDialectVersion(t *testing.T) {
	a, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if a != b {
		t.Error("second load returned a different instance")
	}

	c, err := Load(DialectCython, v(3, 10))
	if err != nil {
		t.Fatalf("load cython: %v", err)
	}
	if c == a {
		t.Error("dialects share a grammar instance")
	}
}

func TestLoadUnsupportedVersion(t *testing.T) {
	_, err := Load(DialectPython, v(9, 9))
	if err == nil {
		t.Fatal("expected error for unknown version")
	}
	var uve *UnsupportedVersionError
	if !errors.As(err, &uve) {
		t.Fatalf("error type %T", err)
	}
	if uve.Dialect != DialectPython || uve.Version != v(9, 9) {
		t.Errorf("error fields = %s %s", uve.Dialect, uve.Version)
	}
	if got := err.Error(); got != "python version 9.9 is currently not supported" {
		t.Errorf("message = %q", got)
	}

	// A failed load must not leave a cache entry behind.
	cacheMu.Lock()
	_, cached := cache[resourcePath(DialectPython, v(9, 9))]
	cacheMu.Unlock()
	if cached {
		t.Error("failed load left a cache entry")
	}
}

func TestGrammarProductions(t *testing.T) {
	py, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("load python: %v", err)
	}
	cy, err := Load(DialectCython, v(3, 10))
	if err != nil {
		t.Fatalf("load cython: %v", err)
	}

	for _, name := range []string{"file_input", "funcdef", "classdef", "import_name", "import_from", "decorated"} {
		if !py.Has(name) {
			t.Errorf("python grammar missing %q", name)
		}
		if !cy.Has(name) {
			t.Errorf("cython grammar missing %q", name)
		}
	}
	for _, name := range []string{cst.TypeCFuncDef, cst.TypeCClassDef, cst.TypeCVarDef, cst.TypeCTypedef} {
		if py.Has(name) {
			t.Errorf("python grammar unexpectedly has %q", name)
		}
		if !cy.Has(name) {
			t.Errorf("cython grammar missing %q", name)
		}
	}

	p, ok := py.Production("funcdef")
	if !ok {
		t.Fatal("funcdef production missing")
	}
	if !strings.Contains(p.RHS, "'def' NAME parameters") {
		t.Errorf("funcdef rhs = %q", p.RHS)
	}
}

func TestGrammarKeywords(t *testing.T) {
	py, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("load python: %v", err)
	}
	cy, err := Load(DialectCython, v(3, 10))
	if err != nil {
		t.Fatalf("load cython: %v", err)
	}

	for _, kw := range []string{"def", "class", "import", "from", "pass", "async"} {
		if !py.Keyword(kw) {
			t.Errorf("python: %q not reserved", kw)
		}
	}
	for _, kw := range []string{"cdef", "cpdef", "ctypedef"} {
		if py.Keyword(kw) {
			t.Errorf("python: %q reserved", kw)
		}
		if !cy.Keyword(kw) {
			t.Errorf("cython: %q not reserved", kw)
		}
	}
	if py.Keyword("foo") {
		t.Error("ordinary name reserved")
	}
}

func TestGrammarLeafType(t *testing.T) {
	g, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tests := []struct {
		tok  token.Token
		want string
	}{
		{token.Token{Type: token.Name, Value: "def"}, cst.LeafKeyword},
		{token.Token{Type: token.Name, Value: "spam"}, cst.LeafName},
		{token.Token{Type: token.String, Value: "'x'"}, cst.LeafString},
		{token.Token{Type: token.Number, Value: "1"}, cst.LeafNumber},
		{token.Token{Type: token.Op, Value: "("}, cst.LeafOperator},
		{token.Token{Type: token.Newline}, cst.LeafNewline},
		{token.Token{Type: token.EndMarker}, cst.LeafEndmarker},
		{token.Token{Type: token.ErrorToken, Value: "$"}, cst.LeafError},
		{token.Token{Type: token.FStringStart, Value: "f'"}, cst.LeafFString},
	}
	for _, tt := range tests {
		if got := g.LeafType(tt.tok); got != tt.want {
			t.Errorf("LeafType(%v) = %q, want %q", tt.tok, got, tt.want)
		}
	}
}

func TestConstructGroupsParameters(t *testing.T) {
	g, err := Load(DialectPython, v(3, 10))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tree := cst.NewTree()
	mk := func(typ, value string, col int) cst.NodeID {
		return tree.AddLeaf(typ, token.Token{Value: value, Start: token.Position{Line: 1, Col: col}})
	}
	params := g.Construct(tree, cst.TypeParameters, []cst.NodeID{
		mk(cst.LeafOperator, "(", 5),
		mk(cst.LeafName, "a", 6),
		mk(cst.LeafOperator, ",", 7),
		mk(cst.LeafName, "b", 9),
		mk(cst.LeafOperator, ")", 10),
	})
	fn := g.Construct(tree, cst.TypeFuncDef, []cst.NodeID{
		mk(cst.LeafKeyword, "def", 0),
		mk(cst.LeafName, "f", 4),
		params,
		mk(cst.LeafOperator, ":", 11),
	})

	if tree.Type(fn) != cst.TypeFuncDef {
		t.Fatalf("type = %q", tree.Type(fn))
	}
	grouped := 0
	for _, c := range tree.Children(params) {
		if tree.Type(c) == cst.TypeParam {
			grouped++
		}
	}
	if grouped != 2 {
		t.Errorf("param nodes = %d, want 2\n%s", grouped, tree.Dump(params))
	}

	// Productions without a dedicated constructor go through the default.
	other := g.Construct(tree, "with_stmt", []cst.NodeID{mk(cst.LeafKeyword, "with", 0)})
	if tree.Type(other) != "with_stmt" {
		t.Errorf("default construct type = %q", tree.Type(other))
	}
}

func TestParseBNF(t *testing.T) {
	text := `# comment line
a: 'def' NAME b   # trailing comment
b: '(' c ')'
   | '[' c ']'
c: NAME
`
	productions, keywords := parseBNF(text)
	if len(productions) != 3 {
		t.Fatalf("productions = %d, want 3", len(productions))
	}
	if got := productions["b"].RHS; got != "'(' c ')' | '[' c ']'" {
		t.Errorf("continuation rhs = %q", got)
	}
	if !keywords["def"] {
		t.Error("quoted identifier not collected as keyword")
	}
	if keywords["NAME"] || keywords["("] {
		t.Errorf("keywords = %v", keywords)
	}
}
