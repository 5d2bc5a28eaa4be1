// # internal/symbol/builder_test.go
package symbol

import (
	"testing"

	"pyoutline/internal/bridge"
	"pyoutline/internal/grammar"
	"pyoutline/internal/parse"
	"pyoutline/internal/token"
)

func parseModule(t *testing.T, d grammar.Dialect, src string) SyntaxNode {
	t.Helper()
	v, err := token.ParseVersion("3.10")
	if err != nil {
		t.Fatalf("parse version: %v", err)
	}
	g, err := grammar.Load(d, v)
	if err != nil {
		t.Fatalf("load grammar: %v", err)
	}
	tr, root, err := parse.Parse(src, g, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return FromTree(tr, root)
}

// byName finds a direct child; the empty result is reported by the caller.
func byName(n *Node, name string) *Node {
	for _, c := range n.Children() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var allPolicy = ExportPolicy{ModuleVariables: true, ClassVariables: true, Imports: true}

func TestBuildFromTree(t *testing.T) {
	src := "import os, numpy as np\n" +
		"\n" +
		"VERSION = '1.0'\n" +
		"\n" +
		"class Widget:\n" +
		"    size = 0\n" +
		"\n" +
		"    def resize(self, n):\n" +
		"        local = n\n" +
		"\n" +
		"def helper():\n" +
		"    pass\n" +
		"\n" +
		"def _internal():\n" +
		"    pass\n"

	root := Build(parseModule(t, grammar.DialectPython, src), allPolicy, "widget.py")

	if root.Kind != KindPackage || root.Name != "widget.py" {
		t.Fatalf("root = %s %q", root.Kind, root.Name)
	}
	if root.Len() != 5 {
		t.Fatalf("top-level symbols = %d, want 5\n%s", root.Len(), root.Dump())
	}

	imp := root.At(0)
	if imp.Kind != KindPackage || imp.Name != "os, np" {
		t.Errorf("import entry = %s %q, want package \"os, np\"", imp.Kind, imp.Name)
	}
	if imp.Line != 0 {
		t.Errorf("import line = %d, want 0", imp.Line)
	}

	if v := byName(root, "VERSION"); v == nil || v.Kind != KindVariable {
		t.Errorf("VERSION missing or misclassified: %+v", v)
	}

	class := byName(root, "Widget")
	if class == nil || class.Kind != KindClass {
		t.Fatalf("Widget missing or misclassified: %+v", class)
	}
	if class.Line != 4 {
		t.Errorf("Widget line = %d, want 4", class.Line)
	}
	if size := byName(class, "size"); size == nil || size.Kind != KindVariable {
		t.Errorf("class attribute missing: %+v", size)
	}
	method := byName(class, "resize")
	if method == nil || method.Kind != KindMethod {
		t.Fatalf("resize missing or misclassified: %+v", method)
	}
	// Function-local assignments never become symbols, whatever the policy.
	if method.Len() != 0 {
		t.Errorf("method children = %d, want 0\n%s", method.Len(), method.Dump())
	}

	if f := byName(root, "helper"); f == nil || f.Kind != KindFunction {
		t.Errorf("helper missing or misclassified: %+v", f)
	}
	if f := byName(root, "_internal"); f == nil {
		t.Error("underscore-named function missing")
	}
}

// Definitions are positioned at the introducing keyword, not at the name.
func TestBuildDefinitionPositions(t *testing.T) {
	root := Build(parseModule(t, grammar.DialectPython, "def f():\n    return 1\n"), allPolicy, "m.py")
	if root.Len() != 1 {
		t.Fatalf("symbols = %d, want 1\n%s", root.Len(), root.Dump())
	}
	f := root.At(0)
	if f.Kind != KindFunction || f.Name != "f" || f.Line != 0 || f.Col != 0 {
		t.Errorf("f = %s %q [%d:%d], want FUNCTION f [0:0]", f.Kind, f.Name, f.Line, f.Col)
	}

	root = Build(parseModule(t, grammar.DialectPython, "class C:\n    def m(self):\n        pass\n"), allPolicy, "m.py")
	class := byName(root, "C")
	if class == nil || class.Line != 0 || class.Col != 0 {
		t.Fatalf("C misplaced: %+v\n%s", class, root.Dump())
	}
	m := byName(class, "m")
	if m == nil || m.Kind != KindMethod || m.Line != 1 || m.Col != 4 {
		t.Errorf("m = %+v, want METHOD m [1:4]", m)
	}
}

func TestBuildEmptySource(t *testing.T) {
	root := Build(parseModule(t, grammar.DialectPython, ""), allPolicy, "empty.py")
	if root.Kind != KindPackage || root.Name != "empty.py" {
		t.Fatalf("root = %s %q", root.Kind, root.Name)
	}
	if root.Len() != 0 {
		t.Errorf("children = %d, want 0\n%s", root.Len(), root.Dump())
	}
}

func TestBuildPolicyFiltering(t *testing.T) {
	src := "import os\n" +
		"X = 1\n" +
		"_hidden = 2\n" +
		"def _priv():\n" +
		"    pass\n" +
		"class C:\n" +
		"    size = 0\n" +
		"    def __init__(self):\n" +
		"        pass\n"

	syntax := parseModule(t, grammar.DialectPython, src)

	tests := []struct {
		name    string
		policy  ExportPolicy
		present []string
		absent  []string
	}{
		{
			name:    "no flags",
			policy:  ExportPolicy{},
			present: []string{"C", "_priv"},
			absent:  []string{"os", "X", "_hidden"},
		},
		{
			name:    "module variables only",
			policy:  ExportPolicy{ModuleVariables: true},
			present: []string{"X", "_hidden", "C", "_priv"},
			absent:  []string{"os"},
		},
		{
			name:    "imports only",
			policy:  ExportPolicy{Imports: true},
			present: []string{"os", "C", "_priv"},
			absent:  []string{"X", "_hidden"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Build(syntax, tt.policy, "m.py")
			for _, name := range tt.present {
				if byName(root, name) == nil {
					t.Errorf("%q missing\n%s", name, root.Dump())
				}
			}
			for _, name := range tt.absent {
				if byName(root, name) != nil {
					t.Errorf("%q present but should be filtered", name)
				}
			}
		})
	}

	// Class-level assignments follow their own flag, independent of the
	// module one.
	root := Build(syntax, ExportPolicy{ClassVariables: true}, "m.py")
	class := byName(root, "C")
	if class == nil || byName(class, "size") == nil {
		t.Errorf("class variable missing\n%s", root.Dump())
	}
	if byName(root, "X") != nil {
		t.Error("module variable leaked without its flag")
	}
	root = Build(syntax, ExportPolicy{ModuleVariables: true}, "m.py")
	class = byName(root, "C")
	if class == nil {
		t.Fatal("C missing")
	}
	if byName(class, "size") != nil {
		t.Error("class variable leaked without its flag")
	}

	// Classes, functions, and methods are never policy-gated.
	root = Build(syntax, ExportPolicy{}, "m.py")
	class = byName(root, "C")
	if class == nil || byName(class, "__init__") == nil {
		t.Error("__init__ suppressed by empty policy")
	}
	if byName(root, "_priv") == nil {
		t.Error("_priv suppressed by empty policy")
	}
}

func TestBuildCythonSymbols(t *testing.T) {
	src := "cdef class Vector:\n" +
		"    cdef double x\n" +
		"\n" +
		"    cpdef double norm(self):\n" +
		"        return self.x\n" +
		"\n" +
		"ctypedef unsigned int size_type\n" +
		"cdef int LIMIT = 8\n"

	root := Build(parseModule(t, grammar.DialectCython, src), allPolicy, "vec.pyx")

	class := byName(root, "Vector")
	if class == nil || class.Kind != KindClass {
		t.Fatalf("Vector missing or misclassified\n%s", root.Dump())
	}
	if x := byName(class, "x"); x == nil || x.Kind != KindVariable {
		t.Errorf("typed attribute x: %+v", x)
	}
	if m := byName(class, "norm"); m == nil || m.Kind != KindMethod {
		t.Errorf("cpdef method norm: %+v", m)
	}
	if td := byName(root, "size_type"); td == nil || td.Kind != KindClass {
		t.Errorf("typedef size_type: %+v", td)
	}
	if v := byName(root, "LIMIT"); v == nil || v.Kind != KindVariable {
		t.Errorf("typed module variable LIMIT: %+v", v)
	}
}

func TestBuildNestedControlFlow(t *testing.T) {
	src := "if True:\n" +
		"    def conditional():\n" +
		"        pass\n"

	root := Build(parseModule(t, grammar.DialectPython, src), allPolicy, "m.py")
	if f := byName(root, "conditional"); f == nil || f.Kind != KindFunction {
		t.Errorf("definition under if lost\n%s", root.Dump())
	}
}

func astFixture() *bridge.ASTNode {
	return &bridge.ASTNode{
		Type: bridge.NodeModule,
		Line: 1,
		Children: []*bridge.ASTNode{
			{Type: bridge.NodeImport, Names: []string{"os", "np"}, Line: 1},
			{
				Type: bridge.NodeClass, Name: "Widget", Line: 3,
				Children: []*bridge.ASTNode{
					{Type: bridge.NodeFunction, Name: "__new__", Line: 4, Col: 4},
					{
						Type: bridge.NodeFunction, Name: "size", Line: 8, Col: 4,
						Decorators: []string{"property"},
					},
					{
						Type: bridge.NodeFunction, Name: "size", Line: 12, Col: 4,
						Decorators: []string{"size.setter"},
					},
					{Type: bridge.NodeFunction, Name: "resize", Line: 16, Col: 4},
				},
			},
			{Type: bridge.NodeAsyncFunction, Name: "fetch", Line: 20},
			{Type: bridge.NodeAssign, Name: "DEFAULT", Line: 24},
		},
	}
}

func TestBuildFromAST(t *testing.T) {
	root := Build(FromAST(astFixture()), allPolicy, "widget.py")

	if imp := root.At(0); imp.Kind != KindPackage || imp.Name != "os, np" {
		t.Errorf("import entry = %s %q", imp.Kind, imp.Name)
	}

	class := byName(root, "Widget")
	if class == nil {
		t.Fatalf("Widget missing\n%s", root.Dump())
	}
	if class.Line != 2 {
		t.Errorf("Widget line = %d, want 2 (0-based)", class.Line)
	}

	wantKinds := map[string]Kind{
		"__new__": KindConstructor,
		"resize":  KindMethod,
	}
	for name, kind := range wantKinds {
		if n := byName(class, name); n == nil || n.Kind != kind {
			t.Errorf("%s: got %+v, want kind %s", name, n, kind)
		}
	}

	// Both the getter and the setter carry the property kind.
	props := 0
	for _, c := range class.Children() {
		if c.Name == "size" && c.Kind == KindProperty {
			props++
		}
	}
	if props != 2 {
		t.Errorf("property symbols = %d, want 2\n%s", props, class.Dump())
	}

	if f := byName(root, "fetch"); f == nil || f.Kind != KindFunction {
		t.Errorf("async function fetch: %+v", f)
	}
	if v := byName(root, "DEFAULT"); v == nil || v.Kind != KindVariable {
		t.Errorf("module assignment DEFAULT: %+v", v)
	}
}

// Plain python (no dialect syntax, no native-only refinements) must outline
// identically through either backend.
func TestBuildBackendsAgree(t *testing.T) {
	src := "import os\n" +
		"X = 1\n" +
		"\n" +
		"class C:\n" +
		"    def m(self):\n" +
		"        pass\n" +
		"\n" +
		"def f():\n" +
		"    pass\n"
	ast := &bridge.ASTNode{
		Type: bridge.NodeModule,
		Line: 1,
		Children: []*bridge.ASTNode{
			{Type: bridge.NodeImport, Names: []string{"os"}, Line: 1},
			{Type: bridge.NodeAssign, Name: "X", Line: 2},
			{
				Type: bridge.NodeClass, Name: "C", Line: 4,
				Children: []*bridge.ASTNode{
					{Type: bridge.NodeFunction, Name: "m", Line: 5, Col: 4},
				},
			},
			{Type: bridge.NodeFunction, Name: "f", Line: 8},
		},
	}

	fromGrammar := Build(parseModule(t, grammar.DialectPython, src), allPolicy, "m.py").Dump()
	fromNative := Build(FromAST(ast), allPolicy, "m.py").Dump()
	if fromGrammar != fromNative {
		t.Errorf("backends disagree:\ngrammar:\n%s\nnative:\n%s", fromGrammar, fromNative)
	}
}

func TestBuildDeterministic(t *testing.T) {
	src := "class A:\n    pass\nclass B:\n    pass\ndef f():\n    pass\n"
	first := Build(parseModule(t, grammar.DialectPython, src), allPolicy, "m.py").Dump()
	for i := 0; i < 5; i++ {
		again := Build(parseModule(t, grammar.DialectPython, src), allPolicy, "m.py").Dump()
		if again != first {
			t.Fatalf("outline changed between runs:\n%s\nvs\n%s", first, again)
		}
	}
}
