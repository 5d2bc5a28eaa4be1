// # internal/symbol/kind.go

// Package symbol turns parsed source into the outline tree: a hierarchy of
// named, positioned symbols. Two adapters feed it, one over the in-process
// concrete syntax tree and one over the external analyzer's AST artifact,
// so the builder itself never knows which backend produced its input.
package symbol

// Kind classifies an outline entry.
type Kind int

const (
	KindNone Kind = iota
	KindPackage
	KindClass
	KindFunction
	KindMethod
	KindConstructor
	KindProperty
	KindVariable
)

var kindNames = map[Kind]string{
	KindNone:        "none",
	KindPackage:     "package",
	KindClass:       "class",
	KindFunction:    "function",
	KindMethod:      "method",
	KindConstructor: "constructor",
	KindProperty:    "property",
	KindVariable:    "variable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}
