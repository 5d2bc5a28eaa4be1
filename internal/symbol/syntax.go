// # internal/symbol/syntax.go
package symbol

import (
	"fmt"
	"strings"
)

// SyntaxNode is the backend-neutral view of one outline candidate. Line and
// Col are 0-based. Children returns only nodes that classified to a real
// kind; structural syntax (suites, operators, bodies of plain statements)
// never surfaces here.
type SyntaxNode interface {
	Kind() Kind
	Name() string
	Line() int
	Col() int
	Children() []SyntaxNode
	Dump() string
}

func dumpSyntax(n SyntaxNode) string {
	var b strings.Builder
	writeSyntax(&b, n, 0)
	return b.String()
}

func writeSyntax(b *strings.Builder, n SyntaxNode, depth int) {
	fmt.Fprintf(b, "%s%s %s [%d:%d]\n",
		strings.Repeat("  ", depth), n.Kind(), n.Name(), n.Line(), n.Col())
	for _, c := range n.Children() {
		writeSyntax(b, c, depth+1)
	}
}
