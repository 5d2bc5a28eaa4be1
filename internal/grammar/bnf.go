// # internal/grammar/bnf.go
package grammar

import (
	"regexp"
	"strings"
)

var keywordLiteral = regexp.MustCompile(`'([a-zA-Z_][a-zA-Z_0-9]*)'`)

// parseBNF reads a plain-text grammar resource into its production table and
// reserved-word set. Rules look like `name: rhs`, with indented continuation
// lines; `#` starts a comment. Reserved words are the identifier-shaped
// quoted literals appearing on any right-hand side.
func parseBNF(text string) (map[string]Production, map[string]bool) {
	productions := map[string]Production{}
	keywords := map[string]bool{}

	var name string
	var rhs strings.Builder
	flush := func() {
		if name == "" {
			return
		}
		productions[name] = Production{Name: name, RHS: strings.TrimSpace(rhs.String())}
		name = ""
		rhs.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			rhs.WriteByte(' ')
			rhs.WriteString(strings.TrimSpace(line))
			continue
		}
		flush()
		head, tail, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(head)
		rhs.WriteString(strings.TrimSpace(tail))
	}
	flush()

	for _, p := range productions {
		for _, m := range keywordLiteral.FindAllStringSubmatch(p.RHS, -1) {
			keywords[m[1]] = true
		}
	}
	return productions, keywords
}
