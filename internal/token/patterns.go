// # internal/token/patterns.go
package token

import (
	"regexp"
	"strings"
	"sync"
)

// patternSet is the compiled lexical machinery for one language version.
// Built once per version and shared by every tokenizer afterwards.
type patternSet struct {
	pseudo        *regexp.Regexp
	number        *regexp.Regexp
	tripleQuoted  map[string]bool   // opener (prefix+quotes) -> triple string
	singleQuoted  map[string]bool   // opener (prefix+quote) -> one-line string
	fstringQuotes map[string]string // opener -> closing quote
	alwaysBreak   map[string]bool
}

var (
	patternMu    sync.Mutex
	patternCache = map[Version]*patternSet{}
)

// patternsFor returns the pattern set for a version, compiling it at most
// once. Construction is serialized so concurrent callers collapse to one
// winner.
func patternsFor(v Version) *patternSet {
	patternMu.Lock()
	defer patternMu.Unlock()
	if ps, ok := patternCache[v]; ok {
		return ps
	}
	ps := buildPatterns(v)
	patternCache[v] = ps
	return ps
}

func group(parts ...string) string {
	return "(?:" + strings.Join(parts, "|") + ")"
}

func maybe(s string) string {
	return s + "?"
}

// stringPrefixes enumerates the valid string literal prefixes, optionally
// restricted to or extended with f-string prefixes. The empty prefix is
// included unless onlyFString is set.
func stringPrefixes(includeFString, onlyFString bool) []string {
	valid := []string{"b", "r", "u", "br", "rb"}
	if includeFString {
		if onlyFString {
			valid = []string{"f", "fr", "rf"}
		} else {
			valid = append(valid, "f", "fr", "rf")
		}
	}
	set := map[string]bool{}
	var out []string
	add := func(p string) {
		if !set[p] {
			set[p] = true
			out = append(out, p)
		}
	}
	if !onlyFString {
		add("")
	}
	var casings func(prefix, rest string)
	casings = func(prefix, rest string) {
		if rest == "" {
			add(prefix)
			return
		}
		c := rest[:1]
		casings(prefix+c, rest[1:])
		casings(prefix+strings.ToUpper(c), rest[1:])
	}
	for _, p := range valid {
		casings("", p)
	}
	return out
}

// buildPatterns composes the single pseudo-token expression for a version,
// unioning the number, string, operator, bracket and name sub-patterns.
// Alternatives that share a prefix are ordered longest first so e.g. `**=`
// wins over `*=` and `*`.
func buildPatterns(v Version) *patternSet {
	whitespace := `[ \f\t]*`
	comment := `#[^\r\n]*`
	name := `[A-Za-z_0-9\x{0080}-\x{10FFFF}]+`

	hexnumber := `0[xX](?:_?[0-9a-fA-F])+`
	binnumber := `0[bB](?:_?[01])+`
	octnumber := `0[oO](?:_?[0-7])+`
	decnumber := `(?:0(?:_?0)*|[1-9](?:_?[0-9])*)`
	intnumber := group(hexnumber, binnumber, octnumber, decnumber)
	exponent := `[eE][-+]?[0-9](?:_?[0-9])*`
	pointfloat := group(`[0-9](?:_?[0-9])*\.(?:[0-9](?:_?[0-9])*)?`,
		`\.[0-9](?:_?[0-9])*`) + maybe(exponent)
	expfloat := `[0-9](?:_?[0-9])*` + exponent
	floatnumber := group(pointfloat, expfloat)
	imagnumber := group(`[0-9](?:_?[0-9])*[jJ]`, floatnumber+`[jJ]`)
	number := group(imagnumber, floatnumber, intnumber)

	plainPrefixes := stringPrefixes(false, false)
	allPrefixes := stringPrefixes(true, false)
	fstringPrefixes := stringPrefixes(true, true)

	stringPrefix := group(plainPrefixes...)
	stringPrefixWithF := group(allPrefixes...)
	fstringStart := group(fstringPrefixes...)

	triple := group(stringPrefixWithF+`'''`, stringPrefixWithF+`"""`)

	// Longest operators first: leftmost-first alternation would otherwise
	// split `**=` into `*` `*` `=`.
	operator := group(`\*\*=?`, `>>=?`, `<<=?`, `//=?`, `->`,
		"[+\\-*/%&@`|^!=<>]=?", `~`)
	bracket := `[][(){}]`
	colon := `:=?`
	if v.Major == 3 && v.Minor < 8 {
		colon = `:` // no walrus before 3.8
	}
	// '?' is only meaningful in the dialect's `except?` clause but costs
	// nothing to accept everywhere.
	special := group(`\.\.\.`, colon, `\r\n?`, `\n`, `[;.,@?]`)
	funny := group(operator, bracket, special)

	contStr := group(
		stringPrefix+`'[^\r\n'\\]*(?:\\.[^\r\n'\\]*)*`+group(`'`, `\\(?:\r\n?|\n)`),
		stringPrefix+`"[^\r\n"\\]*(?:\\.[^\r\n"\\]*)*`+group(`"`, `\\(?:\r\n?|\n)`),
	)

	allQuotes := []string{`'''`, `"""`, `'`, `"`}
	fstringOpener := fstringStart + group(allQuotes...)

	pseudoExtras := group(`\\(?:\r\n?|\n)|\z`, comment, triple, fstringOpener)
	pseudo := `^(` + whitespace + `)(` + group(pseudoExtras, number, funny, contStr, name) + `)`

	tripleQuoted := map[string]bool{}
	singleQuoted := map[string]bool{}
	for _, p := range plainPrefixes {
		singleQuoted[p+`'`] = true
		singleQuoted[p+`"`] = true
		tripleQuoted[p+`'''`] = true
		tripleQuoted[p+`"""`] = true
	}
	fstringQuotes := map[string]string{}
	for _, p := range fstringPrefixes {
		for _, q := range allQuotes {
			fstringQuotes[p+q] = q
		}
	}

	// Keywords that force a logical-line break when an opening bracket was
	// left unclosed. Includes the dialect-only declaration keywords.
	alwaysBreak := map[string]bool{}
	for _, kw := range []string{
		";", "import", "class", "def", "try", "except",
		"finally", "while", "with", "return", "continue",
		"break", "del", "pass", "global", "assert", "nonlocal",
		"cdef", "cpdef", "ctypedef",
	} {
		alwaysBreak[kw] = true
	}

	return &patternSet{
		pseudo:        regexp.MustCompile(pseudo),
		number:        regexp.MustCompile(`^` + number + `$`),
		tripleQuoted:  tripleQuoted,
		singleQuoted:  singleQuoted,
		fstringQuotes: fstringQuotes,
		alwaysBreak:   alwaysBreak,
	}
}
