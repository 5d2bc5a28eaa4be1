// # internal/token/token.go
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Type identifies the lexical class of a token.
type Type int

const (
	EndMarker Type = iota
	Name
	Number
	String
	Newline
	Indent
	Dedent
	Op
	ErrorToken
	ErrorDedent
	FStringStart
	FStringString
	FStringEnd
)

var typeNames = map[Type]string{
	EndMarker:     "ENDMARKER",
	Name:          "NAME",
	Number:        "NUMBER",
	String:        "STRING",
	Newline:       "NEWLINE",
	Indent:        "INDENT",
	Dedent:        "DEDENT",
	Op:            "OP",
	ErrorToken:    "ERRORTOKEN",
	ErrorDedent:   "ERROR_DEDENT",
	FStringStart:  "FSTRING_START",
	FStringString: "FSTRING_STRING",
	FStringEnd:    "FSTRING_END",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Position addresses a point in the source. Line is 1-based, Col is 0-based,
// matching what the parse trees report.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Token is one lexical unit. Tokens are immutable once produced and ordered
// by source offset. Prefix carries the whitespace, comments and non-logical
// newlines that precede the token.
type Token struct {
	Type   Type
	Value  string
	Start  Position
	Prefix string
}

// End returns the position just past the token's last character.
func (t Token) End() Position {
	lines := strings.Count(t.Value, "\n")
	if lines == 0 {
		return Position{Line: t.Start.Line, Col: t.Start.Col + len(t.Value)}
	}
	last := t.Value[strings.LastIndexByte(t.Value, '\n')+1:]
	return Position{Line: t.Start.Line + lines, Col: len(last)}
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Value, t.Start)
}

// Version is a major.minor language version.
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a "major.minor" version string such as "3.10".
func ParseVersion(s string) (Version, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}
	ma, err := strconv.Atoi(major)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	mi, err := strconv.Atoi(minor)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{Major: ma, Minor: mi}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
