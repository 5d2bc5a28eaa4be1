// # internal/token/tokenizer.go
package token

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Stream produces tokens lazily from a source text. A Stream is single-use
// and not safe for concurrent access; tokenizing the same source again is a
// fresh Tokenize call. Once the source is exhausted the stream keeps
// returning ENDMARKER.
type Stream struct {
	src string
	ps  *patternSet

	pos  int
	line int
	col  int

	prefix       strings.Builder
	indents      []int
	parenDepth   int
	lineHasToken bool // significant token seen since last NEWLINE
	afterNewline bool // next significant token starts a logical line
	pending      []Token
	done         bool
	endPos       Position
}

var leadingWS = regexp.MustCompile(`^[ \f\t]*`)

// Tokenize returns a lazy token stream over source for the given language
// version. The compiled pattern set is cached per version; the stream itself
// holds no other persistent state across calls.
func Tokenize(source string, v Version) *Stream {
	return &Stream{
		src:          source,
		ps:           patternsFor(v),
		line:         1,
		indents:      []int{0},
		afterNewline: true,
	}
}

// Next returns the next token. After the end of input it returns ENDMARKER
// forever.
func (s *Stream) Next() Token {
	for len(s.pending) == 0 {
		s.scan()
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	return t
}

// All drains the stream into a slice, up to and including the first
// ENDMARKER. Mostly a test convenience.
func (s *Stream) All() []Token {
	var out []Token
	for {
		t := s.Next()
		out = append(out, t)
		if t.Type == EndMarker {
			return out
		}
	}
}

func (s *Stream) advance(text string) {
	s.pos += len(text)
	if n := strings.Count(text, "\n"); n > 0 {
		s.line += n
		s.col = len(text) - strings.LastIndexByte(text, '\n') - 1
	} else {
		s.col += len(text)
	}
}

// emit appends a token at the current position and advances past its value.
func (s *Stream) emit(tt Type, value string) {
	start := Position{Line: s.line, Col: s.col}
	if s.afterNewline && s.parenDepth == 0 && tt != Newline {
		s.applyIndent(start)
	}
	p := s.prefix.String()
	s.prefix.Reset()
	s.pending = append(s.pending, Token{Type: tt, Value: value, Start: start, Prefix: p})
	s.advance(value)
	if tt != Newline && tt != Indent && tt != Dedent && tt != ErrorDedent {
		s.lineHasToken = true
	}
}

// applyIndent compares the column of the first token on a logical line with
// the indentation stack and emits INDENT/DEDENT tokens. A dedent that lands
// between stack levels is an ERROR_DEDENT, which is recorded but not fatal.
func (s *Stream) applyIndent(start Position) {
	s.afterNewline = false
	col := start.Col
	top := s.indents[len(s.indents)-1]
	if col > top {
		s.indents = append(s.indents, col)
		s.pending = append(s.pending, Token{Type: Indent, Start: start})
		return
	}
	for col < s.indents[len(s.indents)-1] {
		s.indents = s.indents[:len(s.indents)-1]
		s.pending = append(s.pending, Token{Type: Dedent, Start: start})
	}
	if col != s.indents[len(s.indents)-1] {
		s.pending = append(s.pending, Token{Type: ErrorDedent, Start: start})
		s.indents = append(s.indents, col)
	}
}

func (s *Stream) finish() {
	if s.done {
		s.pending = append(s.pending, Token{Type: EndMarker, Start: s.endPos})
		return
	}
	start := Position{Line: s.line, Col: s.col}
	if s.lineHasToken {
		// Source did not end with a newline; synthesize the logical break.
		s.pending = append(s.pending, Token{Type: Newline, Start: start})
		s.lineHasToken = false
	}
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.pending = append(s.pending, Token{Type: Dedent, Start: start})
	}
	p := s.prefix.String()
	s.prefix.Reset()
	s.pending = append(s.pending, Token{Type: EndMarker, Start: start, Prefix: p})
	s.done = true
	s.endPos = start
}

// scan performs one match step. It always either appends a token, grows the
// pending prefix, or finishes the stream, so the tokenizer makes forward
// progress on any input.
func (s *Stream) scan() {
	if s.pos >= len(s.src) {
		s.finish()
		return
	}
	m := s.ps.pseudo.FindStringSubmatch(s.src[s.pos:])
	if m == nil {
		// Nothing lexes here. Swallow horizontal whitespace into the
		// prefix and emit a one-rune ERRORTOKEN so we keep moving.
		ws := leadingWS.FindString(s.src[s.pos:])
		s.prefix.WriteString(ws)
		s.advance(ws)
		_, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.emit(ErrorToken, s.src[s.pos:s.pos+size])
		return
	}
	ws, txt := m[1], m[2]
	s.prefix.WriteString(ws)
	s.advance(ws)

	if txt == "" { // \z: only whitespace remained
		s.finish()
		return
	}

	initial := txt[0]
	switch {
	case s.ps.fstringQuotes[txt] != "":
		s.scanFString(txt)

	case initial >= '0' && initial <= '9',
		initial == '.' && txt != "." && txt != "...":
		s.emit(Number, txt)

	case initial == '\r' || initial == '\n':
		if s.parenDepth > 0 || !s.lineHasToken {
			// Inside brackets or on a blank line a newline is not a
			// statement boundary.
			s.prefix.WriteString(txt)
			s.advance(txt)
			return
		}
		s.emit(Newline, txt)
		s.lineHasToken = false
		s.afterNewline = true

	case initial == '#':
		s.prefix.WriteString(txt)
		s.advance(txt)

	case s.ps.tripleQuoted[txt]:
		s.scanTripleQuoted(txt)

	case s.isContStr(txt):
		s.scanContStr(txt)

	case initial == '\\':
		// Explicit line continuation.
		s.prefix.WriteString(txt)
		s.advance(txt)

	case isIdentifierStart(initial):
		if s.parenDepth > 0 && s.ps.alwaysBreak[txt] && strings.Contains(s.prefix.String(), "\n") {
			// An unclosed bracket ran into a statement keyword; force the
			// logical line closed so the parser can resynchronize.
			s.parenDepth = 0
			s.pending = append(s.pending, Token{Type: Newline, Start: Position{Line: s.line, Col: s.col}})
			s.lineHasToken = false
			s.afterNewline = true
		}
		s.emit(Name, txt)

	default:
		switch txt {
		case "(", "[", "{":
			s.parenDepth++
		case ")", "]", "}":
			if s.parenDepth > 0 {
				s.parenDepth--
			}
		}
		s.emit(Op, txt)
	}
}

// isContStr reports whether txt is a one-line string literal match: a
// recognized prefix+quote opener that the composite pattern carried to a
// closing quote or a trailing line continuation.
func (s *Stream) isContStr(txt string) bool {
	q := strings.IndexAny(txt, `'"`)
	return q >= 0 && s.ps.singleQuoted[txt[:q+1]]
}

func (s *Stream) scanContStr(txt string) {
	q := strings.IndexAny(txt, `'"`)
	quote := txt[q : q+1]
	if strings.HasSuffix(txt, quote) && !strings.HasSuffix(txt, `\`+quote) && len(txt) > q+1 {
		s.emit(String, txt)
		return
	}
	// The literal ended in a backslash continuation; keep scanning past the
	// physical line for the closing quote.
	end := findUnescaped(s.src, s.pos+len(txt), quote, false)
	if end < 0 {
		s.emit(ErrorToken, s.src[s.pos:])
		return
	}
	s.emit(String, s.src[s.pos:end+1])
}

func (s *Stream) scanTripleQuoted(opener string) {
	quotes := opener[len(opener)-3:]
	end := findUnescaped(s.src, s.pos+len(opener), quotes, false)
	if end < 0 {
		// Unterminated triple-quoted string: one ERRORTOKEN to end of file.
		s.emit(ErrorToken, s.src[s.pos:])
		return
	}
	s.emit(String, s.src[s.pos:end+len(quotes)])
}

// scanFString emits FSTRING_START, the raw body as one FSTRING_STRING, and
// FSTRING_END. Replacement fields inside the body are not re-tokenized; the
// outline never needs to see inside them.
func (s *Stream) scanFString(opener string) {
	quote := s.ps.fstringQuotes[opener]
	s.emit(FStringStart, opener)
	end := findUnescaped(s.src, s.pos, quote, len(quote) == 1)
	if end < 0 {
		if s.pos < len(s.src) {
			s.emit(ErrorToken, s.src[s.pos:])
		}
		return
	}
	if end > s.pos {
		s.emit(FStringString, s.src[s.pos:end])
	}
	s.emit(FStringEnd, s.src[end:end+len(quote)])
}

// findUnescaped returns the index of the next occurrence of seq that is not
// preceded by a backslash escape, or -1. When stopAtNewline is set, an
// unescaped newline aborts the search.
func findUnescaped(src string, from int, seq string, stopAtNewline bool) int {
	for i := from; i < len(src); {
		switch {
		case src[i] == '\\':
			i += 2
		case stopAtNewline && (src[i] == '\n' || src[i] == '\r'):
			return -1
		case strings.HasPrefix(src[i:], seq):
			return i
		default:
			i++
		}
	}
	return -1
}

func isIdentifierStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') || b >= 0x80
}
