package dsl

import (
	"fmt"
	"strings"
)

// LexError reports an unrecognized character sequence in the DSL source.
type LexError struct {
	Line int
	Col  int
	Text string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at line %d, col %d: unexpected character %q", e.Line, e.Col, e.Text)
}

// ParseError reports a grammar violation, unknown name, or arity mismatch.
// Every ParseError carries the 1-based position of the offending token and
// a short excerpt of the surrounding source.
type ParseError struct {
	Line       int
	Col        int
	Snippet    string
	Expected   string
	Found      string
	Suggestion string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "parse error at line %d, col %d: expected %s, found %s", e.Line, e.Col, e.Expected, e.Found)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %s?)", e.Suggestion)
	}
	if e.Snippet != "" {
		fmt.Fprintf(&b, " near %q", e.Snippet)
	}
	return b.String()
}

// snippet extracts a short excerpt of the source line around the given
// 1-based position for error messages.
func snippet(src string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	text := lines[line-1]

	const radius = 20
	start := col - 1 - radius
	if start < 0 {
		start = 0
	}
	end := col - 1 + radius
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}

	out := strings.TrimSpace(text[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out = out + "..."
	}
	return out
}
