package dsl

import (
	"strconv"
	"strings"
)

// Lex converts raw DSL text into an ordered token sequence. Scanning is a
// single left-to-right pass with no backtracking. Whitespace is skipped;
// any other unrecognized character fails with a LexError.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}
	return lx.run()
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func (lx *lexer) run() ([]Token, error) {
	var tokens []Token
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]

		switch {
		case c == ' ' || c == '\t' || c == '\r':
			lx.advance(1)
		case c == '\n':
			lx.pos++
			lx.line++
			lx.col = 1
		case c >= '0' && c <= '9':
			tok, err := lx.scanNumber()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isIdentStart(c):
			tokens = append(tokens, lx.scanIdent())
		default:
			tok, err := lx.scanOperator()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

// advance moves past n bytes on the current line.
func (lx *lexer) advance(n int) {
	lx.pos += n
	lx.col += n
}

func (lx *lexer) token(kind TokenKind, text string, startCol int) Token {
	return Token{Kind: kind, Text: text, Line: lx.line, Col: startCol}
}

// scanNumber reads a numeric literal with an optional K/M suffix. The
// suffix multiplier (×1e3 / ×1e6) is applied here, at lex time; the parser
// sees an ordinary scaled number.
func (lx *lexer) scanNumber() (Token, error) {
	startCol := lx.col
	start := lx.pos

	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.advance(1)
	}
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		lx.advance(1)
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.advance(1)
		}
	}

	text := lx.src[start:lx.pos]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, &LexError{Line: lx.line, Col: startCol, Text: text}
	}

	// Optional suffix, only when not part of a longer identifier (so "2K"
	// scales but "2Keep" is rejected below as a stray identifier).
	if lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		next := byte(0)
		if lx.pos+1 < len(lx.src) {
			next = lx.src[lx.pos+1]
		}
		if (c == 'K' || c == 'k' || c == 'M' || c == 'm') && !isIdentPart(next) {
			if c == 'K' || c == 'k' {
				value *= 1_000
			} else {
				value *= 1_000_000
			}
			text = lx.src[start : lx.pos+1]
			lx.advance(1)
		}
	}

	tok := lx.token(TokenNumber, text, startCol)
	tok.Value = value
	return tok, nil
}

// scanIdent reads an identifier and classifies it against the keyword set
// and the series/function registries. Unknown names are emitted as plain
// identifiers; the parser rejects them with a suggestion.
func (lx *lexer) scanIdent() Token {
	startCol := lx.col
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.advance(1)
	}
	raw := lx.src[start:lx.pos]

	upper := strings.ToUpper(raw)
	if keywords[upper] {
		return lx.token(TokenKeyword, upper, startCol)
	}
	if IsFunc(upper) {
		return lx.token(TokenFunc, upper, startCol)
	}
	lower := strings.ToLower(raw)
	if IsSeries(lower) {
		return lx.token(TokenSeries, lower, startCol)
	}
	return lx.token(TokenIdent, raw, startCol)
}

func (lx *lexer) scanOperator() (Token, error) {
	startCol := lx.col
	c := lx.src[lx.pos]
	two := ""
	if lx.pos+1 < len(lx.src) {
		two = lx.src[lx.pos : lx.pos+2]
	}

	switch two {
	case ">=", "<=", "==", "!=":
		lx.advance(2)
		return lx.token(TokenCompare, two, startCol), nil
	}

	switch c {
	case '>', '<':
		lx.advance(1)
		return lx.token(TokenCompare, string(c), startCol), nil
	case '+', '-', '*', '/':
		lx.advance(1)
		return lx.token(TokenArith, string(c), startCol), nil
	case '(':
		lx.advance(1)
		return lx.token(TokenLParen, "(", startCol), nil
	case ')':
		lx.advance(1)
		return lx.token(TokenRParen, ")", startCol), nil
	case '[':
		lx.advance(1)
		return lx.token(TokenLBracket, "[", startCol), nil
	case ']':
		lx.advance(1)
		return lx.token(TokenRBracket, "]", startCol), nil
	case ',':
		lx.advance(1)
		return lx.token(TokenComma, ",", startCol), nil
	case ':':
		lx.advance(1)
		return lx.token(TokenColon, ":", startCol), nil
	}

	return Token{}, &LexError{Line: lx.line, Col: startCol, Text: string(c)}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
