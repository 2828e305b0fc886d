package dsl

import "fmt"

// TokenKind classifies a lexed token.
type TokenKind int

const (
	TokenSeries TokenKind = iota // open, high, low, close, volume
	TokenFunc                    // SMA, EMA, RSI, ...
	TokenKeyword                 // ENTRY, EXIT, AND, OR, NOT, TRUE, FALSE, CROSSOVER, CROSSUNDER
	TokenIdent                   // identifier not matching any registry entry
	TokenNumber                  // numeric literal, K/M suffix already applied
	TokenCompare                 // > >= < <= == !=
	TokenArith                   // + - * /
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenColon
)

// String returns a human-readable name for the token kind, used in
// parser diagnostics.
func (k TokenKind) String() string {
	switch k {
	case TokenSeries:
		return "series"
	case TokenFunc:
		return "function"
	case TokenKeyword:
		return "keyword"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenCompare:
		return "comparison operator"
	case TokenArith:
		return "arithmetic operator"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	case TokenColon:
		return "':'"
	}
	return "unknown"
}

// Token is one lexed unit of DSL source. Tokens are immutable: created by
// the lexer, consumed once by the parser. Line and Col are 1-based.
type Token struct {
	Kind  TokenKind
	Text  string  // canonical text: keywords/functions uppercase, series lowercase
	Value float64 // numeric value for TokenNumber, suffix multiplier applied
	Line  int
	Col   int
}

// String returns a compact representation used in error context listings.
func (t Token) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.Text)
}

// keywords is the fixed keyword set. Matched case-insensitively.
var keywords = map[string]bool{
	"ENTRY": true, "EXIT": true,
	"AND": true, "OR": true, "NOT": true,
	"TRUE": true, "FALSE": true,
	"CROSSOVER": true, "CROSSUNDER": true,
}
