package dsl

import (
	"fmt"
	"math"
)

// Parse lexes and parses DSL source into a Strategy AST. All series and
// function names are validated against the registries during parsing, so
// a returned Strategy never references unknown names or wrong arities.
func Parse(src string) (*Strategy, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, src: src}
	return p.parseStrategy()
}

// parser is a recursive-descent parser over the token stream.
type parser struct {
	tokens []Token
	pos    int
	src    string
}

func (p *parser) peek() *Token {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *parser) advance() *Token {
	tok := p.peek()
	if tok != nil {
		p.pos++
	}
	return tok
}

// errAt builds a ParseError located at the given token (or end of input
// when tok is nil).
func (p *parser) errAt(tok *Token, expected, found, suggestion string) *ParseError {
	line, col := 1, 1
	if tok != nil {
		line, col = tok.Line, tok.Col
	} else if len(p.tokens) > 0 {
		last := p.tokens[len(p.tokens)-1]
		line, col = last.Line, last.Col+len(last.Text)
	}
	return &ParseError{
		Line:       line,
		Col:        col,
		Snippet:    snippet(p.src, line, col),
		Expected:   expected,
		Found:      found,
		Suggestion: suggestion,
	}
}

// errExpected reports the current token (or EOF) as unexpected.
func (p *parser) errExpected(expected string) *ParseError {
	tok := p.peek()
	found := "end of input"
	if tok != nil {
		found = fmt.Sprintf("%s %q", tok.Kind, tok.Text)
	}
	return p.errAt(tok, expected, found, "")
}

func (p *parser) expectKeyword(word string) error {
	tok := p.peek()
	if tok == nil || tok.Kind != TokenKeyword || tok.Text != word {
		return p.errExpected(fmt.Sprintf("keyword %s", word))
	}
	p.advance()
	return nil
}

func (p *parser) expectKind(kind TokenKind) (*Token, error) {
	tok := p.peek()
	if tok == nil || tok.Kind != kind {
		return nil, p.errExpected(kind.String())
	}
	return p.advance(), nil
}

// parseStrategy parses: ENTRY ':' boolExpr EXIT ':' boolExpr EOF.
func (p *parser) parseStrategy() (*Strategy, error) {
	if err := p.expectKeyword("ENTRY"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenColon); err != nil {
		return nil, err
	}
	entry, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if err := p.expectKeyword("EXIT"); err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenColon); err != nil {
		return nil, err
	}
	exit, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok != nil {
		return nil, p.errAt(tok, "end of input after EXIT expression",
			fmt.Sprintf("%s %q", tok.Kind, tok.Text), "")
	}
	return &Strategy{Entry: entry, Exit: exit}, nil
}

// parseOr: andExpr (OR andExpr)*, left-associative, lowest precedence.
func (p *parser) parseOr() (Expr, error) {
	node, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok == nil || tok.Kind != TokenKeyword || tok.Text != "OR" {
			return node, nil
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		node = &BinaryOp{Op: OpOr, Left: node, Right: right}
	}
}

// parseAnd: notExpr (AND notExpr)*, left-associative.
func (p *parser) parseAnd() (Expr, error) {
	node, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok == nil || tok.Kind != TokenKeyword || tok.Text != "AND" {
			return node, nil
		}
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		node = &BinaryOp{Op: OpAnd, Left: node, Right: right}
	}
}

// parseNot: NOT notExpr | comparison.
func (p *parser) parseNot() (Expr, error) {
	tok := p.peek()
	if tok != nil && tok.Kind == TokenKeyword && tok.Text == "NOT" {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

// parseComparison: arith ((cmpOp | CROSSOVER | CROSSUNDER) arith)?
// Comparison and cross-event operators are non-associative: chaining two
// at the same level is rejected with a targeted error.
func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}

	op, ok := p.peekComparisonOp()
	if !ok {
		return left, nil
	}
	p.advance()

	right, err := p.parseArith()
	if err != nil {
		return nil, err
	}

	if _, chained := p.peekComparisonOp(); chained {
		tok := p.peek()
		return nil, p.errAt(tok, "AND, OR, or end of expression",
			fmt.Sprintf("chained comparison operator %q", tok.Text), "")
	}
	return &BinaryOp{Op: op, Left: left, Right: right}, nil
}

// peekComparisonOp reports a comparison or infix cross operator at the
// current position without consuming it.
func (p *parser) peekComparisonOp() (Op, bool) {
	tok := p.peek()
	if tok == nil {
		return "", false
	}
	if tok.Kind == TokenCompare {
		return Op(tok.Text), true
	}
	if tok.Kind == TokenKeyword && (tok.Text == "CROSSOVER" || tok.Text == "CROSSUNDER") {
		// CROSSOVER( ... ) is the call form, handled by parseFactor.
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Kind == TokenLParen {
			return "", false
		}
		return Op(tok.Text), true
	}
	return "", false
}

// parseArith: term (('+'|'-') term)*, left-associative.
func (p *parser) parseArith() (Expr, error) {
	node, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok == nil || tok.Kind != TokenArith || (tok.Text != "+" && tok.Text != "-") {
			return node, nil
		}
		op := Op(tok.Text)
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		node = &BinaryOp{Op: op, Left: node, Right: right}
	}
}

// parseTerm: factor (('*'|'/') factor)*, binds tighter than +/-.
func (p *parser) parseTerm() (Expr, error) {
	node, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok == nil || tok.Kind != TokenArith || (tok.Text != "*" && tok.Text != "/") {
			return node, nil
		}
		op := Op(tok.Text)
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		node = &BinaryOp{Op: op, Left: node, Right: right}
	}
}

// parseFactor handles atoms: literals, series references (with optional
// lag), function calls, call-form cross events, and parenthesized
// expressions.
func (p *parser) parseFactor() (Expr, error) {
	tok := p.peek()
	if tok == nil {
		return nil, p.errExpected("expression")
	}

	switch tok.Kind {
	case TokenNumber:
		p.advance()
		return &Literal{Value: tok.Value}, nil

	case TokenKeyword:
		switch tok.Text {
		case "TRUE":
			p.advance()
			return &Literal{Value: 1, IsBool: true}, nil
		case "FALSE":
			p.advance()
			return &Literal{Value: 0, IsBool: true}, nil
		case "CROSSOVER", "CROSSUNDER":
			return p.parseCrossCall()
		}
		return nil, p.errExpected("expression")

	case TokenFunc:
		return p.parseFuncCall()

	case TokenSeries:
		return p.parseSeriesRef()

	case TokenIdent:
		return nil, p.errAt(tok, "a series or function name",
			fmt.Sprintf("unknown identifier %q", tok.Text), Suggest(tok.Text))

	case TokenLParen:
		p.advance()
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectKind(TokenRParen); err != nil {
			return nil, err
		}
		return node, nil
	}

	return nil, p.errExpected("expression")
}

// parseCrossCall parses the call form CROSSOVER(a, b) / CROSSUNDER(a, b),
// producing the same BinaryOp as the infix form.
func (p *parser) parseCrossCall() (Expr, error) {
	tok := p.advance() // cross keyword
	op := Op(tok.Text)

	if _, err := p.expectKind(TokenLParen); err != nil {
		return nil, err
	}
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenComma); err != nil {
		return nil, err
	}
	right, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKind(TokenRParen); err != nil {
		return nil, err
	}
	return &BinaryOp{Op: op, Left: left, Right: right}, nil
}

// parseFuncCall parses a registered indicator call and validates its
// arity and window/scalar argument shapes immediately.
func (p *parser) parseFuncCall() (Expr, error) {
	nameTok := p.advance()
	name := nameTok.Text

	if _, err := p.expectKind(TokenLParen); err != nil {
		return nil, err
	}

	var args []Expr
	if tok := p.peek(); tok != nil && tok.Kind != TokenRParen {
		for {
			arg, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			tok := p.peek()
			if tok == nil || tok.Kind != TokenComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expectKind(TokenRParen); err != nil {
		return nil, err
	}

	arity, _ := Arity(name)
	if len(args) != arity {
		return nil, p.errAt(nameTok,
			fmt.Sprintf("%d arguments to %s", arity, name),
			fmt.Sprintf("%d", len(args)), "")
	}

	for _, idx := range windowArgPositions(name) {
		lit, ok := args[idx].(*Literal)
		if !ok || lit.IsBool || lit.Value <= 0 || lit.Value != math.Trunc(lit.Value) {
			return nil, p.errAt(nameTok,
				fmt.Sprintf("a positive integer literal for argument %d of %s", idx+1, name),
				"a non-integer expression", "")
		}
	}
	for _, idx := range scalarArgPositions(name) {
		lit, ok := args[idx].(*Literal)
		if !ok || lit.IsBool {
			return nil, p.errAt(nameTok,
				fmt.Sprintf("a numeric literal for argument %d of %s", idx+1, name),
				"a non-numeric expression", "")
		}
	}

	return &FuncCall{Name: name, Args: args}, nil
}

// parseSeriesRef parses a series identifier with an optional [n] lag.
func (p *parser) parseSeriesRef() (Expr, error) {
	tok := p.advance()
	ref := &SeriesRef{Name: tok.Text}

	if nxt := p.peek(); nxt != nil && nxt.Kind == TokenLBracket {
		p.advance()
		lagTok, err := p.expectKind(TokenNumber)
		if err != nil {
			return nil, err
		}
		if lagTok.Value < 0 || lagTok.Value != math.Trunc(lagTok.Value) {
			return nil, p.errAt(lagTok, "a non-negative integer lag",
				fmt.Sprintf("%q", lagTok.Text), "")
		}
		ref.Lag = int(lagTok.Value)
		if _, err := p.expectKind(TokenRBracket); err != nil {
			return nil, err
		}
	}
	return ref, nil
}
