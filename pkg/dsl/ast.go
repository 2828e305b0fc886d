// Package dsl implements the trading-rule language front end: lexer,
// recursive-descent parser, typed AST, name/arity registries, and a
// pretty-printer.
//
// A program is exactly one ENTRY: clause followed by one EXIT: clause,
// each a boolean-valued expression over OHLCV series, indicator function
// calls, arithmetic, comparisons, cross events, and AND/OR/NOT.
package dsl

// Expr is the closed set of AST node kinds. Every consumer switches
// exhaustively over the implementations; adding a node kind forces each
// switch to be revisited, which is the intended safety property.
type Expr interface {
	exprNode()
}

// Strategy roots a parsed program. Both clauses are boolean-typed
// expressions. A Strategy exclusively owns its tree; nodes are never
// shared across strategies, and the tree is immutable after parsing.
type Strategy struct {
	Entry Expr
	Exit  Expr
}

// SeriesRef references an OHLCV column, optionally lagged: close, high[1].
type SeriesRef struct {
	Name string // lowercase column name
	Lag  int    // bars back; 0 = current bar
}

// Literal is a numeric or boolean constant. Numeric K/M suffixes are
// already applied by the lexer. Boolean literals store 1/0 in Value.
type Literal struct {
	Value  float64
	IsBool bool
}

// FuncCall is an indicator invocation, e.g. SMA(close, 20). Arity is
// checked against the registry at construction time, so an ill-formed
// call never reaches evaluation.
type FuncCall struct {
	Name string // uppercase registered name
	Args []Expr
}

// Op identifies a binary or unary operator.
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"

	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
	OpEQ Op = "=="
	OpNE Op = "!="

	OpAnd Op = "AND"
	OpOr  Op = "OR"
	OpNot Op = "NOT"

	OpCrossover  Op = "CROSSOVER"
	OpCrossunder Op = "CROSSUNDER"
)

// BinaryOp combines two subexpressions with an arithmetic, comparison,
// cross-event, or logical operator.
type BinaryOp struct {
	Op    Op
	Left  Expr
	Right Expr
}

// UnaryOp is logical NOT applied to a boolean subexpression.
type UnaryOp struct {
	Op      Op
	Operand Expr
}

func (*SeriesRef) exprNode() {}
func (*Literal) exprNode()   {}
func (*FuncCall) exprNode()  {}
func (*BinaryOp) exprNode()  {}
func (*UnaryOp) exprNode()   {}

// IsComparison reports whether op is one of the six comparison operators.
func (o Op) IsComparison() bool {
	switch o {
	case OpGT, OpGE, OpLT, OpLE, OpEQ, OpNE:
		return true
	}
	return false
}

// IsArithmetic reports whether op is + - * or /.
func (o Op) IsArithmetic() bool {
	switch o {
	case OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// IsCross reports whether op is a cross-event operator.
func (o Op) IsCross() bool {
	return o == OpCrossover || o == OpCrossunder
}
