package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a Strategy back to DSL source. The output re-parses to a
// structurally identical AST (round-trip property). Cross events print in
// call form; parentheses are inserted only where precedence requires.
func Format(s *Strategy) string {
	return fmt.Sprintf("ENTRY: %s\nEXIT: %s", FormatExpr(s.Entry), FormatExpr(s.Exit))
}

// Operator precedence, loosest to tightest. Atoms and call-form cross
// events sit above every operator.
const (
	precOr = iota + 1
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precAtom
)

func opPrecedence(op Op) int {
	switch {
	case op == OpOr:
		return precOr
	case op == OpAnd:
		return precAnd
	case op.IsComparison():
		return precCompare
	case op == OpAdd || op == OpSub:
		return precAdd
	case op == OpMul || op == OpDiv:
		return precMul
	}
	return precAtom
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	switch n := e.(type) {
	case *Literal:
		if n.IsBool {
			if n.Value != 0 {
				return "TRUE"
			}
			return "FALSE"
		}
		// 'f' keeps large values like 1000000 in a form the lexer
		// accepts; 'g' would emit exponent notation.
		return strconv.FormatFloat(n.Value, 'f', -1, 64)

	case *SeriesRef:
		if n.Lag > 0 {
			return fmt.Sprintf("%s[%d]", n.Name, n.Lag)
		}
		return n.Name

	case *FuncCall:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = FormatExpr(a)
		}
		return fmt.Sprintf("%s(%s)", n.Name, strings.Join(args, ", "))

	case *UnaryOp:
		return "NOT " + childString(n.Operand, precNot, false)

	case *BinaryOp:
		if n.Op.IsCross() {
			return fmt.Sprintf("%s(%s, %s)", n.Op, FormatExpr(n.Left), FormatExpr(n.Right))
		}
		prec := opPrecedence(n.Op)
		return fmt.Sprintf("%s %s %s",
			childString(n.Left, prec, false),
			n.Op,
			childString(n.Right, prec, true))
	}
	return ""
}

// childString renders a subexpression, parenthesizing when its operator
// binds looser than the parent, or equally on the right of a
// left-associative operator.
func childString(e Expr, parentPrec int, rightSide bool) string {
	childPrec := precAtom
	switch n := e.(type) {
	case *BinaryOp:
		if !n.Op.IsCross() {
			childPrec = opPrecedence(n.Op)
		}
	case *UnaryOp:
		childPrec = precNot
	}

	s := FormatExpr(e)
	if childPrec < parentPrec || (rightSide && childPrec == parentPrec) {
		return "(" + s + ")"
	}
	return s
}
