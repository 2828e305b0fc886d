// Package eval turns a validated strategy AST into time-indexed series
// over an OHLCV frame: numeric series for arithmetic and indicator
// nodes, boolean series for comparisons, cross events, and logic.
//
// Undefined values are data, not errors: a comparison against NaN is
// false, division by zero yields NaN at that position, and cross events
// are false whenever any contributing value is undefined. Evaluation is
// one bottom-up pass; sibling subtrees are side-effect-free, so their
// order never changes the output.
package eval

import (
	"fmt"
	"math"

	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/dsl"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/indicators"
	"github.com/CHANDUsaikumar/NLP-to-DSL-pipeline/pkg/types"
)

// Error reports a structurally impossible evaluation state. ASTs produced
// by dsl.Parse never reference unknown names or arities, so in a
// well-formed pipeline this surfaces only type misuse (e.g. a numeric
// ENTRY clause) or hand-built ASTs.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "evaluation error: " + e.Reason
}

func errf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// Signals evaluates both strategy clauses over the frame and returns the
// aligned boolean entry/exit series. Scalar boolean clauses broadcast to
// the frame length.
func Signals(st *dsl.Strategy, f *types.Frame) (*types.Signals, error) {
	entry, err := BoolSeries(st.Entry, f)
	if err != nil {
		return nil, fmt.Errorf("entry clause: %w", err)
	}
	exit, err := BoolSeries(st.Exit, f)
	if err != nil {
		return nil, fmt.Errorf("exit clause: %w", err)
	}
	return &types.Signals{Entry: entry, Exit: exit}, nil
}

// Series evaluates a numeric expression and returns its aligned float
// series, broadcasting scalars to the frame length. Used to export
// intermediate indicator series.
func Series(e dsl.Expr, f *types.Frame) ([]float64, error) {
	v, err := evalExpr(e, f)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case numSeries:
		return v.nums, nil
	case scalarNum:
		return broadcastNum(v.num, f.Len()), nil
	}
	return nil, errf("expression is boolean, not numeric")
}

// BoolSeries evaluates a boolean expression and returns its aligned
// signal series, broadcasting scalar booleans to the frame length.
func BoolSeries(e dsl.Expr, f *types.Frame) ([]bool, error) {
	v, err := evalExpr(e, f)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case boolSeries:
		return v.bools, nil
	case scalarBool:
		out := make([]bool, f.Len())
		for i := range out {
			out[i] = v.b
		}
		return out, nil
	}
	return nil, errf("expression is numeric, not boolean")
}

// valueKind tags the closed set of evaluation results.
type valueKind int

const (
	scalarNum valueKind = iota
	scalarBool
	numSeries
	boolSeries
)

type value struct {
	kind  valueKind
	num   float64
	b     bool
	nums  []float64
	bools []bool
}

func numValue(v float64) value     { return value{kind: scalarNum, num: v} }
func boolValue(b bool) value       { return value{kind: scalarBool, b: b} }
func seriesValue(s []float64) value { return value{kind: numSeries, nums: s} }
func boolsValue(s []bool) value    { return value{kind: boolSeries, bools: s} }

func (v value) isNumeric() bool {
	return v.kind == scalarNum || v.kind == numSeries
}

func (v value) isBoolean() bool {
	return v.kind == scalarBool || v.kind == boolSeries
}

// evalExpr walks the tagged-variant AST bottom-up. The switch is
// exhaustive over the node kinds dsl defines.
func evalExpr(e dsl.Expr, f *types.Frame) (value, error) {
	switch n := e.(type) {
	case *dsl.Literal:
		if n.IsBool {
			return boolValue(n.Value != 0), nil
		}
		return numValue(n.Value), nil

	case *dsl.SeriesRef:
		col, ok := f.Column(n.Name)
		if !ok {
			return value{}, errf("unknown series %q reached evaluation", n.Name)
		}
		if n.Lag > 0 {
			return seriesValue(indicators.Shift(col, n.Lag)), nil
		}
		return seriesValue(col), nil

	case *dsl.FuncCall:
		return evalFuncCall(n, f)

	case *dsl.UnaryOp:
		return evalUnary(n, f)

	case *dsl.BinaryOp:
		return evalBinary(n, f)
	}
	return value{}, errf("unknown AST node %T", e)
}

func evalUnary(n *dsl.UnaryOp, f *types.Frame) (value, error) {
	operand, err := evalExpr(n.Operand, f)
	if err != nil {
		return value{}, err
	}
	if n.Op != dsl.OpNot {
		return value{}, errf("unknown unary operator %q", n.Op)
	}

	switch operand.kind {
	case scalarBool:
		return boolValue(!operand.b), nil
	case boolSeries:
		out := make([]bool, len(operand.bools))
		for i, b := range operand.bools {
			out[i] = !b
		}
		return boolsValue(out), nil
	}
	return value{}, errf("NOT requires a boolean operand")
}

func evalBinary(n *dsl.BinaryOp, f *types.Frame) (value, error) {
	left, err := evalExpr(n.Left, f)
	if err != nil {
		return value{}, err
	}
	right, err := evalExpr(n.Right, f)
	if err != nil {
		return value{}, err
	}

	switch {
	case n.Op.IsArithmetic():
		return evalArithmetic(n.Op, left, right, f.Len())
	case n.Op.IsComparison():
		return evalComparison(n.Op, left, right, f.Len())
	case n.Op.IsCross():
		return evalCross(n.Op, left, right, f.Len())
	case n.Op == dsl.OpAnd || n.Op == dsl.OpOr:
		return evalLogic(n.Op, left, right, f.Len())
	}
	return value{}, errf("unknown binary operator %q", n.Op)
}

func evalArithmetic(op dsl.Op, left, right value, n int) (value, error) {
	if !left.isNumeric() || !right.isNumeric() {
		return value{}, errf("%q requires numeric operands", op)
	}

	if left.kind == scalarNum && right.kind == scalarNum {
		return numValue(applyArith(op, left.num, right.num)), nil
	}

	a := toNumSeries(left, n)
	b := toNumSeries(right, n)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = applyArith(op, a[i], b[i])
	}
	return seriesValue(out), nil
}

// applyArith performs one elementwise arithmetic step. Division by zero
// yields NaN at that position, never a failure.
func applyArith(op dsl.Op, a, b float64) float64 {
	switch op {
	case dsl.OpAdd:
		return a + b
	case dsl.OpSub:
		return a - b
	case dsl.OpMul:
		return a * b
	case dsl.OpDiv:
		if b == 0 {
			return math.NaN()
		}
		return a / b
	}
	return math.NaN()
}

func evalComparison(op dsl.Op, left, right value, n int) (value, error) {
	if !left.isNumeric() || !right.isNumeric() {
		return value{}, errf("%q requires numeric operands", op)
	}

	if left.kind == scalarNum && right.kind == scalarNum {
		return boolValue(applyCompare(op, left.num, right.num)), nil
	}

	a := toNumSeries(left, n)
	b := toNumSeries(right, n)
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = applyCompare(op, a[i], b[i])
	}
	return boolsValue(out), nil
}

// applyCompare evaluates one comparison. Any undefined operand makes the
// result false, for every operator including != .
func applyCompare(op dsl.Op, a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	switch op {
	case dsl.OpGT:
		return a > b
	case dsl.OpGE:
		return a >= b
	case dsl.OpLT:
		return a < b
	case dsl.OpLE:
		return a <= b
	case dsl.OpEQ:
		return a == b
	case dsl.OpNE:
		return a != b
	}
	return false
}

// evalCross detects one-bar cross events. CROSSOVER(a, b) is true at bar
// i iff a[i-1] <= b[i-1] and a[i] > b[i]; CROSSUNDER mirrors the
// inequalities. False at bar 0 and wherever any of the four inputs is
// undefined, so crossover and crossunder are never both true.
func evalCross(op dsl.Op, left, right value, n int) (value, error) {
	if !left.isNumeric() || !right.isNumeric() {
		return value{}, errf("%q requires numeric operands", op)
	}

	a := toNumSeries(left, n)
	b := toNumSeries(right, n)
	out := make([]bool, n)
	for i := 1; i < n; i++ {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
			continue
		}
		if op == dsl.OpCrossover {
			out[i] = a[i-1] <= b[i-1] && a[i] > b[i]
		} else {
			out[i] = a[i-1] >= b[i-1] && a[i] < b[i]
		}
	}
	return boolsValue(out), nil
}

func evalLogic(op dsl.Op, left, right value, n int) (value, error) {
	if !left.isBoolean() || !right.isBoolean() {
		return value{}, errf("%q requires boolean operands", op)
	}

	if left.kind == scalarBool && right.kind == scalarBool {
		if op == dsl.OpAnd {
			return boolValue(left.b && right.b), nil
		}
		return boolValue(left.b || right.b), nil
	}

	a := toBoolSeries(left, n)
	b := toBoolSeries(right, n)
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		if op == dsl.OpAnd {
			out[i] = a[i] && b[i]
		} else {
			out[i] = a[i] || b[i]
		}
	}
	return boolsValue(out), nil
}

// evalFuncCall dispatches a registered indicator by name. Window and
// scalar arguments were validated as literals by the parser.
func evalFuncCall(n *dsl.FuncCall, f *types.Frame) (value, error) {
	args := make([]value, len(n.Args))
	for i, a := range n.Args {
		v, err := evalExpr(a, f)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}

	if len(args) == 0 || !args[0].isNumeric() {
		return value{}, errf("%s requires a numeric series as first argument", n.Name)
	}
	s := toNumSeries(args[0], f.Len())

	window := func(i int) (int, error) {
		if args[i].kind != scalarNum {
			return 0, errf("%s argument %d must be a numeric literal", n.Name, i+1)
		}
		return int(args[i].num), nil
	}

	switch n.Name {
	case "SMA":
		w, err := window(1)
		if err != nil {
			return value{}, err
		}
		return seriesValue(indicators.SMA(s, w)), nil

	case "EMA":
		w, err := window(1)
		if err != nil {
			return value{}, err
		}
		return seriesValue(indicators.EMA(s, w)), nil

	case "RSI":
		w, err := window(1)
		if err != nil {
			return value{}, err
		}
		return seriesValue(indicators.RSI(s, w)), nil

	case "SHIFT":
		k, err := window(1)
		if err != nil {
			return value{}, err
		}
		return seriesValue(indicators.Shift(s, k)), nil

	case "MACD", "MACD_SIGNAL", "MACD_HIST":
		fast, err := window(1)
		if err != nil {
			return value{}, err
		}
		slow, err := window(2)
		if err != nil {
			return value{}, err
		}
		sig, err := window(3)
		if err != nil {
			return value{}, err
		}
		line, signal, hist := indicators.MACD(s, fast, slow, sig)
		switch n.Name {
		case "MACD":
			return seriesValue(line), nil
		case "MACD_SIGNAL":
			return seriesValue(signal), nil
		default:
			return seriesValue(hist), nil
		}

	case "BBANDS", "BBUPPER", "BBLOWER":
		w, err := window(1)
		if err != nil {
			return value{}, err
		}
		if args[2].kind != scalarNum {
			return value{}, errf("%s argument 3 must be a numeric literal", n.Name)
		}
		middle, upper, lower := indicators.BBands(s, w, args[2].num)
		switch n.Name {
		case "BBANDS":
			return seriesValue(middle), nil
		case "BBUPPER":
			return seriesValue(upper), nil
		default:
			return seriesValue(lower), nil
		}
	}

	return value{}, errf("unknown function %q reached evaluation", n.Name)
}

func toNumSeries(v value, n int) []float64 {
	if v.kind == numSeries {
		return v.nums
	}
	return broadcastNum(v.num, n)
}

func toBoolSeries(v value, n int) []bool {
	if v.kind == boolSeries {
		return v.bools
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = v.b
	}
	return out
}

func broadcastNum(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
