package guards

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"math"

	"golang.org/x/tools/go/ssa"
)

// LtFact states that when the guard condition evaluates to TestIsTrue,
// the comparison Left < Right + K evaluates to IsLt.
type LtFact struct {
	Left, Right ssa.Value
	K           int64
	IsLt        bool
	TestIsTrue  bool
}

func (f LtFact) String() string {
	return fmt.Sprintf("test=%v => (%s < %s + %d)=%v", f.TestIsTrue, f.Left.Name(), f.Right.Name(), f.K, f.IsLt)
}

// EqFact states that when the guard condition evaluates to TestIsTrue,
// the comparison Left == Right + K evaluates to AreEqual.
type EqFact struct {
	Left, Right ssa.Value
	K           int64
	AreEqual    bool
	TestIsTrue  bool
}

func (f EqFact) String() string {
	return fmt.Sprintf("test=%v => (%s == %s + %d)=%v", f.TestIsTrue, f.Left.Name(), f.Right.Name(), f.K, f.AreEqual)
}

// norm is the canonical comparison shape left REL right + k, where REL is
// either < or == depending on which table produced it. value is what the raw
// operator contributes when the comparison instruction evaluates to true.
type norm struct {
	left, right ssa.Value
	k           int64
	value       bool
}

// normLt rewrites a raw ordering comparison into left < right + k form:
// <= adds one to k, > and >= swap the operands. Non-comparisons and
// non-integer comparisons yield no form.
func normLt(v ssa.Value) (norm, bool) {
	bin, ok := v.(*ssa.BinOp)
	if !ok || !intOperands(bin) {
		return norm{}, false
	}
	switch bin.Op {
	case token.LSS:
		return norm{bin.X, bin.Y, 0, true}, true
	case token.LEQ:
		return norm{bin.X, bin.Y, 1, true}, true
	case token.GTR:
		return norm{bin.Y, bin.X, 0, true}, true
	case token.GEQ:
		return norm{bin.Y, bin.X, 1, true}, true
	}
	return norm{}, false
}

// normEq rewrites a raw equality comparison into left == right + k form;
// != contributes value=false rather than a distinct relation.
func normEq(v ssa.Value) (norm, bool) {
	bin, ok := v.(*ssa.BinOp)
	if !ok || !intOperands(bin) {
		return norm{}, false
	}
	switch bin.Op {
	case token.EQL:
		return norm{bin.X, bin.Y, 0, true}, true
	case token.NEQ:
		return norm{bin.X, bin.Y, 0, false}, true
	}
	return norm{}, false
}

func intOperands(bin *ssa.BinOp) bool {
	basic, ok := bin.X.Type().Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsInteger != 0
}

// intConst returns the value of an integer literal operand. Constants that
// do not fit in an int64 never participate in rewrites.
func intConst(v ssa.Value) (int64, bool) {
	c, ok := v.(*ssa.Const)
	if !ok || c.Value == nil || c.Value.Kind() != constant.Int {
		return 0, false
	}
	n, exact := constant.Int64Val(c.Value)
	if !exact {
		return 0, false
	}
	return n, true
}

// Checked constant folding. A rewrite whose k would overflow does not apply.

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func subInt64(a, b int64) (int64, bool) {
	d := a - b
	if (b < 0 && d < a) || (b > 0 && d > a) {
		return 0, false
	}
	return d, true
}

func negInt64(a int64) (int64, bool) {
	if a == math.MinInt64 {
		return 0, false
	}
	return -a, true
}
