package guards

import (
	"go/constant"
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// CondKind discriminates the guard condition variants.
type CondKind int

const (
	// CondDirect is a plain condition value branched on by an *ssa.If.
	CondDirect CondKind = iota
	// CondAnd and CondOr are short-circuit combinations recovered from the
	// phi encoding the SSA builder emits for && and || in value position.
	CondAnd
	CondOr
	// CondNot is a logical negation (*ssa.UnOp with token.NOT).
	CondNot
)

// Cond is a guard condition. The SSA form elides logical operators, so a
// single tagged type is built once per condition value and downstream code
// matches on Kind instead of re-deriving the structure.
type Cond struct {
	Kind CondKind
	Val  ssa.Value // the underlying condition value, set for every kind
	X, Y *Cond     // operands: And/Or use both, Not uses X only
}

// condOf normalizes a condition value into its Cond variant, memoized per
// session. The value is registered as a direct condition before operands are
// visited so that a phi reachable from its own edges degrades to CondDirect
// instead of recursing forever.
func (a *Analysis) condOf(v ssa.Value) *Cond {
	if c, ok := a.conds[v]; ok {
		return c
	}
	c := &Cond{Kind: CondDirect, Val: v}
	a.conds[v] = c

	switch v := v.(type) {
	case *ssa.UnOp:
		if v.Op == token.NOT {
			c.Kind = CondNot
			c.X = a.condOf(v.X)
		}
	case *ssa.Phi:
		if kind, lhs, rhs, ok := shortCircuitPhi(v); ok {
			c.Kind = kind
			c.X = a.condOf(lhs)
			c.Y = a.condOf(rhs)
		}
	}
	return c
}

// shortCircuitPhi recognizes the two-predecessor phi the builder emits for a
// materialized a && b or a || b: one edge carries the short-circuit boolean
// constant and arrives over the matching labeled edge of the branch on the
// left operand; the other edge carries the right operand's value.
func shortCircuitPhi(phi *ssa.Phi) (CondKind, ssa.Value, ssa.Value, bool) {
	block := phi.Block()
	if len(phi.Edges) != 2 || len(block.Preds) != 2 {
		return 0, nil, nil, false
	}
	for i, e := range phi.Edges {
		sc, ok := boolConst(e)
		if !ok {
			continue
		}
		pred := block.Preds[i]
		br, ok := lastInstr(pred).(*ssa.If)
		if !ok || pred.Succs[0] == pred.Succs[1] {
			continue
		}
		other := block.Preds[1-i]
		if !sc {
			// false arrives over the false edge: the phi is lhs && rhs,
			// and the true edge must lead into the rhs evaluation.
			if pred.Succs[1] == block && pred.Succs[0].Dominates(other) {
				return CondAnd, br.Cond, phi.Edges[1-i], true
			}
		} else {
			// true arrives over the true edge: the phi is lhs || rhs.
			if pred.Succs[0] == block && pred.Succs[1].Dominates(other) {
				return CondOr, br.Cond, phi.Edges[1-i], true
			}
		}
	}
	return 0, nil, nil, false
}

func boolConst(v ssa.Value) (bool, bool) {
	c, ok := v.(*ssa.Const)
	if !ok || c.Value == nil || c.Value.Kind() != constant.Bool {
		return false, false
	}
	return constant.BoolVal(c.Value), true
}

func lastInstr(b *ssa.BasicBlock) ssa.Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}
