package guards

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// factSet holds every lt/eq fact derivable for one guard condition.
type factSet struct {
	lt map[LtFact]bool
	eq map[EqFact]bool
}

// factsOf derives the fact set for c, memoized per session. Derivation is
// structural: each case peels one layer of the condition (a negation, a
// short-circuit operator) or bottoms out at the raw comparison, then the
// local rewrites are closed over. Callers hold a.mu.
func (a *Analysis) factsOf(c *Cond) *factSet {
	if fs, ok := a.facts[c]; ok {
		return fs
	}
	fs := &factSet{lt: make(map[LtFact]bool), eq: make(map[EqFact]bool)}
	a.facts[c] = fs

	switch c.Kind {
	case CondNot:
		// compares(!cond, ..., test) = compares(cond, ..., !test).
		inner := a.factsOf(c.X)
		for f := range inner.lt {
			f.TestIsTrue = !f.TestIsTrue
			fs.lt[f] = true
		}
		for f := range inner.eq {
			f.TestIsTrue = !f.TestIsTrue
			fs.eq[f] = true
		}
	case CondAnd, CondOr:
		a.forwardOperands(c, fs)
	default:
		seedDirect(c.Val, fs)
	}
	closeFacts(fs)
	return fs
}

// seedDirect is the single base case of the whole engine. This is the only
// place where the operator's contributed value and the guard's truth value
// meet: when the guard is the comparison itself, test=true pins the
// comparison to value and test=false pins it to !value. Every other rule
// preserves the pairing, which is what keeps true and false variants of the
// same fact from ever being derived together.
func seedDirect(v ssa.Value, fs *factSet) {
	if n, ok := normLt(v); ok {
		fs.lt[LtFact{n.left, n.right, n.k, n.value, true}] = true
		fs.lt[LtFact{n.left, n.right, n.k, !n.value, false}] = true
	}
	if n, ok := normEq(v); ok {
		fs.eq[EqFact{n.left, n.right, n.k, n.value, true}] = true
		fs.eq[EqFact{n.left, n.right, n.k, !n.value, false}] = true
	}
}

// shortCircuitPins returns the truth value the compound's evaluation pins
// both operands to, if any:
//
//	AND evaluated true  => both operands evaluated true
//	AND evaluated false => nothing (either operand may have failed)
//	OR evaluated false  => both operands evaluated false
//	OR evaluated true   => nothing
func shortCircuitPins(kind CondKind, test bool) (bool, bool) {
	switch {
	case kind == CondAnd && test:
		return true, true
	case kind == CondOr && !test:
		return false, true
	}
	return false, false
}

// forwardOperands lifts operand facts up to a short-circuit compound for the
// compound truth values that pin the operands. This rule set is known to be
// incomplete: a false AND or a true OR says nothing about either operand.
func (a *Analysis) forwardOperands(c *Cond, fs *factSet) {
	for _, test := range [2]bool{true, false} {
		pinned, ok := shortCircuitPins(c.Kind, test)
		if !ok {
			continue
		}
		for _, op := range [2]*Cond{c.X, c.Y} {
			inner := a.factsOf(op)
			for f := range inner.lt {
				if f.TestIsTrue == pinned {
					f.TestIsTrue = test
					fs.lt[f] = true
				}
			}
			for f := range inner.eq {
				if f.TestIsTrue == pinned {
					f.TestIsTrue = test
					fs.eq[f] = true
				}
			}
		}
	}
}

// closeFacts applies the local rewrites until no new fact appears. Every
// rewrite is either an involution (deduplicated by the set) or peels one
// constant add/sub layer off an operand, so the closure terminates.
func closeFacts(fs *factSet) {
	ltWork := make([]LtFact, 0, len(fs.lt))
	for f := range fs.lt {
		ltWork = append(ltWork, f)
	}
	for len(ltWork) > 0 {
		f := ltWork[len(ltWork)-1]
		ltWork = ltWork[:len(ltWork)-1]
		for _, g := range rewriteLt(f) {
			if !fs.lt[g] {
				fs.lt[g] = true
				ltWork = append(ltWork, g)
			}
		}
	}

	eqWork := make([]EqFact, 0, len(fs.eq))
	for f := range fs.eq {
		eqWork = append(eqWork, f)
	}
	for len(eqWork) > 0 {
		f := eqWork[len(eqWork)-1]
		eqWork = eqWork[:len(eqWork)-1]
		for _, g := range rewriteEq(f) {
			if !fs.eq[g] {
				fs.eq[g] = true
				eqWork = append(eqWork, g)
			}
		}
	}
}

func rewriteLt(f LtFact) []LtFact {
	var out []LtFact
	// NOT(l < r+k) == l >= r+k == r < l+(1-k): greater-or-equal facts are
	// kept as swapped < facts instead of a separate relation.
	if k, ok := subInt64(1, f.K); ok {
		out = append(out, LtFact{f.Right, f.Left, k, !f.IsLt, f.TestIsTrue})
	}
	for _, s := range shifts(f.Left, f.Right, f.K) {
		out = append(out, LtFact{s.left, s.right, s.k, f.IsLt, f.TestIsTrue})
	}
	return out
}

func rewriteEq(f EqFact) []EqFact {
	var out []EqFact
	// l == r+k  <=>  r == l-k
	if k, ok := negInt64(f.K); ok {
		out = append(out, EqFact{f.Right, f.Left, k, f.AreEqual, f.TestIsTrue})
	}
	for _, s := range shifts(f.Left, f.Right, f.K) {
		out = append(out, EqFact{s.left, s.right, s.k, f.AreEqual, f.TestIsTrue})
	}
	return out
}

type shifted struct {
	left, right ssa.Value
	k           int64
}

// shifts peels one constant add/sub layer off either operand:
//
//	(a - x) REL r + k  =>  a REL r + (k+x)
//	(a + x) REL r + k  =>  a REL r + (k-x)
//	l REL (b - x) + k  =>  l REL b + (k-x)
//	l REL (b + x) + k  =>  l REL b + (k+x)
//
// Both operand orders of + are tried; only integer literals participate, and
// a shift whose k would overflow does not apply.
func shifts(left, right ssa.Value, k int64) []shifted {
	var out []shifted
	if bin, ok := left.(*ssa.BinOp); ok {
		switch bin.Op {
		case token.SUB:
			if x, ok := intConst(bin.Y); ok {
				if k2, ok := addInt64(k, x); ok {
					out = append(out, shifted{bin.X, right, k2})
				}
			}
		case token.ADD:
			if base, x, ok := addParts(bin); ok {
				if k2, ok := subInt64(k, x); ok {
					out = append(out, shifted{base, right, k2})
				}
			}
		}
	}
	if bin, ok := right.(*ssa.BinOp); ok {
		switch bin.Op {
		case token.SUB:
			if x, ok := intConst(bin.Y); ok {
				if k2, ok := subInt64(k, x); ok {
					out = append(out, shifted{left, bin.X, k2})
				}
			}
		case token.ADD:
			if base, x, ok := addParts(bin); ok {
				if k2, ok := addInt64(k, x); ok {
					out = append(out, shifted{left, base, k2})
				}
			}
		}
	}
	return out
}

// addParts splits an addition into its base and constant term.
func addParts(bin *ssa.BinOp) (ssa.Value, int64, bool) {
	if x, ok := intConst(bin.Y); ok {
		return bin.X, x, true
	}
	if x, ok := intConst(bin.X); ok {
		return bin.Y, x, true
	}
	return nil, 0, false
}
