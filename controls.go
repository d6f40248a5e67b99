package guards

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

type controlsKey struct {
	cond       *Cond
	block      *ssa.BasicBlock
	testIsTrue bool
}

// controls reports whether the truth value t of c fully determines
// reachability of b: every path from entry to b passes through the t-labeled
// edge out of a branch deciding c. Callers hold a.mu.
func (a *Analysis) controls(c *Cond, b *ssa.BasicBlock, t bool) bool {
	key := controlsKey{c, b, t}
	if r, ok := a.ctrl[key]; ok {
		return r
	}
	var r bool
	switch c.Kind {
	case CondNot:
		// controls(!c, b, t) = controls(c, b, !t). The chain test also
		// catches branches on the materialized negation itself.
		r = a.controls(c.X, b, !t) || a.chainControls(c.Val, b, t)
	case CondAnd, CondOr:
		// A short-circuited compound determines reachability where both
		// operands do; this under-approximates, never over-approximates.
		// Independently, the compound's own materialized value may be
		// branched on, which the chain test decides like any other value.
		r = (a.controls(c.X, b, t) && a.controls(c.Y, b, t)) || a.chainControls(c.Val, b, t)
	default:
		r = a.chainControls(c.Val, b, t)
	}
	a.ctrl[key] = r
	return r
}

// chainControls applies the single-edge-cut test to every branch on v and,
// following logical negations in both directions with the truth value
// flipped per NOT, to every branch on a value that is v under a stack of
// negations. SSA materializes value-position negations instead of eliding
// them, so v's own branch may sit above or below the NOT.
func (a *Analysis) chainControls(v ssa.Value, b *ssa.BasicBlock, t bool) bool {
	type node struct {
		v ssa.Value
		t bool
	}
	seen := make(map[node]bool)
	var visit func(v ssa.Value, t bool) bool
	visit = func(v ssa.Value, t bool) bool {
		if seen[node{v, t}] {
			return false
		}
		seen[node{v, t}] = true
		if a.directControls(v, b, t) {
			return true
		}
		if u, ok := v.(*ssa.UnOp); ok && u.Op == token.NOT {
			if visit(u.X, !t) {
				return true
			}
		}
		if refs := v.Referrers(); refs != nil {
			for _, instr := range *refs {
				if u, ok := instr.(*ssa.UnOp); ok && u.Op == token.NOT {
					if visit(u, !t) {
						return true
					}
				}
			}
		}
		return false
	}
	return visit(v, t)
}

// directControls applies the single-edge-cut test to every branch on v.
func (a *Analysis) directControls(v ssa.Value, b *ssa.BasicBlock, t bool) bool {
	refs := v.Referrers()
	if refs == nil {
		return false
	}
	for _, instr := range *refs {
		br, ok := instr.(*ssa.If)
		if !ok || br.Cond != v {
			continue
		}
		if a.branchControls(br, b, t) {
			return true
		}
	}
	return false
}

// branchControls is the crux: the t-successor of the branch must dominate b,
// and no edge other than the branch's own t-edge may enter that successor.
// Back-edges from blocks the successor itself dominates are loop latches and
// do not count; neither do edges from blocks unreachable from entry.
func (a *Analysis) branchControls(br *ssa.If, b *ssa.BasicBlock, t bool) bool {
	this := br.Block()
	if this == nil || len(this.Succs) != 2 || this.Succs[0] == this.Succs[1] {
		// A branch with a single physical target determines nothing.
		return false
	}
	succ := this.Succs[0]
	if !t {
		succ = this.Succs[1]
	}
	if !succ.Dominates(b) {
		return false
	}
	for _, pred := range succ.Preds {
		if pred == this || succ.Dominates(pred) || !a.reach[pred] {
			continue
		}
		return false
	}
	return true
}

// entryReachable computes the blocks reachable from the function entry.
// The dominator tree is rooted at entry and says nothing about blocks
// outside it, so reachability is tracked separately.
func entryReachable(fn *ssa.Function) map[*ssa.BasicBlock]bool {
	reach := make(map[*ssa.BasicBlock]bool, len(fn.Blocks))
	if len(fn.Blocks) == 0 {
		return reach
	}
	work := []*ssa.BasicBlock{fn.Blocks[0]}
	reach[fn.Blocks[0]] = true
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range b.Succs {
			if !reach[s] {
				reach[s] = true
				work = append(work, s)
			}
		}
	}
	return reach
}
