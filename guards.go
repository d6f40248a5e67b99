// Package guards derives guard-condition facts from the SSA form of a Go
// function: which basic blocks a boolean condition controls, which linear
// comparisons (left < right + k, left == right + k) its truth value implies,
// and which of those comparisons therefore hold unconditionally inside
// controlled blocks. The engine is deliberately incomplete: it derives no
// fact rather than a wrong one.
package guards

import (
	"sort"
	"sync"

	"golang.org/x/tools/go/ssa"
)

// Analysis is a per-function query session. Every predicate is a pure
// function of the immutable SSA graph; the session only memoizes results, so
// concurrent callers share nothing but the caches behind the mutex.
type Analysis struct {
	fn *ssa.Function

	mu    sync.Mutex
	conds map[ssa.Value]*Cond
	facts map[*Cond]*factSet
	ctrl  map[controlsKey]bool
	reach map[*ssa.BasicBlock]bool
}

// NewAnalysis creates a query session for fn. The function must already be
// built, with blocks and dominator tree populated.
func NewAnalysis(fn *ssa.Function) *Analysis {
	return &Analysis{
		fn:    fn,
		conds: make(map[ssa.Value]*Cond),
		facts: make(map[*Cond]*factSet),
		ctrl:  make(map[controlsKey]bool),
		reach: entryReachable(fn),
	}
}

// Function returns the function under analysis.
func (a *Analysis) Function() *ssa.Function { return a.fn }

// Conditions returns the distinct branch conditions of the function, in
// block order.
func (a *Analysis) Conditions() []ssa.Value {
	var conds []ssa.Value
	seen := make(map[ssa.Value]bool)
	for _, b := range a.fn.Blocks {
		br, ok := lastInstr(b).(*ssa.If)
		if !ok || seen[br.Cond] {
			continue
		}
		seen[br.Cond] = true
		conds = append(conds, br.Cond)
	}
	return conds
}

// Controls reports whether reaching block requires cond to have evaluated to
// testIsTrue.
func (a *Analysis) Controls(cond ssa.Value, block *ssa.BasicBlock, testIsTrue bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controls(a.condOf(cond), block, testIsTrue)
}

// ComparesLt reports whether cond evaluating to testIsTrue implies that
// left < right + k evaluates to isLt.
func (a *Analysis) ComparesLt(cond, left, right ssa.Value, k int64, isLt, testIsTrue bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.factsOf(a.condOf(cond)).lt[LtFact{left, right, k, isLt, testIsTrue}]
}

// ComparesEq reports whether cond evaluating to testIsTrue implies that
// left == right + k evaluates to areEqual.
func (a *Analysis) ComparesEq(cond, left, right ssa.Value, k int64, areEqual, testIsTrue bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.factsOf(a.condOf(cond)).eq[EqFact{left, right, k, areEqual, testIsTrue}]
}

// LtFacts enumerates every derivable lt fact for cond, in a stable order.
func (a *Analysis) LtFacts(cond ssa.Value) []LtFact {
	a.mu.Lock()
	fs := a.factsOf(a.condOf(cond))
	out := make([]LtFact, 0, len(fs.lt))
	for f := range fs.lt {
		out = append(out, f)
	}
	a.mu.Unlock()
	sortLtFacts(out)
	return out
}

// EqFacts enumerates every derivable eq fact for cond, in a stable order.
func (a *Analysis) EqFacts(cond ssa.Value) []EqFact {
	a.mu.Lock()
	fs := a.factsOf(a.condOf(cond))
	out := make([]EqFact, 0, len(fs.eq))
	for f := range fs.eq {
		out = append(out, f)
	}
	a.mu.Unlock()
	sortEqFacts(out)
	return out
}

// EnsuresLt reports whether left < right + k evaluating to isLt holds on
// every execution reaching block: some truth value of cond both controls the
// block and implies the fact.
func (a *Analysis) EnsuresLt(cond, left, right ssa.Value, k int64, block *ssa.BasicBlock, isLt bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := a.condOf(cond)
	fs := a.factsOf(c)
	for _, t := range [2]bool{true, false} {
		if fs.lt[LtFact{left, right, k, isLt, t}] && a.controls(c, block, t) {
			return true
		}
	}
	return false
}

// EnsuresEq is the equality counterpart of EnsuresLt.
func (a *Analysis) EnsuresEq(cond, left, right ssa.Value, k int64, block *ssa.BasicBlock, areEqual bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	c := a.condOf(cond)
	fs := a.factsOf(c)
	for _, t := range [2]bool{true, false} {
		if fs.eq[EqFact{left, right, k, areEqual, t}] && a.controls(c, block, t) {
			return true
		}
	}
	return false
}

// EnsuredLtFacts enumerates the lt facts of cond that hold unconditionally
// in block.
func (a *Analysis) EnsuredLtFacts(cond ssa.Value, block *ssa.BasicBlock) []LtFact {
	a.mu.Lock()
	c := a.condOf(cond)
	fs := a.factsOf(c)
	var out []LtFact
	for f := range fs.lt {
		if a.controls(c, block, f.TestIsTrue) {
			out = append(out, f)
		}
	}
	a.mu.Unlock()
	sortLtFacts(out)
	return out
}

// EnsuredEqFacts enumerates the eq facts of cond that hold unconditionally
// in block.
func (a *Analysis) EnsuredEqFacts(cond ssa.Value, block *ssa.BasicBlock) []EqFact {
	a.mu.Lock()
	c := a.condOf(cond)
	fs := a.factsOf(c)
	var out []EqFact
	for f := range fs.eq {
		if a.controls(c, block, f.TestIsTrue) {
			out = append(out, f)
		}
	}
	a.mu.Unlock()
	sortEqFacts(out)
	return out
}

func sortLtFacts(facts []LtFact) {
	sort.Slice(facts, func(i, j int) bool { return facts[i].String() < facts[j].String() })
}

func sortEqFacts(facts []EqFact) {
	sort.Slice(facts, func(i, j int) bool { return facts[i].String() < facts[j].String() })
}
