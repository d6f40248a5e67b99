package guards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsuresLtBranches(t *testing.T) {
	src := `package p

func inside(int)  {}
func alt(int)     {}
func outside(int) {}

func F(i, n int) {
	if i < n {
		inside(i)
	} else {
		alt(i)
	}
	outside(i)
}
`
	fn := buildFn(t, src, "F")
	a := NewAnalysis(fn)
	cond := firstCond(t, fn)
	i, n := fn.Params[0], fn.Params[1]
	thenB := callBlock(t, fn, "inside")
	elseB := callBlock(t, fn, "alt")
	outB := callBlock(t, fn, "outside")

	// Taken branch: i < n holds in the then block.
	assert.True(t, a.EnsuresLt(cond, i, n, 0, thenB, true))
	// Untaken branch: the dual n < i+1 holds in the else block.
	assert.True(t, a.EnsuresLt(cond, n, i, 1, elseB, true))
	assert.False(t, a.EnsuresLt(cond, i, n, 0, elseB, true))
	// After the join neither branch dominates.
	assert.False(t, a.EnsuresLt(cond, i, n, 0, outB, true))
	assert.False(t, a.EnsuresLt(cond, n, i, 1, outB, true))
}

func TestEnsuresEqBranches(t *testing.T) {
	src := `package p

func inside(int)  {}
func alt(int)     {}

func F(i, n int) {
	if i == n {
		inside(i)
	} else {
		alt(i)
	}
}
`
	fn := buildFn(t, src, "F")
	a := NewAnalysis(fn)
	cond := firstCond(t, fn)
	i, n := fn.Params[0], fn.Params[1]
	thenB := callBlock(t, fn, "inside")
	elseB := callBlock(t, fn, "alt")

	assert.True(t, a.EnsuresEq(cond, i, n, 0, thenB, true))
	assert.True(t, a.EnsuresEq(cond, n, i, 0, thenB, true))
	assert.True(t, a.EnsuresEq(cond, i, n, 0, elseB, false))
	assert.False(t, a.EnsuresEq(cond, i, n, 0, elseB, true))
}

func TestEnsuredFactEnumeration(t *testing.T) {
	fn, a, cond := buildGuard(t, "i < n")
	i, n := fn.Params[0], fn.Params[1]
	thenB := callBlock(t, fn, "inside")
	outB := callBlock(t, fn, "outside")

	facts := a.EnsuredLtFacts(cond, thenB)
	require.NotEmpty(t, facts)
	for _, f := range facts {
		assert.True(t, a.EnsuresLt(cond, f.Left, f.Right, f.K, thenB, f.IsLt),
			"enumerated fact not ensured: %s", f)
	}
	found := false
	for _, f := range facts {
		if f.Left == i && f.Right == n && f.K == 0 && f.IsLt {
			found = true
		}
	}
	assert.True(t, found)

	assert.Empty(t, a.EnsuredLtFacts(cond, outB))
	assert.Empty(t, a.EnsuredEqFacts(cond, thenB))
}

func TestConditions(t *testing.T) {
	fn := buildFn(t, mergeSrc, "Merge")
	a := NewAnalysis(fn)
	conds := a.Conditions()
	assert.Len(t, conds, 2)
	for _, c := range conds {
		assert.NotNil(t, c)
	}
	assert.Equal(t, fn, a.Function())
}
