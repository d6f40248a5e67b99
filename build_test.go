package guards

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// buildFn compiles a single-file package from source and returns the SSA
// form of the named function.
func buildFn(t *testing.T, src, name string) *ssa.Function {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", src, 0)
	require.NoError(t, err)
	pkg := types.NewPackage("p", "")
	ssapkg, _, err := ssautil.BuildPackage(&types.Config{}, fset, pkg, []*ast.File{f}, ssa.SanityCheckFunctions)
	require.NoError(t, err)
	fn := ssapkg.Func(name)
	require.NotNil(t, fn, "function %s not found", name)
	return fn
}

// callBlock returns the block containing the only call to the named marker
// function.
func callBlock(t *testing.T, fn *ssa.Function, callee string) *ssa.BasicBlock {
	t.Helper()
	var found *ssa.BasicBlock
	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			call, ok := instr.(*ssa.Call)
			if !ok {
				continue
			}
			if sc := call.Common().StaticCallee(); sc != nil && sc.Name() == callee {
				require.Nil(t, found, "multiple calls to %s in %s", callee, fn)
				found = b
			}
		}
	}
	require.NotNil(t, found, "no call to %s in %s", callee, fn)
	return found
}

// firstCond returns the condition of the first branch in block order.
func firstCond(t *testing.T, fn *ssa.Function) ssa.Value {
	t.Helper()
	for _, b := range fn.Blocks {
		if br, ok := lastInstr(b).(*ssa.If); ok {
			return br.Cond
		}
	}
	t.Fatalf("no branch in %s", fn)
	return nil
}

// branchOn returns the branch instruction whose condition is v.
func branchOn(t *testing.T, fn *ssa.Function, v ssa.Value) *ssa.If {
	t.Helper()
	for _, b := range fn.Blocks {
		if br, ok := lastInstr(b).(*ssa.If); ok && br.Cond == v {
			return br
		}
	}
	t.Fatalf("no branch on %s in %s", v.Name(), fn)
	return nil
}

// simplePaths enumerates the cycle-free paths between two blocks.
func simplePaths(from, to *ssa.BasicBlock) [][]*ssa.BasicBlock {
	var paths [][]*ssa.BasicBlock
	seen := make(map[*ssa.BasicBlock]bool)
	var walk func(b *ssa.BasicBlock, path []*ssa.BasicBlock)
	walk = func(b *ssa.BasicBlock, path []*ssa.BasicBlock) {
		if seen[b] {
			return
		}
		path = append(path, b)
		if b == to {
			paths = append(paths, append([]*ssa.BasicBlock(nil), path...))
			return
		}
		seen[b] = true
		for _, s := range b.Succs {
			walk(s, path)
		}
		seen[b] = false
	}
	walk(from, nil)
	return paths
}

func takesEdge(path []*ssa.BasicBlock, from, to *ssa.BasicBlock) bool {
	for i := 0; i+1 < len(path); i++ {
		if path[i] == from && path[i+1] == to {
			return true
		}
	}
	return false
}
