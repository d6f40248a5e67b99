package guards

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/guardlib/guards/log"
)

// LoadPackages loads the packages matching the given patterns and builds SSA
// for the whole program. Arguments ending in .go are treated as file queries.
func LoadPackages(patterns ...string) (*ssa.Program, []*ssa.Package, error) {
	queries := make([]string, len(patterns))
	for i, p := range patterns {
		if strings.HasSuffix(p, ".go") {
			p = "file=" + p
		}
		queries[i] = p
	}

	conf := &packages.Config{
		Mode: packages.LoadAllSyntax,
	}
	pkgs, err := packages.Load(conf, queries...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load packages")
	}
	if len(pkgs) == 0 {
		return nil, nil, errors.New("no packages could be loaded")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, nil, errors.Errorf("failed to load package %s: %v", pkg.PkgPath, pkg.Errors)
		}
		// pkg.IllTyped may be set even when pkg.Errors has no records.
		if pkg.IllTyped {
			return nil, nil, errors.Errorf("package %s contains type errors", pkg.PkgPath)
		}
		log.Debug.Printf("loaded package %s", pkg.PkgPath)
	}

	prog, ssaPkgs := ssautil.AllPackages(pkgs, ssa.BuilderMode(0))
	prog.Build()
	return prog, ssaPkgs, nil
}

// SourceFunctions returns the package-level functions declared in pkgs,
// including anonymous functions nested inside them, sorted by name.
func SourceFunctions(pkgs []*ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		for _, m := range pkg.Members {
			if fn, ok := m.(*ssa.Function); ok {
				fns = appendWithAnons(fns, fn)
			}
		}
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
	return fns
}

func appendWithAnons(fns []*ssa.Function, fn *ssa.Function) []*ssa.Function {
	fns = append(fns, fn)
	for _, anon := range fn.AnonFuncs {
		fns = appendWithAnons(fns, anon)
	}
	return fns
}
