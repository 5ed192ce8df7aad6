package graphdef

import (
	"fmt"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/depgraph"
)

// Assembly is a definition resolved into builder inputs.
type Assembly struct {
	Graph   *depgraph.Graph
	Entries []builder.Entrypoint
}

// Assemble resolves a Definition into a dependency graph and the
// entrypoints to build from. It rejects what the graph cannot represent:
// duplicate module ids and references to undefined modules. Everything
// the builder degrades on gracefully, such as duplicate entry names or
// unknown dependOn targets, passes through and surfaces as build
// diagnostics instead.
func Assemble(def *Definition) (*Assembly, []error) {
	g := depgraph.New()
	var errs []error

	for _, md := range def.Modules {
		if _, err := g.AddModule(md.ID); err != nil {
			errs = append(errs, &CompileError{
				Field:   "modules",
				Message: fmt.Sprintf("duplicate module %q", md.ID),
			})
		}
	}

	for _, md := range def.Modules {
		origin := g.Module(md.ID)
		assembleDeps(g, origin, origin.RootBlock(), md.Deps, md.ID, &errs)
		for _, bd := range md.Blocks {
			assembleBlock(g, origin, origin.RootBlock(), bd, md.ID, &errs)
		}
	}

	entries := make([]builder.Entrypoint, 0, len(def.Entries))
	for _, ed := range def.Entries {
		mods := make([]*depgraph.Module, 0, len(ed.Modules))
		for _, name := range ed.Modules {
			m := g.Module(name)
			if m == nil {
				errs = append(errs, &CompileError{
					Field:   fmt.Sprintf("entries.%s", ed.Name),
					Message: fmt.Sprintf("unknown module %q", name),
				})
				continue
			}
			mods = append(mods, m)
		}
		entries = append(entries, builder.Entrypoint{
			Name:    ed.Name,
			Modules: mods,
			Options: depgraph.EntryOptions{
				Name:        ed.Name,
				Runtime:     depgraph.Runtime(ed.Runtime),
				DependOn:    ed.DependOn,
				AsyncChunks: ed.AsyncChunks,
			},
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return &Assembly{Graph: g, Entries: entries}, nil
}

func assembleDeps(g *depgraph.Graph, origin *depgraph.Module, block *depgraph.Block, deps []DepDef, owner string, errs *[]error) {
	for _, dd := range deps {
		target := g.Module(dd.Target)
		if target == nil {
			*errs = append(*errs, &CompileError{
				Field:   fmt.Sprintf("modules.%s", owner),
				Message: fmt.Sprintf("dependency target %q is not defined", dd.Target),
			})
			continue
		}
		g.Link(origin, block, dependencyFor(dd), target)
	}
}

func assembleBlock(g *depgraph.Graph, origin *depgraph.Module, parent *depgraph.Block, bd BlockDef, owner string, errs *[]error) {
	cfg := depgraph.BlockConfig{Name: bd.Name, Loc: bd.Loc}
	if bd.Entry != nil {
		cfg.Entry = &depgraph.EntryOptions{
			Name:        bd.Entry.Name,
			Runtime:     depgraph.Runtime(bd.Entry.Runtime),
			AsyncChunks: bd.Entry.AsyncChunks,
		}
	}
	block := parent.AddBlock(cfg)
	assembleDeps(g, origin, block, bd.Deps, owner, errs)
	for _, nb := range bd.Blocks {
		assembleBlock(g, origin, block, nb, owner, errs)
	}
}

func dependencyFor(dd DepDef) *depgraph.Dependency {
	dep := &depgraph.Dependency{Weak: dd.Weak, Loc: dd.Loc}
	if len(dd.ActiveInRuntimes) > 0 {
		rts := make([]depgraph.Runtime, len(dd.ActiveInRuntimes))
		for i, rt := range dd.ActiveInRuntimes {
			rts[i] = depgraph.Runtime(rt)
		}
		dep.Condition = depgraph.ActiveInRuntimes(rts...)
	}
	return dep
}
