// Package testutil provides fixture helpers shared by package tests.
package testutil

import (
	"github.com/roach88/bento/internal/depgraph"
)

// GraphBuilder assembles dependency graphs for tests with a compact,
// name-based API. Modules are created on first reference, so a test can
// declare edges without listing modules up front.
type GraphBuilder struct {
	g *depgraph.Graph
}

func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{g: depgraph.New()}
}

// Graph returns the assembled graph.
func (b *GraphBuilder) Graph() *depgraph.Graph { return b.g }

// Module returns the named module, creating it on first use.
func (b *GraphBuilder) Module(name string) *depgraph.Module {
	if m := b.g.Module(name); m != nil {
		return m
	}
	return b.g.MustAddModule(name)
}

// Modules resolves names to modules, creating missing ones.
func (b *GraphBuilder) Modules(names ...string) []*depgraph.Module {
	mods := make([]*depgraph.Module, len(names))
	for i, n := range names {
		mods[i] = b.Module(n)
	}
	return mods
}

// Sync links from's root block to each named target with an always-active
// dependency, in the given order.
func (b *GraphBuilder) Sync(from string, to ...string) {
	origin := b.Module(from)
	for _, name := range to {
		b.g.Link(origin, origin.RootBlock(), &depgraph.Dependency{}, b.Module(name))
	}
}

// Weak links from to target with a weak dependency, which the builder
// never follows.
func (b *GraphBuilder) Weak(from, to string) {
	origin := b.Module(from)
	b.g.Link(origin, origin.RootBlock(), &depgraph.Dependency{Weak: true}, b.Module(to))
}

// Conditional links from's root block to each target gated by cond.
func (b *GraphBuilder) Conditional(cond depgraph.Condition, from string, to ...string) {
	origin := b.Module(from)
	for _, name := range to {
		b.g.Link(origin, origin.RootBlock(), &depgraph.Dependency{Condition: cond}, b.Module(name))
	}
}

// Async attaches an async block named name to from's root block and links
// it to the targets. The block is returned for nesting.
func (b *GraphBuilder) Async(from, name string, to ...string) *depgraph.Block {
	origin := b.Module(from)
	block := origin.RootBlock().AddBlock(depgraph.BlockConfig{Name: name})
	b.DepsOn(block, to...)
	return block
}

// AsyncEntry attaches an async entry block to from's root block.
func (b *GraphBuilder) AsyncEntry(from string, opts *depgraph.EntryOptions, to ...string) *depgraph.Block {
	origin := b.Module(from)
	block := origin.RootBlock().AddBlock(depgraph.BlockConfig{Name: opts.Name, Entry: opts})
	b.DepsOn(block, to...)
	return block
}

// Nested attaches an async block below an existing block.
func (b *GraphBuilder) Nested(parent *depgraph.Block, name string, to ...string) *depgraph.Block {
	block := parent.AddBlock(depgraph.BlockConfig{Name: name})
	b.DepsOn(block, to...)
	return block
}

// DepsOn links an existing block to each named target with always-active
// dependencies.
func (b *GraphBuilder) DepsOn(block *depgraph.Block, to ...string) {
	owner := block.Owner()
	for _, name := range to {
		b.g.Link(owner, block, &depgraph.Dependency{}, b.Module(name))
	}
}

// CondDepsOn links an existing block to each named target gated by cond.
func (b *GraphBuilder) CondDepsOn(block *depgraph.Block, cond depgraph.Condition, to ...string) {
	owner := block.Owner()
	for _, name := range to {
		b.g.Link(owner, block, &depgraph.Dependency{Condition: cond}, b.Module(name))
	}
}

// Names returns the module names in the given order, for assertions.
func Names(mods []*depgraph.Module) []string {
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name()
	}
	return names
}
