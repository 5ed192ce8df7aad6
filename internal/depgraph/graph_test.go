package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddModuleAssignsDenseIDs(t *testing.T) {
	g := New()
	a := g.MustAddModule("a")
	b := g.MustAddModule("b")

	assert.Equal(t, ModuleID(0), a.ID())
	assert.Equal(t, ModuleID(1), b.ID())
	assert.Equal(t, 2, g.NumModules())
	assert.Same(t, a, g.Module("a"))
	assert.Same(t, b, g.ModuleByID(1))
	assert.Nil(t, g.ModuleByID(5))
	assert.Equal(t, []*Module{a, b}, g.Modules())
}

func TestAddModuleRejectsDuplicates(t *testing.T) {
	g := New()
	g.MustAddModule("a")

	_, err := g.AddModule("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate module")
}

func TestLinkRecordsParentBlockAndPosition(t *testing.T) {
	g := New()
	app := g.MustAddModule("app")
	util := g.MustAddModule("util")
	shared := g.MustAddModule("shared")

	d1 := &Dependency{}
	d2 := &Dependency{}
	g.Link(app, app.RootBlock(), d1, util)
	g.Link(app, app.RootBlock(), d2, shared)

	assert.Same(t, app.RootBlock(), g.ParentBlock(d1))
	assert.Equal(t, 0, g.ParentBlockIndex(d1))
	assert.Equal(t, 1, g.ParentBlockIndex(d2))

	out := g.Outgoing(app)
	require.Len(t, out, 2)
	assert.Same(t, util, out[0].Module)
	assert.Same(t, shared, out[1].Module)
	assert.Same(t, app, out[0].Origin)
}

func TestLinkRejectsForeignBlock(t *testing.T) {
	g := New()
	app := g.MustAddModule("app")
	other := g.MustAddModule("other")

	assert.Panics(t, func() {
		g.Link(other, app.RootBlock(), &Dependency{}, nil)
	})
}

func TestParentBlockIndexFallsBackToIdentityScan(t *testing.T) {
	g := New()
	app := g.MustAddModule("app")
	util := g.MustAddModule("util")

	// Register the dependency without a position, the degraded path for
	// graphs assembled by tooling that tracks positions itself.
	d := &Dependency{}
	app.RootBlock().AddDependency(d)
	g.SetParentBlock(d, app.RootBlock())
	g.Connect(app, d, util)

	assert.Same(t, app.RootBlock(), g.ParentBlock(d))
	assert.Equal(t, -1, g.ParentBlockIndex(d))
	assert.Equal(t, 0, app.RootBlock().IndexOf(d))
	assert.Equal(t, -1, app.RootBlock().IndexOf(&Dependency{}))
}

func TestBlockTree(t *testing.T) {
	g := New()
	app := g.MustAddModule("app")

	root := app.RootBlock()
	assert.False(t, root.Async())
	assert.Same(t, app, root.Owner())
	assert.Nil(t, root.Parent())

	lazy := root.AddBlock(BlockConfig{Name: "lazy", Loc: Loc{File: "app.js", Line: 3, Col: 1}})
	assert.True(t, lazy.Async())
	assert.Same(t, app, lazy.Owner())
	assert.Same(t, root, lazy.Parent())
	assert.Equal(t, "lazy", lazy.Name())
	assert.Equal(t, "app.js:3:1", lazy.Loc().String())

	nested := lazy.AddBlock(BlockConfig{})
	assert.True(t, nested.Async())
	assert.Same(t, app, nested.Owner())
	assert.Equal(t, []*Block{lazy}, root.Blocks())
	assert.Equal(t, []*Block{nested}, lazy.Blocks())
}

func TestMergeActiveStates(t *testing.T) {
	g := New()
	app := g.MustAddModule("app")
	util := g.MustAddModule("util")

	never := g.Link(app, app.RootBlock(), &Dependency{Condition: NeverActive()}, util)
	cond := g.Link(app, app.RootBlock(), &Dependency{Condition: ConditionallyActive()}, util)
	always := g.Link(app, app.RootBlock(), &Dependency{}, util)

	assert.Equal(t, ActiveNever, MergeActiveStates([]*Connection{never}, nil))
	assert.Equal(t, ActiveConditional, MergeActiveStates([]*Connection{never, cond}, nil))
	assert.Equal(t, ActiveAlways, MergeActiveStates([]*Connection{cond, always}, nil))
	assert.Equal(t, ActiveNever, MergeActiveStates(nil, nil))
}

func TestConnectionActiveStateWithNilDependency(t *testing.T) {
	c := &Connection{}
	assert.Equal(t, ActiveNever, c.ActiveState(nil))
}
