package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bento/internal/depgraph"
)

func testModules(t *testing.T, names ...string) (*depgraph.Graph, []*depgraph.Module) {
	t.Helper()
	g := depgraph.New()
	mods := make([]*depgraph.Module, len(names))
	for i, n := range names {
		mods[i] = g.MustAddModule(n)
	}
	return g, mods
}

func TestModuleSet(t *testing.T) {
	_, mods := testModules(t, "a", "b", "c")
	s := NewModuleSet(3)

	assert.True(t, s.Add(mods[1]))
	assert.True(t, s.Add(mods[0]))
	assert.False(t, s.Add(mods[1]), "second add is a no-op")

	assert.True(t, s.Has(mods[0]))
	assert.False(t, s.Has(mods[2]))
	assert.Equal(t, 2, s.Len())
	// Insertion order is preserved.
	assert.Equal(t, []*depgraph.Module{mods[1], mods[0]}, s.Modules())
}

func TestAddGroupAssignsCreationIndices(t *testing.T) {
	g := NewGraph(4)
	main := g.AddGroup(KindEntry, Options{Name: "main"})
	lazy := g.AddGroup(KindDynamic, Options{Name: "lazy"})
	anon := g.AddGroup(KindDynamic, Options{})

	assert.Equal(t, 0, main.Index())
	assert.Equal(t, 1, lazy.Index())
	assert.Equal(t, 2, anon.Index())
	assert.Same(t, main, g.GroupByName("main"))
	assert.Same(t, lazy, g.GroupByName("lazy"))
	assert.Nil(t, g.GroupByName("missing"))
	assert.Len(t, g.Groups(), 3)
}

func TestChunkModuleMembership(t *testing.T) {
	_, mods := testModules(t, "a", "b")
	g := NewGraph(2)
	c1 := g.NewChunk("main")
	c2 := g.NewChunk("lazy")

	assert.True(t, g.AddModuleToChunk(mods[0], c1))
	assert.False(t, g.AddModuleToChunk(mods[0], c1), "rebinding is a no-op")
	assert.True(t, g.AddModuleToChunk(mods[1], c1))
	assert.True(t, g.AddModuleToChunk(mods[0], c2))

	assert.True(t, g.IsModuleInChunk(mods[0], c1))
	assert.False(t, g.IsModuleInChunk(mods[1], c2))
	assert.Equal(t, []*depgraph.Module{mods[0], mods[1]}, g.ChunkModules(c1))
	assert.Equal(t, 2, g.NumChunkModules(c1))
	assert.Equal(t, []*Chunk{c1, c2}, g.ModuleChunks(mods[0]))
}

func TestEntryModules(t *testing.T) {
	_, mods := testModules(t, "a", "b")
	g := NewGraph(2)
	grp := g.AddGroup(KindEntry, Options{Name: "main"})
	c := g.NewChunk("main")
	grp.PushChunk(c)

	assert.Nil(t, g.EntryModules(c))
	g.ConnectEntryModule(mods[0], c, grp)
	g.ConnectEntryModule(mods[0], c, grp)
	assert.Equal(t, []*depgraph.Module{mods[0]}, g.EntryModules(c))
}

func TestConnectKeepsBothSides(t *testing.T) {
	g := NewGraph(0)
	parent := g.AddGroup(KindEntry, Options{Name: "main"})
	child := g.AddGroup(KindDynamic, Options{Name: "lazy"})

	Connect(parent, child)
	Connect(parent, child)

	assert.Equal(t, []*Group{child}, parent.Children())
	assert.Equal(t, []*Group{parent}, child.Parents())
	assert.Equal(t, 1, child.NumParents())
}

func TestPushChunkBackReferences(t *testing.T) {
	g := NewGraph(0)
	grp := g.AddGroup(KindEntry, Options{Name: "main"})
	c := g.NewChunk("main")

	grp.PushChunk(c)
	grp.PushChunk(c)

	assert.Equal(t, []*Chunk{c}, grp.Chunks())
	assert.Equal(t, []*Group{grp}, c.Groups())
	assert.True(t, c.InGroup(grp))
	assert.Equal(t, 1, c.NumGroups())
}

func TestMergeOptions(t *testing.T) {
	g := NewGraph(0)
	grp := g.AddGroup(KindDynamic, Options{})

	require.NoError(t, grp.MergeOptions(Options{Name: "lazy"}))
	assert.Equal(t, "lazy", grp.Name())

	require.NoError(t, grp.MergeOptions(Options{Name: "lazy"}))
	assert.Error(t, grp.MergeOptions(Options{Name: "other"}))
	assert.Equal(t, "lazy", grp.Name(), "existing options win on conflict")

	eo := &depgraph.EntryOptions{Name: "worker", Runtime: "worker"}
	require.NoError(t, grp.MergeOptions(Options{Entry: eo}))
	assert.Error(t, grp.MergeOptions(Options{Entry: &depgraph.EntryOptions{Name: "worker", Runtime: "other"}}))
	require.NoError(t, grp.MergeOptions(Options{Entry: &depgraph.EntryOptions{Name: "worker", Runtime: "worker"}}))
}

func TestGroupModuleOrderIndices(t *testing.T) {
	_, mods := testModules(t, "a")
	g := NewGraph(1)
	grp := g.AddGroup(KindEntry, Options{Name: "main"})

	assert.True(t, grp.SetModulePreOrderIndex(mods[0], 0))
	assert.False(t, grp.SetModulePreOrderIndex(mods[0], 7), "first assignment wins")
	i, ok := grp.ModulePreOrderIndex(mods[0])
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = grp.ModulePostOrderIndex(mods[0])
	assert.False(t, ok)
	assert.True(t, grp.SetModulePostOrderIndex(mods[0], 3))
	i, ok = grp.ModulePostOrderIndex(mods[0])
	require.True(t, ok)
	assert.Equal(t, 3, i)
}

func TestGlobalOrderIndices(t *testing.T) {
	_, mods := testModules(t, "a")
	g := NewGraph(1)

	assert.True(t, g.SetPreOrderIndex(mods[0], 0))
	assert.False(t, g.SetPreOrderIndex(mods[0], 9))
	i, ok := g.PreOrderIndex(mods[0])
	require.True(t, ok)
	assert.Equal(t, 0, i)

	assert.True(t, g.SetPostOrderIndex(mods[0], 1))
	i, ok = g.PostOrderIndex(mods[0])
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestBlockBinding(t *testing.T) {
	dg, _ := testModules(t, "app")
	block := dg.Module("app").RootBlock().AddBlock(depgraph.BlockConfig{Name: "lazy"})

	g := NewGraph(1)
	grp := g.AddGroup(KindDynamic, Options{Name: "lazy"})

	assert.Nil(t, g.BlockGroup(block))
	g.BindBlock(block, grp)
	assert.Same(t, grp, g.BlockGroup(block))
}

// buildHierarchy builds main -> lazy -> deeper plus a dependent entry
// "second" under main with its own dynamic child.
func buildHierarchy(t *testing.T) (g *Graph, chunks map[string]*Chunk) {
	t.Helper()
	g = NewGraph(8)
	chunks = make(map[string]*Chunk)

	add := func(kind Kind, name string) (*Group, *Chunk) {
		grp := g.AddGroup(kind, Options{Name: name})
		c := g.NewChunk(name)
		grp.PushChunk(c)
		chunks[name] = c
		return grp, c
	}

	main, _ := add(KindEntry, "main")
	second, _ := add(KindEntry, "second")
	lazy, _ := add(KindDynamic, "lazy")
	deeper, _ := add(KindDynamic, "deeper")
	lazy2, _ := add(KindDynamic, "lazy2")

	Connect(main, second)
	Connect(main, lazy)
	Connect(lazy, deeper)
	Connect(second, lazy2)
	return g, chunks
}

func TestAllInitialChunks(t *testing.T) {
	_, chunks := buildHierarchy(t)

	got := chunks["main"].AllInitialChunks()
	assert.Equal(t, []*Chunk{chunks["main"], chunks["second"]}, got)
}

func TestAllAsyncChunks(t *testing.T) {
	_, chunks := buildHierarchy(t)

	// Initial child entrypoints extend the initial frontier, so lazy2 is
	// collected while second's chunk is not.
	got := chunks["main"].AllAsyncChunks()
	assert.Equal(t, []*Chunk{chunks["lazy"], chunks["lazy2"], chunks["deeper"]}, got)
}

func TestAllAsyncChunksExcludesSharedInitial(t *testing.T) {
	g := NewGraph(4)
	main := g.AddGroup(KindEntry, Options{Name: "main"})
	mainChunk := g.NewChunk("main")
	main.PushChunk(mainChunk)

	lazy := g.AddGroup(KindDynamic, Options{Name: "lazy"})
	lazyChunk := g.NewChunk("lazy")
	lazy.PushChunk(lazyChunk)
	// The main chunk also appears in the dynamic group; it must not be
	// reported as an async chunk of itself.
	lazy.PushChunk(mainChunk)
	Connect(main, lazy)

	got := mainChunk.AllAsyncChunks()
	assert.Equal(t, []*Chunk{lazyChunk}, got)
}

func TestRemoveGroupDetachesEverything(t *testing.T) {
	_, mods := testModules(t, "a")
	g := NewGraph(1)

	main := g.AddGroup(KindEntry, Options{Name: "main"})
	mainChunk := g.NewChunk("main")
	main.PushChunk(mainChunk)

	lazy := g.AddGroup(KindDynamic, Options{Name: "lazy"})
	lazyChunk := g.NewChunk("lazy")
	lazy.PushChunk(lazyChunk)
	Connect(main, lazy)
	g.AddModuleToChunk(mods[0], lazyChunk)

	g.RemoveGroup(lazy)

	assert.Empty(t, main.Children())
	assert.Equal(t, []*Group{main}, g.Groups())
	assert.Equal(t, []*Chunk{mainChunk}, g.Chunks())
	assert.Nil(t, g.GroupByName("lazy"))
	assert.Empty(t, g.ModuleChunks(mods[0]))
}

func TestRemoveGroupKeepsSharedChunks(t *testing.T) {
	g := NewGraph(0)
	main := g.AddGroup(KindEntry, Options{Name: "main"})
	shared := g.NewChunk("shared")
	main.PushChunk(shared)

	lazy := g.AddGroup(KindDynamic, Options{Name: "lazy"})
	lazy.PushChunk(shared)

	g.RemoveGroup(lazy)

	assert.Equal(t, []*Chunk{shared}, g.Chunks())
	assert.Equal(t, []*Group{main}, shared.Groups())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "entry", KindEntry.String())
	assert.Equal(t, "async-entry", KindAsyncEntry.String())
	assert.Equal(t, "dynamic", KindDynamic.String())
}
