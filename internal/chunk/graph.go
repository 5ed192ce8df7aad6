package chunk

import "github.com/roach88/bento/internal/depgraph"

// Graph owns the produced chunk structure: groups and chunks in creation
// order, the bidirectional chunk/module membership, async block bindings
// and the global traversal indices.
type Graph struct {
	moduleCount int

	groups []*Group
	named  map[string]*Group

	chunks       []*Chunk
	chunkModules map[*Chunk]*ModuleSet
	moduleChunks map[depgraph.ModuleID][]*Chunk

	entryModules map[*Chunk]*ModuleSet

	blockGroups map[*depgraph.Block]*Group

	modulePre  map[depgraph.ModuleID]int
	modulePost map[depgraph.ModuleID]int
}

// NewGraph returns an empty chunk graph for a module graph of the given
// size. The size hints the membership bitsets.
func NewGraph(moduleCount int) *Graph {
	return &Graph{
		moduleCount:  moduleCount,
		named:        make(map[string]*Group),
		chunkModules: make(map[*Chunk]*ModuleSet),
		moduleChunks: make(map[depgraph.ModuleID][]*Chunk),
		entryModules: make(map[*Chunk]*ModuleSet),
		blockGroups:  make(map[*depgraph.Block]*Group),
		modulePre:    make(map[depgraph.ModuleID]int),
		modulePost:   make(map[depgraph.ModuleID]int),
	}
}

// AddGroup creates a group with the next creation index. Named groups are
// registered for lookup.
func (g *Graph) AddGroup(kind Kind, opts Options) *Group {
	grp := &Group{
		kind:    kind,
		options: opts,
		index:   len(g.groups),
	}
	g.groups = append(g.groups, grp)
	if opts.Name != "" {
		g.named[opts.Name] = grp
	}
	return grp
}

// Groups returns all live groups in creation order. Callers must not
// modify the returned slice.
func (g *Graph) Groups() []*Group { return g.groups }

// GroupByName returns the group registered under name, or nil.
func (g *Graph) GroupByName(name string) *Group { return g.named[name] }

// NewChunk creates a chunk. The name may be empty.
func (g *Graph) NewChunk(name string) *Chunk {
	c := &Chunk{name: name}
	g.chunks = append(g.chunks, c)
	g.chunkModules[c] = NewModuleSet(g.moduleCount)
	return c
}

// Chunks returns all live chunks in creation order. Callers must not
// modify the returned slice.
func (g *Graph) Chunks() []*Chunk { return g.chunks }

// AddModuleToChunk binds m to c and reports whether the binding is new.
func (g *Graph) AddModuleToChunk(m *depgraph.Module, c *Chunk) bool {
	set := g.chunkModules[c]
	if !set.Add(m) {
		return false
	}
	g.moduleChunks[m.ID()] = append(g.moduleChunks[m.ID()], c)
	return true
}

// IsModuleInChunk reports whether m is bound to c.
func (g *Graph) IsModuleInChunk(m *depgraph.Module, c *Chunk) bool {
	set, ok := g.chunkModules[c]
	return ok && set.Has(m)
}

// ChunkModules returns c's modules in binding order. Callers must not
// modify the returned slice.
func (g *Graph) ChunkModules(c *Chunk) []*depgraph.Module {
	return g.chunkModules[c].Modules()
}

// ChunkModuleSet returns c's membership set, or nil for unknown chunks.
func (g *Graph) ChunkModuleSet(c *Chunk) *ModuleSet {
	return g.chunkModules[c]
}

// NumChunkModules returns the number of modules bound to c.
func (g *Graph) NumChunkModules(c *Chunk) int {
	return g.chunkModules[c].Len()
}

// ModuleChunks returns the chunks m is bound to, in binding order. Callers
// must not modify the returned slice.
func (g *Graph) ModuleChunks(m *depgraph.Module) []*Chunk {
	return g.moduleChunks[m.ID()]
}

// ConnectEntryModule records m as an entry module of c for grp. Entry
// modules are the roots the artifact executes on startup.
func (g *Graph) ConnectEntryModule(m *depgraph.Module, c *Chunk, grp *Group) {
	set, ok := g.entryModules[c]
	if !ok {
		set = NewModuleSet(g.moduleCount)
		g.entryModules[c] = set
	}
	set.Add(m)
}

// EntryModules returns c's entry modules in registration order.
func (g *Graph) EntryModules(c *Chunk) []*depgraph.Module {
	set, ok := g.entryModules[c]
	if !ok {
		return nil
	}
	return set.Modules()
}

// BindBlock associates an async block with the group loading it.
func (g *Graph) BindBlock(b *depgraph.Block, grp *Group) {
	g.blockGroups[b] = grp
}

// BlockGroup returns the group an async block resolves to. Nil means the
// block's modules were inlined and no load is needed.
func (g *Graph) BlockGroup(b *depgraph.Block) *Group { return g.blockGroups[b] }

// SetPreOrderIndex records the global pre-order number for m if none was
// assigned yet, reporting whether it did.
func (g *Graph) SetPreOrderIndex(m *depgraph.Module, index int) bool {
	if _, ok := g.modulePre[m.ID()]; ok {
		return false
	}
	g.modulePre[m.ID()] = index
	return true
}

// PreOrderIndex returns the global pre-order number for m.
func (g *Graph) PreOrderIndex(m *depgraph.Module) (int, bool) {
	i, ok := g.modulePre[m.ID()]
	return i, ok
}

// SetPostOrderIndex records the global post-order number for m if none was
// assigned yet, reporting whether it did.
func (g *Graph) SetPostOrderIndex(m *depgraph.Module, index int) bool {
	if _, ok := g.modulePost[m.ID()]; ok {
		return false
	}
	g.modulePost[m.ID()] = index
	return true
}

// PostOrderIndex returns the global post-order number for m.
func (g *Graph) PostOrderIndex(m *depgraph.Module) (int, bool) {
	i, ok := g.modulePost[m.ID()]
	return i, ok
}

// RemoveGroup deletes a group that ended up unconnected, detaching its
// edges and dropping chunks that belonged only to it.
func (g *Graph) RemoveGroup(grp *Group) {
	for _, child := range grp.children {
		child.removeParent(grp)
	}
	for _, parent := range grp.parents {
		parent.removeChild(grp)
	}
	grp.children = nil
	grp.childSet = nil
	grp.parents = nil
	grp.parentSet = nil

	for _, c := range grp.chunks {
		c.removeGroup(grp)
		if len(c.groups) == 0 {
			g.removeChunk(c)
		}
	}
	grp.chunks = nil

	if grp.options.Name != "" && g.named[grp.options.Name] == grp {
		delete(g.named, grp.options.Name)
	}
	for i, other := range g.groups {
		if other == grp {
			g.groups = append(g.groups[:i], g.groups[i+1:]...)
			break
		}
	}
}

func (g *Graph) removeChunk(c *Chunk) {
	set := g.chunkModules[c]
	if set != nil {
		for _, m := range set.Modules() {
			chunks := g.moduleChunks[m.ID()]
			for i, other := range chunks {
				if other == c {
					g.moduleChunks[m.ID()] = append(chunks[:i], chunks[i+1:]...)
					break
				}
			}
		}
	}
	delete(g.chunkModules, c)
	delete(g.entryModules, c)
	for i, other := range g.chunks {
		if other == c {
			g.chunks = append(g.chunks[:i], g.chunks[i+1:]...)
			break
		}
	}
}
