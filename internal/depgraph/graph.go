package depgraph

import "fmt"

// Graph is the module dependency graph consumed by chunk graph
// construction. An upstream stage assembles it; afterwards it is read only.
//
// The graph also keeps the dependency to parent block relation used to
// place a connection at its declaration position during block extraction.
type Graph struct {
	modules []*Module
	byName  map[string]*Module
	// outgoing connections by module id, insertion ordered
	out [][]*Connection

	parentBlock map[*Dependency]*Block
	parentIndex map[*Dependency]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		byName:      make(map[string]*Module),
		parentBlock: make(map[*Dependency]*Block),
		parentIndex: make(map[*Dependency]int),
	}
}

// AddModule creates a module with the next dense id. Names must be unique;
// they identify modules in definitions, diagnostics and snapshots.
func (g *Graph) AddModule(name string) (*Module, error) {
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("depgraph: duplicate module %q", name)
	}
	m := &Module{
		id:   ModuleID(len(g.modules)),
		name: name,
	}
	m.root = &Block{owner: m}
	g.modules = append(g.modules, m)
	g.byName[name] = m
	g.out = append(g.out, nil)
	return m, nil
}

// MustAddModule is AddModule that panics on duplicate names. Intended for
// fixtures and generated graphs.
func (g *Graph) MustAddModule(name string) *Module {
	m, err := g.AddModule(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Module returns the module with the given name, or nil.
func (g *Graph) Module(name string) *Module { return g.byName[name] }

// ModuleByID returns the module with the given id, or nil.
func (g *Graph) ModuleByID(id ModuleID) *Module {
	if id < 0 || int(id) >= len(g.modules) {
		return nil
	}
	return g.modules[id]
}

// Modules returns all modules in insertion order. Callers must not modify
// the returned slice.
func (g *Graph) Modules() []*Module { return g.modules }

// NumModules returns the number of modules, which is also the exclusive
// upper bound of all module ids.
func (g *Graph) NumModules() int { return len(g.modules) }

// AddDependency appends d to block's dependency list and records its parent
// block and position for extraction.
func (g *Graph) AddDependency(b *Block, d *Dependency) {
	g.parentBlock[d] = b
	g.parentIndex[d] = len(b.deps)
	b.deps = append(b.deps, d)
}

// SetParentBlock records b as d's parent block without a position. Lookups
// then fall back to an identity scan of the block's dependency list.
func (g *Graph) SetParentBlock(d *Dependency, b *Block) {
	g.parentBlock[d] = b
}

// Connect records the resolved connection for d on origin's outgoing list.
// A nil target is allowed and marks a connection whose resolution failed
// upstream.
func (g *Graph) Connect(origin *Module, d *Dependency, target *Module) *Connection {
	c := &Connection{Origin: origin, Dep: d, Module: target}
	g.out[origin.id] = append(g.out[origin.id], c)
	return c
}

// Link appends d to block, records its position and resolves it to target
// on origin's outgoing list. block must belong to origin's block tree.
func (g *Graph) Link(origin *Module, b *Block, d *Dependency, target *Module) *Connection {
	if b.owner != origin {
		panic(fmt.Sprintf("depgraph: block of module %q linked from module %q", b.owner.name, origin.name))
	}
	g.AddDependency(b, d)
	return g.Connect(origin, d, target)
}

// Outgoing returns origin's connections in insertion order. Callers must
// not modify the returned slice.
func (g *Graph) Outgoing(m *Module) []*Connection { return g.out[m.id] }

// ParentBlock returns the block d belongs to, or nil when unknown.
func (g *Graph) ParentBlock(d *Dependency) *Block { return g.parentBlock[d] }

// ParentBlockIndex returns d's declaration position within its parent
// block, or -1 when no position was registered.
func (g *Graph) ParentBlockIndex(d *Dependency) int {
	if i, ok := g.parentIndex[d]; ok {
		return i
	}
	return -1
}
