package depgraph

// EntryOptions configures an entrypoint, either a top level entry or one
// declared by an async entry block.
type EntryOptions struct {
	Name string
	// Runtime names the runtime the entry executes under. Empty means the
	// entry name is used.
	Runtime Runtime
	// DependOn lists entries whose modules are guaranteed loaded before
	// this one starts.
	DependOn []string
	// AsyncChunks controls whether dynamic boundaries below this entry may
	// create new chunks. Nil means enabled.
	AsyncChunks *bool
}

// Equal reports whether both option sets request the same entry behavior.
func (o *EntryOptions) Equal(p *EntryOptions) bool {
	if o == nil || p == nil {
		return o == p
	}
	if o.Name != p.Name || o.Runtime != p.Runtime {
		return false
	}
	if (o.AsyncChunks == nil) != (p.AsyncChunks == nil) {
		return false
	}
	if o.AsyncChunks != nil && *o.AsyncChunks != *p.AsyncChunks {
		return false
	}
	if len(o.DependOn) != len(p.DependOn) {
		return false
	}
	for i := range o.DependOn {
		if o.DependOn[i] != p.DependOn[i] {
			return false
		}
	}
	return true
}

// BlockConfig configures a nested async block.
type BlockConfig struct {
	// Name is an optional grouping hint. Boundaries sharing a name resolve
	// to one chunk group.
	Name string
	// Entry marks the block as an async entrypoint with its own options.
	Entry *EntryOptions
	// Loc is the source position of the boundary.
	Loc Loc
}

// Block groups the dependencies owned by one module or by one async
// boundary nested inside it. The root block of a module has a nil parent;
// every other block marks an async boundary.
type Block struct {
	owner    *Module
	parent   *Block
	deps     []*Dependency
	children []*Block

	name  string
	entry *EntryOptions
	loc   Loc
}

// Owner returns the module whose block tree contains b.
func (b *Block) Owner() *Module { return b.owner }

// Parent returns the enclosing block, or nil for a module's root block.
func (b *Block) Parent() *Block { return b.parent }

// Async reports whether b marks an async boundary.
func (b *Block) Async() bool { return b.parent != nil }

// Name returns the optional grouping hint of an async block.
func (b *Block) Name() string { return b.name }

// EntryOptions returns the async entry options, or nil for ordinary blocks.
func (b *Block) EntryOptions() *EntryOptions { return b.entry }

// Loc returns the source position of the boundary.
func (b *Block) Loc() Loc { return b.loc }

// Dependencies returns the ordered dependency list. Callers must not modify
// the returned slice.
func (b *Block) Dependencies() []*Dependency { return b.deps }

// Blocks returns the nested async blocks in declaration order. Callers must
// not modify the returned slice.
func (b *Block) Blocks() []*Block { return b.children }

// AddBlock appends a nested async block and returns it.
func (b *Block) AddBlock(cfg BlockConfig) *Block {
	child := &Block{
		owner:  b.owner,
		parent: b,
		name:   cfg.Name,
		entry:  cfg.Entry,
		loc:    cfg.Loc,
	}
	b.children = append(b.children, child)
	return child
}

// AddDependency appends d without registering a position on the graph.
// Graph.AddDependency is the normal path; this exists for graphs assembled
// by tooling that tracks positions itself, paired with SetParentBlock.
func (b *Block) AddDependency(d *Dependency) {
	b.deps = append(b.deps, d)
}

// IndexOf returns the position of d in the dependency list, or -1. Used as
// the identity based fallback when no position was registered for d.
func (b *Block) IndexOf(d *Dependency) int {
	for i, dep := range b.deps {
		if dep == d {
			return i
		}
	}
	return -1
}
