package chunk

import (
	"fmt"

	"github.com/roach88/bento/internal/depgraph"
)

// Kind classifies a chunk group.
type Kind uint8

const (
	// KindEntry is a top level entrypoint, part of the initial load.
	KindEntry Kind = iota
	// KindAsyncEntry is an entrypoint declared at an async boundary. It
	// starts its own runtime and is not part of the initial load.
	KindAsyncEntry
	// KindDynamic is an ordinary dynamic import site.
	KindDynamic
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindAsyncEntry:
		return "async-entry"
	case KindDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Options carries the configuration a boundary requests for its group.
type Options struct {
	Name string
	// Entry is non-nil for entry and async entry groups.
	Entry *depgraph.EntryOptions
}

// Group is an ordered collection of chunks forming one loadable unit,
// linked parent/child to other groups. Groups are created by chunk graph
// construction and become read only once it finishes.
type Group struct {
	kind    Kind
	options Options
	// index is the stable creation order position, assigned by the Graph.
	index int

	chunks []*Chunk

	parents   []*Group
	parentSet map[*Group]struct{}
	children  []*Group
	childSet  map[*Group]struct{}
	// asyncEntries are async entrypoints requested below this group. They
	// are tracked separately from children because they start their own
	// runtime and do not inherit availability.
	asyncEntries []*Group
	asyncSet     map[*Group]struct{}

	// Traversal order numbers per module, used by the later deterministic
	// id assignment stage.
	modulePre  map[depgraph.ModuleID]int
	modulePost map[depgraph.ModuleID]int
}

// Kind returns the group's classification.
func (g *Group) Kind() Kind { return g.kind }

// Initial reports whether the group is part of the synchronous initial
// load. Async entrypoints are not: they start on demand.
func (g *Group) Initial() bool { return g.kind == KindEntry }

// Name returns the group's name. May be empty for unnamed dynamic groups.
func (g *Group) Name() string { return g.options.Name }

// Options returns the group's current option set.
func (g *Group) Options() Options { return g.options }

// Index returns the stable creation order index.
func (g *Group) Index() int { return g.index }

// Chunks returns the group's chunks in order. Callers must not modify the
// returned slice.
func (g *Group) Chunks() []*Chunk { return g.chunks }

// PushChunk appends c to the group and records the back reference.
func (g *Group) PushChunk(c *Chunk) {
	if g.hasChunk(c) {
		return
	}
	g.chunks = append(g.chunks, c)
	c.addGroup(g)
}

func (g *Group) hasChunk(c *Chunk) bool {
	return c.InGroup(g)
}

// Parents returns the parent groups in insertion order. Callers must not
// modify the returned slice.
func (g *Group) Parents() []*Group { return g.parents }

// NumParents returns the number of parent groups.
func (g *Group) NumParents() int { return len(g.parents) }

// Children returns the child groups in insertion order. Callers must not
// modify the returned slice.
func (g *Group) Children() []*Group { return g.children }

// AsyncEntries returns async entrypoints requested below this group.
func (g *Group) AsyncEntries() []*Group { return g.asyncEntries }

// AddAsyncEntry records an async entrypoint requested below this group.
func (g *Group) AddAsyncEntry(entry *Group) {
	if _, ok := g.asyncSet[entry]; ok {
		return
	}
	if g.asyncSet == nil {
		g.asyncSet = make(map[*Group]struct{})
	}
	g.asyncSet[entry] = struct{}{}
	g.asyncEntries = append(g.asyncEntries, entry)
}

// Connect links parent and child, keeping both back references. Adding an
// existing edge is a no-op.
func Connect(parent, child *Group) {
	if _, ok := parent.childSet[child]; !ok {
		if parent.childSet == nil {
			parent.childSet = make(map[*Group]struct{})
		}
		parent.childSet[child] = struct{}{}
		parent.children = append(parent.children, child)
	}
	if _, ok := child.parentSet[parent]; !ok {
		if child.parentSet == nil {
			child.parentSet = make(map[*Group]struct{})
		}
		child.parentSet[parent] = struct{}{}
		child.parents = append(child.parents, parent)
	}
}

func (g *Group) removeParent(parent *Group) {
	if _, ok := g.parentSet[parent]; !ok {
		return
	}
	delete(g.parentSet, parent)
	for i, p := range g.parents {
		if p == parent {
			g.parents = append(g.parents[:i], g.parents[i+1:]...)
			break
		}
	}
}

func (g *Group) removeChild(child *Group) {
	if _, ok := g.childSet[child]; !ok {
		return
	}
	delete(g.childSet, child)
	for i, c := range g.children {
		if c == child {
			g.children = append(g.children[:i], g.children[i+1:]...)
			break
		}
	}
}

// MergeOptions folds the options of another boundary resolving to this
// group into the group's own. Conflicting requests return an error; the
// existing options win and the caller records the conflict.
func (g *Group) MergeOptions(o Options) error {
	if o.Name != "" {
		if g.options.Name == "" {
			g.options.Name = o.Name
		} else if g.options.Name != o.Name {
			return fmt.Errorf("chunk group name %q conflicts with %q", o.Name, g.options.Name)
		}
	}
	if o.Entry != nil {
		if g.options.Entry == nil {
			g.options.Entry = o.Entry
		} else if !g.options.Entry.Equal(o.Entry) {
			return fmt.Errorf("entry options for chunk group %q conflict", g.options.Name)
		}
	}
	return nil
}

// SetModulePreOrderIndex records the group local pre-order number for m if
// none was assigned yet.
func (g *Group) SetModulePreOrderIndex(m *depgraph.Module, index int) bool {
	if g.modulePre == nil {
		g.modulePre = make(map[depgraph.ModuleID]int)
	}
	if _, ok := g.modulePre[m.ID()]; ok {
		return false
	}
	g.modulePre[m.ID()] = index
	return true
}

// ModulePreOrderIndex returns the group local pre-order number for m.
func (g *Group) ModulePreOrderIndex(m *depgraph.Module) (int, bool) {
	i, ok := g.modulePre[m.ID()]
	return i, ok
}

// SetModulePostOrderIndex records the group local post-order number for m
// if none was assigned yet.
func (g *Group) SetModulePostOrderIndex(m *depgraph.Module, index int) bool {
	if g.modulePost == nil {
		g.modulePost = make(map[depgraph.ModuleID]int)
	}
	if _, ok := g.modulePost[m.ID()]; ok {
		return false
	}
	g.modulePost[m.ID()] = index
	return true
}

// ModulePostOrderIndex returns the group local post-order number for m.
func (g *Group) ModulePostOrderIndex(m *depgraph.Module) (int, bool) {
	i, ok := g.modulePost[m.ID()]
	return i, ok
}

func (g *Group) String() string {
	if g.options.Name != "" {
		return fmt.Sprintf("%s(%s)", g.kind, g.options.Name)
	}
	return fmt.Sprintf("%s#%d", g.kind, g.index)
}
