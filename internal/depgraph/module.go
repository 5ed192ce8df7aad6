package depgraph

// ModuleID is a dense handle assigned by the graph in insertion order.
// Higher layers use it to key index based sets.
type ModuleID int32

// Module is an externally owned unit of source content. The graph tracks
// only its identity, a human readable name and its dependency block tree.
type Module struct {
	id   ModuleID
	name string
	root *Block
}

// ID returns the dense module handle.
func (m *Module) ID() ModuleID { return m.id }

// Name returns the module's identifier as given at assembly time.
func (m *Module) Name() string { return m.name }

// RootBlock returns the block holding the module's direct dependencies.
func (m *Module) RootBlock() *Block { return m.root }

func (m *Module) String() string { return m.name }
