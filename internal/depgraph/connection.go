package depgraph

// Connection is a resolved edge: Origin depends on Module through Dep.
// Connections are the only way chunk graph construction learns that one
// module depends on another.
type Connection struct {
	Origin *Module
	Dep    *Dependency
	// Module is the resolved target. Nil when upstream resolution failed;
	// such connections are skipped during traversal.
	Module *Module
}

// ActiveState reports the activation of the connection for rt.
func (c *Connection) ActiveState(rt RuntimeSpec) ActiveState {
	if c.Dep == nil {
		return ActiveNever
	}
	return c.Dep.ActiveState(rt)
}

// MergeActiveStates merges the activation of several connections to the
// same module under one runtime. Merging stops early once a connection is
// always active since no other state can override it.
func MergeActiveStates(conns []*Connection, rt RuntimeSpec) ActiveState {
	merged := ActiveNever
	for _, c := range conns {
		merged = merged.Merge(c.ActiveState(rt))
		if merged == ActiveAlways {
			return merged
		}
	}
	return merged
}
