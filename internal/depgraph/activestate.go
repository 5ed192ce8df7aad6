package depgraph

// ActiveState describes whether a connection is used for a given runtime.
//
// The ordering of the constants matters: merging two states keeps the
// stronger one, and ActiveNever < ActiveConditional < ActiveAlways.
type ActiveState uint8

const (
	// ActiveNever marks a connection that is never used for the runtime.
	ActiveNever ActiveState = iota
	// ActiveConditional marks a connection that may be used depending on
	// conditions that cannot be decided statically for the runtime.
	ActiveConditional
	// ActiveAlways marks a connection that is always used.
	ActiveAlways
)

// Merge combines two activation states. Any always dominates, conditional
// plus conditional stays conditional.
func (s ActiveState) Merge(o ActiveState) ActiveState {
	if o > s {
		return o
	}
	return s
}

func (s ActiveState) String() string {
	switch s {
	case ActiveNever:
		return "never"
	case ActiveConditional:
		return "conditional"
	case ActiveAlways:
		return "always"
	default:
		return "unknown"
	}
}
