package depgraph

// Condition reports the activation of a dependency for a runtime spec.
type Condition func(RuntimeSpec) ActiveState

// Dependency is an edge descriptor owned by its originating module's block
// tree. Identity is pointer identity; the same Dependency value must not be
// attached to two blocks.
type Dependency struct {
	// Weak references never force the target module to load.
	Weak bool
	// Condition gates activation per runtime. Nil means always active.
	Condition Condition
	// Loc is the source position of the reference, for diagnostics.
	Loc Loc
}

// ActiveState evaluates the dependency's activation for rt.
func (d *Dependency) ActiveState(rt RuntimeSpec) ActiveState {
	if d.Condition == nil {
		return ActiveAlways
	}
	return d.Condition(rt)
}

// NeverActive returns a condition that disables the dependency entirely.
func NeverActive() Condition {
	return func(RuntimeSpec) ActiveState { return ActiveNever }
}

// ConditionallyActive returns a condition that keeps the dependency
// reachable without guaranteeing inclusion.
func ConditionallyActive() Condition {
	return func(RuntimeSpec) ActiveState { return ActiveConditional }
}

// ActiveInRuntimes returns a condition that activates the dependency exactly
// in the given runtimes.
//
// For a query spec that mixes listed and unlisted runtimes the result is
// conditional: the connection is used in some of the runtimes but not all of
// them. An empty query spec is also conditional because the runtime is not
// known yet.
func ActiveInRuntimes(rts ...Runtime) Condition {
	set := make(map[Runtime]bool, len(rts))
	for _, rt := range rts {
		set[rt] = true
	}
	return func(query RuntimeSpec) ActiveState {
		if len(query) == 0 {
			return ActiveConditional
		}
		matched := 0
		for _, rt := range query {
			if set[rt] {
				matched++
			}
		}
		switch matched {
		case 0:
			return ActiveNever
		case len(query):
			return ActiveAlways
		default:
			return ActiveConditional
		}
	}
}
