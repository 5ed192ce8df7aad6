package depgraph

import (
	"slices"
	"strings"
)

// Runtime identifies one runtime execution context, such as "web" or "node".
type Runtime string

// RuntimeSpec is a sorted, de-duplicated set of runtimes. A nil spec means
// the runtime is not yet known; activation predicates treat it as "could be
// any runtime".
//
// Specs are immutable after construction and may be shared freely. Merge
// never mutates its receiver.
type RuntimeSpec []Runtime

// NewRuntimeSpec builds a spec from the given runtimes.
func NewRuntimeSpec(rts ...Runtime) RuntimeSpec {
	if len(rts) == 0 {
		return nil
	}
	s := make(RuntimeSpec, len(rts))
	copy(s, rts)
	slices.Sort(s)
	return slices.Compact(s)
}

// Contains reports whether rt is part of the spec.
func (s RuntimeSpec) Contains(rt Runtime) bool {
	for _, r := range s {
		if r == rt {
			return true
		}
	}
	return false
}

// Empty reports whether the spec names no runtime.
func (s RuntimeSpec) Empty() bool { return len(s) == 0 }

// Equal reports whether both specs name the same runtimes.
func (s RuntimeSpec) Equal(o RuntimeSpec) bool {
	return slices.Equal(s, o)
}

// Merge returns the union of s and o. The second result reports whether the
// union differs from s, which callers use to propagate runtime changes.
func (s RuntimeSpec) Merge(o RuntimeSpec) (RuntimeSpec, bool) {
	if len(o) == 0 {
		return s, false
	}
	if len(s) == 0 {
		return o, true
	}
	// Fast path: o is a subset of s.
	subset := true
	for _, r := range o {
		if !s.Contains(r) {
			subset = false
			break
		}
	}
	if subset {
		return s, false
	}
	merged := make(RuntimeSpec, 0, len(s)+len(o))
	merged = append(merged, s...)
	merged = append(merged, o...)
	slices.Sort(merged)
	return slices.Compact(merged), true
}

// Key returns a canonical string form used as a cache key. Distinct specs
// always produce distinct keys because the slice is sorted.
func (s RuntimeSpec) Key() string {
	switch len(s) {
	case 0:
		return ""
	case 1:
		return string(s[0])
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(string(r))
	}
	return b.String()
}

func (s RuntimeSpec) String() string {
	if len(s) == 0 {
		return "(unknown runtime)"
	}
	return s.Key()
}
