package chunk

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/bento/internal/depgraph"
)

// ModuleSet is an insertion ordered set of modules with constant time
// membership tests keyed by dense module id.
type ModuleSet struct {
	ordered []*depgraph.Module
	members *bitset.BitSet
}

// NewModuleSet returns an empty set sized for graphs of about n modules.
func NewModuleSet(n int) *ModuleSet {
	return &ModuleSet{members: bitset.New(uint(n))}
}

// Add inserts m and reports whether it was not already present.
func (s *ModuleSet) Add(m *depgraph.Module) bool {
	id := uint(m.ID())
	if s.members.Test(id) {
		return false
	}
	s.members.Set(id)
	s.ordered = append(s.ordered, m)
	return true
}

// Has reports whether m is in the set.
func (s *ModuleSet) Has(m *depgraph.Module) bool {
	return s.members.Test(uint(m.ID()))
}

// Len returns the number of modules in the set.
func (s *ModuleSet) Len() int { return len(s.ordered) }

// Modules returns the members in insertion order. Callers must not modify
// the returned slice.
func (s *ModuleSet) Modules() []*depgraph.Module { return s.ordered }

// Bits returns the membership bitset keyed by module id. Callers must not
// modify the returned set.
func (s *ModuleSet) Bits() *bitset.BitSet { return s.members }
