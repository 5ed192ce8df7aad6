package builder

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/bento/internal/depgraph"
)

// availSet is a two-level module set: a private base plus a shared tail.
// The split lets a group hand its whole minimum to children as their
// shared tail without copying it.
//
// INVARIANTS:
//   - base and plus are disjoint, so size is the sum of both counts.
//   - A bitset reachable from more than one availSet is never mutated in
//     place; it is only replaced wholesale. Whether the owning groupInfo
//     may update its minimum in place is tracked by minAvailableOwned.
type availSet struct {
	base *bitset.BitSet
	plus *bitset.BitSet
}

func newAvailSet(n int) *availSet {
	return &availSet{base: bitset.New(uint(n)), plus: bitset.New(uint(n))}
}

func (s *availSet) has(id depgraph.ModuleID) bool {
	u := uint(id)
	return s.base.Test(u) || s.plus.Test(u)
}

func (s *availSet) size() uint {
	return s.base.Count() + s.plus.Count()
}

// flat returns base and plus unioned into a fresh bitset.
func (s *availSet) flat() *bitset.BitSet {
	return s.base.Union(s.plus)
}

// containsAll reports whether every member of m is in the set.
func (s *availSet) containsAll(m *bitset.BitSet) bool {
	rest := m.Difference(s.base)
	rest.InPlaceDifference(s.plus)
	return rest.None()
}

// moduleList is an insertion-ordered module set used to park skipped work.
// The member map is only probed, never iterated.
type moduleList struct {
	items  []*depgraph.Module
	member map[depgraph.ModuleID]struct{}
}

func (l *moduleList) add(m *depgraph.Module) {
	if l.member == nil {
		l.member = make(map[depgraph.ModuleID]struct{})
	}
	if _, ok := l.member[m.ID()]; ok {
		return
	}
	l.member[m.ID()] = struct{}{}
	l.items = append(l.items, m)
}

func (l *moduleList) len() int { return len(l.items) }
