package builder

import (
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bento/internal/depgraph"
)

func bits(n uint, members ...uint) *bitset.BitSet {
	b := bitset.New(n)
	for _, m := range members {
		b.Set(m)
	}
	return b
}

func TestAvailSet(t *testing.T) {
	s := &availSet{base: bits(8, 0, 2), plus: bits(8, 5)}

	assert.True(t, s.has(depgraph.ModuleID(0)))
	assert.True(t, s.has(depgraph.ModuleID(5)), "plus members count")
	assert.False(t, s.has(depgraph.ModuleID(1)))
	assert.Equal(t, uint(3), s.size())

	assert.True(t, s.containsAll(bits(8, 0, 5)))
	assert.False(t, s.containsAll(bits(8, 0, 1)))
	assert.True(t, s.containsAll(bits(8)), "empty set is always contained")

	flat := s.flat()
	assert.Equal(t, uint(3), flat.Count())
	flat.Set(7)
	assert.False(t, s.has(depgraph.ModuleID(7)), "flat is a copy")
}

func TestMergeIntoAdoptsFirstContribution(t *testing.T) {
	b := &builder{moduleCount: 8}
	info := &groupInfo{}
	avail := &availSet{base: bits(8, 1, 2), plus: bits(8)}

	require.True(t, b.mergeInto(info, avail))
	assert.Same(t, avail, info.minAvailable, "first contribution is adopted by reference")
	assert.False(t, info.minAvailableOwned)

	assert.False(t, b.mergeInto(info, avail), "re-merging the same set changes nothing")
}

func TestMergeIntoSharedTailForks(t *testing.T) {
	b := &builder{moduleCount: 8}
	tail := bits(8, 7)
	min := &availSet{base: bits(8, 1, 2, 3), plus: tail}
	info := &groupInfo{minAvailable: min, minAvailableOwned: false}

	changed := b.mergeInto(info, &availSet{base: bits(8, 2, 3), plus: tail})

	require.True(t, changed)
	assert.NotSame(t, min, info.minAvailable, "unowned sets fork on shrink")
	assert.True(t, info.minAvailableOwned)
	assert.Same(t, tail, info.minAvailable.plus, "shared tail stays shared")
	assert.Equal(t, uint(4), min.size(), "the adopted set is untouched")
	assert.False(t, info.minAvailable.has(depgraph.ModuleID(1)))
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(2)))
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(7)))
}

func TestMergeIntoSharedTailInPlaceWhenOwned(t *testing.T) {
	b := &builder{moduleCount: 8}
	tail := bits(8)
	min := &availSet{base: bits(8, 1, 2), plus: tail}
	info := &groupInfo{minAvailable: min, minAvailableOwned: true}

	require.True(t, b.mergeInto(info, &availSet{base: bits(8, 2), plus: tail}))
	assert.Same(t, min, info.minAvailable)
	assert.Equal(t, uint(1), min.size())
}

func TestMergeIntoKeepsSurvivingTail(t *testing.T) {
	b := &builder{moduleCount: 8}
	tail := bits(8, 6)
	min := &availSet{base: bits(8, 1, 2), plus: tail}
	info := &groupInfo{minAvailable: min, minAvailableOwned: true}

	// Different tail object, but a superset of ours: the tail survives.
	changed := b.mergeInto(info, &availSet{base: bits(8, 2, 6), plus: bits(8, 3)})

	require.True(t, changed)
	assert.Same(t, tail, info.minAvailable.plus)
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(2)))
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(6)))
	assert.False(t, info.minAvailable.has(depgraph.ModuleID(1)))
}

func TestMergeIntoFoldsBrokenTail(t *testing.T) {
	b := &builder{moduleCount: 8}
	min := &availSet{base: bits(8, 1), plus: bits(8, 5, 6)}
	info := &groupInfo{minAvailable: min, minAvailableOwned: false}

	// 6 is missing from the contribution, so the tail cannot be shared.
	changed := b.mergeInto(info, &availSet{base: bits(8, 1, 5), plus: bits(8)})

	require.True(t, changed)
	assert.True(t, info.minAvailableOwned)
	assert.Equal(t, uint(2), info.minAvailable.size())
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(1)))
	assert.True(t, info.minAvailable.has(depgraph.ModuleID(5)))
	assert.False(t, info.minAvailable.has(depgraph.ModuleID(6)))
	assert.True(t, info.minAvailable.plus.None(), "folded sets have an empty tail")
}

func TestMergeIntoUnchangedReportsFalse(t *testing.T) {
	b := &builder{moduleCount: 8}
	min := &availSet{base: bits(8, 1), plus: bits(8, 5)}
	info := &groupInfo{minAvailable: min, minAvailableOwned: false}

	changed := b.mergeInto(info, &availSet{base: bits(8, 1, 2, 5), plus: bits(8, 3)})

	assert.False(t, changed)
	assert.Same(t, min, info.minAvailable, "no fork when nothing shrinks")
}

func TestModuleList(t *testing.T) {
	g := depgraph.New()
	a := g.MustAddModule("a")
	c := g.MustAddModule("c")

	var l moduleList
	l.add(a)
	l.add(c)
	l.add(a)

	assert.Equal(t, 2, l.len())
	assert.Equal(t, []*depgraph.Module{a, c}, l.items)
}

func TestInfoSetOrderAndClear(t *testing.T) {
	s := newInfoSet()
	a, b, c := &groupInfo{}, &groupInfo{}, &groupInfo{}
	s.add(b)
	s.add(a)
	s.add(b)
	s.add(c)

	assert.Equal(t, []*groupInfo{b, a, c}, s.items)

	s.clear()
	assert.Equal(t, 0, s.len())
	s.add(c)
	assert.Equal(t, []*groupInfo{c}, s.items)
}

func TestConnectQueueGroupsByOrigin(t *testing.T) {
	q := newConnectQueue()
	o1, o2, t1, t2 := &groupInfo{}, &groupInfo{}, &groupInfo{}, &groupInfo{}

	q.add(o1, t1)
	q.add(o2, t2)
	q.add(o1, t2)
	q.add(o1, t1)

	require.Equal(t, 2, q.len())
	assert.Equal(t, []*groupInfo{o1, o2}, q.origins)
	assert.Equal(t, []*groupInfo{t1, t2}, q.targets[o1].items)
	assert.Equal(t, []*groupInfo{t2}, q.targets[o2].items)
}
