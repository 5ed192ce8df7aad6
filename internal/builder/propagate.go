package builder

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/roach88/bento/internal/depgraph"
)

// processConnect turns queued parent-child edges into merge work: each
// target receives the origin's resulting availability and the origin's
// runtime is folded into the target's.
func (b *builder) processConnect() {
	for _, origin := range b.connect.origins {
		targets := b.connect.targets[origin]
		if origin.children == nil {
			origin.children = newInfoSet()
		}
		origin.children.addAll(targets.items)

		res := b.resultingAvailable(origin)
		for _, target := range targets.items {
			target.toMerge = append(target.toMerge, res)
			b.merging.add(target)
			if merged, changed := target.runtime.Merge(origin.runtime); changed {
				target.runtime = merged
				b.outdated.add(target)
			}
		}
		b.stats.GroupsConnected += targets.len()
	}
	b.connect.clear()
}

// resultingAvailable returns the modules available once info's group has
// loaded: the minimum plus the group's own chunk modules. The result is
// cached until the minimum changes.
func (b *builder) resultingAvailable(info *groupInfo) *availSet {
	if info.resulting != nil {
		return info.resulting
	}
	min := info.minAvailable
	var res *availSet
	if min.base.Count() > min.plus.Count() {
		// Share the whole minimum as the tail of the result. The tail is
		// flattened first so shared parts stay one level deep. Rebinding
		// instead of mutating keeps previously handed out bitsets intact.
		min.base = min.base.Union(min.plus)
		min.plus = bitset.New(uint(b.moduleCount))
		info.minAvailableOwned = false
		res = &availSet{base: bitset.New(uint(b.moduleCount)), plus: min.base}
	} else {
		res = &availSet{base: min.base.Clone(), plus: min.plus}
	}
	for _, c := range info.group.Chunks() {
		if ms := b.cg.ChunkModuleSet(c); ms != nil {
			res.base.InPlaceUnion(ms.Bits())
		}
	}
	res.base.InPlaceDifference(res.plus)
	info.resulting = res
	return res
}

// processMerging intersects each target's minimum with the buffered parent
// contributions. Smaller contributions are applied first; they shrink the
// minimum fastest.
func (b *builder) processMerging() {
	for _, info := range b.merging.items {
		b.stats.MergedSets += len(info.toMerge)
		if len(info.toMerge) > 1 {
			sort.SliceStable(info.toMerge, func(i, j int) bool {
				return info.toMerge[i].size() < info.toMerge[j].size()
			})
		}
		changed := false
		for _, avail := range info.toMerge {
			if b.mergeInto(info, avail) {
				changed = true
			}
		}
		info.toMerge = info.toMerge[:0]
		if changed {
			info.resulting = nil
			b.outdated.add(info)
		}
	}
	b.merging.clear()
}

// mergeInto narrows info's minimum to its intersection with avail and
// reports whether it changed. The first contribution is adopted by
// reference; later ones intersect in place when the minimum is owned and
// fork it otherwise.
func (b *builder) mergeInto(info *groupInfo, avail *availSet) bool {
	min := info.minAvailable
	if min == nil {
		info.minAvailable = avail
		info.minAvailableOwned = false
		return true
	}
	if min == avail {
		return false
	}

	if min.plus == avail.plus {
		// Shared tail, only the bases can differ.
		inter := min.base.Intersection(avail.base)
		if inter.Count() == min.base.Count() {
			return false
		}
		if info.minAvailableOwned {
			min.base = inter
		} else {
			info.minAvailable = &availSet{base: inter, plus: min.plus}
			info.minAvailableOwned = true
			b.stats.ForkedSets++
		}
		return true
	}

	flat := avail.flat()
	baseInter := min.base.Intersection(flat)
	baseChanged := baseInter.Count() != min.base.Count()
	if flat.IsSuperSet(min.plus) {
		// The whole tail survives, keep sharing it.
		if !baseChanged {
			return false
		}
		if info.minAvailableOwned {
			min.base = baseInter
		} else {
			info.minAvailable = &availSet{base: baseInter, plus: min.plus}
			info.minAvailableOwned = true
			b.stats.ForkedSets++
		}
		return true
	}

	// Part of the tail is gone: fold the survivors into the base.
	folded := baseInter
	folded.InPlaceUnion(min.plus.Intersection(flat))
	if info.minAvailableOwned {
		min.base = folded
		min.plus = bitset.New(uint(b.moduleCount))
	} else {
		info.minAvailable = &availSet{base: folded, plus: bitset.New(uint(b.moduleCount))}
		info.minAvailableOwned = true
		b.stats.ForkedSets++
	}
	return true
}

// processCombining seeds entrypoints that wait on dependOn sources. Only
// infos whose sources all have a minimum are combined; the rest are
// dropped and re-added when a source changes.
func (b *builder) processCombining() {
	var ready []*groupInfo
	for _, info := range b.combining.items {
		ok := true
		for _, source := range info.availableSources.items {
			if source.minAvailable == nil {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, info)
		}
	}
	b.combining.clear()

	for _, info := range ready {
		// Union of every source's resulting availability. The largest
		// part is adopted by reference as the tail, the rest is copied.
		avail := newAvailSet(b.moduleCount)
		adopt := func(part *bitset.BitSet) {
			if part.Count() > avail.plus.Count() {
				avail.base.InPlaceUnion(avail.plus)
				avail.plus = part
			} else {
				avail.base.InPlaceUnion(part)
			}
		}
		for _, source := range info.availableSources.items {
			res := b.resultingAvailable(source)
			adopt(res.base)
			adopt(res.plus)
		}
		avail.base.InPlaceDifference(avail.plus)

		info.minAvailable = avail
		info.minAvailableOwned = false
		info.resulting = nil
		b.outdated.add(info)
	}
}

// processOutdated revisits everything parked on an info whose minimum or
// runtime changed: skipped items may need adding now, parked connections
// may have become active, and children need fresh availability.
func (b *builder) processOutdated() {
	b.stats.InfoUpdates += b.outdated.len()
	for _, info := range b.outdated.items {
		min := info.minAvailable
		ch := info.entryChunk()

		if info.skippedItems.len() > 0 {
			kept := info.skippedItems.items[:0]
			for _, m := range info.skippedItems.items {
				if min.has(m.ID()) {
					kept = append(kept, m)
					continue
				}
				delete(info.skippedItems.member, m.ID())
				b.queue = append(b.queue, queueItem{
					action: actionAddAndEnter,
					block:  m.RootBlock(),
					module: m,
					chunk:  ch,
					info:   info,
				})
			}
			info.skippedItems.items = kept
		}

		if len(info.skippedConns) > 0 {
			kept := info.skippedConns[:0]
			for _, sc := range info.skippedConns {
				state := depgraph.MergeActiveStates(sc.conns, info.runtime)
				switch state {
				case depgraph.ActiveNever:
					kept = append(kept, sc)
				case depgraph.ActiveAlways:
					if min.has(sc.module.ID()) {
						info.skippedItems.add(sc.module)
						continue
					}
					b.queue = append(b.queue, queueItem{
						action: actionAddAndEnter,
						block:  sc.module.RootBlock(),
						module: sc.module,
						chunk:  ch,
						info:   info,
					})
				default:
					// Still conditional: stays parked, but the target's
					// subtree is walked under the widened runtime.
					kept = append(kept, sc)
					b.queue = append(b.queue, queueItem{
						action: actionProcessBlock,
						block:  sc.module.RootBlock(),
						module: sc.module,
						chunk:  ch,
						info:   info,
					})
				}
			}
			info.skippedConns = kept
		}

		if info.children != nil {
			for _, child := range info.children.items {
				b.connect.add(info, child)
			}
		}
		if info.availableChildren != nil {
			for _, child := range info.availableChildren.items {
				b.combining.add(child)
			}
		}
	}
	b.outdated.clear()
}
