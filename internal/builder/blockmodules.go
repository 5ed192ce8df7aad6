package builder

import (
	"github.com/roach88/bento/internal/depgraph"
)

// Small blocks are deduplicated by linear scan; larger ones get an index.
const dedupIndexThreshold = 10

// blockModule is one module referenced by a block, with the merged active
// state of all connections pointing at it.
type blockModule struct {
	module *depgraph.Module
	state  depgraph.ActiveState
	conns  []*depgraph.Connection
}

// blockModules returns the references of block under rt, in dependency
// declaration order. Results are cached per runtime since connection
// activity depends on it.
func (b *builder) blockModules(block *depgraph.Block, rt depgraph.RuntimeSpec) []blockModule {
	key := rt.Key()
	perBlock := b.blockModulesCache[key]
	if perBlock == nil {
		perBlock = make(map[*depgraph.Block][]blockModule)
		b.blockModulesCache[key] = perBlock
	}
	if mods, ok := perBlock[block]; ok {
		return mods
	}
	b.extractBlockModules(block.Owner(), rt, perBlock)
	return perBlock[block]
}

// extractBlockModules fills the cache for every block of m at once. The
// module's outgoing connections are bucketed by the block their dependency
// is declared on and placed at the dependency's declared position, so the
// per-block order matches the source order regardless of connection order.
func (b *builder) extractBlockModules(m *depgraph.Module, rt depgraph.RuntimeSpec, out map[*depgraph.Block][]blockModule) {
	var blocks []*depgraph.Block
	stack := []*depgraph.Block{m.RootBlock()}
	for len(stack) > 0 {
		blk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blocks = append(blocks, blk)
		stack = append(stack, blk.Blocks()...)
	}

	// Sparse per-block slot lists indexed by dependency position.
	slots := make(map[*depgraph.Block][]blockModule, len(blocks))
	for _, conn := range b.g.Outgoing(m) {
		if conn.Dep == nil || conn.Module == nil {
			continue
		}
		if conn.Dep.Weak {
			continue
		}
		blk := b.g.ParentBlock(conn.Dep)
		if blk == nil {
			blk = m.RootBlock()
		}
		idx := b.g.ParentBlockIndex(conn.Dep)
		if idx < 0 {
			idx = blk.IndexOf(conn.Dep)
		}
		if idx < 0 {
			b.log.Debug("dropping connection without a recorded position",
				"module", m.Name(), "target", conn.Module.Name())
			continue
		}
		arr := slots[blk]
		for len(arr) <= idx {
			arr = append(arr, blockModule{})
		}
		slot := &arr[idx]
		if slot.module == conn.Module {
			slot.state = slot.state.Merge(conn.ActiveState(rt))
			slot.conns = append(slot.conns, conn)
		} else {
			*slot = blockModule{
				module: conn.Module,
				state:  conn.ActiveState(rt),
				conns:  []*depgraph.Connection{conn},
			}
		}
		slots[blk] = arr
	}

	for _, blk := range blocks {
		out[blk] = compactBlockModules(slots[blk])
	}
}

// compactBlockModules drops empty slots and merges repeated references to
// the same module, keeping first-reference order.
func compactBlockModules(slots []blockModule) []blockModule {
	if len(slots) == 0 {
		return nil
	}
	res := slots[:0]
	var index map[*depgraph.Module]int
	for i := range slots {
		s := slots[i]
		if s.module == nil {
			continue
		}
		if index == nil {
			found := -1
			for j := range res {
				if res[j].module == s.module {
					found = j
					break
				}
			}
			if found >= 0 {
				res[found].state = res[found].state.Merge(s.state)
				res[found].conns = append(res[found].conns, s.conns...)
				continue
			}
			res = append(res, s)
			if len(res) > dedupIndexThreshold {
				index = make(map[*depgraph.Module]int, len(res))
				for j := range res {
					index[res[j].module] = j
				}
			}
			continue
		}
		if j, ok := index[s.module]; ok {
			res[j].state = res[j].state.Merge(s.state)
			res[j].conns = append(res[j].conns, s.conns...)
		} else {
			index[s.module] = len(res)
			res = append(res, s)
		}
	}
	return res
}
