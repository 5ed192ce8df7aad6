package builder

import (
	"github.com/roach88/bento/internal/chunk"
)

// connectGroups materializes the parent-child edges recorded at async
// boundaries. A block whose target modules are fully available at every
// origin is skipped outright: nothing new would load through it. Blocks
// carrying nested sub-blocks always connect since their subtrees can
// reach beyond what the availability check sees.
func (b *builder) connectGroups() {
	for _, block := range b.blockConns.blocks {
		conns := b.blockConns.conns[block]
		if _, nested := b.nestedBlocks[block]; !nested && b.allAvailable(conns) {
			continue
		}
		for _, conn := range conns {
			b.cg.BindBlock(block, conn.group)
			chunk.Connect(conn.origin.group, conn.group)
		}
	}
}

// allAvailable reports whether every chunk module of every connection's
// target group is already available at its origin. A missing resulting
// set counts as unavailable.
func (b *builder) allAvailable(conns []blockConn) bool {
	for _, conn := range conns {
		res := conn.origin.resulting
		if res == nil {
			return false
		}
		for _, c := range conn.group.Chunks() {
			ms := b.cg.ChunkModuleSet(c)
			if ms != nil && !res.containsAll(ms.Bits()) {
				return false
			}
		}
	}
	return true
}
