package builder

import (
	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
)

// groupInfo carries the traversal state of one chunk group.
type groupInfo struct {
	group       *chunk.Group
	runtime     depgraph.RuntimeSpec
	asyncChunks bool

	// minAvailable is the smallest set of modules known to be available
	// whenever the group loads. nil means not seeded yet: entrypoints
	// waiting on dependOn sources stay nil until combined.
	minAvailable *availSet
	// minAvailableOwned reports whether minAvailable may be updated in
	// place. Adopted and shared sets must be forked first.
	minAvailableOwned bool
	// toMerge buffers parents' resulting sets until the next merge pass.
	toMerge []*availSet
	// resulting caches minAvailable plus the group's own modules. Reset to
	// nil whenever the minimum changes.
	resulting *availSet

	// skippedItems holds modules not added because they were already
	// available. Reconsidered when minAvailable shrinks.
	skippedItems moduleList
	// skippedConns parks references whose connections were not fully
	// active. Reconsidered when the group's runtime widens.
	skippedConns []skippedConnection

	children          *infoSet
	availableSources  *infoSet
	availableChildren *infoSet

	preOrderIndex  int
	postOrderIndex int
}

func (i *groupInfo) entryChunk() *chunk.Chunk {
	return i.group.Chunks()[0]
}

// skippedConnection is a parked reference: the module it points at and the
// connections whose merged state excluded it from the walk.
type skippedConnection struct {
	module *depgraph.Module
	conns  []*depgraph.Connection
}

// infoSet is an insertion-ordered set of group infos.
type infoSet struct {
	items  []*groupInfo
	member map[*groupInfo]struct{}
}

func newInfoSet() *infoSet {
	return &infoSet{member: make(map[*groupInfo]struct{})}
}

func (s *infoSet) add(info *groupInfo) {
	if _, ok := s.member[info]; ok {
		return
	}
	s.member[info] = struct{}{}
	s.items = append(s.items, info)
}

func (s *infoSet) addAll(infos []*groupInfo) {
	for _, info := range infos {
		s.add(info)
	}
}

func (s *infoSet) len() int { return len(s.items) }

func (s *infoSet) clear() {
	s.items = s.items[:0]
	clear(s.member)
}

// connectQueue buffers pending parent-child connections per origin,
// preserving origin encounter order.
type connectQueue struct {
	origins []*groupInfo
	targets map[*groupInfo]*infoSet
}

func newConnectQueue() *connectQueue {
	return &connectQueue{targets: make(map[*groupInfo]*infoSet)}
}

func (q *connectQueue) add(origin, target *groupInfo) {
	set, ok := q.targets[origin]
	if !ok {
		set = newInfoSet()
		q.targets[origin] = set
		q.origins = append(q.origins, origin)
	}
	set.add(target)
}

func (q *connectQueue) len() int { return len(q.origins) }

func (q *connectQueue) clear() {
	q.origins = q.origins[:0]
	clear(q.targets)
}

// blockConn records that origin reached a block whose target group should
// become its child if the connection survives the availability check.
type blockConn struct {
	origin *groupInfo
	group  *chunk.Group
}

// blockConnSet accumulates connections per async block in block encounter
// order.
type blockConnSet struct {
	blocks []*depgraph.Block
	conns  map[*depgraph.Block][]blockConn
}

func newBlockConnSet() *blockConnSet {
	return &blockConnSet{conns: make(map[*depgraph.Block][]blockConn)}
}

func (s *blockConnSet) init(b *depgraph.Block) {
	if _, ok := s.conns[b]; !ok {
		s.conns[b] = nil
		s.blocks = append(s.blocks, b)
	}
}

func (s *blockConnSet) add(b *depgraph.Block, c blockConn) {
	s.init(b)
	s.conns[b] = append(s.conns[b], c)
}
