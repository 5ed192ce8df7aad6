package chunk

import "github.com/roach88/bento/internal/depgraph"

// Chunk is a set of modules destined to become one compiled artifact.
// Identity is pointer identity; final artifact ids are assigned by a later
// stage. Module membership is stored on the Graph.
type Chunk struct {
	name     string
	runtime  depgraph.RuntimeSpec
	groups   []*Group
	groupSet map[*Group]struct{}
}

// Name returns the chunk's name, usually inherited from the entry or the
// boundary that created it. May be empty.
func (c *Chunk) Name() string { return c.name }

// Runtime returns the merged runtime spec of the chunk.
func (c *Chunk) Runtime() depgraph.RuntimeSpec { return c.runtime }

// MergeRuntime folds rt into the chunk's runtime spec.
func (c *Chunk) MergeRuntime(rt depgraph.RuntimeSpec) {
	c.runtime, _ = c.runtime.Merge(rt)
}

// Groups returns the groups containing this chunk in insertion order.
// Callers must not modify the returned slice.
func (c *Chunk) Groups() []*Group { return c.groups }

// NumGroups returns the number of groups containing this chunk.
func (c *Chunk) NumGroups() int { return len(c.groups) }

// InGroup reports whether grp contains this chunk.
func (c *Chunk) InGroup(grp *Group) bool {
	_, ok := c.groupSet[grp]
	return ok
}

func (c *Chunk) addGroup(grp *Group) {
	if _, ok := c.groupSet[grp]; ok {
		return
	}
	if c.groupSet == nil {
		c.groupSet = make(map[*Group]struct{})
	}
	c.groupSet[grp] = struct{}{}
	c.groups = append(c.groups, grp)
}

func (c *Chunk) removeGroup(grp *Group) {
	if _, ok := c.groupSet[grp]; !ok {
		return
	}
	delete(c.groupSet, grp)
	for i, g := range c.groups {
		if g == grp {
			c.groups = append(c.groups[:i], c.groups[i+1:]...)
			break
		}
	}
}

// AllInitialChunks returns every chunk that is part of the synchronous
// initial load when this chunk loads, including the chunk itself. The walk
// descends only into initial groups.
func (c *Chunk) AllInitialChunks() []*Chunk {
	var chunks []*Chunk
	seenChunks := make(map[*Chunk]struct{})
	addChunk := func(ch *Chunk) {
		if _, ok := seenChunks[ch]; !ok {
			seenChunks[ch] = struct{}{}
			chunks = append(chunks, ch)
		}
	}

	queue := newGroupQueue(c.groups)
	for grp, ok := queue.next(); ok; grp, ok = queue.next() {
		if !grp.Initial() {
			continue
		}
		for _, ch := range grp.chunks {
			addChunk(ch)
		}
		queue.addAll(grp.children)
	}
	return chunks
}

// AllAsyncChunks returns every chunk transitively reachable behind an async
// boundary below this chunk's groups. Chunks that are part of the initial
// load are excluded: descent through initial child entrypoints extends the
// initial frontier instead of collecting them as async.
func (c *Chunk) AllAsyncChunks() []*Chunk {
	// Chunks shared by every containing group load together with this
	// chunk, they are never async relative to it.
	initial := make(map[*Chunk]struct{})
	for i, grp := range c.groups {
		if i == 0 {
			for _, ch := range grp.chunks {
				initial[ch] = struct{}{}
			}
			continue
		}
		for ch := range initial {
			if !grp.hasChunk(ch) {
				delete(initial, ch)
			}
		}
	}

	async := newGroupQueue(nil)
	initialQueue := newGroupQueue(c.groups)
	for grp, ok := initialQueue.next(); ok; grp, ok = initialQueue.next() {
		for _, child := range grp.children {
			if child.Initial() {
				initialQueue.add(child)
			} else {
				async.add(child)
			}
		}
	}

	var chunks []*Chunk
	seenChunks := make(map[*Chunk]struct{})
	for grp, ok := async.next(); ok; grp, ok = async.next() {
		for _, ch := range grp.chunks {
			if _, isInitial := initial[ch]; isInitial {
				continue
			}
			if _, ok := seenChunks[ch]; !ok {
				seenChunks[ch] = struct{}{}
				chunks = append(chunks, ch)
			}
		}
		async.addAll(grp.children)
	}
	return chunks
}

// groupQueue is a deduplicating FIFO over groups. Iteration continues into
// entries appended during the walk, mirroring set semantics where adding
// during iteration extends it.
type groupQueue struct {
	items []*Group
	seen  map[*Group]struct{}
	pos   int
}

func newGroupQueue(init []*Group) *groupQueue {
	q := &groupQueue{seen: make(map[*Group]struct{})}
	q.addAll(init)
	return q
}

func (q *groupQueue) add(grp *Group) {
	if _, ok := q.seen[grp]; ok {
		return
	}
	q.seen[grp] = struct{}{}
	q.items = append(q.items, grp)
}

func (q *groupQueue) addAll(grps []*Group) {
	for _, grp := range grps {
		q.add(grp)
	}
}

func (q *groupQueue) next() (*Group, bool) {
	if q.pos >= len(q.items) {
		return nil, false
	}
	grp := q.items[q.pos]
	q.pos++
	return grp, true
}
