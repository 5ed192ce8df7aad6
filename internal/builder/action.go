package builder

import (
	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
)

// action selects the processing step a queue item performs.
type action uint8

const (
	// actionAddAndEnter connects the module to the chunk, assigns order
	// indices and falls through to block processing.
	actionAddAndEnter action = iota
	// actionProcessBlock walks a block's references inside an existing
	// chunk, honoring the group's availability minimum.
	actionProcessBlock
	// actionProcessEntryBlock walks an async entry block. Entry blocks
	// start from an empty availability minimum, so nothing is skipped.
	actionProcessEntryBlock
	// actionLeave assigns post-order indices once everything reachable
	// from a module has been visited.
	actionLeave
)

func (a action) String() string {
	switch a {
	case actionAddAndEnter:
		return "add-and-enter"
	case actionProcessBlock:
		return "process-block"
	case actionProcessEntryBlock:
		return "process-entry-block"
	case actionLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// queueItem is one unit of traversal work. chunk is always the entry chunk
// of info's group; it is carried so processing does not re-derive it.
type queueItem struct {
	action  action
	isEntry bool
	block   *depgraph.Block
	module  *depgraph.Module
	chunk   *chunk.Chunk
	info    *groupInfo
}
