package builder

import (
	"fmt"

	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
)

// processQueue drains the main queue. The add-and-enter action falls
// through enter and block processing so one item covers the whole visit.
func (b *builder) processQueue() {
	for len(b.queue) > 0 {
		item := b.queue[len(b.queue)-1]
		b.queue = b.queue[:len(b.queue)-1]
		b.stats.QueueItems++
		b.traceStep(item)

		switch item.action {
		case actionAddAndEnter:
			if item.isEntry {
				b.cg.ConnectEntryModule(item.module, item.chunk, item.info.group)
			}
			if b.cg.IsModuleInChunk(item.module, item.chunk) {
				break
			}
			b.cg.AddModuleToChunk(item.module, item.chunk)

			// Enter: assign pre-order indices and schedule the matching
			// leave before descending.
			if item.info.group.SetModulePreOrderIndex(item.module, item.info.preOrderIndex) {
				item.info.preOrderIndex++
			}
			if b.cg.SetPreOrderIndex(item.module, b.nextPreOrder) {
				b.nextPreOrder++
			}
			leave := item
			leave.action = actionLeave
			b.queue = append(b.queue, leave)
			fallthrough
		case actionProcessBlock:
			b.processBlock(item)
		case actionProcessEntryBlock:
			b.processEntryBlock(item)
		case actionLeave:
			if item.info.group.SetModulePostOrderIndex(item.module, item.info.postOrderIndex) {
				item.info.postOrderIndex++
			}
			if b.cg.SetPostOrderIndex(item.module, b.nextPostOrder) {
				b.nextPostOrder++
			}
		}
	}
}

// processBlock walks the references of one block within item's group.
// Fully active references are added to the chunk unless already available;
// partially active ones are parked and traversed without membership.
func (b *builder) processBlock(item queueItem) {
	b.stats.Blocks++
	info := item.info
	min := info.minAvailable

	for i, mods := 0, b.blockModules(item.block, info.runtime); i < len(mods); i++ {
		bm := &mods[i]
		if b.cg.IsModuleInChunk(bm.module, item.chunk) {
			continue
		}
		if bm.state != depgraph.ActiveAlways {
			info.skippedConns = append(info.skippedConns, skippedConnection{
				module: bm.module,
				conns:  bm.conns,
			})
			if bm.state == depgraph.ActiveNever {
				continue
			}
		}
		if bm.state == depgraph.ActiveAlways && min.has(bm.module.ID()) {
			// Already guaranteed by a parent, park it in case the
			// guarantee goes away.
			info.skippedItems.add(bm.module)
			continue
		}
		next := queueItem{
			action: actionProcessBlock,
			block:  bm.module.RootBlock(),
			module: bm.module,
			chunk:  item.chunk,
			info:   info,
		}
		if bm.state == depgraph.ActiveAlways {
			next.action = actionAddAndEnter
		}
		b.buffer = append(b.buffer, next)
	}
	b.flushBuffer()

	for _, child := range item.block.Blocks() {
		b.asyncBlock(child, item)
	}
	if len(item.block.Blocks()) > 0 && item.block.Async() {
		b.nestedBlocks[item.block] = struct{}{}
	}
}

// processEntryBlock walks an async entry block. Entry groups start over
// with empty availability, so every active reference is taken and tagged
// as an entry module of the group.
func (b *builder) processEntryBlock(item queueItem) {
	b.stats.Blocks++
	info := item.info

	for i, mods := 0, b.blockModules(item.block, info.runtime); i < len(mods); i++ {
		bm := &mods[i]
		switch bm.state {
		case depgraph.ActiveNever:
			continue
		case depgraph.ActiveAlways:
			b.buffer = append(b.buffer, queueItem{
				action:  actionAddAndEnter,
				isEntry: true,
				block:   bm.module.RootBlock(),
				module:  bm.module,
				chunk:   item.chunk,
				info:    info,
			})
		default:
			b.buffer = append(b.buffer, queueItem{
				action: actionProcessEntryBlock,
				block:  bm.module.RootBlock(),
				module: bm.module,
				chunk:  item.chunk,
				info:   info,
			})
		}
	}
	b.flushBuffer()

	for _, child := range item.block.Blocks() {
		b.asyncBlock(child, item)
	}
	if len(item.block.Blocks()) > 0 && item.block.Async() {
		b.nestedBlocks[item.block] = struct{}{}
	}
}

// flushBuffer pushes buffered items in reverse so the pop-from-end queue
// processes them in declaration order.
func (b *builder) flushBuffer() {
	for i := len(b.buffer) - 1; i >= 0; i-- {
		b.queue = append(b.queue, b.buffer[i])
	}
	b.buffer = b.buffer[:0]
}

// asyncBlock resolves the chunk group an async boundary leads to. The
// first encounter creates or adopts a group; every encounter records the
// pending parent edge and schedules delayed traversal of the target.
func (b *builder) asyncBlock(block *depgraph.Block, item queueItem) {
	info := item.info
	cgi, bound := b.blockInfos[block]
	var target *groupInfo
	var entry *groupInfo
	entryOpts := block.EntryOptions()

	switch {
	case !bound:
		name := block.Name()
		if name == "" && entryOpts != nil {
			name = entryOpts.Name
		}
		switch {
		case entryOpts != nil:
			if name != "" {
				cgi = b.namedEntries[name]
			}
			if cgi == nil {
				grp := b.cg.AddGroup(chunk.KindAsyncEntry, chunk.Options{Name: name, Entry: entryOpts})
				ch := b.cg.NewChunk(name)
				grp.PushChunk(ch)
				rt := entryOpts.Runtime
				if rt == "" {
					rt = depgraph.Runtime(name)
				}
				async := info.asyncChunks
				if entryOpts.AsyncChunks != nil {
					async = *entryOpts.AsyncChunks
				}
				cgi = b.newInfo(grp, depgraph.NewRuntimeSpec(rt), async)
				// Async entries start a fresh load: nothing is available.
				cgi.minAvailable = newAvailSet(b.moduleCount)
				cgi.minAvailableOwned = true
				b.cg.BindBlock(block, grp)
				b.stats.GroupsCreated++
				b.asyncCreated = append(b.asyncCreated, grp)
				if name != "" {
					b.namedEntries[name] = cgi
				}
			} else {
				if err := cgi.group.MergeOptions(chunk.Options{Name: name, Entry: entryOpts}); err != nil {
					b.diags = append(b.diags, &Diagnostic{
						Code:   CodeOptionConflict,
						Group:  name,
						Module: item.module.Name(),
						Loc:    block.Loc(),
						Detail: err.Error(),
					})
					b.log.Warn("conflicting entry options", "group", name, "err", err)
				}
				b.cg.BindBlock(block, cgi.group)
			}
			b.delayed = append(b.delayed, queueItem{
				action: actionProcessEntryBlock,
				block:  block,
				module: item.module,
				chunk:  cgi.entryChunk(),
				info:   cgi,
			})
			entry = cgi

		case !info.asyncChunks:
			// Dynamic chunks are disabled below this group: load the
			// block's subtree inside the requesting chunk.
			b.queue = append(b.queue, queueItem{
				action: actionProcessBlock,
				block:  block,
				module: item.module,
				chunk:  item.chunk,
				info:   info,
			})
			return

		default:
			if name != "" {
				cgi = b.named[name]
			}
			if cgi != nil && cgi.group.Initial() {
				// An async boundary cannot fork a group that is already
				// loaded initially. Degrade to a synchronous edge.
				if _, seen := b.collisions[block]; !seen {
					b.collisions[block] = struct{}{}
					b.diags = append(b.diags, &Diagnostic{
						Code:   CodeAsyncNameCollision,
						Group:  name,
						Module: item.module.Name(),
						Loc:    block.Loc(),
						Detail: fmt.Sprintf("async boundary names initial chunk group %q, loading it inline", name),
					})
					b.log.Warn("async boundary names initial chunk group",
						"group", name, "module", item.module.Name())
				}
				b.queue = append(b.queue, queueItem{
					action: actionProcessBlock,
					block:  block,
					module: item.module,
					chunk:  item.chunk,
					info:   info,
				})
				return
			}
			if cgi == nil {
				grp := b.cg.AddGroup(chunk.KindDynamic, chunk.Options{Name: name})
				ch := b.cg.NewChunk(name)
				grp.PushChunk(ch)
				cgi = b.newInfo(grp, info.runtime, info.asyncChunks)
				b.stats.GroupsCreated++
				b.allCreated = append(b.allCreated, cgi)
				if name != "" {
					b.named[name] = cgi
				}
			} else if err := cgi.group.MergeOptions(chunk.Options{Name: name}); err != nil {
				b.diags = append(b.diags, &Diagnostic{
					Code:   CodeOptionConflict,
					Group:  name,
					Module: item.module.Name(),
					Loc:    block.Loc(),
					Detail: err.Error(),
				})
			}
			b.blockConns.init(block)
			target = cgi
		}
		b.blockInfos[block] = cgi

	case entryOpts != nil:
		entry = cgi

	default:
		target = cgi
	}

	if target != nil {
		b.blockConns.add(block, blockConn{origin: info, group: target.group})
		b.connect.add(info, target)
		b.delayed = append(b.delayed, queueItem{
			action: actionProcessBlock,
			block:  block,
			module: item.module,
			chunk:  target.entryChunk(),
			info:   target,
		})
	} else if entry != nil {
		info.group.AddAsyncEntry(entry.group)
	}
}
