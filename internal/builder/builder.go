package builder

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
)

// Entrypoint describes one initial entry of a build.
type Entrypoint struct {
	Name    string
	Modules []*depgraph.Module
	Options depgraph.EntryOptions
}

// Result is the outcome of a build. Builds never fail: problems degrade
// and are reported in Diagnostics.
type Result struct {
	BuildID string
	Graph   *chunk.Graph
	// Entrypoints holds the initial chunk groups in input order, skipping
	// duplicates rejected with a Diagnostic.
	Entrypoints []*chunk.Group
	// AsyncEntrypoints holds entry groups forked at async boundaries, in
	// creation order.
	AsyncEntrypoints []*chunk.Group
	Diagnostics      []*Diagnostic
	Stats            Stats
}

// Stats counts the work a build performed. Queue item counts are exact;
// they double as a cheap regression signal for traversal changes.
type Stats struct {
	QueueItems      int
	Blocks          int
	GroupsConnected int
	MergedSets      int
	ForkedSets      int
	InfoUpdates     int
	GroupsCreated   int
	GroupsRemoved   int
}

type builder struct {
	g   *depgraph.Graph
	cg  *chunk.Graph
	log *slog.Logger
	ids IDGenerator

	tracer   Tracer
	traceSeq int

	moduleCount int

	queue   []queueItem
	delayed []queueItem
	buffer  []queueItem

	infos       []*groupInfo
	infoByGroup map[*chunk.Group]*groupInfo
	// named maps initial entry and dynamic group names; namedEntries maps
	// async entrypoint names. The two namespaces do not collide.
	named        map[string]*groupInfo
	namedEntries map[string]*groupInfo

	blockInfos   map[*depgraph.Block]*groupInfo
	blockConns   *blockConnSet
	nestedBlocks map[*depgraph.Block]struct{}
	collisions   map[*depgraph.Block]struct{}

	connect   *connectQueue
	merging   *infoSet
	combining *infoSet
	outdated  *infoSet

	// allCreated lists dynamically created groups, the only ones eligible
	// for the zero-parent cleanup.
	allCreated   []*groupInfo
	asyncCreated []*chunk.Group

	blockModulesCache map[string]map[*depgraph.Block][]blockModule

	nextPreOrder  int
	nextPostOrder int

	diags []*Diagnostic
	stats Stats
}

// Build partitions g into chunks starting from entries. It is pure: the
// same graph and entries always produce the same chunk graph, and nothing
// is retained across calls.
func Build(g *depgraph.Graph, entries []Entrypoint, opts ...Option) *Result {
	b := &builder{
		g:                 g,
		cg:                chunk.NewGraph(g.NumModules()),
		log:               slog.Default(),
		ids:               UUIDv7Generator{},
		moduleCount:       g.NumModules(),
		infoByGroup:       make(map[*chunk.Group]*groupInfo),
		named:             make(map[string]*groupInfo),
		namedEntries:      make(map[string]*groupInfo),
		blockInfos:        make(map[*depgraph.Block]*groupInfo),
		blockConns:        newBlockConnSet(),
		nestedBlocks:      make(map[*depgraph.Block]struct{}),
		collisions:        make(map[*depgraph.Block]struct{}),
		connect:           newConnectQueue(),
		merging:           newInfoSet(),
		combining:         newInfoSet(),
		outdated:          newInfoSet(),
		blockModulesCache: make(map[string]map[*depgraph.Block][]blockModule),
	}
	for _, opt := range opts {
		opt(b)
	}

	id := b.ids.Generate()
	b.log = b.log.With("build_id", id)
	b.log.Debug("starting build", "modules", g.NumModules(), "entrypoints", len(entries))

	eps := b.seed(entries)
	b.run()
	b.connectGroups()
	b.finalizeRuntimes()
	b.cleanupUnconnected()
	b.logStats()

	return &Result{
		BuildID:          id,
		Graph:            b.cg,
		Entrypoints:      eps,
		AsyncEntrypoints: b.asyncCreated,
		Diagnostics:      b.diags,
		Stats:            b.stats,
	}
}

// seed creates the initial chunk groups, wires dependOn links between them
// and queues the root traversal work.
func (b *builder) seed(entries []Entrypoint) []*chunk.Group {
	byName := make(map[string]*Entrypoint, len(entries))
	for i := range entries {
		e := &entries[i]
		if _, dup := byName[e.Name]; dup {
			b.diags = append(b.diags, &Diagnostic{
				Code:   CodeOptionConflict,
				Group:  e.Name,
				Detail: fmt.Sprintf("duplicate entrypoint %q ignored", e.Name),
			})
			b.log.Warn("duplicate entrypoint ignored", "entry", e.Name)
			continue
		}
		byName[e.Name] = e
	}

	var groups []*chunk.Group
	var seeded []*groupInfo
	for i := range entries {
		e := &entries[i]
		if byName[e.Name] != e {
			continue
		}
		opts := e.Options
		if len(opts.DependOn) > 0 && opts.Runtime != "" {
			b.diags = append(b.diags, &Diagnostic{
				Code:   CodeOptionConflict,
				Group:  e.Name,
				Detail: fmt.Sprintf("entrypoint %q cannot combine dependOn with runtime, runtime ignored", e.Name),
			})
			opts.Runtime = ""
		}
		grp := b.cg.AddGroup(chunk.KindEntry, chunk.Options{Name: e.Name, Entry: &opts})
		ch := b.cg.NewChunk(e.Name)
		grp.PushChunk(ch)

		info := b.newInfo(grp, b.entryRuntime(byName, e.Name), asyncDefault(opts.AsyncChunks))
		b.named[e.Name] = info
		groups = append(groups, grp)
		seeded = append(seeded, info)

		for _, m := range e.Modules {
			b.cg.ConnectEntryModule(m, ch, grp)
		}
	}

	// dependOn links need every entry group present, so wire them second.
	for _, info := range seeded {
		e := byName[info.group.Name()]
		for _, dep := range e.Options.DependOn {
			parent := b.named[dep]
			if parent == nil {
				b.diags = append(b.diags, &Diagnostic{
					Code:   CodeUnknownDependOn,
					Group:  e.Name,
					Detail: fmt.Sprintf("entrypoint %q depends on unknown entry %q", e.Name, dep),
				})
				b.log.Warn("unknown dependOn target", "entry", e.Name, "depend_on", dep)
				continue
			}
			chunk.Connect(parent.group, info.group)
		}
	}

	for _, info := range seeded {
		e := byName[info.group.Name()]
		if info.group.NumParents() > 0 {
			// Availability is unknown until the sources finish, so the
			// entry modules are parked instead of queued.
			for _, m := range e.Modules {
				info.skippedItems.add(m)
			}
			b.combining.add(info)
			continue
		}
		info.minAvailable = newAvailSet(b.moduleCount)
		info.minAvailableOwned = true
		ch := info.entryChunk()
		for _, m := range e.Modules {
			b.queue = append(b.queue, queueItem{
				action: actionAddAndEnter,
				block:  m.RootBlock(),
				module: m,
				chunk:  ch,
				info:   info,
			})
		}
	}

	for _, info := range seeded {
		if info.group.NumParents() == 0 {
			continue
		}
		info.availableSources = newInfoSet()
		for _, parent := range info.group.Parents() {
			pinfo := b.infoByGroup[parent]
			info.availableSources.add(pinfo)
			if pinfo.availableChildren == nil {
				pinfo.availableChildren = newInfoSet()
			}
			pinfo.availableChildren.add(info)
		}
	}

	// The queue pops from the end, reverse so the first entry runs first.
	slices.Reverse(b.queue)
	return groups
}

// entryRuntime resolves the runtime spec an entry executes under. Entries
// with dependOn run in the union of their terminal sources' runtimes; the
// walk tolerates cycles and unknown names, falling back to the own name.
func (b *builder) entryRuntime(byName map[string]*Entrypoint, name string) depgraph.RuntimeSpec {
	opts := byName[name].Options
	if len(opts.DependOn) == 0 {
		if opts.Runtime != "" {
			return depgraph.NewRuntimeSpec(opts.Runtime)
		}
		return depgraph.NewRuntimeSpec(depgraph.Runtime(name))
	}

	var runtimes []depgraph.Runtime
	queue := slices.Clone(opts.DependOn)
	seen := make(map[string]struct{}, len(queue))
	for _, n := range queue {
		seen[n] = struct{}{}
	}
	for i := 0; i < len(queue); i++ {
		dep := byName[queue[i]]
		if dep == nil {
			continue
		}
		dopts := dep.Options
		if len(dopts.DependOn) > 0 {
			for _, n := range dopts.DependOn {
				if _, ok := seen[n]; !ok {
					seen[n] = struct{}{}
					queue = append(queue, n)
				}
			}
			continue
		}
		if dopts.Runtime != "" {
			runtimes = append(runtimes, dopts.Runtime)
		} else {
			runtimes = append(runtimes, depgraph.Runtime(queue[i]))
		}
	}
	if len(runtimes) == 0 {
		return depgraph.NewRuntimeSpec(depgraph.Runtime(name))
	}
	return depgraph.NewRuntimeSpec(runtimes...)
}

func (b *builder) newInfo(grp *chunk.Group, rt depgraph.RuntimeSpec, asyncChunks bool) *groupInfo {
	info := &groupInfo{group: grp, runtime: rt, asyncChunks: asyncChunks}
	b.infos = append(b.infos, info)
	b.infoByGroup[grp] = info
	return info
}

// run drives the traversal to its fixed point. Each pass drains the main
// queue, resolves pending set algebra and finally promotes the delayed
// queue, so async subtrees start only after the synchronous frontier is
// complete.
func (b *builder) run() {
	for len(b.queue) > 0 || len(b.delayed) > 0 || b.connect.len() > 0 ||
		b.merging.len() > 0 || b.combining.len() > 0 || b.outdated.len() > 0 {
		b.processQueue()
		if b.combining.len() > 0 {
			b.processCombining()
		}
		if b.connect.len() > 0 {
			b.processConnect()
			if b.merging.len() > 0 {
				b.processMerging()
			}
		}
		if b.outdated.len() > 0 {
			b.processOutdated()
		}
		if len(b.queue) == 0 {
			slices.Reverse(b.delayed)
			b.queue, b.delayed = b.delayed, b.queue[:0]
		}
	}
}

// finalizeRuntimes folds each group's runtime into its chunks. A chunk
// shared by several groups ends up with the union.
func (b *builder) finalizeRuntimes() {
	for _, info := range b.infos {
		for _, c := range info.group.Chunks() {
			c.MergeRuntime(info.runtime)
		}
	}
}

// cleanupUnconnected removes dynamically created groups whose every
// connection turned out to be unnecessary. Children of a removed group
// were created after it, so the creation-order sweep cascades naturally.
func (b *builder) cleanupUnconnected() {
	for _, info := range b.allCreated {
		if info.group.NumParents() == 0 {
			b.cg.RemoveGroup(info.group)
			b.stats.GroupsRemoved++
		}
	}
}

func (b *builder) logStats() {
	b.log.Debug("chunk graph built",
		"queue_items", b.stats.QueueItems,
		"blocks", b.stats.Blocks,
		"groups_connected", b.stats.GroupsConnected,
		"merged_sets", b.stats.MergedSets,
		"forked_sets", b.stats.ForkedSets,
		"info_updates", b.stats.InfoUpdates,
		"groups_created", b.stats.GroupsCreated,
		"groups_removed", b.stats.GroupsRemoved,
	)
}

func (b *builder) traceStep(item queueItem) {
	if b.tracer == nil {
		return
	}
	b.traceSeq++
	act := item.action.String()
	if item.isEntry && item.action == actionAddAndEnter {
		act = "add-and-enter-entry"
	}
	step := TraceStep{Seq: b.traceSeq, Action: act, Group: item.info.group.String()}
	if item.module != nil {
		step.Module = item.module.Name()
	}
	b.tracer.Step(step)
}

func asyncDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}
