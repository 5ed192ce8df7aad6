// Package snapshot produces canonical byte encodings of finished builds.
//
// A snapshot is the determinism currency of the repo: two builds of the
// same graph must produce byte identical snapshots, and the snapshot hash
// is what the trace store and the verify command compare.
//
// CRITICAL: the byte stability contract rests on three rules:
//  1. The document contains only structs and slices, never maps, so the
//     encoder emits fields in declaration order and elements in slice
//     order. Creation order of groups and chunks is deterministic.
//  2. Every string is NFC normalized at capture time.
//  3. The build id is excluded. It is the one per-run value; everything
//     else is a pure function of the input graph.
package snapshot

import (
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
)

// Version identifies the snapshot document layout.
const Version = 1

// Snapshot is the canonical description of a finished build. Groups and
// chunks are referenced by their position in the respective slice.
type Snapshot struct {
	Version          int          `json:"version"`
	Entrypoints      []int        `json:"entrypoints"`
	AsyncEntrypoints []int        `json:"async_entrypoints,omitempty"`
	Groups           []Group      `json:"groups"`
	Chunks           []Chunk      `json:"chunks"`
	Modules          []Module     `json:"modules"`
	Diagnostics      []Diagnostic `json:"diagnostics,omitempty"`
}

// Group describes one chunk group and its place in the hierarchy.
type Group struct {
	Name         string `json:"name,omitempty"`
	Kind         string `json:"kind"`
	Chunks       []int  `json:"chunks"`
	Parents      []int  `json:"parents,omitempty"`
	Children     []int  `json:"children,omitempty"`
	AsyncEntries []int  `json:"async_entries,omitempty"`
}

// Chunk describes one chunk: its merged runtime and its modules in binding
// order.
type Chunk struct {
	Name    string   `json:"name,omitempty"`
	Runtime []string `json:"runtime,omitempty"`
	Modules []string `json:"modules"`
	Entries []string `json:"entries,omitempty"`
}

// Module carries the global traversal order indices of one placed module.
type Module struct {
	Name      string `json:"name"`
	PreOrder  int    `json:"pre_order"`
	PostOrder int    `json:"post_order"`
}

// Diagnostic is the serialized form of a build diagnostic.
type Diagnostic struct {
	Code   string `json:"code"`
	Group  string `json:"group,omitempty"`
	Module string `json:"module,omitempty"`
	Loc    string `json:"loc,omitempty"`
	Detail string `json:"detail"`
}

// Capture flattens a build result into its snapshot document.
func Capture(res *builder.Result) *Snapshot {
	cg := res.Graph
	groupIndex := make(map[*chunk.Group]int, len(cg.Groups()))
	for i, grp := range cg.Groups() {
		groupIndex[grp] = i
	}
	chunkIndex := make(map[*chunk.Chunk]int, len(cg.Chunks()))
	for i, c := range cg.Chunks() {
		chunkIndex[c] = i
	}
	groupRefs := func(groups []*chunk.Group) []int {
		var out []int
		for _, grp := range groups {
			if i, ok := groupIndex[grp]; ok {
				out = append(out, i)
			}
		}
		return out
	}

	s := &Snapshot{Version: Version}
	s.Entrypoints = groupRefs(res.Entrypoints)
	s.AsyncEntrypoints = groupRefs(res.AsyncEntrypoints)

	for _, grp := range cg.Groups() {
		sg := Group{
			Name:         norm.NFC.String(grp.Name()),
			Kind:         grp.Kind().String(),
			Parents:      groupRefs(grp.Parents()),
			Children:     groupRefs(grp.Children()),
			AsyncEntries: groupRefs(grp.AsyncEntries()),
		}
		for _, c := range grp.Chunks() {
			if i, ok := chunkIndex[c]; ok {
				sg.Chunks = append(sg.Chunks, i)
			}
		}
		s.Groups = append(s.Groups, sg)
	}

	for _, c := range cg.Chunks() {
		sc := Chunk{
			Name:    norm.NFC.String(c.Name()),
			Modules: moduleNames(cg.ChunkModules(c)),
			Entries: moduleNames(cg.EntryModules(c)),
		}
		for _, rt := range c.Runtime() {
			sc.Runtime = append(sc.Runtime, norm.NFC.String(string(rt)))
		}
		s.Chunks = append(s.Chunks, sc)
	}

	// Modules in first-placement order across chunks. Unreachable modules
	// carry no indices and do not appear.
	seen := make(map[depgraph.ModuleID]struct{})
	for _, c := range cg.Chunks() {
		for _, m := range cg.ChunkModules(c) {
			if _, ok := seen[m.ID()]; ok {
				continue
			}
			seen[m.ID()] = struct{}{}
			pre, _ := cg.PreOrderIndex(m)
			post, _ := cg.PostOrderIndex(m)
			s.Modules = append(s.Modules, Module{
				Name:      norm.NFC.String(m.Name()),
				PreOrder:  pre,
				PostOrder: post,
			})
		}
	}

	for _, d := range res.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, Diagnostic{
			Code:   string(d.Code),
			Group:  norm.NFC.String(d.Group),
			Module: norm.NFC.String(d.Module),
			Loc:    d.Loc.String(),
			Detail: norm.NFC.String(d.Detail),
		})
	}
	return s
}

func moduleNames(mods []*depgraph.Module) []string {
	if len(mods) == 0 {
		return nil
	}
	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = norm.NFC.String(m.Name())
	}
	return names
}
