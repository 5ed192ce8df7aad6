// Package harness runs declarative conformance scenarios. A scenario
// names a CUE definition directory and the expected shape of the chunk
// graph built from it: groups, chunk membership, parent edges, runtimes,
// traversal orders, diagnostics and optionally a golden snapshot.
//
// Scenarios document partitioning behavior as data. Adding coverage for
// an edge case means adding a YAML file, not a test function.
package harness

import (
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bento/internal/builder"
	"github.com/roach88/bento/internal/chunk"
	"github.com/roach88/bento/internal/depgraph"
	"github.com/roach88/bento/internal/graphdef"
	"github.com/roach88/bento/internal/snapshot"
	"github.com/roach88/bento/internal/testutil"
)

// Run loads the scenario at path, builds its definition directory and
// checks every expectation against the result.
func Run(t *testing.T, path string) {
	t.Helper()

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	res, asm := build(t, scenario.Defs)
	assertExpectations(t, scenario, asm, res)
}

// build loads and assembles a definition directory, then runs a build
// with a fixed build ID and silenced logging.
func build(t *testing.T, dir string) (*builder.Result, *graphdef.Assembly) {
	t.Helper()

	def, errs := graphdef.Load(dir, graphdef.LoadModeCollectAll)
	require.Empty(t, errs, "definitions must load cleanly")

	asm, errs := graphdef.Assemble(def)
	require.Empty(t, errs, "definitions must assemble cleanly")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := builder.Build(asm.Graph, asm.Entries,
		builder.WithLogger(log),
		builder.WithIDGenerator(testutil.NewConstantIDGenerator("harness")),
	)
	return res, asm
}

func assertExpectations(t *testing.T, s *Scenario, asm *graphdef.Assembly, res *builder.Result) {
	t.Helper()
	cg := res.Graph

	if len(s.Expect.Groups) > 0 {
		assert.Len(t, cg.Groups(), len(s.Expect.Groups), "group count")
		for _, ge := range s.Expect.Groups {
			assertGroup(t, cg, ge)
		}
	}

	for name, parents := range s.Expect.Parents {
		grp := findGroup(cg, name)
		if !assert.NotNilf(t, grp, "parents: no group named %q", name) {
			continue
		}
		assert.ElementsMatchf(t, parents, groupNames(grp.Parents()), "parents of %q", name)
	}

	for name, entries := range s.Expect.AsyncEntries {
		grp := findGroup(cg, name)
		if !assert.NotNilf(t, grp, "asyncEntries: no group named %q", name) {
			continue
		}
		assert.ElementsMatchf(t, entries, groupNames(grp.AsyncEntries()), "async entries of %q", name)
	}

	for name, key := range s.Expect.Runtimes {
		c := findChunk(cg, name)
		if !assert.NotNilf(t, c, "runtimes: no chunk named %q", name) {
			continue
		}
		assert.Equalf(t, key, c.Runtime().Key(), "runtime of chunk %q", name)
	}

	for name, mods := range s.Expect.Entries {
		c := findChunk(cg, name)
		if !assert.NotNilf(t, c, "entries: no chunk named %q", name) {
			continue
		}
		assert.Equalf(t, mods, testutil.Names(cg.EntryModules(c)), "entry modules of chunk %q", name)
	}

	if s.Expect.Order != nil {
		pre, post := traversalOrders(asm.Graph, cg)
		if len(s.Expect.Order.Pre) > 0 {
			assert.Equal(t, s.Expect.Order.Pre, pre, "pre-order")
		}
		if len(s.Expect.Order.Post) > 0 {
			assert.Equal(t, s.Expect.Order.Post, post, "post-order")
		}
	}

	codes := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		codes = append(codes, string(d.Code))
	}
	want := s.Expect.Diagnostics
	if want == nil {
		want = []string{}
	}
	assert.Equal(t, want, codes, "diagnostic codes")

	if s.Expect.Golden != "" {
		data, err := snapshot.Marshal(res)
		require.NoError(t, err)
		g := goldie.New(t,
			goldie.WithFixtureDir("testdata/golden"),
			goldie.WithNameSuffix(".golden"),
		)
		g.Assert(t, s.Expect.Golden, data)
	}
}

func assertGroup(t *testing.T, cg *chunk.Graph, ge GroupExpect) {
	t.Helper()

	grp := findGroupKind(cg, ge.Name, ge.Kind)
	if !assert.NotNilf(t, grp, "no %s group named %q", ge.Kind, ge.Name) {
		return
	}
	chunks := grp.Chunks()
	if !assert.Lenf(t, chunks, len(ge.Chunks), "chunks of group %q", ge.Name) {
		return
	}
	for i, names := range ge.Chunks {
		assert.Equalf(t, names, testutil.Names(cg.ChunkModules(chunks[i])),
			"modules of group %q chunk %d", ge.Name, i)
	}
}

func findGroup(cg *chunk.Graph, name string) *chunk.Group {
	for _, grp := range cg.Groups() {
		if grp.Name() == name {
			return grp
		}
	}
	return nil
}

func findGroupKind(cg *chunk.Graph, name, kind string) *chunk.Group {
	for _, grp := range cg.Groups() {
		if grp.Name() == name && grp.Kind().String() == kind {
			return grp
		}
	}
	return nil
}

func findChunk(cg *chunk.Graph, name string) *chunk.Chunk {
	for _, c := range cg.Chunks() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// groupNames renders groups for order insensitive comparison. Unnamed
// groups fall back to their String form.
func groupNames(groups []*chunk.Group) []string {
	names := make([]string, 0, len(groups))
	for _, grp := range groups {
		if grp.Name() != "" {
			names = append(names, grp.Name())
		} else {
			names = append(names, grp.String())
		}
	}
	return names
}

// traversalOrders reconstructs the global visit orders from the per
// module indexes. Modules never placed in a chunk carry no index and
// are skipped.
func traversalOrders(g *depgraph.Graph, cg *chunk.Graph) (pre, post []string) {
	type visit struct {
		name  string
		index int
	}
	var pres, posts []visit
	for _, m := range g.Modules() {
		if i, ok := cg.PreOrderIndex(m); ok {
			pres = append(pres, visit{m.Name(), i})
		}
		if i, ok := cg.PostOrderIndex(m); ok {
			posts = append(posts, visit{m.Name(), i})
		}
	}
	sort.Slice(pres, func(i, j int) bool { return pres[i].index < pres[j].index })
	sort.Slice(posts, func(i, j int) bool { return posts[i].index < posts[j].index })
	for _, v := range pres {
		pre = append(pre, v.name)
	}
	for _, v := range posts {
		post = append(post, v.name)
	}
	return pre, post
}
