// Package builder partitions a dependency graph into chunks by walking it
// from the entrypoints to a fixed point.
//
// The walk tracks, per chunk group, the minimal set of modules known to be
// available when the group starts loading. Modules already available are
// not duplicated into the group; they are parked as skipped work and
// revisited whenever the availability estimate shrinks. Async boundaries
// fork new chunk groups whose traversal is delayed until the synchronous
// frontier is exhausted, which keeps order indices stable.
//
// INVARIANTS:
//   - Identical inputs produce identical output. Every work list preserves
//     insertion order; nothing iterates over a Go map.
//   - A build never aborts. Configuration conflicts degrade to documented
//     fallbacks and surface as Diagnostics on the Result.
//   - Availability sets only shrink once seeded. Every shrink marks the
//     owning group outdated so parked work is reconsidered.
package builder
