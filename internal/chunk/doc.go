// Package chunk holds the chunk and chunk group model produced by chunk
// graph construction.
//
// A Chunk is a set of modules destined for one compiled artifact. A Group
// is an ordered collection of chunks forming one loadable unit, an
// entrypoint or one dynamic import site, linked parent/child to other
// groups. Module membership lives on the Graph as a bidirectional relation,
// not on the chunks themselves, so a module can belong to many chunks
// without duplicated storage.
//
// INVARIANTS:
//   - Group parent/child edges form a DAG even when the underlying module
//     graph is cyclic
//   - Group creation indices are unique and assigned in creation order
//   - All enumerations are insertion ordered so that identical inputs
//     produce byte identical outputs
package chunk
