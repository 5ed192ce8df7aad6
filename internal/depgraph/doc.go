// Package depgraph holds the module dependency graph consumed by chunk
// graph construction.
//
// The graph is assembled once by an upstream resolution stage and is read
// only afterwards. Modules are referenced through dense ids so that higher
// layers can use index based sets instead of pointer maps.
//
// INVARIANTS:
//   - Module ids are assigned in insertion order and never reused
//   - Per-module outgoing connections preserve insertion order
//   - The package imports nothing from internal/, it is the bottom of the
//     dependency stack
package depgraph
