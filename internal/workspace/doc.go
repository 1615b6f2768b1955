// Package workspace models the build graph of a monorepo: the set of named
// workspaces, the dependency edges between them, and the batched execution
// plan derived from those edges.
//
// A Graph is constructed once from the manifest and is immutable afterwards.
// Resolve layers a graph into ordered batches where every workspace's
// dependencies live in strictly earlier batches, so the members of a single
// batch can build concurrently.
package workspace
