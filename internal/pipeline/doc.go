// Package pipeline executes a resolved build plan batch by batch.
//
// Workspaces inside a batch build concurrently; batches themselves run
// strictly in order. A failed workspace never interrupts the rest of its
// batch, but everything scheduled after that batch is recorded as skipped
// with a pointer to the dependency that caused it. Successful builds are
// promoted into the managed artifact tree with a stage-then-rename swap so
// a readable artifact is never replaced by a half-written one.
package pipeline
