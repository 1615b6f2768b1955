// Package router dispatches every inbound request of the unified origin.
//
// Classification is a pure function over an ordered route table: each path
// maps to exactly one of api, static, or fallback before any I/O happens.
// API traffic reaches the configured API handler verbatim in both modes.
// Non-API traffic is the mode-dependent part: production serves files from
// the published static root and answers unknown paths with the fallback
// document (status 200, never 404, so client-side routing can resolve
// them); development forwards to the live dev server and relays its
// responses unchanged, including its errors.
//
// The ServingContext is immutable after construction. Mode is decided once
// at startup and never switches at runtime.
package router
