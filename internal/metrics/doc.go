// Package metrics provides an observability framework for monoserve build
// and serving metrics.
//
// The package implements the Null Object pattern so metrics collection never
// requires nil checks at call sites. Components receive a Recorder through
// dependency injection and default to NoopRecorder, whose methods compile
// down to nothing:
//
//	runner := pipeline.NewRunner(cfg, exec, metrics.NoopRecorder{})
//
// When the admin listener is enabled, the serve path swaps in a
// PrometheusRecorder bound to its registry:
//
//	reg := metrics.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//
// HTTPHandler exposes the registry for scraping on the admin listener.
package metrics
