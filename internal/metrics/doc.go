// Package metrics provides observability hooks for zephyrforge runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	svc := build.NewService(runner).WithRecorder(metrics.NewPrometheusRecorder(nil))
//
// The PrometheusRecorder keeps its own registry. A one-shot CLI process has
// nothing to scrape it, so the command layer writes it out with
// WriteTextfile for the node_exporter textfile collector.
package metrics
