// Package metrics provides the observability hooks for autopage.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs nil checks:
//
//	collector := autocreate.NewCollector(opts, autocreate.Deps{
//	    Recorder: metrics.NewPrometheusRecorder(registry),
//	})
//
// PrometheusRecorder exports the counters and histograms; HTTPHandler serves
// them. MemoryRecorder keeps plain counts for tests.
package metrics
