// Package metrics provides observability hooks for the rptl duties.
//
// Components receive a Recorder through dependency injection. NoopRecorder is
// the default and does nothing; PrometheusRecorder forwards to a Prometheus
// registry which HTTPHandler exposes for scraping.
//
// Typical wiring:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
//
// Duty labels are the duty names used in logs ("capture", "compile",
// "prune", "timestamp", "control").
package metrics
