// Package metrics provides build observability for docpartials.
//
// Components hold a Recorder and default to NoopRecorder, so metrics cost
// nothing unless a PrometheusRecorder is injected. The watch command serves
// the registry through HTTPHandler when metrics are enabled in configuration.
package metrics
