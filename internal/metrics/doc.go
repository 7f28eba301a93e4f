// Package metrics provides observability hooks for the Focus Forge state bus.
//
// Components receive a Recorder through their options and default to NoopRecorder,
// so no nil checks are needed at call sites:
//
//	store := slot.New(backend, notifier, slot.WithRecorder(metrics.NoopRecorder{}))
//
// PrometheusRecorder forwards to client_golang collectors registered on a caller-owned
// registry; HTTPHandler exposes that registry for scraping (see `focusforge watch
// --metrics-addr`).
package metrics
