// Package metrics provides Prometheus instrumentation for the media library.
//
// All metrics are prefixed with "media_library_" and registered with the
// default registry through promauto.
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight requests
//   - Database: query counts and durations, transaction durations
//   - Task pipeline: per-job started/completed/error counters and durations,
//     queue length, running gauge, drains, stop requests, watchdog warnings
//   - Library: snapshot refreshes, refresh duration, items by kind, version
//   - Thumbnails: generations by type and status
//   - Watcher: filesystem events and triggered rescans
//
// The Collector samples library statistics on an interval so gauges stay
// current between pipeline runs.
package metrics
