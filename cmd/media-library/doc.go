// Package main runs the media library server.
//
// The server keeps a sqlite catalogue of the photos and videos under
// MEDIA_DIR, derives thumbnails, metadata, motion-photo videos and
// browser-compatible transcodes from them, and serves the resulting
// library over a JSON API.
//
// # Startup
//
//  1. Set the Go memory limit from the container limit (package memory)
//  2. Load configuration (see package startup for the variables)
//  3. Open the database and start libvips
//  4. Build the job registry and the task orchestrator
//  5. Queue the startup pipeline: scan, clean, enrich and thumbnail each
//     media kind, then extract motion photos and, when face detection is
//     on, detect and recognize faces
//  6. Start the filesystem watcher, the metrics collector and the HTTP
//     servers
//
// The library snapshot is refreshed whenever a task reports changes, so
// the API shows new items while the pipeline is still running.
//
// # HTTP Servers
//
// The main server (PORT, default 8080) serves /health, /readyz and the
// /api routes. The metrics server (METRICS_PORT, default 9090) serves
// /metrics and /health when METRICS_ENABLED is true.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the watcher is closed, queued tasks are discarded,
// the running task is cancelled, and both servers are shut down within
// 30 seconds. The database is closed last.
//
// # Build Requirements
//
// CGO is required for sqlite and libvips. ffmpeg and ffprobe must be on
// PATH for video thumbnails, probing and transcoding.
//
//	go build -o media-library ./cmd/media-library
package main
