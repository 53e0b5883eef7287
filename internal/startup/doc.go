// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads environment variables, optionally overlaid on a TOML
// settings file. Environment variables win over the file:
//
//   - MEDIA_DIR: library root (default: /media)
//   - CACHE_DIR: thumbnails, transcodes and motion-photo videos (default: /cache)
//   - DATABASE_DIR: sqlite database directory (default: /database)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve metrics (default: true)
//   - FACE_DETECTION: on/off (default: off)
//   - WATCH_ENABLED: watch MEDIA_DIR for changes (default: true)
//   - WATCH_DEBOUNCE: quiet period before a rescan (default: 10s)
//   - TASK_WARN_AFTER: warn about tasks running longer than this, 0 disables (default: 30m)
//   - SETTINGS_FILE: TOML overlay (default: $DATABASE_DIR/settings.toml)
//   - LOG_HEALTH_CHECKS: log /health and /readyz requests (default: false)
//
// A settings file looks like:
//
//	media_dir = "/photos"
//	face_detection = "on"
//	watch_debounce = "30s"
//
// # Runtime settings
//
// [Settings] holds the values that can change while the server runs (the
// face-detection mode). Changes are written back to the settings file so
// they survive a restart.
package startup
