package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// RetryConfig configures the ESTALE retry loop.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// Stat is os.Stat with the default retry policy.
func Stat(path string) (os.FileInfo, error) {
	return StatWithRetry(path, DefaultRetryConfig())
}

// Open is os.Open with the default retry policy.
func Open(path string) (*os.File, error) {
	return OpenWithRetry(path, DefaultRetryConfig())
}

func StatWithRetry(path string, cfg RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, cfg, os.Stat)
}

func OpenWithRetry(path string, cfg RetryConfig) (*os.File, error) {
	return withRetry("open", path, cfg, os.Open)
}

func withRetry[T any](op, path string, cfg RetryConfig, fn func(string) (T, error)) (T, error) {
	backoff := cfg.InitialBackoff
	for attempt := 0; ; attempt++ {
		v, err := fn(path)
		if err == nil {
			if attempt > 0 {
				logging.Debug("%s %s succeeded on retry %d", op, path, attempt)
				metrics.FilesystemRetriesTotal.WithLabelValues(op, "success").Inc()
			}
			return v, nil
		}
		if !isStale(err) {
			return v, err
		}

		metrics.FilesystemStaleErrorsTotal.WithLabelValues(op).Inc()
		if attempt >= cfg.MaxRetries {
			logging.Warn("%s %s still stale after %d retries: %v", op, path, cfg.MaxRetries, err)
			metrics.FilesystemRetriesTotal.WithLabelValues(op, "failure").Inc()
			return v, err
		}

		time.Sleep(backoff)
		backoff = min(backoff*2, cfg.MaxBackoff)
	}
}

func isStale(err error) bool {
	return errors.Is(err, syscall.ESTALE)
}
