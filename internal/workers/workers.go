package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// OverrideEnv names the environment variable that forces a pool size.
const OverrideEnv = "THUMBNAIL_WORKERS"

// Profile is the number of workers per available CPU for a kind of work.
type Profile float64

const (
	CPU   Profile = 1.0
	IO    Profile = 2.0
	Mixed Profile = 1.5
)

// Count returns the pool size for a workload profile, capped at limit
// (0 means no cap). The result is always at least 1.
func Count(p Profile, limit int) int {
	if override := os.Getenv(OverrideEnv); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			return capAt(n, limit)
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * float64(p))
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns the pool size for CPU-bound work.
func ForCPU(limit int) int { return Count(CPU, limit) }

// ForIO returns the pool size for I/O-bound work.
func ForIO(limit int) int { return Count(IO, limit) }

// ForMixed returns the pool size for work such as thumbnailing that both
// decodes and waits on disk or subprocesses.
func ForMixed(limit int) int { return Count(Mixed, limit) }

// Each calls fn for every item with at most size calls in flight and waits
// for them. No new item is started once stop returns true or ctx is done;
// stop may be nil. The returned error is ctx.Err().
func Each[T any](ctx context.Context, size int, items []T, stop func() bool, fn func(ctx context.Context, item T)) error {
	var g errgroup.Group
	g.SetLimit(max(size, 1))

	for _, item := range items {
		if ctx.Err() != nil || (stop != nil && stop()) {
			break
		}
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}
