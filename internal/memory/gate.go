package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// Config holds the gate thresholds, as fractions of the limit.
type Config struct {
	// Limit is the heap limit in bytes. Zero uses the Go memory limit.
	Limit             int64
	HighWaterMark     float64
	CriticalWaterMark float64
	CheckInterval     time.Duration
}

func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Gate pauses memory-hungry work while heap usage is critical.
type Gate struct {
	cfg   Config
	limit int64
	heap  func() uint64
	log   *logging.Logger

	mu     sync.Mutex
	paused bool
	resume chan struct{}
	usage  float64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewGate creates a gate. Without a limit the gate never closes.
func NewGate(cfg Config) *Gate {
	limit := cfg.Limit
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
		}
	}
	return &Gate{
		cfg:    cfg,
		limit:  limit,
		heap:   heapAlloc,
		log:    logging.For("memory"),
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Start samples heap usage every CheckInterval until Stop.
func (g *Gate) Start() {
	if g.limit == 0 {
		g.log.Info("No memory limit configured, thumbnail backpressure disabled")
		return
	}
	g.log.Info("Memory gate watching %s limit", humanize.IBytes(uint64(g.limit)))
	go func() {
		ticker := time.NewTicker(g.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				g.check()
			case <-g.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases any waiters.
func (g *Gate) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}

func (g *Gate) check() {
	alloc := g.heap()
	usage := float64(alloc) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage = usage

	switch {
	case !g.paused && usage >= g.cfg.CriticalWaterMark:
		g.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		g.log.Warn("Heap at %.0f%% of limit (%s), pausing thumbnail work", usage*100, humanize.IBytes(alloc))
		go runtime.GC()
	case g.paused && usage < g.cfg.HighWaterMark:
		g.paused = false
		metrics.MemoryPaused.Set(0)
		close(g.resume)
		g.resume = make(chan struct{})
		g.log.Info("Heap back to %.0f%% of limit, resuming", usage*100)
	}
}

// Wait blocks while the gate is closed. It returns ctx.Err() if ctx ends
// first and nil once the gate opens or is stopped.
func (g *Gate) Wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	if !g.paused {
		g.mu.Unlock()
		return nil
	}
	resume := g.resume
	g.mu.Unlock()

	select {
	case <-resume:
		return nil
	case <-g.stop:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether the gate is closed.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit.
func (g *Gate) Usage() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}
