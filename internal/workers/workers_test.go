package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCount(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		profile Profile
		limit   int
		want    int
	}{
		{"cpu unlimited", CPU, 0, procs},
		{"io unlimited", IO, 0, procs * 2},
		{"mixed unlimited", Mixed, 0, max(int(float64(procs)*1.5), 1)},
		{"cpu capped at one", CPU, 1, 1},
		{"io capped", IO, 2, min(procs*2, 2)},
		{"tiny profile still one worker", Profile(0.01), 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.profile, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.profile, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		override string
		limit    int
		want     int
	}{
		{"override used", "3", 0, 3},
		{"override capped by limit", "20", 8, 8},
		{"zero ignored", "0", 1, 1},
		{"negative ignored", "-4", 1, 1},
		{"garbage ignored", "lots", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(OverrideEnv, tt.override)
			if got := Count(CPU, tt.limit); got != tt.want {
				t.Errorf("Count() with %s=%q = %d, want %d", OverrideEnv, tt.override, got, tt.want)
			}
		})
	}
}

func TestHelpersRespectLimit(t *testing.T) {
	t.Setenv(OverrideEnv, "")
	for name, fn := range map[string]func(int) int{"ForCPU": ForCPU, "ForIO": ForIO, "ForMixed": ForMixed} {
		if got := fn(1); got != 1 {
			t.Errorf("%s(1) = %d, want 1", name, got)
		}
	}
}

func TestEachVisitsAll(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	var mu sync.Mutex
	seen := make(map[int]bool)
	err := Each(context.Background(), 4, items, nil, func(_ context.Context, n int) {
		mu.Lock()
		seen[n] = true
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Each() error = %v", err)
	}
	if len(seen) != len(items) {
		t.Errorf("visited %d items, want %d", len(seen), len(items))
	}
}

func TestEachBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	_ = Each(context.Background(), 3, items, nil, func(context.Context, int) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	})

	if p := peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
}

func TestEachStop(t *testing.T) {
	var stopped atomic.Bool
	var calls atomic.Int32
	items := make([]int, 50)

	_ = Each(context.Background(), 1, items, stopped.Load, func(context.Context, int) {
		if calls.Add(1) == 5 {
			stopped.Store(true)
		}
	})

	// one worker: at most the item already handed out runs after the flag
	if n := calls.Load(); n < 5 || n > 6 {
		t.Errorf("calls = %d, want 5 or 6", n)
	}
}

func TestEachCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Each(ctx, 2, []int{1, 2, 3}, nil, func(context.Context, int) { called = true })
	if err != context.Canceled {
		t.Errorf("Each() error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("fn called with a cancelled context")
	}
}
