package library

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"media-library/internal/database"
	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// Repository loads the visuals a snapshot is built from.
type Repository interface {
	AllVisuals(ctx context.Context) ([]database.Visual, error)
}

// Snapshot is an immutable view of the library. Version increases by one
// on every successful refresh; version 0 is the empty startup snapshot.
type Snapshot struct {
	Items       []*database.Visual
	Version     uint64
	RefreshedAt time.Time
}

// Counts summarises a snapshot by kind.
type Counts struct {
	Photos       int `json:"photos"`
	Videos       int `json:"videos"`
	MotionPhotos int `json:"motionPhotos"`
	Selfies      int `json:"selfies"`
}

// Library is the concurrently readable library index.
type Library struct {
	repo      Repository
	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	log       *logging.Logger
}

// New creates a library with an empty snapshot. Call Refresh to load it.
func New(repo Repository) *Library {
	l := &Library{
		repo: repo,
		log:  logging.For("library"),
	}
	l.current.Store(&Snapshot{})
	return l
}

// Refresh reloads the library from the repository and installs the result
// as the current snapshot. On error the previous snapshot stays in place.
// Concurrent refreshes run one after another; the last to finish wins.
func (l *Library) Refresh(ctx context.Context) error {
	l.refreshMu.Lock()
	defer l.refreshMu.Unlock()

	start := time.Now()
	visuals, err := l.repo.AllVisuals(ctx)
	if err != nil {
		metrics.LibraryRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to refresh library: %w", err)
	}

	items := make([]*database.Visual, len(visuals))
	for i := range visuals {
		items[i] = &visuals[i]
	}

	next := &Snapshot{
		Items:       items,
		Version:     l.current.Load().Version + 1,
		RefreshedAt: time.Now(),
	}
	l.current.Store(next)

	duration := time.Since(start)
	metrics.LibraryRefreshTotal.WithLabelValues("success").Inc()
	metrics.LibraryRefreshDuration.Observe(duration.Seconds())
	metrics.LibrarySnapshotVersion.Set(float64(next.Version))

	l.log.Info("Library refreshed: %d items (version %d) in %v", len(items), next.Version, duration)
	return nil
}

// Snapshot returns the current snapshot.
func (l *Library) Snapshot() *Snapshot {
	return l.current.Load()
}

// All returns every visual of the current snapshot. The slice is shared
// and must not be modified.
func (l *Library) All() []*database.Visual {
	return l.current.Load().Items
}

// Len returns the number of visuals in the current snapshot.
func (l *Library) Len() int {
	return len(l.current.Load().Items)
}

// Ready reports whether at least one refresh has succeeded.
func (l *Library) Ready() bool {
	return l.current.Load().Version > 0
}

// Get looks up a visual by ID in the current snapshot.
func (l *Library) Get(id database.VisualID) (*database.Visual, bool) {
	for _, v := range l.current.Load().Items {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// Counts tallies the current snapshot.
func (l *Library) Counts() Counts {
	var c Counts
	for _, v := range l.current.Load().Items {
		switch {
		case v.IsVideo:
			c.Videos++
		default:
			c.Photos++
		}
		if v.IsMotionPhoto {
			c.MotionPhotos++
		}
		if v.IsSelfie {
			c.Selfies++
		}
	}
	return c
}
