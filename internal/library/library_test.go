package library

import (
	"context"
	"errors"
	"sync"
	"testing"

	"media-library/internal/database"
)

// mockRepository is a hand-written Repository for tests.
type mockRepository struct {
	mu      sync.Mutex
	visuals []database.Visual
	err     error
	calls   int
}

func (m *mockRepository) AllVisuals(_ context.Context) ([]database.Visual, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]database.Visual, len(m.visuals))
	copy(out, m.visuals)
	return out, nil
}

func (m *mockRepository) set(visuals []database.Visual, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visuals = visuals
	m.err = err
}

func photo(id int64, parent string) database.Visual {
	return database.Visual{
		ID:            database.PhotoVisualID(id),
		PictureID:     id,
		Path:          parent + "/p.jpg",
		ParentPath:    parent,
		ThumbnailPath: "/cache/thumb.jpg",
	}
}

func TestNewIsEmpty(t *testing.T) {
	l := New(&mockRepository{})

	if l.Len() != 0 || len(l.All()) != 0 {
		t.Errorf("new library not empty: %d items", l.Len())
	}
	if l.Ready() {
		t.Error("Ready() = true before first refresh")
	}
	if l.Snapshot().Version != 0 {
		t.Errorf("Version = %d, want 0", l.Snapshot().Version)
	}
}

func TestRefresh(t *testing.T) {
	repo := &mockRepository{visuals: []database.Visual{photo(1, "/m"), photo(2, "/m")}}
	l := New(repo)

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	snap := l.Snapshot()
	if snap.Version != 1 || snap.RefreshedAt.IsZero() {
		t.Errorf("Snapshot() = version %d at %v", snap.Version, snap.RefreshedAt)
	}
	if !l.Ready() {
		t.Error("Ready() = false after refresh")
	}

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := l.Snapshot().Version; got != 2 {
		t.Errorf("Version after second refresh = %d, want 2", got)
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	repo := &mockRepository{visuals: []database.Visual{photo(1, "/m")}}
	l := New(repo)
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := l.Snapshot()

	repoErr := errors.New("database unavailable")
	repo.set(nil, repoErr)

	err := l.Refresh(context.Background())
	if !errors.Is(err, repoErr) {
		t.Fatalf("Refresh() error = %v, want wrapped %v", err, repoErr)
	}
	if l.Snapshot() != before {
		t.Error("failed refresh replaced the snapshot")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestGet(t *testing.T) {
	repo := &mockRepository{visuals: []database.Visual{photo(7, "/m")}}
	l := New(repo)

	// before any refresh nothing can be found
	if _, ok := l.Get("missing"); ok {
		t.Error("Get(missing) on empty library found something")
	}

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		id     database.VisualID
		wantOK bool
	}{
		{name: "present", id: "photo-7", wantOK: true},
		{name: "missing", id: "missing", wantOK: false},
		{name: "wrong kind", id: "video-7", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := l.Get(tt.id)
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if ok && v.ID != tt.id {
				t.Errorf("Get(%q) returned %q", tt.id, v.ID)
			}
			if !ok && v != nil {
				t.Errorf("Get(%q) returned non-nil visual on miss", tt.id)
			}
		})
	}
}

// TestSnapshotAtomicity checks readers racing refreshes only ever see a
// complete snapshot: every item of one snapshot belongs to the same
// generation.
func TestSnapshotAtomicity(t *testing.T) {
	const size = 50

	gen := func(parent string) []database.Visual {
		out := make([]database.Visual, size)
		for i := range out {
			out[i] = photo(int64(i+1), parent)
		}
		return out
	}

	repo := &mockRepository{visuals: gen("/a")}
	l := New(repo)
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan string, 4)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				items := l.All()
				if len(items) != size {
					errs <- "partial snapshot observed"
					return
				}
				first := items[0].ParentPath
				for _, v := range items {
					if v.ParentPath != first {
						errs <- "mixed snapshot observed"
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		parent := "/a"
		if i%2 == 0 {
			parent = "/b"
		}
		repo.set(gen(parent), nil)
		if err := l.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	cancel()
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestConcurrentRefresh(t *testing.T) {
	repo := &mockRepository{visuals: []database.Visual{photo(1, "/m")}}
	l := New(repo)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// refreshes are serialised so no version is lost
	if got := l.Snapshot().Version; got != 10 {
		t.Errorf("Version = %d, want 10", got)
	}
}

func TestCounts(t *testing.T) {
	selfie := photo(2, "/m")
	selfie.IsSelfie = true
	motion := photo(3, "/m")
	motion.IsMotionPhoto = true
	video := database.Visual{ID: database.VideoVisualID(1), IsVideo: true, ParentPath: "/m"}

	l := New(&mockRepository{visuals: []database.Visual{photo(1, "/m"), selfie, motion, video}})
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := l.Counts()
	want := Counts{Photos: 3, Videos: 1, MotionPhotos: 1, Selfies: 1}
	if got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}
}
