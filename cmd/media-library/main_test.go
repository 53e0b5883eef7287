package main

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/handlers"
	"media-library/internal/library"
	"media-library/internal/startup"
)

type staticRepo []database.Visual

func (r staticRepo) AllVisuals(context.Context) ([]database.Visual, error) {
	return r, nil
}

type fakePipeline struct {
	queue  *bootstrap.TaskQueue
	status bootstrap.Status
}

func (f *fakePipeline) Queue() *bootstrap.TaskQueue { return f.queue }
func (f *fakePipeline) Status() bootstrap.Status    { return f.status }

func TestStatsAdapter(t *testing.T) {
	lib := library.New(staticRepo{
		{ID: database.PhotoVisualID(1), PictureID: 1, IsMotionPhoto: true},
		{ID: database.PhotoVisualID(2), PictureID: 2, IsSelfie: true},
		{ID: database.VideoVisualID(1), VideoID: 1, IsVideo: true},
	})
	if err := lib.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	queue := bootstrap.NewTaskQueue()
	queue.Push(bootstrap.NewTask(bootstrap.Transcode()), bootstrap.NewTask(bootstrap.MotionPhotoExtract()))
	adapter := &statsAdapter{lib: lib, orch: &fakePipeline{queue: queue, status: bootstrap.Status{
		State:    bootstrap.StateRunning,
		Progress: &bootstrap.TaskProgress{Done: 3, Total: 8},
	}}}

	stats := adapter.GetStats()
	if stats.Photos != 2 || stats.Videos != 1 || stats.MotionPhotos != 1 || stats.Selfies != 1 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.SnapshotVer != 1 {
		t.Errorf("SnapshotVer = %d, want 1", stats.SnapshotVer)
	}
	if stats.QueuedTasks != 2 || !stats.PipelineBusy {
		t.Errorf("QueuedTasks = %d, PipelineBusy = %v", stats.QueuedTasks, stats.PipelineBusy)
	}
	if stats.LastRefreshed.IsZero() {
		t.Error("LastRefreshed not set")
	}
	if stats.TaskItemsDone != 3 || stats.TaskItemsTotal != 8 {
		t.Errorf("task progress = %d/%d, want 3/8", stats.TaskItemsDone, stats.TaskItemsTotal)
	}

	idle := &statsAdapter{lib: lib, orch: &fakePipeline{queue: bootstrap.NewTaskQueue(), status: bootstrap.Status{State: bootstrap.StateIdle}}}
	if stats := idle.GetStats(); stats.PipelineBusy || stats.TaskItemsTotal != 0 {
		t.Errorf("idle stats = %+v", stats)
	}
}

func TestServerTimeouts(t *testing.T) {
	srv := newServer(":8080", http.NotFoundHandler())
	if srv.Addr != ":8080" {
		t.Errorf("Addr = %q", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 || srv.ReadTimeout == 0 || srv.IdleTimeout == 0 {
		t.Errorf("timeouts not set: %+v", srv)
	}
	if srv.WriteTimeout < 30*time.Second {
		t.Errorf("WriteTimeout = %v, too short for large album responses", srv.WriteTimeout)
	}
}

type idleTasks struct{}

func (idleTasks) Status() bootstrap.Status                         { return bootstrap.Status{State: bootstrap.StateIdle} }
func (idleTasks) ScanPicturesForFaces(context.Context) error       { return nil }
func (idleTasks) ScanPictureForFaces(context.Context, int64) error { return nil }
func (idleTasks) TranscodeAll(context.Context) error               { return nil }
func (idleTasks) Rescan(context.Context) error                     { return nil }
func (idleTasks) Stop(context.Context) error                       { return nil }

func TestMetricsServerRoutes(t *testing.T) {
	lib := library.New(staticRepo{})
	settings := startup.NewSettings(&startup.Config{SettingsFile: t.TempDir() + "/settings.toml"})
	h := handlers.New(lib, idleTasks{}, settings)
	srv := newMetricsServer(":9090", h)

	tests := []struct {
		path   string
		status int
	}{
		{"/metrics", http.StatusOK},
		{"/health", http.StatusOK},
		{"/api/visuals", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestPipelineEventLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	lib := library.New(staticRepo{
		{ID: database.PhotoVisualID(1), PictureID: 1},
		{ID: database.VideoVisualID(1), VideoID: 1, IsVideo: true},
	})
	if err := lib.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	observe := pipelineEventLogger(lib)
	observe(bootstrap.Event{Type: bootstrap.EventTaskStarted, Kind: bootstrap.Transcode(), Time: time.Now()})
	observe(bootstrap.Event{Type: bootstrap.EventCompleted, Time: time.Now()})

	out := buf.String()
	for _, want := range []string{"Task started: " + bootstrap.Transcode().String(), "library has 2 items (snapshot v1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
