package handlers

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"media-library/internal/bootstrap"
	"media-library/internal/library"
)

// Tasks is the part of the orchestrator the API drives.
type Tasks interface {
	Status() bootstrap.Status
	ScanPicturesForFaces(ctx context.Context) error
	ScanPictureForFaces(ctx context.Context, pictureID int64) error
	TranscodeAll(ctx context.Context) error
	Rescan(ctx context.Context) error
	Stop(ctx context.Context) error
}

// SettingsStore reads and changes runtime settings.
type SettingsStore interface {
	FaceDetection() bootstrap.FaceDetectionMode
	SetFaceDetection(mode bootstrap.FaceDetectionMode) error
}

type Handlers struct {
	library   *library.Library
	tasks     Tasks
	settings  SettingsStore
	limiter   *rate.Limiter
	startedAt time.Time
}

// New creates the API handlers. Task endpoints share one token bucket of
// taskBurst requests refilled at taskRate per second.
func New(lib *library.Library, tasks Tasks, settings SettingsStore) *Handlers {
	return &Handlers{
		library:   lib,
		tasks:     tasks,
		settings:  settings,
		limiter:   rate.NewLimiter(rate.Limit(taskRate), taskBurst),
		startedAt: time.Now(),
	}
}

const (
	taskRate  = 1
	taskBurst = 10
)
