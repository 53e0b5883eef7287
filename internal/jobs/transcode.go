package jobs

import (
	"context"
	"time"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
)

// cancelPollInterval is how often a running transcode checks the
// cancellation token.
const cancelPollInterval = 250 * time.Millisecond

// transcode converts every enriched video that browsers cannot play, one
// at a time. Setting the cancellation token kills the running ffmpeg.
func (r *Registry) transcode(parent context.Context, run bootstrap.Run) (int, error) {
	videos, err := r.db.VideosNeedingTranscode(parent)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	go cancelOnToken(ctx, run.Cancel, cancel)

	run.Progress.SetTotal(len(videos))
	done := 0
	for _, v := range videos {
		if run.Cancel.Cancelled() || ctx.Err() != nil {
			break
		}
		if r.transcodeVideo(ctx, parent, v) {
			done++
		}
		run.Progress.Advance()
	}
	if len(videos) > 0 {
		r.log.Info("Transcoded %d of %d videos", done, len(videos))
	}
	return done, parent.Err()
}

// transcodeVideo converts v under ctx and records the result under parent.
func (r *Registry) transcodeVideo(ctx, parent context.Context, v database.Video) bool {
	path, err := r.videos.Transcode(ctx, r.abs(v.Path), v.ID)
	if err != nil {
		r.log.Warn("Transcode failed for %s: %v", v.Path, err)
		return false
	}
	if err := r.db.SetVideoTranscoded(parent, v.ID, path); err != nil {
		r.log.Error("Failed to record transcode of %s: %v", v.Path, err)
		return false
	}
	return true
}

// cancelOnToken calls cancel once token is set, or returns when ctx ends.
func cancelOnToken(ctx context.Context, token *bootstrap.CancelToken, cancel context.CancelFunc) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if token.Cancelled() {
				cancel()
				return
			}
		}
	}
}
