package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/media"
	"media-library/internal/mediatypes"
)

// extractMotionPhotos looks for a video appended to each unchecked JPEG
// and copies it to <cache>/motion/<id>.mp4. Pictures are marked checked
// either way; only pictures that turned out to be motion photos count as
// changed.
func (r *Registry) extractMotionPhotos(ctx context.Context, run bootstrap.Run) (int, error) {
	pictures, err := r.db.PicturesNeedingMotionCheck(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(r.motionDir, 0o755); err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(pictures))
	changed := 0
	for _, p := range pictures {
		if run.Cancel.Cancelled() || ctx.Err() != nil {
			break
		}
		if r.checkMotionPhoto(ctx, p) {
			changed++
		}
		run.Progress.Advance()
	}
	return changed, ctx.Err()
}

// checkMotionPhoto reports whether p turned out to be a motion photo.
func (r *Registry) checkMotionPhoto(ctx context.Context, p database.Picture) bool {
	var video string
	if mediatypes.IsJPEG(p.Path) {
		dst := filepath.Join(r.motionDir, strconv.FormatInt(p.ID, 10)+".mp4")
		found, err := media.ExtractMotionVideo(r.abs(p.Path), dst)
		if err != nil {
			r.log.Warn("Motion photo check failed for %s: %v", p.Path, err)
			return false
		}
		if found {
			video = dst
		}
	}

	if err := r.db.SetMotionPhotoVideo(ctx, p.ID, video); err != nil {
		r.log.Error("Failed to store motion video for %s: %v", p.Path, err)
		return false
	}
	return video != ""
}
