package jobs

import (
	"context"
	"os"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/filesystem"
	"media-library/internal/mediatypes"
)

// clean deletes rows whose file is gone, along with their cached
// thumbnail, transcode and motion-photo video.
func (r *Registry) clean(m mediatypes.MediaKind) Body {
	if m == mediatypes.Video {
		return r.cleanVideos
	}
	return r.cleanPictures
}

func (r *Registry) cleanPictures(ctx context.Context, run bootstrap.Run) (int, error) {
	pictures, err := r.db.Pictures(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(pictures))
	var gone []database.Picture
	for _, p := range pictures {
		if run.Cancel.Cancelled() {
			break
		}
		if !r.exists(p.Path) {
			gone = append(gone, p)
		}
		run.Progress.Advance()
	}

	ids := make([]int64, len(gone))
	for i, p := range gone {
		ids[i] = p.ID
	}
	n, err := r.db.DeletePictures(ctx, ids)
	if err != nil {
		return 0, err
	}

	// Cached files go only once their rows are gone.
	for _, p := range gone {
		r.removeCached(r.thumbs.Remove(mediatypes.Photo, p.ID))
		if p.MotionVideoPath != "" {
			r.removeCached(os.Remove(p.MotionVideoPath))
		}
	}
	if n > 0 {
		r.log.Info("Removed %d deleted pictures", n)
	}
	return int(n), nil
}

func (r *Registry) cleanVideos(ctx context.Context, run bootstrap.Run) (int, error) {
	videos, err := r.db.Videos(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(videos))
	var gone []database.Video
	for _, v := range videos {
		if run.Cancel.Cancelled() {
			break
		}
		if !r.exists(v.Path) {
			gone = append(gone, v)
		}
		run.Progress.Advance()
	}

	ids := make([]int64, len(gone))
	for i, v := range gone {
		ids[i] = v.ID
	}
	n, err := r.db.DeleteVideos(ctx, ids)
	if err != nil {
		return 0, err
	}

	for _, v := range gone {
		r.removeCached(r.thumbs.Remove(mediatypes.Video, v.ID))
		if v.TranscodedPath != "" {
			r.removeCached(r.videos.Remove(v.ID))
		}
	}
	if n > 0 {
		r.log.Info("Removed %d deleted videos", n)
	}
	return int(n), nil
}

// exists treats any stat error other than "not found" as present, so an
// unmounted or unreadable share does not wipe the library.
func (r *Registry) exists(path string) bool {
	_, err := filesystem.Stat(r.abs(path))
	return err == nil || !os.IsNotExist(err)
}

func (r *Registry) removeCached(err error) {
	if err != nil && !os.IsNotExist(err) {
		r.log.Warn("Failed to remove cached file: %v", err)
	}
}
