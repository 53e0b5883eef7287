package jobs

import (
	"context"
	"sync/atomic"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/mediatypes"
	"media-library/internal/workers"
)

// thumbnail renders missing thumbnails. Until a row has one it is not
// shown in any album.
func (r *Registry) thumbnail(m mediatypes.MediaKind) Body {
	if m == mediatypes.Video {
		return r.thumbnailVideos
	}
	return r.thumbnailPictures
}

func (r *Registry) thumbnailPictures(ctx context.Context, run bootstrap.Run) (int, error) {
	pictures, err := r.db.PicturesWithoutThumbnail(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(pictures))
	var changed atomic.Int64
	err = workers.Each(ctx, r.mixWorkers, pictures, run.Cancel.Cancelled, func(ctx context.Context, p database.Picture) {
		defer run.Progress.Advance()
		if r.memory.Wait(ctx) != nil {
			return
		}
		path, err := r.thumbs.Photo(ctx, r.abs(p.Path), p.ID)
		if err != nil {
			r.log.Warn("Thumbnail failed for %s: %v", p.Path, err)
			return
		}
		if err := r.db.SetPictureThumbnail(ctx, p.ID, path); err != nil {
			r.log.Error("Failed to store thumbnail for %s: %v", p.Path, err)
			return
		}
		changed.Add(1)
	})
	return int(changed.Load()), err
}

func (r *Registry) thumbnailVideos(ctx context.Context, run bootstrap.Run) (int, error) {
	videos, err := r.db.VideosWithoutThumbnail(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(videos))
	var changed atomic.Int64
	err = workers.Each(ctx, r.mixWorkers, videos, run.Cancel.Cancelled, func(ctx context.Context, v database.Video) {
		defer run.Progress.Advance()
		if r.memory.Wait(ctx) != nil {
			return
		}
		path, err := r.thumbs.Video(ctx, r.abs(v.Path), v.ID)
		if err != nil {
			r.log.Warn("Thumbnail failed for %s: %v", v.Path, err)
			return
		}
		if err := r.db.SetVideoThumbnail(ctx, v.ID, path); err != nil {
			r.log.Error("Failed to store thumbnail for %s: %v", v.Path, err)
			return
		}
		changed.Add(1)
	})
	return int(changed.Load()), err
}
