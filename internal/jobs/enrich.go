package jobs

import (
	"context"
	"sync/atomic"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/media"
	"media-library/internal/mediatypes"
	"media-library/internal/workers"
)

// enrich fills in capture time, dimensions and (for videos) codec details
// for rows that do not have them yet. A file that cannot be read is left
// for the next run.
func (r *Registry) enrich(m mediatypes.MediaKind) Body {
	if m == mediatypes.Video {
		return r.enrichVideos
	}
	return r.enrichPictures
}

func (r *Registry) enrichPictures(ctx context.Context, run bootstrap.Run) (int, error) {
	pictures, err := r.db.PicturesNeedingEnrichment(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(pictures))
	var changed atomic.Int64
	err = workers.Each(ctx, r.ioWorkers, pictures, run.Cancel.Cancelled, func(ctx context.Context, p database.Picture) {
		defer run.Progress.Advance()
		meta, err := media.PhotoMetadata(r.abs(p.Path))
		if err != nil {
			r.log.Warn("Cannot enrich %s: %v", p.Path, err)
			return
		}
		meta.IsSelfie = media.IsSelfie(p.Path)
		if err := r.db.SetPictureMetadata(ctx, p.ID, meta); err != nil {
			r.log.Error("Failed to store metadata for %s: %v", p.Path, err)
			return
		}
		changed.Add(1)
	})
	return int(changed.Load()), err
}

func (r *Registry) enrichVideos(ctx context.Context, run bootstrap.Run) (int, error) {
	videos, err := r.db.VideosNeedingEnrichment(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(videos))
	var changed atomic.Int64
	err = workers.Each(ctx, r.ioWorkers, videos, run.Cancel.Cancelled, func(ctx context.Context, v database.Video) {
		defer run.Progress.Advance()
		info, err := r.videos.Probe(ctx, r.abs(v.Path))
		if err != nil {
			r.log.Warn("Cannot probe %s: %v", v.Path, err)
			return
		}

		meta := database.VideoMetadata{
			CreatedAt:         info.CreatedAt,
			Width:             info.Width,
			Height:            info.Height,
			Duration:          info.Duration,
			VideoCodec:        info.VideoCodec,
			AudioCodec:        info.AudioCodec,
			ContainerFormat:   info.ContainerFormat,
			TranscodeRequired: info.NeedsTranscode,
		}
		if meta.CreatedAt.IsZero() {
			meta.CreatedAt = v.FSModifiedAt
		}
		if err := r.db.SetVideoMetadata(ctx, v.ID, meta); err != nil {
			r.log.Error("Failed to store metadata for %s: %v", v.Path, err)
			return
		}
		changed.Add(1)
	})
	return int(changed.Load()), err
}
