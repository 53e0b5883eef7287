package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AllVisuals returns every picture and video as a Visual, ordered by capture
// time (falling back to the file modification time) and then path.
func (d *Database) AllVisuals(ctx context.Context) ([]Visual, error) {
	const q = `
		SELECT 0 AS is_video, id, path, parent_path,
			COALESCE(created_at, fs_modified_at) AS taken_at,
			width, height, 0 AS duration_ms, is_selfie, thumbnail_path, motion_video_path
		FROM pictures
		UNION ALL
		SELECT 1, id, path, parent_path,
			COALESCE(created_at, fs_modified_at),
			width, height, duration_ms, 0, thumbnail_path, NULL
		FROM videos
		ORDER BY taken_at, path
	`

	var out []Visual
	err := d.query(ctx, "all_visuals", func(rows *sql.Rows) error {
		var (
			v             Visual
			id, takenAt   int64
			durationMS    int64
			isVideo       int
			selfie        int
			thumb, motion sql.NullString
		)
		if err := rows.Scan(&isVideo, &id, &v.Path, &v.ParentPath, &takenAt,
			&v.Width, &v.Height, &durationMS, &selfie, &thumb, &motion); err != nil {
			return err
		}

		v.IsVideo = isVideo != 0
		if v.IsVideo {
			v.ID = VideoVisualID(id)
			v.VideoID = id
		} else {
			v.ID = PhotoVisualID(id)
			v.PictureID = id
		}
		v.CreatedAt = time.Unix(takenAt, 0).UTC()
		v.Duration = time.Duration(durationMS) * time.Millisecond
		v.IsSelfie = selfie != 0
		v.ThumbnailPath = thumb.String
		v.MotionVideoPath = motion.String
		v.IsMotionPhoto = motion.Valid && motion.String != ""
		out = append(out, v)
		return nil
	}, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load visuals: %w", err)
	}
	return out, nil
}

// Stats returns row counts for the status endpoint.
func (d *Database) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := d.query(ctx, "stats", func(rows *sql.Rows) error {
		return rows.Scan(&s.Pictures, &s.Videos, &s.MotionPhotos, &s.Faces, &s.People)
	}, `SELECT
		(SELECT COUNT(*) FROM pictures),
		(SELECT COUNT(*) FROM videos),
		(SELECT COUNT(*) FROM pictures WHERE motion_video_path IS NOT NULL),
		(SELECT COUNT(*) FROM faces),
		(SELECT COUNT(*) FROM people)`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return s, nil
}
