package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const videoColumns = `id, path, parent_path, fs_modified_at, created_at, width, height,
	duration_ms, video_codec, audio_codec, container_format, thumbnail_path,
	transcoded_path, transcode_required, enriched`

// UpsertVideos records scanned videos in one transaction, with the same
// change-reset semantics as UpsertPictures.
func (d *Database) UpsertVideos(ctx context.Context, files []ScannedFile) (int64, error) {
	return d.upsertFiles(ctx, "upsert_videos", `
		INSERT INTO videos (path, parent_path, fs_modified_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			parent_path = excluded.parent_path,
			fs_modified_at = excluded.fs_modified_at,
			enriched = 0,
			thumbnail_path = NULL,
			transcoded_path = NULL,
			transcode_required = 0,
			updated_at = excluded.updated_at
		WHERE videos.fs_modified_at != excluded.fs_modified_at
	`, files)
}

func scanVideo(rows interface{ Scan(...interface{}) error }) (Video, error) {
	var (
		v                      Video
		modified, durationMS   int64
		created                sql.NullInt64
		vcodec, acodec, format sql.NullString
		thumb, transcoded      sql.NullString
		transcodeReq, enriched int
	)
	err := rows.Scan(&v.ID, &v.Path, &v.ParentPath, &modified, &created, &v.Width, &v.Height,
		&durationMS, &vcodec, &acodec, &format, &thumb, &transcoded, &transcodeReq, &enriched)
	if err != nil {
		return v, err
	}
	v.FSModifiedAt = time.Unix(modified, 0).UTC()
	v.CreatedAt = fromNullTime(created)
	v.Duration = time.Duration(durationMS) * time.Millisecond
	v.VideoCodec = vcodec.String
	v.AudioCodec = acodec.String
	v.ContainerFormat = format.String
	v.ThumbnailPath = thumb.String
	v.TranscodedPath = transcoded.String
	v.TranscodeRequired = transcodeReq != 0
	v.Enriched = enriched != 0
	return v, nil
}

func (d *Database) videos(ctx context.Context, operation, where string, args ...interface{}) ([]Video, error) {
	var out []Video
	q := "SELECT " + videoColumns + " FROM videos"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY id"

	err := d.query(ctx, operation, func(rows *sql.Rows) error {
		v, err := scanVideo(rows)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	}, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// Videos returns every video row.
func (d *Database) Videos(ctx context.Context) ([]Video, error) {
	return d.videos(ctx, "videos", "")
}

// VideosNeedingEnrichment returns videos that have not been probed yet.
func (d *Database) VideosNeedingEnrichment(ctx context.Context) ([]Video, error) {
	return d.videos(ctx, "videos_needing_enrichment", "enriched = 0")
}

// VideosWithoutThumbnail returns videos that have no thumbnail yet.
func (d *Database) VideosWithoutThumbnail(ctx context.Context) ([]Video, error) {
	return d.videos(ctx, "videos_without_thumbnail", "thumbnail_path IS NULL")
}

// VideosNeedingTranscode returns probed videos that browsers cannot play
// directly and that have no transcoded copy yet.
func (d *Database) VideosNeedingTranscode(ctx context.Context) ([]Video, error) {
	return d.videos(ctx, "videos_needing_transcode",
		"enriched = 1 AND transcode_required = 1 AND transcoded_path IS NULL")
}

// SetVideoMetadata stores probe results and marks the video enriched.
func (d *Database) SetVideoMetadata(ctx context.Context, id int64, m VideoMetadata) error {
	_, err := d.exec(ctx, "set_video_metadata", `
		UPDATE videos SET created_at = ?, width = ?, height = ?, duration_ms = ?,
			video_codec = ?, audio_codec = ?, container_format = ?,
			transcode_required = ?, enriched = 1, updated_at = ?
		WHERE id = ?`,
		nullTime(m.CreatedAt), m.Width, m.Height, m.Duration.Milliseconds(),
		nullString(m.VideoCodec), nullString(m.AudioCodec), nullString(m.ContainerFormat),
		boolInt(m.TranscodeRequired), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set metadata for video %d: %w", id, err)
	}
	return nil
}

// SetVideoThumbnail records the generated thumbnail file.
func (d *Database) SetVideoThumbnail(ctx context.Context, id int64, path string) error {
	_, err := d.exec(ctx, "set_video_thumbnail",
		"UPDATE videos SET thumbnail_path = ?, updated_at = ? WHERE id = ?",
		nullString(path), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set thumbnail for video %d: %w", id, err)
	}
	return nil
}

// SetVideoTranscoded records the transcoded copy of a video.
func (d *Database) SetVideoTranscoded(ctx context.Context, id int64, path string) error {
	_, err := d.exec(ctx, "set_video_transcoded",
		"UPDATE videos SET transcoded_path = ?, updated_at = ? WHERE id = ?",
		nullString(path), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set transcoded path for video %d: %w", id, err)
	}
	return nil
}

// DeleteVideos removes videos by ID.
func (d *Database) DeleteVideos(ctx context.Context, ids []int64) (int64, error) {
	n, err := d.deleteIDs(ctx, "delete_videos", "videos", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete videos: %w", err)
	}
	return n, nil
}
