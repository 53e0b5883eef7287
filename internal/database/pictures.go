package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const pictureColumns = `id, path, parent_path, fs_modified_at, created_at, width, height,
	is_selfie, thumbnail_path, motion_video_path, enriched, motion_checked, faces_scanned`

// UpsertPictures records scanned pictures in one transaction. New paths are
// inserted; a path whose modification time changed has its derived state
// reset. It returns the number of inserted or changed rows.
func (d *Database) UpsertPictures(ctx context.Context, files []ScannedFile) (n int64, err error) {
	return d.upsertFiles(ctx, "upsert_pictures", `
		INSERT INTO pictures (path, parent_path, fs_modified_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			parent_path = excluded.parent_path,
			fs_modified_at = excluded.fs_modified_at,
			enriched = 0,
			thumbnail_path = NULL,
			motion_video_path = NULL,
			motion_checked = 0,
			faces_scanned = 0,
			updated_at = excluded.updated_at
		WHERE pictures.fs_modified_at != excluded.fs_modified_at
	`, files)
}

func (d *Database) upsertFiles(ctx context.Context, operation, stmt string, files []ScannedFile) (n int64, err error) {
	if len(files) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	b, err := d.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { err = d.EndBatch(b, err) }()

	prepared, err := b.tx.PrepareContext(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare %s: %w", operation, err)
	}
	defer prepared.Close()

	now := time.Now().Unix()
	for _, f := range files {
		res, execErr := prepared.ExecContext(ctx, f.Path, f.ParentPath, f.ModTime.Unix(), now)
		if execErr != nil {
			return 0, fmt.Errorf("failed to upsert %s: %w", f.Path, execErr)
		}
		if affected, raErr := res.RowsAffected(); raErr == nil {
			n += affected
		}
	}
	return n, nil
}

func scanPicture(rows interface{ Scan(...interface{}) error }) (Picture, error) {
	var (
		p                 Picture
		modified          int64
		created           sql.NullInt64
		thumb, motion     sql.NullString
		selfie, enriched  int
		motionOK, facesOK int
	)
	err := rows.Scan(&p.ID, &p.Path, &p.ParentPath, &modified, &created, &p.Width, &p.Height,
		&selfie, &thumb, &motion, &enriched, &motionOK, &facesOK)
	if err != nil {
		return p, err
	}
	p.FSModifiedAt = time.Unix(modified, 0).UTC()
	p.CreatedAt = fromNullTime(created)
	p.ThumbnailPath = thumb.String
	p.MotionVideoPath = motion.String
	p.IsSelfie = selfie != 0
	p.Enriched = enriched != 0
	p.MotionChecked = motionOK != 0
	p.FacesScanned = facesOK != 0
	return p, nil
}

func (d *Database) pictures(ctx context.Context, operation, where string, args ...interface{}) ([]Picture, error) {
	var out []Picture
	q := "SELECT " + pictureColumns + " FROM pictures"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY id"

	err := d.query(ctx, operation, func(rows *sql.Rows) error {
		p, err := scanPicture(rows)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// Pictures returns every picture row.
func (d *Database) Pictures(ctx context.Context) ([]Picture, error) {
	return d.pictures(ctx, "pictures", "")
}

// Picture returns one picture by ID. ok is false when it does not exist.
func (d *Database) Picture(ctx context.Context, id int64) (p Picture, ok bool, err error) {
	list, err := d.pictures(ctx, "picture_by_id", "id = ?", id)
	if err != nil || len(list) == 0 {
		return Picture{}, false, err
	}
	return list[0], true, nil
}

// PicturesNeedingEnrichment returns pictures whose metadata is not yet known.
func (d *Database) PicturesNeedingEnrichment(ctx context.Context) ([]Picture, error) {
	return d.pictures(ctx, "pictures_needing_enrichment", "enriched = 0")
}

// PicturesWithoutThumbnail returns pictures that have no thumbnail yet.
func (d *Database) PicturesWithoutThumbnail(ctx context.Context) ([]Picture, error) {
	return d.pictures(ctx, "pictures_without_thumbnail", "thumbnail_path IS NULL")
}

// PicturesNeedingMotionCheck returns pictures not yet checked for an
// embedded motion video.
func (d *Database) PicturesNeedingMotionCheck(ctx context.Context) ([]Picture, error) {
	return d.pictures(ctx, "pictures_needing_motion_check", "motion_checked = 0")
}

// PicturesNeedingFaceScan returns pictures face detection has not visited.
func (d *Database) PicturesNeedingFaceScan(ctx context.Context) ([]Picture, error) {
	return d.pictures(ctx, "pictures_needing_face_scan", "faces_scanned = 0")
}

// SetPictureMetadata stores enrichment results and marks the picture enriched.
func (d *Database) SetPictureMetadata(ctx context.Context, id int64, m PictureMetadata) error {
	_, err := d.exec(ctx, "set_picture_metadata", `
		UPDATE pictures SET created_at = ?, width = ?, height = ?, is_selfie = ?,
			enriched = 1, updated_at = ?
		WHERE id = ?`,
		nullTime(m.CreatedAt), m.Width, m.Height, boolInt(m.IsSelfie), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set metadata for picture %d: %w", id, err)
	}
	return nil
}

// SetPictureThumbnail records the generated thumbnail file.
func (d *Database) SetPictureThumbnail(ctx context.Context, id int64, path string) error {
	_, err := d.exec(ctx, "set_picture_thumbnail",
		"UPDATE pictures SET thumbnail_path = ?, updated_at = ? WHERE id = ?",
		nullString(path), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set thumbnail for picture %d: %w", id, err)
	}
	return nil
}

// SetMotionPhotoVideo marks the picture as checked and records the
// extracted video, if any. An empty path means it is not a motion photo.
func (d *Database) SetMotionPhotoVideo(ctx context.Context, id int64, path string) error {
	_, err := d.exec(ctx, "set_motion_photo_video",
		"UPDATE pictures SET motion_video_path = ?, motion_checked = 1, updated_at = ? WHERE id = ?",
		nullString(path), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to set motion video for picture %d: %w", id, err)
	}
	return nil
}

// DeletePictures removes pictures (and their faces) by ID.
func (d *Database) DeletePictures(ctx context.Context, ids []int64) (int64, error) {
	n, err := d.deleteIDs(ctx, "delete_pictures", "pictures", ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pictures: %w", err)
	}
	return n, nil
}

// deleteBatchSize keeps each DELETE well under SQLite's host parameter
// limit.
const deleteBatchSize = 500

// deleteIDs removes rows by ID in one transaction, deleteBatchSize IDs per
// statement.
func (d *Database) deleteIDs(ctx context.Context, operation, table string, ids []int64) (n int64, err error) {
	if len(ids) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() { recordQuery(operation, start, err) }()

	b, err := d.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { err = d.EndBatch(b, err) }()

	for len(ids) > 0 {
		chunk := ids[:min(deleteBatchSize, len(ids))]
		ids = ids[len(chunk):]

		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		res, execErr := b.tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id IN ("+placeholders+")", args...)
		if execErr != nil {
			return 0, execErr
		}
		if affected, raErr := res.RowsAffected(); raErr == nil {
			n += affected
		}
	}
	return n, nil
}

// GetMetadata reads a value from the metadata table.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := d.query(ctx, "get_metadata", func(rows *sql.Rows) error {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return err
		}
		value, found = v.String, true
		return nil
	}, "SELECT value FROM metadata WHERE key = ?", key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("failed to read metadata %q: %w", key, err)
	}
	return value, found, nil
}

// SetMetadata writes a value to the metadata table.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	_, err := d.exec(ctx, "set_metadata",
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write metadata %q: %w", key, err)
	}
	return nil
}
