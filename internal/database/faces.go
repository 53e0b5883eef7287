package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AddFaces replaces the faces stored for a picture and marks it scanned.
// An empty slice records that the picture has no faces.
func (d *Database) AddFaces(ctx context.Context, pictureID int64, faces []Face) (err error) {
	start := time.Now()
	defer func() { recordQuery("add_faces", start, err) }()

	b, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer func() { err = d.EndBatch(b, err) }()

	if _, err = b.tx.ExecContext(ctx, "DELETE FROM faces WHERE picture_id = ?", pictureID); err != nil {
		return fmt.Errorf("failed to clear faces for picture %d: %w", pictureID, err)
	}

	for _, f := range faces {
		_, err = b.tx.ExecContext(ctx,
			"INSERT INTO faces (picture_id, x, y, width, height, confidence) VALUES (?, ?, ?, ?, ?, ?)",
			pictureID, f.X, f.Y, f.Width, f.Height, f.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert face for picture %d: %w", pictureID, err)
		}
	}

	_, err = b.tx.ExecContext(ctx, "UPDATE pictures SET faces_scanned = 1 WHERE id = ?", pictureID)
	if err != nil {
		return fmt.Errorf("failed to mark picture %d scanned: %w", pictureID, err)
	}
	return nil
}

func (d *Database) faces(ctx context.Context, operation, where string, args ...interface{}) ([]Face, error) {
	var out []Face
	q := `SELECT f.id, f.picture_id, f.x, f.y, f.width, f.height, f.confidence, p.name
		FROM faces f LEFT JOIN people p ON p.id = f.person_id`
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY f.id"

	err := d.query(ctx, operation, func(rows *sql.Rows) error {
		var (
			f    Face
			name sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.PictureID, &f.X, &f.Y, &f.Width, &f.Height, &f.Confidence, &name); err != nil {
			return err
		}
		f.PersonName = name.String
		out = append(out, f)
		return nil
	}, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return out, nil
}

// FacesForPicture returns the faces detected in one picture.
func (d *Database) FacesForPicture(ctx context.Context, pictureID int64) ([]Face, error) {
	return d.faces(ctx, "faces_for_picture", "f.picture_id = ?", pictureID)
}

// UnrecognizedFaces returns faces not yet assigned to a person.
func (d *Database) UnrecognizedFaces(ctx context.Context) ([]Face, error) {
	return d.faces(ctx, "unrecognized_faces", "f.person_id IS NULL")
}

// SetFacePerson assigns a face to the named person, creating the person
// if needed.
func (d *Database) SetFacePerson(ctx context.Context, faceID int64, name string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_face_person", start, err) }()

	b, err := d.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer func() { err = d.EndBatch(b, err) }()

	if _, err = b.tx.ExecContext(ctx, "INSERT OR IGNORE INTO people (name) VALUES (?)", name); err != nil {
		return fmt.Errorf("failed to create person %q: %w", name, err)
	}

	_, err = b.tx.ExecContext(ctx,
		"UPDATE faces SET person_id = (SELECT id FROM people WHERE name = ?) WHERE id = ?",
		name, faceID)
	if err != nil {
		return fmt.Errorf("failed to assign face %d: %w", faceID, err)
	}
	return nil
}
