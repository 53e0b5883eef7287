package jobs

import (
	"context"
	"fmt"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
)

// Detector finds faces in an image file.
type Detector interface {
	Detect(ctx context.Context, path string) ([]database.Face, error)
}

// Recognizer names the person a face belongs to. ok is false when the
// face matches nobody known.
type Recognizer interface {
	Recognize(ctx context.Context, face database.Face) (name string, ok bool, err error)
}

// NoopDetector finds no faces. It is used when no detection model is
// configured, so pictures are still marked as scanned.
type NoopDetector struct{}

func (NoopDetector) Detect(context.Context, string) ([]database.Face, error) { return nil, nil }

// NoopRecognizer recognises nobody.
type NoopRecognizer struct{}

func (NoopRecognizer) Recognize(context.Context, database.Face) (string, bool, error) {
	return "", false, nil
}

// detectFaces scans one picture when the task names one, otherwise every
// picture not scanned yet.
func (r *Registry) detectFaces(ctx context.Context, run bootstrap.Run) (int, error) {
	var pictures []database.Picture
	if id := run.Task.PictureID; id != 0 {
		p, ok, err := r.db.Picture(ctx, id)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("picture %d not found", id)
		}
		pictures = append(pictures, p)
	} else {
		var err error
		if pictures, err = r.db.PicturesNeedingFaceScan(ctx); err != nil {
			return 0, err
		}
	}

	run.Progress.SetTotal(len(pictures))
	scanned, found := 0, 0
	for _, p := range pictures {
		if run.Cancel.Cancelled() || ctx.Err() != nil {
			break
		}
		if n, ok := r.scanFaces(ctx, p); ok {
			scanned++
			found += n
		}
		run.Progress.Advance()
	}
	r.log.Info("Face detection scanned %d pictures, %d faces", scanned, found)
	return scanned, ctx.Err()
}

// scanFaces stores the faces found in p. ok is false when p was not
// marked scanned.
func (r *Registry) scanFaces(ctx context.Context, p database.Picture) (n int, ok bool) {
	faces, err := r.detector.Detect(ctx, r.abs(p.Path))
	if err != nil {
		r.log.Warn("Face detection failed for %s: %v", p.Path, err)
		return 0, false
	}
	if err := r.db.AddFaces(ctx, p.ID, faces); err != nil {
		r.log.Error("Failed to store faces for %s: %v", p.Path, err)
		return 0, false
	}
	return len(faces), true
}

// recognizeFaces assigns unrecognised faces to people.
func (r *Registry) recognizeFaces(ctx context.Context, run bootstrap.Run) (int, error) {
	faces, err := r.db.UnrecognizedFaces(ctx)
	if err != nil {
		return 0, err
	}

	run.Progress.SetTotal(len(faces))
	assigned := 0
	for _, f := range faces {
		if run.Cancel.Cancelled() || ctx.Err() != nil {
			break
		}
		if r.assignFace(ctx, f) {
			assigned++
		}
		run.Progress.Advance()
	}
	return assigned, ctx.Err()
}

func (r *Registry) assignFace(ctx context.Context, f database.Face) bool {
	name, ok, err := r.recognizer.Recognize(ctx, f)
	if err != nil {
		r.log.Warn("Face recognition failed for face %d: %v", f.ID, err)
		return false
	}
	if !ok {
		return false
	}
	if err := r.db.SetFacePerson(ctx, f.ID, name); err != nil {
		r.log.Error("Failed to assign face %d: %v", f.ID, err)
		return false
	}
	return true
}
