package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/mediatypes"
)

// scanBatchSize is the number of files upserted per transaction.
const scanBatchSize = 500

// scan walks the media directory and upserts every file of kind m. Paths
// are stored relative to the media directory. Hidden files and
// directories are skipped.
func (r *Registry) scan(m mediatypes.MediaKind) Body {
	upsert := r.db.UpsertPictures
	if m == mediatypes.Video {
		upsert = r.db.UpsertVideos
	}

	return func(ctx context.Context, run bootstrap.Run) (int, error) {
		var (
			batch   []database.ScannedFile
			found   int
			changed int64
		)

		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := upsert(ctx, batch)
			if err != nil {
				return err
			}
			changed += n
			batch = batch[:0]
			return nil
		}

		err := filepath.WalkDir(r.mediaDir, func(path string, d fs.DirEntry, err error) error {
			if run.Cancel.Cancelled() || ctx.Err() != nil {
				return fs.SkipAll
			}
			if err != nil {
				r.log.Warn("Error accessing path %s: %v", path, err)
				return nil
			}
			if path == r.mediaDir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if kind, ok := mediatypes.KindForPath(d.Name()); !ok || kind != m {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				r.log.Warn("Error reading %s: %v", path, err)
				return nil
			}
			rel, err := filepath.Rel(r.mediaDir, path)
			if err != nil {
				return err
			}

			batch = append(batch, database.ScannedFile{
				Path:       rel,
				ParentPath: filepath.Dir(rel),
				ModTime:    info.ModTime(),
			})
			found++
			run.Progress.Advance()
			if len(batch) >= scanBatchSize {
				return flush()
			}
			return nil
		})
		if err != nil && !errors.Is(err, fs.SkipAll) {
			return int(changed), fmt.Errorf("walk error: %w", err)
		}
		if err := flush(); err != nil {
			return int(changed), err
		}
		run.Progress.SetTotal(found)

		if run.Cancel.Cancelled() {
			r.log.Info("Scan of %ss cancelled after %d files", m, found)
			return int(changed), nil
		}
		r.log.Info("Scanned %d %ss, %d new or modified", found, m, changed)
		return int(changed), r.db.SetMetadata(ctx, "last_scan_"+m.String(), time.Now().UTC().Format(time.RFC3339))
	}
}
