package jobs

import (
	"context"
	"path/filepath"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/logging"
	"media-library/internal/media"
	"media-library/internal/mediatypes"
	"media-library/internal/memory"
	"media-library/internal/transcoder"
	"media-library/internal/workers"
)

// Thumbnailer renders and removes thumbnails. *media.Thumbnailer
// implements it.
type Thumbnailer interface {
	Photo(ctx context.Context, src string, id int64) (string, error)
	Video(ctx context.Context, src string, id int64) (string, error)
	Remove(kind mediatypes.MediaKind, id int64) error
}

// VideoTools probes and transcodes videos. *transcoder.Transcoder
// implements it.
type VideoTools interface {
	Probe(ctx context.Context, path string) (*transcoder.VideoInfo, error)
	Transcode(ctx context.Context, src string, videoID int64) (string, error)
	Remove(videoID int64) error
}

// Config holds the collaborators of the jobs. Nil fields get the
// production implementation.
type Config struct {
	MediaDir   string
	CacheDir   string
	Thumbnails Thumbnailer
	Videos     VideoTools
	Detector   Detector
	Recognizer Recognizer
	// Workers caps the enrich and thumbnail pools; 0 sizes them from
	// the CPU count.
	Workers int
	// Memory pauses thumbnail workers under memory pressure. May be nil.
	Memory *memory.Gate
}

// Registry owns the job bodies.
type Registry struct {
	db         *database.Database
	mediaDir   string
	motionDir  string
	thumbs     Thumbnailer
	videos     VideoTools
	detector   Detector
	recognizer Recognizer
	ioWorkers  int
	mixWorkers int
	memory     *memory.Gate
	log        *logging.Logger
}

// NewRegistry creates the job bodies over db.
func NewRegistry(db *database.Database, cfg Config) *Registry {
	r := &Registry{
		db:         db,
		mediaDir:   cfg.MediaDir,
		motionDir:  filepath.Join(cfg.CacheDir, "motion"),
		thumbs:     cfg.Thumbnails,
		videos:     cfg.Videos,
		detector:   cfg.Detector,
		recognizer: cfg.Recognizer,
		ioWorkers:  workers.ForIO(8),
		mixWorkers: workers.ForMixed(8),
		memory:     cfg.Memory,
		log:        logging.For("jobs"),
	}
	if cfg.Workers > 0 {
		r.ioWorkers, r.mixWorkers = cfg.Workers, cfg.Workers
	}
	if r.thumbs == nil {
		r.thumbs = media.NewThumbnailer(cfg.CacheDir)
	}
	if r.videos == nil {
		r.videos = transcoder.New(cfg.CacheDir)
	}
	if r.detector == nil {
		r.detector = NoopDetector{}
	}
	if r.recognizer == nil {
		r.recognizer = NoopRecognizer{}
	}
	return r
}

// Adapters returns the dispatch table for every JobKind. Bodies run with
// ctx.
func (r *Registry) Adapters(ctx context.Context) map[bootstrap.JobKind]bootstrap.Adapter {
	adapters := make(map[bootstrap.JobKind]bootstrap.Adapter)
	add := func(kind bootstrap.JobKind, counted bool, body Body) {
		adapters[kind] = NewRunner(ctx, kind, counted, body)
	}

	for _, m := range mediatypes.Kinds {
		add(bootstrap.Scan(m), false, r.scan(m))
		add(bootstrap.Enrich(m), true, r.enrich(m))
		add(bootstrap.Thumbnail(m), true, r.thumbnail(m))
		add(bootstrap.Clean(m), true, r.clean(m))
	}
	add(bootstrap.MotionPhotoExtract(), true, r.extractMotionPhotos)
	add(bootstrap.DetectFaces(), false, r.detectFaces)
	add(bootstrap.RecognizeFaces(), false, r.recognizeFaces)
	add(bootstrap.Transcode(), false, r.transcode)
	return adapters
}

// abs resolves a stored library path against the media directory.
func (r *Registry) abs(path string) string {
	return filepath.Join(r.mediaDir, path)
}
