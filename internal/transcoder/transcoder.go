package transcoder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"media-library/internal/logging"
)

// Transcoder converts videos into browser-compatible MP4 files under
// <cacheDir>/transcoded.
type Transcoder struct {
	dir    string
	runner commandRunner

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// New creates a transcoder writing into cacheDir.
func New(cacheDir string) *Transcoder {
	return newWithRunner(cacheDir, execRunner{})
}

func newWithRunner(cacheDir string, runner commandRunner) *Transcoder {
	return &Transcoder{
		dir:    filepath.Join(cacheDir, "transcoded"),
		runner: runner,
		active: make(map[string]context.CancelFunc),
	}
}

// Path returns where the transcoded copy of a video row is stored.
func (t *Transcoder) Path(videoID int64) string {
	return filepath.Join(t.dir, strconv.FormatInt(videoID, 10)+".mp4")
}

// Transcode converts src into the cached MP4 for videoID and returns its
// path. The output only appears once ffmpeg has finished successfully.
func (t *Transcoder) Transcode(ctx context.Context, src string, videoID int64) (string, error) {
	dst := t.Path(videoID)
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create transcode directory: %w", err)
	}
	tmp := dst + ".part"

	ctx, cancel := context.WithCancel(ctx)
	t.track(src, cancel)
	defer t.untrack(src)

	res, err := t.runner.Run(ctx, "ffmpeg", transcodeArgs(src, tmp)...)
	if err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.Error("FFmpeg stderr: %s", res.Stderr)
		return "", fmt.Errorf("transcoding error (exit %d): %w", res.ExitCode, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move transcoded file into place: %w", err)
	}
	return dst, nil
}

func transcodeArgs(src, dst string) []string {
	return []string{
		"-y",
		"-v", "error",
		"-i", src,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-f", "mp4",
		dst,
	}
}

func (t *Transcoder) track(src string, cancel context.CancelFunc) {
	t.mu.Lock()
	t.active[src] = cancel
	t.mu.Unlock()
}

func (t *Transcoder) untrack(src string) {
	t.mu.Lock()
	if cancel, ok := t.active[src]; ok {
		cancel()
		delete(t.active, src)
	}
	t.mu.Unlock()
}

// Cleanup kills every running transcode.
func (t *Transcoder) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for src, cancel := range t.active {
		logging.Info("Killing transcoding process for: %s", src)
		cancel()
	}
}

// Remove deletes the cached transcode of a video. A missing file is not
// an error.
func (t *Transcoder) Remove(videoID int64) error {
	if err := os.Remove(t.Path(videoID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
