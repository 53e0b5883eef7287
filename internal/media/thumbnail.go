package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"

	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metrics"
)

const (
	// ThumbnailSize is the bounding box thumbnails are fitted into.
	ThumbnailSize = 200
	// ThumbnailQuality is the JPEG quality of generated thumbnails.
	ThumbnailQuality = 80
)

// Thumbnailer writes thumbnails to <cacheDir>/thumbnails/<photo|video>/<id>.jpg.
type Thumbnailer struct {
	dir string
}

// NewThumbnailer creates a thumbnailer rooted in cacheDir.
func NewThumbnailer(cacheDir string) *Thumbnailer {
	return &Thumbnailer{dir: filepath.Join(cacheDir, "thumbnails")}
}

// Path returns where the thumbnail for a row is stored.
func (t *Thumbnailer) Path(kind mediatypes.MediaKind, id int64) string {
	return filepath.Join(t.dir, kind.String(), strconv.FormatInt(id, 10)+".jpg")
}

// Photo renders the thumbnail of a picture and returns its path.
func (t *Thumbnailer) Photo(ctx context.Context, src string, id int64) (path string, err error) {
	start := time.Now()
	defer func() { recordThumbnail(mediatypes.Photo, start, err) }()

	var data []byte
	if IsVipsAvailable() {
		data, err = vipsThumbnail(src, ThumbnailSize, ThumbnailQuality)
		if err != nil {
			logging.Debug("vips failed for %s: %v, falling back to Go decoder", src, err)
		}
	}

	if data == nil {
		img, decodeErr := decodePhoto(ctx, src)
		if decodeErr != nil {
			return "", decodeErr
		}
		if data, err = encodeThumbnail(img); err != nil {
			return "", err
		}
	}

	path = t.Path(mediatypes.Photo, id)
	if err = writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Video renders the thumbnail of a video from a frame one second in, or
// the first frame for shorter clips.
func (t *Thumbnailer) Video(ctx context.Context, src string, id int64) (path string, err error) {
	start := time.Now()
	defer func() { recordThumbnail(mediatypes.Video, start, err) }()

	img, err := grabFrame(ctx, src, "00:00:01")
	if err != nil {
		logging.Debug("Frame grab at 1s failed for %s: %v, retrying first frame", src, err)
		if img, err = grabFrame(ctx, src, ""); err != nil {
			return "", err
		}
	}

	data, err := encodeThumbnail(img)
	if err != nil {
		return "", err
	}

	path = t.Path(mediatypes.Video, id)
	if err = writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes a cached thumbnail. A missing file is not an error.
func (t *Thumbnailer) Remove(kind mediatypes.MediaKind, id int64) error {
	if err := os.Remove(t.Path(kind, id)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func recordThumbnail(kind mediatypes.MediaKind, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(kind.String(), status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
}

func encodeThumbnail(img image.Image) ([]byte, error) {
	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// decodePhoto tries the Go decoders first and FFmpeg last, which handles
// formats like HEIC that Go cannot read.
func decodePhoto(ctx context.Context, src string) (image.Image, error) {
	img, err := LoadImageConstrained(src, MaxImageDimension, MaxImagePixels)
	if err == nil {
		return img, nil
	}

	logging.Debug("Go decode failed for %s (%s): %v, trying ffmpeg", src, sniffFormat(src), err)

	img, ffErr := grabFrame(ctx, src, "")
	if ffErr != nil {
		return nil, fmt.Errorf("all image decode methods failed for %s: %w", src, ffErr)
	}
	return img, nil
}

// grabFrame decodes one frame of src with ffmpeg. seek may be empty.
func grabFrame(ctx context.Context, src, seek string) (image.Image, error) {
	args := []string{"-v", "error"}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	args = append(args, "-i", src, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", src)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// writeFileAtomic writes data next to path and renames it into place so
// readers never see a partial thumbnail.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// sniffFormat names the image format from its magic bytes, for logs.
func sniffFormat(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return "unreadable"
	}
	defer file.Close()

	header := make([]byte, 12)
	n, _ := file.Read(header)
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg"
	case bytes.HasPrefix(header, []byte{0x89, 'P', 'N', 'G'}):
		return "png"
	case bytes.HasPrefix(header, []byte("GIF8")):
		return "gif"
	case len(header) >= 12 && bytes.HasPrefix(header, []byte("RIFF")) && string(header[8:12]) == "WEBP":
		return "webp"
	case len(header) >= 12 && string(header[4:8]) == "ftyp":
		switch string(header[8:12]) {
		case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
			return "heif"
		case "avif", "avis":
			return "avif"
		}
		return "mp4-container"
	}
	return "unknown"
}
