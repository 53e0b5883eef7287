package media

import (
	"fmt"
	"image"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support

	"media-library/internal/filesystem"
	"media-library/internal/logging"
)

const (
	// MaxImageDimension is the largest width or height decoded at full size.
	MaxImageDimension = 4096

	// MaxImagePixels caps the decoded size (~20MP, about 80MB as RGBA).
	MaxImagePixels = 20_000_000
)

// ReadDimensions returns the pixel size of an image without decoding it.
func ReadDimensions(path string) (width, height int, err error) {
	file, err := filesystem.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logging.Warn("failed to close image file %s: %v", path, cerr)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read dimensions of %s: %w", path, err)
	}
	return config.Width, config.Height, nil
}

// constrainedSize scales width x height down to the decode limits.
func constrainedSize(width, height, maxDimension, maxPixels int) (int, int) {
	if width > maxDimension || height > maxDimension {
		if width > height {
			height = height * maxDimension / width
			width = maxDimension
		} else {
			width = width * maxDimension / height
			height = maxDimension
		}
	}

	if pixels := width * height; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		width = int(float64(width) * scale)
		height = int(float64(height) * scale)
	}
	return width, height
}

// LoadImageConstrained decodes an image with EXIF orientation applied,
// downscaling it when it exceeds the decode limits.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	b := img.Bounds()
	w, h := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels)
	if w == b.Dx() && h == b.Dy() {
		return img, nil
	}

	logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), w, h)
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}
