package media

import (
	"path/filepath"
	"strings"

	"media-library/internal/database"
	"media-library/internal/filesystem"
	"media-library/internal/logging"
)

// IsSelfie reports whether a photo path follows a front-camera naming
// convention: a "selfie" or "selfies" folder, or "selfie" in the file name.
func IsSelfie(path string) bool {
	lower := strings.ToLower(filepath.ToSlash(path))
	if strings.Contains(filepath.Base(lower), "selfie") {
		return true
	}
	for _, segment := range strings.Split(filepath.Dir(lower), "/") {
		if segment == "selfie" || segment == "selfies" {
			return true
		}
	}
	return false
}

// PhotoMetadata derives the metadata of a picture from the file itself.
// The capture time is the file modification time. Unreadable dimensions
// (e.g. HEIC) are left at zero rather than failing.
func PhotoMetadata(path string) (database.PictureMetadata, error) {
	info, err := filesystem.Stat(path)
	if err != nil {
		return database.PictureMetadata{}, err
	}

	meta := database.PictureMetadata{
		CreatedAt: info.ModTime().UTC(),
		IsSelfie:  IsSelfie(path),
	}

	if w, h, err := ReadDimensions(path); err != nil {
		logging.Debug("No dimensions for %s: %v", path, err)
	} else {
		meta.Width, meta.Height = w, h
	}
	return meta, nil
}
