package mediatypes

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaKind distinguishes the two kinds of library entry.
type MediaKind int

const (
	// Photo is a still picture, possibly with an embedded motion video.
	Photo MediaKind = iota
	// Video is a standalone video file.
	Video
)

// Kinds lists every media kind in pipeline order.
var Kinds = []MediaKind{Photo, Video}

// String returns the lowercase name used in logs, metrics labels and JSON.
func (k MediaKind) String() string {
	switch k {
	case Photo:
		return "photo"
	case Video:
		return "video"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// ParseMediaKind parses "photo" or "video".
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "photo", "photos", "picture":
		return Photo, nil
	case "video", "videos":
		return Video, nil
	default:
		return 0, fmt.Errorf("unknown media kind %q", s)
	}
}

// PhotoExtensions maps file extensions to whether they are supported picture formats.
var PhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// VideoExtensions maps file extensions to whether they are supported video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// KindForExt returns the media kind for a lowercase extension with its
// leading dot. ok is false for files the library does not track.
func KindForExt(ext string) (kind MediaKind, ok bool) {
	if PhotoExtensions[ext] {
		return Photo, true
	}
	if VideoExtensions[ext] {
		return Video, true
	}
	return 0, false
}

// KindForPath classifies a file by its extension, case-insensitively.
func KindForPath(path string) (MediaKind, bool) {
	return KindForExt(strings.ToLower(filepath.Ext(path)))
}

// IsJPEG reports whether the path names a JPEG, the only container that
// carries embedded motion-photo video.
func IsJPEG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}
