package database

import (
	"strconv"
	"strings"
	"time"
)

// VisualID identifies a library entry. Photos and videos share one ID space
// by prefixing the row ID with the media kind, e.g. "photo-12" or "video-3".
type VisualID string

const (
	photoIDPrefix = "photo-"
	videoIDPrefix = "video-"
)

// PhotoVisualID returns the visual ID for a picture row.
func PhotoVisualID(pictureID int64) VisualID {
	return VisualID(photoIDPrefix + strconv.FormatInt(pictureID, 10))
}

// VideoVisualID returns the visual ID for a video row.
func VideoVisualID(videoID int64) VisualID {
	return VisualID(videoIDPrefix + strconv.FormatInt(videoID, 10))
}

// PictureID extracts the picture row ID from a photo visual ID.
func (id VisualID) PictureID() (int64, bool) {
	return parseVisualID(string(id), photoIDPrefix)
}

// VideoID extracts the video row ID from a video visual ID.
func (id VisualID) VideoID() (int64, bool) {
	return parseVisualID(string(id), videoIDPrefix)
}

func parseVisualID(s, prefix string) (int64, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(s, prefix), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Visual is a read-only library entry: a photo (possibly a motion photo) or
// a video. Values are built by AllVisuals and shared between library
// snapshots; nothing mutates a Visual after construction.
type Visual struct {
	ID              VisualID      `json:"id"`
	Path            string        `json:"path"`
	ParentPath      string        `json:"parentPath"`
	ThumbnailPath   string        `json:"thumbnailPath,omitempty"`
	PictureID       int64         `json:"pictureId,omitempty"`
	VideoID         int64         `json:"videoId,omitempty"`
	MotionVideoPath string        `json:"motionVideoPath,omitempty"`
	IsSelfie        bool          `json:"isSelfie"`
	IsVideo         bool          `json:"isVideo"`
	IsMotionPhoto   bool          `json:"isMotionPhoto"`
	CreatedAt       time.Time     `json:"createdAt"`
	Width           int           `json:"width,omitempty"`
	Height          int           `json:"height,omitempty"`
	Duration        time.Duration `json:"duration,omitempty"`
}

// HasThumbnail reports whether a thumbnail has been generated.
func (v *Visual) HasThumbnail() bool {
	return v.ThumbnailPath != ""
}

// YearMonth returns the capture month as "2006-01".
func (v *Visual) YearMonth() string {
	return v.CreatedAt.Format("2006-01")
}

// Picture is a row of the pictures table.
type Picture struct {
	ID              int64
	Path            string
	ParentPath      string
	FSModifiedAt    time.Time
	CreatedAt       time.Time
	Width           int
	Height          int
	IsSelfie        bool
	ThumbnailPath   string
	MotionVideoPath string
	Enriched        bool
	MotionChecked   bool
	FacesScanned    bool
}

// PictureMetadata is what the enrich job learns about a picture.
type PictureMetadata struct {
	CreatedAt time.Time
	Width     int
	Height    int
	IsSelfie  bool
}

// Video is a row of the videos table.
type Video struct {
	ID                int64
	Path              string
	ParentPath        string
	FSModifiedAt      time.Time
	CreatedAt         time.Time
	Width             int
	Height            int
	Duration          time.Duration
	VideoCodec        string
	AudioCodec        string
	ContainerFormat   string
	ThumbnailPath     string
	TranscodedPath    string
	TranscodeRequired bool
	Enriched          bool
}

// VideoMetadata is what the enrich job learns about a video.
type VideoMetadata struct {
	CreatedAt         time.Time
	Width             int
	Height            int
	Duration          time.Duration
	VideoCodec        string
	AudioCodec        string
	ContainerFormat   string
	TranscodeRequired bool
}

// Face is a detected face within a picture. Coordinates are in pixels of
// the original image.
type Face struct {
	ID         int64
	PictureID  int64
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
	PersonName string
}

// ScannedFile is a media file found on disk by a scan job.
type ScannedFile struct {
	Path       string
	ParentPath string
	ModTime    time.Time
}

// Stats summarises table sizes.
type Stats struct {
	Pictures     int `json:"pictures"`
	Videos       int `json:"videos"`
	MotionPhotos int `json:"motionPhotos"`
	Faces        int `json:"faces"`
	People       int `json:"people"`
}
