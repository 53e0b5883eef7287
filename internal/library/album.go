package library

import (
	"fmt"
	"path/filepath"
	"sort"

	"media-library/internal/database"
)

// FilterKind selects one of the album views.
type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterVideos
	FilterMotionPhotos
	FilterSelfies
	FilterFolder
)

// AlbumFilter describes an album view. Folder is only used by FilterFolder.
type AlbumFilter struct {
	Kind   FilterKind
	Folder string
}

// All is the view of the whole library.
func All() AlbumFilter { return AlbumFilter{Kind: FilterAll} }

// Videos is the view of videos only.
func Videos() AlbumFilter { return AlbumFilter{Kind: FilterVideos} }

// MotionPhotos is the view of photos with an embedded video.
func MotionPhotos() AlbumFilter { return AlbumFilter{Kind: FilterMotionPhotos} }

// Selfies is the view of front-camera photos.
func Selfies() AlbumFilter { return AlbumFilter{Kind: FilterSelfies} }

// Folder is the view of the visuals directly inside path.
func Folder(path string) AlbumFilter {
	return AlbumFilter{Kind: FilterFolder, Folder: filepath.Clean(path)}
}

// ParseFilter maps the API filter names onto an AlbumFilter. A non-empty
// folder takes precedence over name.
func ParseFilter(name, folder string) (AlbumFilter, error) {
	if folder != "" {
		return Folder(folder), nil
	}
	switch name {
	case "", "all":
		return All(), nil
	case "videos":
		return Videos(), nil
	case "motion":
		return MotionPhotos(), nil
	case "selfies":
		return Selfies(), nil
	}
	return AlbumFilter{}, fmt.Errorf("unknown filter %q", name)
}

func (f AlbumFilter) match(v *database.Visual) bool {
	switch f.Kind {
	case FilterVideos:
		return v.IsVideo
	case FilterMotionPhotos:
		return v.IsMotionPhoto
	case FilterSelfies:
		return v.IsSelfie
	case FilterFolder:
		return v.ParentPath == f.Folder
	default:
		return true
	}
}

// Filter returns the visuals of the current snapshot matching f. Visuals
// without a thumbnail are left out since they cannot be shown yet.
func (l *Library) Filter(f AlbumFilter) []*database.Visual {
	var out []*database.Visual
	for _, v := range l.current.Load().Items {
		if v.HasThumbnail() && f.match(v) {
			out = append(out, v)
		}
	}
	return out
}

// FolderSummary describes one folder of the library.
type FolderSummary struct {
	Path  string            `json:"path"`
	Name  string            `json:"name"`
	Count int               `json:"count"`
	Cover database.VisualID `json:"cover,omitempty"`
}

// Folders groups the current snapshot by parent folder, ordered by path.
// Cover is the first visual of the folder that has a thumbnail.
func (l *Library) Folders() []FolderSummary {
	byPath := make(map[string]*FolderSummary)
	for _, v := range l.current.Load().Items {
		s, ok := byPath[v.ParentPath]
		if !ok {
			s = &FolderSummary{Path: v.ParentPath, Name: filepath.Base(v.ParentPath)}
			byPath[v.ParentPath] = s
		}
		s.Count++
		if s.Cover == "" && v.HasThumbnail() {
			s.Cover = v.ID
		}
	}

	out := make([]FolderSummary, 0, len(byPath))
	for _, s := range byPath {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
