package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/library"
)

// VisualsResponse is one page of an album view.
type VisualsResponse struct {
	Items           []*database.Visual `json:"items"`
	Total           int                `json:"total"`
	Page            int                `json:"page"`
	PageSize        int                `json:"pageSize"`
	SnapshotVersion uint64             `json:"snapshotVersion"`
}

// maxPageSize caps the pageSize query parameter.
const maxPageSize = 1000

// ListVisuals returns an album view: ?filter=all|videos|motion|selfies or
// ?folder=path, paged with ?page and ?pageSize (default: everything).
func (h *Handlers) ListVisuals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := library.ParseFilter(q.Get("filter"), q.Get("folder"))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	items := h.library.Filter(filter)
	resp := VisualsResponse{
		Total:           len(items),
		Page:            1,
		SnapshotVersion: h.library.Snapshot().Version,
	}

	if size, err := strconv.Atoi(q.Get("pageSize")); err == nil && size > 0 {
		resp.PageSize = min(size, maxPageSize)
		if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
			resp.Page = page
		}
		start := min((resp.Page-1)*resp.PageSize, len(items))
		items = items[start:min(start+resp.PageSize, len(items))]
	}

	if items == nil {
		items = []*database.Visual{}
	}
	resp.Items = items
	writeJSON(w, r, http.StatusOK, resp)
}

// GetVisual returns one visual by ID, e.g. /api/visuals/photo-12.
func (h *Handlers) GetVisual(w http.ResponseWriter, r *http.Request) {
	v, ok := h.library.Get(database.VisualID(mux.Vars(r)["id"]))
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "visual not found")
		return
	}
	writeJSON(w, r, http.StatusOK, v)
}

// GetThumbnail serves the JPEG thumbnail of a visual.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	v, ok := h.library.Get(database.VisualID(mux.Vars(r)["id"]))
	if !ok || !v.HasThumbnail() {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, v.ThumbnailPath)
}

// ListFolders returns every folder that holds visuals.
func (h *Handlers) ListFolders(w http.ResponseWriter, r *http.Request) {
	folders := h.library.Folders()
	if folders == nil {
		folders = []library.FolderSummary{}
	}
	writeJSON(w, r, http.StatusOK, folders)
}

// LibraryStatus describes the installed snapshot.
type LibraryStatus struct {
	Version     uint64         `json:"version"`
	Items       int            `json:"items"`
	RefreshedAt time.Time      `json:"refreshedAt,omitempty"`
	Counts      library.Counts `json:"counts"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Tasks         bootstrap.Status `json:"tasks"`
	Library       LibraryStatus    `json:"library"`
	FaceDetection string           `json:"faceDetection"`
}

// GetStatus reports the task pipeline and library state.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.library.Snapshot()
	writeJSON(w, r, http.StatusOK, StatusResponse{
		Tasks: h.tasks.Status(),
		Library: LibraryStatus{
			Version:     snap.Version,
			Items:       len(snap.Items),
			RefreshedAt: snap.RefreshedAt,
			Counts:      h.library.Counts(),
		},
		FaceDetection: h.settings.FaceDetection().String(),
	})
}
