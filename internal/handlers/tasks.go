package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-library/internal/bootstrap"
	"media-library/internal/database"
	"media-library/internal/logging"
)

// taskRequest submits work to the orchestrator and answers 202 Accepted.
func (h *Handlers) taskRequest(w http.ResponseWriter, r *http.Request, name string, submit func(ctx context.Context) error) {
	if !h.limiter.Allow() {
		writeJSONError(w, r, http.StatusTooManyRequests, "too many task requests")
		return
	}
	if err := submit(r.Context()); err != nil {
		if errors.Is(err, bootstrap.ErrStopped) {
			writeJSONError(w, r, http.StatusServiceUnavailable, "task pipeline is shutting down")
			return
		}
		logging.Error("%s request failed: %v", name, err)
		writeJSONError(w, r, http.StatusInternalServerError, "failed to queue "+name)
		return
	}
	writeJSONStatus(w, r, http.StatusAccepted, "queued")
}

// requireFaceDetection answers 409 when face detection is off.
func (h *Handlers) requireFaceDetection(w http.ResponseWriter, r *http.Request) bool {
	if h.settings.FaceDetection() == bootstrap.FaceDetectionOn {
		return true
	}
	writeJSONError(w, r, http.StatusConflict, "face detection is off")
	return false
}

// ScanFaces queues face detection for every unscanned picture.
func (h *Handlers) ScanFaces(w http.ResponseWriter, r *http.Request) {
	if !h.requireFaceDetection(w, r) {
		return
	}
	h.taskRequest(w, r, "face scan", h.tasks.ScanPicturesForFaces)
}

// ScanPictureFaces queues face detection for one picture. Until the first
// library snapshot is loaded the ID is not checked here; the face job
// fails for an unknown picture.
func (h *Handlers) ScanPictureFaces(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["pictureId"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid picture id")
		return
	}
	if !h.requireFaceDetection(w, r) {
		return
	}
	if _, ok := h.library.Get(database.PhotoVisualID(id)); !ok && h.library.Ready() {
		writeJSONError(w, r, http.StatusNotFound, "picture not found")
		return
	}
	h.taskRequest(w, r, "face scan", func(ctx context.Context) error {
		return h.tasks.ScanPictureForFaces(ctx, id)
	})
}

// TranscodeAll queues transcoding of every incompatible video.
func (h *Handlers) TranscodeAll(w http.ResponseWriter, r *http.Request) {
	h.taskRequest(w, r, "transcode", h.tasks.TranscodeAll)
}

// Rescan queues a scan of the media directory.
func (h *Handlers) Rescan(w http.ResponseWriter, r *http.Request) {
	h.taskRequest(w, r, "rescan", h.tasks.Rescan)
}

// StopTasks discards queued tasks and cancels the running one.
func (h *Handlers) StopTasks(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Stop(r.Context()); err != nil {
		if errors.Is(err, bootstrap.ErrStopped) {
			writeJSONError(w, r, http.StatusServiceUnavailable, "task pipeline is shutting down")
			return
		}
		writeJSONError(w, r, http.StatusInternalServerError, "failed to stop tasks")
		return
	}
	writeJSONStatus(w, r, http.StatusAccepted, "stopping")
}

type faceDetectionRequest struct {
	Mode string `json:"mode"`
}

// SetFaceDetection switches face detection on or off. Turning it on
// queues a scan of the pictures not yet scanned.
func (h *Handlers) SetFaceDetection(w http.ResponseWriter, r *http.Request) {
	var req faceDetectionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		writeJSONError(w, r, http.StatusBadRequest, "mode is required")
		return
	}
	mode, err := bootstrap.ParseFaceDetectionMode(req.Mode)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	previous := h.settings.FaceDetection()
	if err := h.settings.SetFaceDetection(mode); err != nil {
		logging.Warn("Face detection set to %s but not saved: %v", mode, err)
	}
	if mode == bootstrap.FaceDetectionOn && previous != mode {
		if err := h.tasks.ScanPicturesForFaces(r.Context()); err != nil {
			logging.Warn("Failed to queue face scan: %v", err)
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"mode": mode.String()})
}
