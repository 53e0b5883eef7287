package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-library/internal/middleware"
)

// RouterConfig controls the middleware installed by NewRouter.
type RouterConfig struct {
	LogHealthChecks bool
	MetricsEnabled  bool
}

// NewRouter registers every API route with logging and, if enabled,
// request metrics.
func NewRouter(h *Handlers, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(middleware.LoggingConfig{LogHealthChecks: cfg.LogHealthChecks}))
	if cfg.MetricsEnabled {
		r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	}

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/visuals", h.ListVisuals).Methods(http.MethodGet)
	api.HandleFunc("/visuals/{id}", h.GetVisual).Methods(http.MethodGet)
	api.HandleFunc("/visuals/{id}/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/folders", h.ListFolders).Methods(http.MethodGet)
	api.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)

	api.HandleFunc("/tasks/faces", h.ScanFaces).Methods(http.MethodPost)
	api.HandleFunc("/tasks/faces/{pictureId}", h.ScanPictureFaces).Methods(http.MethodPost)
	api.HandleFunc("/tasks/transcode", h.TranscodeAll).Methods(http.MethodPost)
	api.HandleFunc("/tasks/rescan", h.Rescan).Methods(http.MethodPost)
	api.HandleFunc("/tasks/stop", h.StopTasks).Methods(http.MethodPost)

	api.HandleFunc("/settings/face-detection", h.SetFaceDetection).Methods(http.MethodPut)
	return r
}
