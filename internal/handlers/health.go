package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-library/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string    `json:"status"`
	Ready           bool      `json:"ready"`
	Version         string    `json:"version"`
	Uptime          string    `json:"uptime"`
	SnapshotVersion uint64    `json:"snapshotVersion"`
	Items           int       `json:"items"`
	RefreshedAt     time.Time `json:"refreshedAt,omitempty"`
	TaskState       string    `json:"taskState"`
	GoVersion       string    `json:"goVersion"`
	NumGoroutine    int       `json:"numGoroutine"`
}

// HealthCheck reports liveness and a summary of the library. It always
// returns 200 while the process serves requests.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.library.Snapshot()
	resp := HealthResponse{
		Status:          "healthy",
		Ready:           snap.Version > 0,
		Version:         startup.Version,
		Uptime:          time.Since(h.startedAt).Round(time.Second).String(),
		SnapshotVersion: snap.Version,
		Items:           len(snap.Items),
		RefreshedAt:     snap.RefreshedAt,
		TaskState:       string(h.tasks.Status().State),
		GoVersion:       runtime.Version(),
		NumGoroutine:    runtime.NumGoroutine(),
	}
	if !resp.Ready {
		resp.Status = "starting"
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// ReadinessCheck returns 200 once the first library snapshot is
// installed, 503 before.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if h.library.Ready() {
		writeJSONStatus(w, r, http.StatusOK, "ready")
		return
	}
	writeJSONStatus(w, r, http.StatusServiceUnavailable, "not_ready")
}
