package handlers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"media-library/internal/logging"
)

// gzipMinSize is the smallest JSON body worth compressing.
const gzipMinSize = 1024

var gzipWriterPool = sync.Pool{
	New: func() interface{} { return gzip.NewWriter(nil) },
}

// writeJSON encodes v with the given status. Large bodies are gzipped
// when the client accepts it. Encoding errors are logged since the
// response cannot be recovered at that point.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-cache")

	if buf.Len() < gzipMinSize || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		w.WriteHeader(status)
		_, _ = w.Write(buf.Bytes())
		return
	}

	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	w.WriteHeader(status)

	gz := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(gz)
	gz.Reset(w)
	if _, err := gz.Write(buf.Bytes()); err != nil {
		logging.Debug("failed to write JSON response: %v", err)
	}
	if err := gz.Close(); err != nil {
		logging.Debug("failed to flush JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, r *http.Request, status int, value string) {
	writeJSON(w, r, status, map[string]string{"status": value})
}
