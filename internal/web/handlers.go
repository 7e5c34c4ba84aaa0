package web

import (
	"net/http"
	"path"
	"strings"

	"github.com/roomly/roomly/internal/blob"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleFile serves a stored object such as a bill PDF.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, blob.PathPrefix)
	obj, err := s.blobs.Open(r.Context(), key)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	defer func() { _ = obj.Close() }()

	if ct := obj.ContentType(); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, path.Base(key), obj.ModTime(), obj)
}
