package http

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opentrusty/taskboard/internal/observability/logger"
)

// SPAHandler serves the frontend build. Unknown paths fall back to
// index.html for client-side routing; unknown /api paths get a JSON 404.
type SPAHandler struct {
	StaticFS fs.FS
}

func (h SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
		respondError(w, http.StatusNotFound, CodeNotFound, "route not found")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		h.serveIndex(w, r)
		return
	}

	f, err := h.StaticFS.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.serveIndex(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "failed to open static file", logger.Path(path), logger.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	if stat, err := f.Stat(); err == nil && stat.IsDir() {
		h.serveIndex(w, r)
		return
	}

	http.FileServer(http.FS(h.StaticFS)).ServeHTTP(w, r)
}

func (h SPAHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(h.StaticFS, "index.html")
	if err != nil {
		respondError(w, http.StatusNotFound, CodeNotFound, "frontend not built")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		slog.DebugContext(r.Context(), "failed to write index", logger.Error(err))
	}
}
