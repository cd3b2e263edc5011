package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"GeminiStream/logger"
)

// StaticHandler serves a bundled web UI from a directory. Unknown paths fall
// back to index.html so client side routes survive a reload.
type StaticHandler struct {
	dir string
}

// NewStaticHandler creates a StaticHandler for dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rel := path.Clean("/" + r.URL.Path)
	file := filepath.Join(h.dir, filepath.FromSlash(rel))

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		if path.Ext(rel) != "" {
			// a missing asset is a real 404, not a client route
			http.NotFound(w, r)
			return
		}
		file = filepath.Join(h.dir, "index.html")
		w.Header().Set("Cache-Control", "no-cache")
	} else if strings.HasPrefix(rel, "/assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000")
	}

	if _, err := os.Stat(file); err != nil {
		logger.Warn("[Static] UI file not found", logger.String("path", file))
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, file)
}

// ServeStatic mounts a web UI from dir below every API route.
func (s *Server) ServeStatic(dir string) {
	s.router.PathPrefix("/").Handler(NewStaticHandler(dir))
	logger.Info("[Server] Serving web UI", logger.String("dir", dir))
}
