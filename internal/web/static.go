package web

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// serveStatic maps the reserved asset prefix onto the static root directory.
// Only GET is allowed; anything resolving outside the root is rejected.
func (rt *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	relative := strings.TrimPrefix(r.URL.Path, rt.staticPrefix)
	full := filepath.Join(rt.staticRoot, filepath.FromSlash(relative))

	root, err := filepath.Abs(rt.staticRoot)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	abs, err := filepath.Abs(full)
	if err != nil || (abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator))) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(abs))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	data, err := os.ReadFile(abs)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
