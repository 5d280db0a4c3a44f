// Package staticfiles serves the browser UI's static assets from an
// on-disk directory. The UI itself (HTML/JS/CSS and the visualization
// library that renders internal/render's payload) is an out-of-scope
// collaborator (spec.md §1); this package is only the minimal handler the
// Dispatcher needs to route /app/* and /favicon.ico requests somewhere.
package staticfiles

import (
	"net/http"
	"path/filepath"
	"strings"
)

// Handler serves files under root for a given URL prefix, answering 404
// when root is empty or the requested file does not exist. It maps the
// path under prefix to a file under root and hands it to http.ServeFile,
// so range requests are honoured and a directory without index.html is
// served as http.ServeFile's directory listing.
type Handler struct {
	root   string
	prefix string
}

// New creates a Handler serving files under root for requests whose path
// starts with prefix (prefix is stripped before resolving the file). An
// empty root means every request 404s.
func New(root, prefix string) *Handler {
	return &Handler{root: root, prefix: prefix}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.root == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(r.URL.Path, h.prefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "index.html"
	}

	full := filepath.Join(h.root, filepath.Clean("/"+rel))
	http.ServeFile(w, r, full)
}
