package router

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/asrafilll/monoserve/internal/publish"
)

// serveStatic is the production terminal action: an existing file wins, a
// directory resolves to its index document, and everything else gets the
// fallback document with status 200 so client-side routing can take over.
func (rt *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	rel, ok := confinedPath(r.URL.Path)
	if !ok {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	full := filepath.Join(rt.serving.StaticRoot, rel)
	if info, err := os.Stat(full); err == nil {
		if !info.IsDir() {
			http.ServeFile(w, r, full)
			return
		}
		if index := filepath.Join(full, publish.FallbackDocument); isRegularFile(index) {
			http.ServeFile(w, r, index)
			return
		}
	}

	rt.serveFallback(w, r)
}

func (rt *Router) serveFallback(w http.ResponseWriter, r *http.Request) {
	fallback := filepath.Join(rt.serving.StaticRoot, publish.FallbackDocument)
	if !isRegularFile(fallback) {
		// The filesystem contract puts the fallback document in the static
		// root; without it there is nothing left to serve.
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, fallback)
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// confinedPath maps a request path to a path relative to the static root,
// rejecting traversal the same way net/http's file server does.
func confinedPath(urlPath string) (string, bool) {
	if containsDotDot(urlPath) || strings.ContainsRune(urlPath, 0) {
		return "", false
	}
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	clean := path.Clean(urlPath)
	return filepath.FromSlash(strings.TrimPrefix(clean, "/")), true
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
