package storage

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

// Handler serves files stored in s. Request paths are taken relative to prefix, which should
// match the BaseURL the storage was built with.
//
// GET/HEAD only; other methods return 405. Unknown or invalid names return 404.
func Handler(s Storage, prefix string) http.Handler {
	if s == nil {
		panic("storage: Handler with nil storage")
	}
	if prefix == "" {
		prefix = DefaultBaseURL
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok {
			http.NotFound(w, r)
			return
		}
		rc, err := s.Open(r.Context(), name)
		if errors.Is(err, ErrNotExist) || errors.Is(err, ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		ctype := mime.TypeByExtension(path.Ext(name))
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.Copy(w, rc)
	})
}
