package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8" /><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Text}}</p>
<ul>
<li><a href="/">home</a></li>
<li><a href="/items/42">item 42</a></li>
<li><a href="/api/items">json</a></li>
<li><a href="/stream">stream</a></li>
<li><a href="/gzip">gzip</a></li>
<li><a href="/__debug__/history?format=text">history</a></li>
</ul>
</body>
</html>
`))

type pageData struct {
	Title string
	Text  string
}

func newApp(logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "rendering home")
		writePage(w, pageData{Title: "debugbar demo", Text: "The toolbar is inserted before </body>."})
	})
	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		logger.InfoContext(r.Context(), "loading item", slog.String("id", id))
		writePage(w, pageData{Title: "Item " + id, Text: "See the request panel for the resolved view."})
	})
	mux.HandleFunc("GET /api/items", func(w http.ResponseWriter, r *http.Request) {
		logger.InfoContext(r.Context(), "listing items")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 42, "name": "answer"}})
	})
	mux.HandleFunc("GET /stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><h1>stream</h1>\n")
		for i := 0; i < 3; i++ {
			fmt.Fprintf(w, "<p>chunk %d</p>\n", i)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
			time.Sleep(100 * time.Millisecond)
		}
		fmt.Fprint(w, "</body></html>\n")
	})
	mux.HandleFunc("GET /gzip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		defer zw.Close()
		_ = pageTemplate.Execute(zw, pageData{Title: "gzip", Text: "Compressed responses are never modified."})
	})
	return mux
}

func writePage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
