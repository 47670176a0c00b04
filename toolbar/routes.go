package toolbar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format selects the encoding of the history endpoint.
type Format int

const (
	FormatJSON Format = iota
	FormatMsgpack
	FormatText
)

func formatFromRequest(r *http.Request, def Format) Format {
	switch r.URL.Query().Get("format") {
	case "json":
		return FormatJSON
	case "msgpack":
		return FormatMsgpack
	case "text":
		return FormatText
	default:
		return def
	}
}

// RenderPanelResponse is the body of the render_panel endpoint.
type RenderPanelResponse struct {
	Content string `json:"content"`
	// Expired is true when the toolbar is no longer in the results store.
	Expired bool `json:"expired,omitempty"`
}

// Routes returns the debug endpoints, to be mounted under RoutesPrefix with the prefix
// stripped (paths keep their leading "/"):
//   - /render_panel?store_id=&panel_id= : panel content as JSON;
//   - /history?format=json|msgpack|text : summaries of stored toolbars, newest first;
//   - /live : websocket feed of summaries.
//
// All endpoints are GET/HEAD only and never cached.
func (e *Engine) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/render_panel", e.handleRenderPanel)
	mux.HandleFunc("/history", e.handleHistory)
	mux.Handle("/live", e.hub)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		mux.ServeHTTP(w, r)
	})
}

func (e *Engine) handleRenderPanel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out := RenderPanelResponse{Content: ExpiredPanelMessage, Expired: true}
	if t, ok := e.store.Get(q.Get("store_id")); ok {
		if p, ok := t.Panel(q.Get("panel_id")); ok {
			out = RenderPanelResponse{Content: string(panelContent(p))}
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

func (e *Engine) handleHistory(w http.ResponseWriter, r *http.Request) {
	sums := e.store.Summaries()
	switch formatFromRequest(r, FormatJSON) {
	case FormatMsgpack:
		b, err := msgpack.Marshal(sums)
		if err != nil {
			http.Error(w, "encode history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(b)
		}
	case FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		var b strings.Builder
		for _, s := range sums {
			fmt.Fprintf(&b, "%s\t%s %s\t%d\t%s", s.StoreID, s.Method, s.Path, s.Status, s.Duration)
			if s.DebugURI != "" {
				b.WriteString("\t" + s.DebugURI)
			}
			b.WriteByte('\n')
		}
		_, _ = w.Write([]byte(b.String()))
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(sums)
	}
}
