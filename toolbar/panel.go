package toolbar

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"reflect"
	"runtime"
	"strings"
)

// Stats is the data a panel recorded for one request.
type Stats map[string]any

// Panel collects statistics for one aspect of a request.
//
// The toolbar calls panels like nested middleware, see Engine for the exact order. A
// panel instance lives for exactly one request. Implementations usually embed BasePanel and
// override what they need.
type Panel interface {
	// ID is a stable identifier, unique within a toolbar.
	ID() string
	// Title is shown in the panel list and as the panel heading.
	Title() string
	// NavSubtitle is a short summary shown under the title.
	NavSubtitle() string

	// EnableInstrumentation runs before any request processing.
	EnableInstrumentation()
	// DisableInstrumentation runs after response processing, even when the handler panics.
	DisableInstrumentation()

	// ProcessRequest runs before the handler. Returning true means the panel wrote a
	// response itself; the remaining panels and the handler are skipped.
	ProcessRequest(w http.ResponseWriter, r *http.Request) bool
	// ProcessView runs once the view is resolved, before the handler. Returning true
	// short-circuits like ProcessRequest.
	ProcessView(w http.ResponseWriter, r *http.Request, v View) bool
	// ProcessResponse runs after the handler, in reverse panel order. Panels may modify resp.
	ProcessResponse(r *http.Request, resp *Response)

	// Stats returns the recorded data.
	Stats() Stats
	// Content renders the panel body.
	Content() (template.HTML, error)
}

// PanelFactory builds a fresh panel for a toolbar.
type PanelFactory func(t *Toolbar) Panel

// BasePanel implements every Panel method except ID and Title as a no-op.
type BasePanel struct{}

// NavSubtitle returns "".
func (BasePanel) NavSubtitle() string { return "" }

// EnableInstrumentation does nothing.
func (BasePanel) EnableInstrumentation() {}

// DisableInstrumentation does nothing.
func (BasePanel) DisableInstrumentation() {}

// ProcessRequest returns false, letting the request through.
func (BasePanel) ProcessRequest(http.ResponseWriter, *http.Request) bool { return false }

// ProcessView returns false, letting the request through.
func (BasePanel) ProcessView(http.ResponseWriter, *http.Request, View) bool { return false }

// ProcessResponse leaves the response unchanged.
func (BasePanel) ProcessResponse(*http.Request, *Response) {}

// Stats returns nil.
func (BasePanel) Stats() Stats { return nil }

// Content returns empty markup.
func (BasePanel) Content() (template.HTML, error) { return "", nil }

// View describes the handler a request was routed to.
type View struct {
	// Found is false when no route matched.
	Found bool
	// Pattern is the matched route pattern, e.g. "GET /items/{id}".
	Pattern string
	// Name is the handler's function or type name.
	Name string
	// Args holds the wildcard values in pattern order.
	Args []string
	// Kwargs maps wildcard names to their values.
	Kwargs map[string]string
	// Handler is the matched handler.
	Handler http.Handler
}

// ViewResolver resolves the view for a request without serving it.
type ViewResolver func(r *http.Request) View

// MuxResolver resolves views with mux's own matching rules.
func MuxResolver(mux *http.ServeMux) ViewResolver {
	if mux == nil {
		panic("toolbar: MuxResolver with nil mux")
	}
	return func(r *http.Request) View {
		h, pattern := mux.Handler(r)
		if pattern == "" {
			return View{}
		}
		v := View{
			Found:   true,
			Pattern: pattern,
			Name:    HandlerName(h),
			Handler: h,
			Kwargs:  map[string]string{},
		}
		for _, w := range matchWildcards(pattern, r.URL) {
			v.Args = append(v.Args, w[1])
			v.Kwargs[w[0]] = w[1]
		}
		return v
	}
}

// HandlerName returns the function name of an http.HandlerFunc, or the dynamic type name of
// any other handler.
func HandlerName(h http.Handler) string {
	if h == nil {
		return ""
	}
	if fn, ok := h.(http.HandlerFunc); ok {
		if f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); f != nil {
			return f.Name()
		}
	}
	return fmt.Sprintf("%T", h)
}

// matchWildcards pairs the {name} segments of pattern with the path segments of u.
func matchWildcards(pattern string, u *url.URL) [][2]string {
	if _, rest, ok := strings.Cut(pattern, " "); ok {
		pattern = strings.TrimSpace(rest)
	}
	if i := strings.IndexByte(pattern, '/'); i > 0 {
		pattern = pattern[i:]
	}
	patSegs := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	pathSegs := strings.Split(strings.TrimPrefix(u.EscapedPath(), "/"), "/")

	var out [][2]string
	for i, seg := range patSegs {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := seg[1 : len(seg)-1]
		if name == "$" || i >= len(pathSegs) {
			continue
		}
		if base, ok := strings.CutSuffix(name, "..."); ok {
			out = append(out, [2]string{base, unescapeSegment(strings.Join(pathSegs[i:], "/"))})
			break
		}
		out = append(out, [2]string{name, unescapeSegment(pathSegs[i])})
	}
	return out
}

func unescapeSegment(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
