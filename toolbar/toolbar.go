package toolbar

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// PanelCookiePrefix prefixes the per-panel cookies ("on"/"off") that override
// Config.DisablePanels.
const PanelCookiePrefix = "debugbar-"

// Toolbar is the per-request instrumentation state.
type Toolbar struct {
	// ID identifies the toolbar in the results store.
	ID string
	// Request is the instrumented request, with the toolbar in its context.
	Request *http.Request
	// Config is the snapshot taken when the request started.
	Config Config
	// StartedAt is when instrumentation began.
	StartedAt time.Time

	panels  []Panel
	enabled map[string]bool

	routesPrefix string
}

func newToolbar(r *http.Request, cfg Config, factories []PanelFactory, routesPrefix string) *Toolbar {
	t := &Toolbar{
		ID:           uuid.NewString(),
		Request:      r,
		Config:       cfg,
		StartedAt:    time.Now(),
		enabled:      make(map[string]bool, len(factories)),
		routesPrefix: routesPrefix,
	}
	for _, f := range factories {
		if f == nil {
			continue
		}
		p := f(t)
		if p == nil {
			continue
		}
		id := p.ID()
		if _, dup := t.enabled[id]; dup {
			panic("toolbar: duplicated panel id " + id)
		}
		t.panels = append(t.panels, p)
		t.enabled[id] = panelEnabled(r, cfg, id)
	}
	return t
}

func panelEnabled(r *http.Request, cfg Config, id string) bool {
	if c, err := r.Cookie(PanelCookiePrefix + id); err == nil {
		switch c.Value {
		case "on":
			return true
		case "off":
			return false
		}
	}
	return !cfg.PanelDisabled(id)
}

// Panels returns all panels in order.
func (t *Toolbar) Panels() []Panel {
	return append([]Panel(nil), t.panels...)
}

// EnabledPanels returns the enabled panels in order.
func (t *Toolbar) EnabledPanels() []Panel {
	out := make([]Panel, 0, len(t.panels))
	for _, p := range t.panels {
		if t.enabled[p.ID()] {
			out = append(out, p)
		}
	}
	return out
}

// Panel returns the panel with the given id.
func (t *Toolbar) Panel(id string) (Panel, bool) {
	for _, p := range t.panels {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// IsEnabled reports whether the panel id is enabled for this request.
func (t *Toolbar) IsEnabled(id string) bool { return t.enabled[id] }

type contextKey struct{}

// NewContext returns a derived context carrying t.
func NewContext(ctx context.Context, t *Toolbar) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the toolbar of the current request. Requests the toolbar is not shown
// for have none.
func FromContext(ctx context.Context) (*Toolbar, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(contextKey{}).(*Toolbar)
	return t, ok && t != nil
}

// FromRequest returns the toolbar stored in r.Context().
func FromRequest(r *http.Request) (*Toolbar, bool) {
	if r == nil {
		return nil, false
	}
	return FromContext(r.Context())
}
