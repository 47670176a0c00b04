package toolbar

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/evan-idocoding/debugbar/httpx"
)

// ShowToolbarFunc decides whether a request is instrumented.
//
// It runs on every request and must be fast; it must not write the response.
type ShowToolbarFunc func(r *http.Request, cfg Config) bool

// DefaultShowToolbarName is the registry name of ShowToolbar.
const DefaultShowToolbarName = "default"

// ShowToolbar is the default visibility predicate:
//   - the client IP must be in cfg.InternalIPs (RealIP value when present, else RemoteAddr);
//   - AJAX requests are only instrumented when cfg.DebugURIHeader is set, since their toolbar
//     can only be delivered out-of-band;
//   - finally cfg.Debug must be on.
func ShowToolbar(r *http.Request, cfg Config) bool {
	ip, ok := httpx.ClientIP(r)
	if !ok || !httpx.NewIPSet(cfg.InternalIPs).Contains(ip) {
		return false
	}
	if IsAjax(r) && !cfg.DebugURIHeader {
		return false
	}
	return cfg.Debug
}

// IsAjax reports whether r carries X-Requested-With: XMLHttpRequest.
func IsAjax(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

var (
	showMu       sync.RWMutex
	showRegistry = map[string]ShowToolbarFunc{
		DefaultShowToolbarName: ShowToolbar,
	}
)

// RegisterShowToolbar makes fn selectable through Config.ShowToolbarCallback.
//
// It panics on empty names, nil functions and duplicates.
func RegisterShowToolbar(name string, fn ShowToolbarFunc) {
	name = strings.TrimSpace(name)
	if name == "" {
		panic("toolbar: RegisterShowToolbar with empty name")
	}
	if fn == nil {
		panic("toolbar: RegisterShowToolbar " + name + ": nil func")
	}
	showMu.Lock()
	defer showMu.Unlock()
	if _, dup := showRegistry[name]; dup {
		panic("toolbar: RegisterShowToolbar called twice for " + name)
	}
	showRegistry[name] = fn
}

// LookupShowToolbar returns the predicate registered under name.
func LookupShowToolbar(name string) (ShowToolbarFunc, bool) {
	showMu.RLock()
	defer showMu.RUnlock()
	fn, ok := showRegistry[strings.TrimSpace(name)]
	return fn, ok
}

// ShowToolbarNames lists registered predicate names, sorted.
func ShowToolbarNames() []string {
	showMu.RLock()
	defer showMu.RUnlock()
	out := make([]string, 0, len(showRegistry))
	for name := range showRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
