package debugbar

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/evan-idocoding/debugbar/httpx"
	"github.com/evan-idocoding/debugbar/panels"
	"github.com/evan-idocoding/debugbar/storage"
	"github.com/evan-idocoding/debugbar/toolbar"
)

// Spec configures New. The zero value is usable.
//
// Assembly errors are fail-fast and will panic.
type Spec struct {
	// Config is the hot-swappable configuration. Nil uses toolbar.DefaultConfig, which keeps
	// the toolbar hidden until Debug is turned on.
	Config *toolbar.AtomicConfig

	// Panels defaults to panels.Defaults().
	Panels []toolbar.PanelFactory

	// Mux enables view resolution for the request panel. ViewResolver takes precedence.
	Mux          *http.ServeMux
	ViewResolver toolbar.ViewResolver

	// ShowToolbar overrides Config.ShowToolbarCallback.
	ShowToolbar toolbar.ShowToolbarFunc

	// Storage overrides Config.DebugURIStorage.
	Storage storage.Storage

	// RoutesPrefix is where the debug endpoints are mounted. Default: "/__debug__/".
	RoutesPrefix string

	// DisableMedia stops serving stored toolbar pages under Config.StorageBaseURL.
	DisableMedia bool

	// TrustedProxies enables X-Forwarded-For / X-Real-IP for the client IP check.
	// Default-safe: when empty, headers are not trusted and RemoteAddr is used.
	TrustedProxies []string

	Logger *slog.Logger
}

// Debugbar is an application handler wrapped with the toolbar.
type Debugbar struct {
	// Engine is the underlying toolbar engine.
	Engine *toolbar.Engine

	handler http.Handler
}

// New wraps app with the toolbar and mounts the debug endpoints and stored pages.
//
// Request flow: Recover, RequestID and RealIP run first; requests under RoutesPrefix go to the
// debug endpoints, requests under the storage base URL to stored pages, everything else to
// app through the toolbar. Debug endpoints and stored pages answer 404 unless Debug is on and
// the client IP is in InternalIPs.
func New(app http.Handler, spec Spec) *Debugbar {
	if app == nil {
		panic("debugbar: nil app handler")
	}
	logger := spec.Logger
	if logger == nil {
		logger = slog.Default()
	}
	factories := spec.Panels
	if factories == nil {
		factories = panels.Defaults()
	}
	resolver := spec.ViewResolver
	if resolver == nil && spec.Mux != nil {
		resolver = toolbar.MuxResolver(spec.Mux)
	}
	prefix := spec.RoutesPrefix
	if prefix == "" {
		prefix = toolbar.DefaultRoutesPrefix
	}
	prefix = normalizeMountPrefixOrPanic(prefix)

	opts := []toolbar.Option{
		toolbar.WithPanels(factories...),
		toolbar.WithLogger(logger),
		toolbar.WithRoutesPrefix(prefix),
		toolbar.WithViewResolver(resolver),
		toolbar.WithShowToolbar(spec.ShowToolbar),
		toolbar.WithStorage(spec.Storage),
	}
	if spec.Config != nil {
		opts = append(opts, toolbar.WithConfig(spec.Config))
	}
	eng := toolbar.New(opts...)

	guard := httpx.AccessGuard(
		httpx.WithCheck(func(r *http.Request) bool { return debugAllowed(eng, r) }),
		httpx.WithDenyStatus(http.StatusNotFound),
		httpx.WithOnDeny(func(r *http.Request, reason httpx.DenyReason) {
			logger.DebugContext(r.Context(), "debugbar: debug route denied",
				slog.String("path", r.URL.Path), slog.String("reason", string(reason)))
		}),
	)

	var h http.Handler = eng.Handler(app)
	if !spec.DisableMedia {
		h = mediaHandler(eng, h, guard, logger)
	}
	h = mountPrefix(prefix, guard(eng.Routes()), h)
	h = httpx.Chain(
		httpx.Recover(httpx.WithRecoverLogger(logger)),
		httpx.RequestID(),
		httpx.RealIP(httpx.WithTrustedProxies(spec.TrustedProxies)),
	).Handler(h)

	return &Debugbar{Engine: eng, handler: h}
}

func (d *Debugbar) ServeHTTP(w http.ResponseWriter, r *http.Request) { d.handler.ServeHTTP(w, r) }

// Close releases the engine's resources.
func (d *Debugbar) Close() error { return d.Engine.Close() }

// mediaHandler serves stored toolbar pages under the configured storage base URL. The
// current configuration decides the backend, so reloads apply to the next request.
func mediaHandler(eng *toolbar.Engine, fallback http.Handler, guard httpx.Middleware, logger *slog.Logger) http.Handler {
	serve := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := eng.Config().Load()
		st, err := eng.Storage(cfg)
		if err != nil {
			logger.ErrorContext(r.Context(), "debugbar: open storage failed", slog.Any("err", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		storage.Handler(st, mediaBase(cfg)).ServeHTTP(w, r)
	}))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := mediaBase(eng.Config().Load())
		if !strings.HasPrefix(base, "/") || !strings.HasPrefix(r.URL.Path, base) {
			fallback.ServeHTTP(w, r)
			return
		}
		serve.ServeHTTP(w, r)
	})
}

func mediaBase(cfg toolbar.Config) string {
	base := cfg.StorageBaseURL
	if base == "" {
		base = storage.DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// debugAllowed gates the debug endpoints and stored pages. Unlike ShowToolbar it accepts
// AJAX requests, since the toolbar itself fetches panels that way.
func debugAllowed(eng *toolbar.Engine, r *http.Request) bool {
	cfg := eng.Config().Load()
	if !cfg.Debug {
		return false
	}
	ip, ok := httpx.ClientIP(r)
	return ok && httpx.NewIPSet(cfg.InternalIPs).Contains(ip)
}

// mountPrefix serves subtree under prefix and everything else with fallback.
//
// The bare prefix without its trailing slash redirects to the prefix. The prefix is stripped
// but a leading "/" is kept so net/http muxes do not redirect.
func mountPrefix(prefix string, subtree, fallback http.Handler) http.Handler {
	prefix = normalizeMountPrefixOrPanic(prefix)
	base := strings.TrimSuffix(prefix, "/")
	if subtree == nil {
		panic("debugbar: mountPrefix: nil subtree handler")
	}
	if fallback == nil {
		panic("debugbar: mountPrefix: nil fallback handler")
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == base {
			target := prefix
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok {
			fallback.ServeHTTP(w, r)
			return
		}
		r2 := new(http.Request)
		*r2 = *r
		u2 := *r.URL
		r2.URL = &u2
		r2.URL.Path = "/" + rest
		r2.URL.RawPath = ""
		subtree.ServeHTTP(w, r2)
	})
}

func normalizeMountPrefixOrPanic(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		panic("debugbar: mountPrefix: empty prefix")
	}
	if !strings.HasPrefix(prefix, "/") {
		panic("debugbar: mountPrefix: invalid prefix (must start with '/'): " + prefix)
	}
	if strings.ContainsAny(prefix, " \t\r\n?#") {
		panic("debugbar: mountPrefix: invalid prefix (contains whitespace or ?#): " + prefix)
	}
	if strings.Contains(prefix, "//") {
		panic("debugbar: mountPrefix: invalid prefix (contains //): " + prefix)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
