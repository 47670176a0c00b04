package toolbar

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"

	"github.com/evan-idocoding/debugbar/httpx"
	"github.com/evan-idocoding/debugbar/storage"
)

const (
	// HeaderName carries the retrieval URI of a persisted toolbar page.
	HeaderName = "X-Debug-URI"
	// CookieName holds the collapse state ("hide"/"show") of the toolbar.
	CookieName = "debugbar"
	// DefaultRoutesPrefix is where the debug endpoints are expected to be mounted.
	DefaultRoutesPrefix = "/__debug__/"

	collapseCookieMaxAge = 864000
	pagePrefix           = "debug-toolbar/"
	pendingPage          = "<html><body><p>The toolbar for this response is still being recorded.</p></body></html>"
)

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	config       *AtomicConfig
	panels       []PanelFactory
	show         ShowToolbarFunc
	storage      storage.Storage
	logger       *slog.Logger
	resolver     ViewResolver
	routesPrefix string
}

// WithConfig sets a hot-swappable configuration. Each request uses the snapshot current at
// its start.
func WithConfig(c *AtomicConfig) Option {
	if c == nil {
		panic("toolbar: nil AtomicConfig")
	}
	return func(ec *engineConfig) { ec.config = c }
}

// WithStaticConfig sets a fixed configuration.
func WithStaticConfig(cfg Config) Option {
	return func(ec *engineConfig) { ec.config = NewAtomicConfig(cfg) }
}

// WithPanels sets the ordered panel factories. Nil factories are ignored.
func WithPanels(factories ...PanelFactory) Option {
	return func(ec *engineConfig) {
		ec.panels = nil
		for _, f := range factories {
			if f != nil {
				ec.panels = append(ec.panels, f)
			}
		}
	}
}

// WithShowToolbar overrides the predicate named by Config.ShowToolbarCallback.
func WithShowToolbar(fn ShowToolbarFunc) Option {
	return func(ec *engineConfig) { ec.show = fn }
}

// WithStorage overrides the backend named by Config.DebugURIStorage.
func WithStorage(s storage.Storage) Option {
	return func(ec *engineConfig) { ec.storage = s }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ec *engineConfig) { ec.logger = l }
}

// WithViewResolver enables Panel.ProcessView.
func WithViewResolver(fn ViewResolver) Option {
	return func(ec *engineConfig) { ec.resolver = fn }
}

// WithRoutesPrefix sets the path the debug endpoints are mounted under. Requests below it are
// never instrumented. Default: DefaultRoutesPrefix.
func WithRoutesPrefix(prefix string) Option {
	return func(ec *engineConfig) { ec.routesPrefix = prefix }
}

// Engine instruments requests and owns the state shared between them: the results store,
// the live feed hub and the storage backends.
//
// Per instrumented request the enabled panels are driven in this order:
//
//  1. EnableInstrumentation, in order;
//  2. ProcessRequest, in order, until one returns true;
//  3. ProcessView, in order, until one returns true (only with a ViewResolver);
//  4. the application handler, unless a panel short-circuited;
//  5. ProcessResponse, in reverse order;
//  6. DisableInstrumentation, in reverse order, also when the handler panics.
type Engine struct {
	config       *AtomicConfig
	panels       []PanelFactory
	show         ShowToolbarFunc
	logger       *slog.Logger
	resolver     ViewResolver
	routesPrefix string

	store *Store
	hub   *Hub

	fixedStorage storage.Storage
	storagesMu   sync.Mutex
	storages     map[storageKey]storage.Storage
}

type storageKey struct {
	name, root, baseURL string
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	ec := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&ec)
		}
	}
	if ec.config == nil {
		ec.config = NewAtomicConfig(DefaultConfig())
	}
	if ec.logger == nil {
		ec.logger = slog.Default()
	}
	prefix := strings.TrimSpace(ec.routesPrefix)
	if prefix == "" {
		prefix = DefaultRoutesPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Engine{
		config:       ec.config,
		panels:       ec.panels,
		show:         ec.show,
		logger:       ec.logger,
		resolver:     ec.resolver,
		routesPrefix: prefix,
		store:        NewStore(),
		hub:          NewHub(ec.logger),
		fixedStorage: ec.storage,
		storages:     make(map[storageKey]storage.Storage),
	}
}

// Middleware is shorthand for New(opts...).Middleware().
func Middleware(opts ...Option) httpx.Middleware {
	return New(opts...).Middleware()
}

// Middleware returns e.Handler as an httpx.Middleware.
func (e *Engine) Middleware() httpx.Middleware { return e.Handler }

// Config returns the configuration holder.
func (e *Engine) Config() *AtomicConfig { return e.config }

// Store returns the results store.
func (e *Engine) Store() *Store { return e.store }

// Hub returns the live feed hub.
func (e *Engine) Hub() *Hub { return e.hub }

// RoutesPrefix returns the normalized routes prefix.
func (e *Engine) RoutesPrefix() string { return e.routesPrefix }

// Close disconnects live feed clients and closes storage backends that hold resources.
func (e *Engine) Close() error {
	e.hub.Close()
	e.storagesMu.Lock()
	defer e.storagesMu.Unlock()
	var errs []error
	for k, s := range e.storages {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("toolbar: close storage %q: %w", k.name, err))
			}
		}
		delete(e.storages, k)
	}
	return errors.Join(errs...)
}

// Storage returns the backend for cfg. Instances are cached per name, root and base URL.
func (e *Engine) Storage(cfg Config) (storage.Storage, error) {
	if e.fixedStorage != nil {
		return e.fixedStorage, nil
	}
	key := storageKey{name: cfg.DebugURIStorage, root: cfg.StorageRoot, baseURL: cfg.StorageBaseURL}
	e.storagesMu.Lock()
	defer e.storagesMu.Unlock()
	if s, ok := e.storages[key]; ok {
		return s, nil
	}
	s, err := storage.New(key.name, storage.Options{Root: key.root, BaseURL: key.baseURL})
	if err != nil {
		return nil, err
	}
	e.storages[key] = s
	return s, nil
}

// Handler wraps next with the toolbar.
func (e *Engine) Handler(next http.Handler) http.Handler {
	if next == nil {
		panic("toolbar: nil next handler")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := e.config.Load()
		if e.ownRoute(r) || !e.visible(r, cfg) {
			next.ServeHTTP(w, r)
			return
		}
		e.serve(w, r, cfg, next)
	})
}

func (e *Engine) ownRoute(r *http.Request) bool {
	return r.URL.Path+"/" == e.routesPrefix || strings.HasPrefix(r.URL.Path, e.routesPrefix)
}

func (e *Engine) visible(r *http.Request, cfg Config) bool {
	if e.show != nil {
		return e.show(r, cfg)
	}
	fn, ok := LookupShowToolbar(cfg.ShowToolbarCallback)
	if !ok {
		e.logger.WarnContext(r.Context(), "toolbar: unknown show_toolbar_callback",
			slog.String("name", cfg.ShowToolbarCallback),
		)
		return false
	}
	return fn(r, cfg)
}

// exchange is the state of one instrumented request.
type exchange struct {
	engine   *Engine
	toolbar  *Toolbar
	ctx      context.Context
	reserved string
}

func (e *Engine) serve(w http.ResponseWriter, r *http.Request, cfg Config, next http.Handler) {
	t := newToolbar(r, cfg, e.panels, e.routesPrefix)
	r = r.WithContext(NewContext(r.Context(), t))
	t.Request = r

	x := &exchange{engine: e, toolbar: t, ctx: context.WithoutCancel(r.Context())}
	cw := newCaptureWriter(w, x.commit)
	enabled := t.EnabledPanels()

	var resp *Response
	func() {
		defer func() {
			for i := len(enabled) - 1; i >= 0; i-- {
				enabled[i].DisableInstrumentation()
			}
		}()
		for _, p := range enabled {
			p.EnableInstrumentation()
		}
		e.dispatch(cw, r, enabled, next)
		resp = cw.response()
		for i := len(enabled) - 1; i >= 0; i-- {
			enabled[i].ProcessResponse(r, resp)
		}
	}()

	sum := e.finish(x, resp)
	cw.send(resp)
	e.store.Add(t, sum)
	e.hub.Publish(sum)
}

func (e *Engine) dispatch(w http.ResponseWriter, r *http.Request, enabled []Panel, next http.Handler) {
	for _, p := range enabled {
		if p.ProcessRequest(w, r) {
			return
		}
	}
	if e.resolver != nil {
		v := e.resolver(r)
		for _, p := range enabled {
			if p.ProcessView(w, r, v) {
				return
			}
		}
	}
	next.ServeHTTP(w, r)
}

// commit runs when a flushed response sends its headers. Streaming responses are never
// spliced, so the page name is reserved now and the page written by finish.
func (x *exchange) commit(h http.Header) {
	t := x.toolbar
	if !t.Config.DebugURIHeader {
		return
	}
	st, err := x.engine.Storage(t.Config)
	if err != nil {
		x.engine.logger.ErrorContext(x.ctx, "toolbar: open storage failed", slog.Any("err", err))
		return
	}
	saved, err := st.Save(x.ctx, newPageName(), strings.NewReader(pendingPage))
	if err != nil {
		x.engine.logger.ErrorContext(x.ctx, "toolbar: reserve page failed", slog.Any("err", err))
		return
	}
	x.reserved = saved
	h.Set(HeaderName, st.URL(saved))
}

func (e *Engine) finish(x *exchange, resp *Response) Summary {
	t := x.toolbar
	sum := Summary{
		StoreID:   t.ID,
		Method:    t.Request.Method,
		Path:      t.Request.URL.Path,
		Status:    resp.StatusCode,
		StartedAt: t.StartedAt,
		Duration:  time.Since(t.StartedAt),
	}
	var enc encoding.Encoding
	spliceable := canSplice(resp)
	if spliceable {
		var err error
		if enc, err = responseEncoding(resp.Header, t.Config.DefaultCharset); err != nil {
			e.logger.WarnContext(x.ctx, "toolbar: unsupported response charset", slog.Any("err", err))
			spliceable = false
		}
	}

	switch {
	case spliceable:
		sum.Spliced = e.splice(x.ctx, t, resp, enc)
	case t.Config.DebugURIHeader:
		uri, err := e.persist(x.ctx, t, resp, x.reserved)
		if err != nil {
			e.logger.ErrorContext(x.ctx, "toolbar: persist toolbar failed",
				slog.String("store_id", t.ID),
				slog.Any("err", err),
			)
			break
		}
		sum.DebugURI = uri
		// Flushed responses got the header at commit; hijacked ones cannot carry it.
		if !resp.Streaming {
			resp.Header.Set(HeaderName, uri)
		}
	}
	return sum
}

func (e *Engine) splice(ctx context.Context, t *Toolbar, resp *Response, enc encoding.Encoding) bool {
	if t.Config.ShowCollapsed {
		if _, err := t.Request.Cookie(CookieName); err != nil {
			c := &http.Cookie{Name: CookieName, Value: "hide", Path: "/", MaxAge: collapseCookieMaxAge}
			resp.Header.Add("Set-Cookie", c.String())
		}
	}
	markup, err := t.Render()
	if err != nil {
		e.logger.ErrorContext(ctx, "toolbar: render failed", slog.Any("err", err))
		return false
	}
	body, err := spliceBody(resp.Body, enc, t.Config.InsertBefore, markup)
	if err != nil {
		if !errors.Is(err, errNoMarker) {
			e.logger.ErrorContext(ctx, "toolbar: splice failed", slog.Any("err", err))
		}
		return false
	}
	resp.Body = body
	if resp.Header.Get("Content-Length") != "" {
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	}
	return true
}

// persist saves the toolbar page and returns its retrieval URI. A reserved name is
// overwritten.
func (e *Engine) persist(ctx context.Context, t *Toolbar, resp *Response, reserved string) (string, error) {
	st, err := e.Storage(t.Config)
	if err != nil {
		return "", err
	}
	markup, err := t.Render()
	if err != nil {
		return "", fmt.Errorf("toolbar: render: %w", err)
	}
	page := renderPage(markup, resp)

	name := reserved
	if name == "" {
		name = newPageName()
	} else if err := st.Delete(ctx, name); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return "", fmt.Errorf("toolbar: replace %s: %w", name, err)
	}
	saved, err := st.Save(ctx, name, strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("toolbar: save %s: %w", name, err)
	}
	if reserved != "" && saved != reserved {
		e.logger.WarnContext(ctx, "toolbar: reserved page name taken",
			slog.String("reserved", reserved),
			slog.String("saved", saved),
		)
	}
	return st.URL(saved), nil
}

// renderPage wraps markup into a standalone page. The response body is included as text
// unless it streamed or is compressed.
func renderPage(markup string, resp *Response) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if !resp.Streaming && !isGzip(resp.Header) {
		b.WriteString("<textarea>")
		b.WriteString(template.HTMLEscapeString(string(resp.Body)))
		b.WriteString("</textarea>")
	}
	b.WriteString(markup)
	b.WriteString("</body></html>")
	return b.String()
}

func newPageName() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return pagePrefix + uuid.NewString() + ".html"
	}
	return pagePrefix + id.String() + ".html"
}
