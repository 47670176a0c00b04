package toolbar

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding/htmlindex"
)

// Config is the toolbar configuration.
//
// Each instrumented request captures one snapshot at its start; reloading the configuration
// never changes a request that is already in flight.
type Config struct {
	// Debug is the host application's debug switch. The default visibility predicate
	// requires it.
	Debug bool `yaml:"debug" env:"DEBUGBAR_DEBUG"`

	// InternalIPs lists the CIDRs/IPs allowed to see the toolbar.
	InternalIPs []string `yaml:"internal_ips" env:"DEBUGBAR_INTERNAL_IPS" envSeparator:","`

	// ShowToolbarCallback names a predicate registered with RegisterShowToolbar.
	ShowToolbarCallback string `yaml:"show_toolbar_callback" env:"DEBUGBAR_SHOW_TOOLBAR_CALLBACK"`

	// DebugURIHeader enables out-of-band persistence for responses the toolbar cannot be
	// spliced into, announced through the X-Debug-URI response header.
	DebugURIHeader bool `yaml:"debug_uri_header" env:"DEBUGBAR_DEBUG_URI_HEADER"`

	// DebugURIStorage names the storage backend (see package storage).
	DebugURIStorage string `yaml:"debug_uri_storage" env:"DEBUGBAR_DEBUG_URI_STORAGE"`
	StorageRoot     string `yaml:"storage_root" env:"DEBUGBAR_STORAGE_ROOT"`
	StorageBaseURL  string `yaml:"storage_base_url" env:"DEBUGBAR_STORAGE_BASE_URL"`

	// ShowCollapsed sets the collapse cookie on the first page view.
	ShowCollapsed bool `yaml:"show_collapsed" env:"DEBUGBAR_SHOW_COLLAPSED"`

	// InsertBefore is the marker the toolbar markup is inserted in front of.
	InsertBefore string `yaml:"insert_before" env:"DEBUGBAR_INSERT_BEFORE"`

	// ResultsStoreSize is how many toolbars are kept for later panel rendering.
	ResultsStoreSize int `yaml:"results_store_size" env:"DEBUGBAR_RESULTS_STORE_SIZE"`

	// DefaultCharset applies when the response Content-Type carries no charset.
	DefaultCharset string `yaml:"default_charset" env:"DEBUGBAR_DEFAULT_CHARSET"`

	// DisablePanels lists panel ids that start disabled.
	DisablePanels []string `yaml:"disable_panels" env:"DEBUGBAR_DISABLE_PANELS" envSeparator:","`

	// RenderPanels renders panel content inline. When false, content is fetched on demand
	// from the render_panel endpoint.
	RenderPanels bool `yaml:"render_panels" env:"DEBUGBAR_RENDER_PANELS"`
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		InternalIPs:         []string{"127.0.0.1", "::1"},
		ShowToolbarCallback: DefaultShowToolbarName,
		DebugURIStorage:     "filesystem",
		StorageRoot:         "debugbar-media",
		StorageBaseURL:      "/media/",
		InsertBefore:        "</body>",
		ResultsStoreSize:    10,
		DefaultCharset:      "utf-8",
		RenderPanels:        true,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	var errs []error
	if c.InsertBefore == "" {
		errs = append(errs, errors.New("insert_before must not be empty"))
	}
	if c.ResultsStoreSize < 0 {
		errs = append(errs, fmt.Errorf("results_store_size must be >= 0, got %d", c.ResultsStoreSize))
	}
	if _, err := htmlindex.Get(c.DefaultCharset); err != nil {
		errs = append(errs, fmt.Errorf("default_charset %q: %w", c.DefaultCharset, err))
	}
	if strings.TrimSpace(c.ShowToolbarCallback) == "" {
		errs = append(errs, errors.New("show_toolbar_callback must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("toolbar: invalid config: %w", err)
	}
	return nil
}

// PanelDisabled reports whether id starts disabled.
func (c Config) PanelDisabled(id string) bool {
	return slices.Contains(c.DisablePanels, id)
}

func (c Config) clone() Config {
	c.InternalIPs = slices.Clone(c.InternalIPs)
	c.DisablePanels = slices.Clone(c.DisablePanels)
	return c
}

// AtomicConfig holds a hot-swappable Config.
//
// Load is lock-free. The zero value loads DefaultConfig.
type AtomicConfig struct {
	p atomic.Pointer[Config]
}

// NewAtomicConfig returns an AtomicConfig holding cfg.
func NewAtomicConfig(cfg Config) *AtomicConfig {
	a := &AtomicConfig{}
	a.Store(cfg)
	return a
}

// Load returns the current snapshot.
func (a *AtomicConfig) Load() Config {
	if a == nil {
		return DefaultConfig()
	}
	p := a.p.Load()
	if p == nil {
		return DefaultConfig()
	}
	return p.clone()
}

// Store replaces the snapshot.
func (a *AtomicConfig) Store(cfg Config) {
	cfg = cfg.clone()
	a.p.Store(&cfg)
}
