package httpx

import "net/http"

// AccessGuardOption configures the AccessGuard middleware.
type AccessGuardOption func(*accessGuardConfig)

type accessGuardConfig struct {
	denyStatus int

	allow     *IPSet
	haveIPV   bool
	check     func(r *http.Request) bool
	onDeny    func(r *http.Request, reason DenyReason)
	haveCheck bool
}

// DenyReason describes why AccessGuard denied a request. It never carries request data.
type DenyReason string

const (
	DenyReasonIPParseFailed     DenyReason = "ip-parse-failed"
	DenyReasonIPAllowListEmpty  DenyReason = "ip-allowlist-empty"
	DenyReasonIPNotAllowed      DenyReason = "ip-not-allowed"
	DenyReasonCustomCheckDenied DenyReason = "check-denied"
)

// WithIPAllowList enables IP validation with a static allowlist of CIDRs or single IPs.
//
// Fail-closed: a nil or empty list, or one with only invalid entries, denies all.
func WithIPAllowList(cidrsOrIPs []string) AccessGuardOption {
	return WithIPAllowSet(NewIPSet(cidrsOrIPs))
}

// WithIPAllowSet enables IP validation against set, which may be updated at runtime.
// set must be non-nil.
func WithIPAllowSet(set *IPSet) AccessGuardOption {
	return func(c *accessGuardConfig) {
		if set == nil {
			panic("httpx: AccessGuard WithIPAllowSet: nil allow set")
		}
		if c.haveCheck {
			panic("httpx: AccessGuard WithIPAllowSet conflicts with WithCheck")
		}
		c.allow = set
		c.haveIPV = true
	}
}

// WithCheck sets a custom predicate. It is exclusive with the IP options.
//
// fn must be fast and must not block. A nil fn is ignored.
func WithCheck(fn func(r *http.Request) bool) AccessGuardOption {
	return func(c *accessGuardConfig) {
		if fn == nil {
			return
		}
		if c.haveIPV {
			panic("httpx: AccessGuard WithCheck conflicts with ip options")
		}
		c.check = fn
		c.haveCheck = true
	}
}

// WithDenyStatus sets the status written for denied requests. Default is 403.
// Values <= 0 are ignored.
func WithDenyStatus(code int) AccessGuardOption {
	return func(c *accessGuardConfig) {
		if code > 0 {
			c.denyStatus = code
		}
	}
}

// WithOnDeny sets a hook called before a denied request is answered.
// It must not write the response.
func WithOnDeny(fn func(r *http.Request, reason DenyReason)) AccessGuardOption {
	return func(c *accessGuardConfig) {
		if fn != nil {
			c.onDeny = fn
		}
	}
}

// AccessGuard returns a middleware that denies requests failing the configured check.
//
// The client IP comes from RealIP when present, otherwise RemoteAddr. Exactly one of the IP
// options or WithCheck must be configured; otherwise it panics.
func AccessGuard(opts ...AccessGuardOption) Middleware {
	cfg := accessGuardConfig{denyStatus: http.StatusForbidden}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.haveIPV && !cfg.haveCheck {
		panic("httpx: access_guard has no checks configured")
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, reason := cfg.allowed(r)
			if !ok {
				if cfg.onDeny != nil {
					cfg.onDeny(r, reason)
				}
				http.Error(w, http.StatusText(cfg.denyStatus), cfg.denyStatus)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *accessGuardConfig) allowed(r *http.Request) (bool, DenyReason) {
	if c.check != nil {
		if c.check(r) {
			return true, ""
		}
		return false, DenyReasonCustomCheckDenied
	}
	if c.allow.Len() == 0 {
		return false, DenyReasonIPAllowListEmpty
	}
	ip, ok := ClientIP(r)
	if !ok {
		return false, DenyReasonIPParseFailed
	}
	if !c.allow.Contains(ip) {
		return false, DenyReasonIPNotAllowed
	}
	return true, ""
}
