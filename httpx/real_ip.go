package httpx

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RealIPOption configures the RealIP middleware.
type RealIPOption func(*realIPConfig)

type realIPConfig struct {
	trusted []*net.IPNet
}

// WithTrustedProxies sets the proxies whose forwarding headers are believed.
//
// Entries are CIDRs or single IPs; invalid entries are ignored. Without trusted proxies the
// middleware uses RemoteAddr only.
func WithTrustedProxies(cidrsOrIPs []string) RealIPOption {
	return func(c *realIPConfig) { c.trusted = ParseCIDRsOrIPs(cidrsOrIPs) }
}

// RealIP returns a middleware that stores the client IP in the request context.
//
// When RemoteAddr is a trusted proxy, X-Forwarded-For is scanned right-to-left and the first
// untrusted address wins; X-Real-IP is used when it has exactly one value. Anything
// unparseable falls back to RemoteAddr.
func RealIP(opts ...RealIPOption) Middleware {
	cfg := realIPConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("httpx: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, cfg.trusted)
			if ip == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRealIP(r.Context(), ip)))
		})
	}
}

type realIPKey struct{}

// RealIPFromContext returns the IP stored by RealIP.
func RealIPFromContext(ctx context.Context) (net.IP, bool) {
	if ctx == nil {
		return nil, false
	}
	ip, ok := ctx.Value(realIPKey{}).(net.IP)
	return ip, ok && ip != nil
}

// RealIPFromRequest returns the IP stored by RealIP in r.Context().
func RealIPFromRequest(r *http.Request) (net.IP, bool) {
	if r == nil {
		return nil, false
	}
	return RealIPFromContext(r.Context())
}

// WithRealIP returns a derived context carrying ip. A nil ip leaves ctx unchanged.
func WithRealIP(ctx context.Context, ip net.IP) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if ip == nil {
		return ctx
	}
	return context.WithValue(ctx, realIPKey{}, ip)
}

// ClientIP returns the RealIP value when present, else the RemoteAddr host.
func ClientIP(r *http.Request) (net.IP, bool) {
	if ip, ok := RealIPFromRequest(r); ok {
		return ip, true
	}
	if r == nil {
		return nil, false
	}
	ip := ParseIP(r.RemoteAddr)
	return ip, ip != nil
}

func clientIP(r *http.Request, trusted []*net.IPNet) net.IP {
	direct := ParseIP(r.RemoteAddr)
	if direct == nil || !containsIP(trusted, direct) {
		return direct
	}
	if vs := r.Header.Values("X-Forwarded-For"); len(vs) > 0 {
		parts := strings.Split(strings.Join(vs, ","), ",")
		for i := len(parts) - 1; i >= 0; i-- {
			p := strings.TrimSpace(parts[i])
			if p == "" {
				continue
			}
			ip := ParseIP(p)
			if ip == nil {
				break
			}
			if !containsIP(trusted, ip) {
				return ip
			}
		}
	}
	if vs := r.Header.Values("X-Real-IP"); len(vs) == 1 {
		if ip := ParseIP(vs[0]); ip != nil {
			return ip
		}
	}
	return direct
}

// ParseIP parses an IP that may carry a port. IPv4 results use the 4-byte form.
func ParseIP(s string) net.IP {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip := net.ParseIP(s)
	if ip4 := ip.To4(); ip4 != nil {
		return ip4
	}
	return ip
}
