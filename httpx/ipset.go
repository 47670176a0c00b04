package httpx

import (
	"net"
	"strings"
	"sync/atomic"
)

// IPSet is a hot-swappable set of CIDRs.
//
// Contains is lock-free; Update replaces the whole snapshot. The zero value is empty and
// contains nothing.
type IPSet struct {
	nets atomic.Pointer[[]*net.IPNet]
}

// NewIPSet returns a set holding cidrsOrIPs.
func NewIPSet(cidrsOrIPs []string) *IPSet {
	s := &IPSet{}
	s.Update(cidrsOrIPs)
	return s
}

// Update replaces the set. Blank and invalid entries are ignored.
func (s *IPSet) Update(cidrsOrIPs []string) {
	nets := ParseCIDRsOrIPs(cidrsOrIPs)
	s.nets.Store(&nets)
}

// Contains reports whether ip belongs to the set.
func (s *IPSet) Contains(ip net.IP) bool {
	if s == nil || ip == nil {
		return false
	}
	p := s.nets.Load()
	if p == nil {
		return false
	}
	return containsIP(*p, ip)
}

// Len returns the number of parsed networks.
func (s *IPSet) Len() int {
	if s == nil {
		return 0
	}
	if p := s.nets.Load(); p != nil {
		return len(*p)
	}
	return 0
}

// ParseCIDRsOrIPs parses CIDRs and single IPs; single IPs become /32 or /128 networks.
func ParseCIDRsOrIPs(in []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(in))
	for _, raw := range in {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, n, err := net.ParseCIDR(s); err == nil {
			if ip4 := n.IP.To4(); ip4 != nil {
				n.IP = ip4
			}
			out = append(out, n)
			continue
		}
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			out = append(out, &net.IPNet{IP: ip4, Mask: net.CIDRMask(32, 32)})
		} else {
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)})
		}
	}
	return out
}

func containsIP(nets []*net.IPNet, ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	for _, n := range nets {
		if n != nil && n.Contains(ip) {
			return true
		}
	}
	return false
}
