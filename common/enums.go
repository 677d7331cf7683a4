package common

import (
	"fmt"
	"net/netip"
)

// Family is an IP address family an update is pinned to.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

// String is also the label used in user facing messages.
func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("unknown<%d>", int(f))
	}
}

// IPNetwork returns the network name accepted by net.Resolver lookups.
func (f Family) IPNetwork() string {
	if f == IPv6 {
		return "ip6"
	}
	return "ip4"
}

// TCPNetwork returns the network name accepted by net.Dialer.
func (f Family) TCPNetwork() string {
	if f == IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

// Normalize returns ip in the canonical form of the family, or false if ip
// does not belong to it. IPv4-mapped IPv6 addresses count as IPv4.
func (f Family) Normalize(ip netip.Addr) (netip.Addr, bool) {
	switch {
	case !ip.IsValid():
		return netip.Addr{}, false
	case f == IPv4 && (ip.Is4() || ip.Is4In6()):
		return ip.Unmap(), true
	case f == IPv6 && ip.Is6() && !ip.Is4In6():
		return ip, true
	default:
		return netip.Addr{}, false
	}
}
