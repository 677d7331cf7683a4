package transport

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"ydns/common"
)

type FaultKind int

const (
	// ResolutionFailed means no address of the requested family was found.
	ResolutionFailed FaultKind = iota
	// SocketError means the TCP connect failed (refused, unreachable, timeout).
	SocketError
	// TLSFailed means the TLS handshake failed after the socket connected.
	TLSFailed
)

func (k FaultKind) String() string {
	switch k {
	case ResolutionFailed:
		return "resolution failed"
	case SocketError:
		return "socket error"
	case TLSFailed:
		return "tls failed"
	default:
		return fmt.Sprintf("unknown<%d>", int(k))
	}
}

var errNoAddress = errors.New("no address found")

// Fault is returned by Dialer when no usable connection could be made.
type Fault struct {
	Kind   FaultKind
	Family common.Family
	Host   string
	Addr   netip.AddrPort // zero for ResolutionFailed
	Err    error
}

func (f *Fault) Error() string {
	switch f.Kind {
	case ResolutionFailed:
		return fmt.Sprintf("cannot resolve %s over %s: %v", f.Host, f.Family, f.Err)
	case SocketError:
		return fmt.Sprintf("cannot connect to %s (%s) over %s: %v", f.Host, f.Addr, f.Family, f.Err)
	default:
		return fmt.Sprintf("tls handshake with %s (%s) failed: %v", f.Host, f.Addr, f.Err)
	}
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func (f *Fault) Timeout() bool {
	var ne net.Error
	return errors.As(f.Err, &ne) && ne.Timeout()
}
