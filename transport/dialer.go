// Package transport opens connections pinned to a single IP address family.
//
// Go's default dialer resolves a name and races or falls back across every
// address it gets back, so a request meant to report an IPv6 address may
// leave the host over IPv4. Dialer restricts the lookup itself to one
// family, connects to the first address it yields and never considers the
// other family. TLS is layered on top with the original hostname, so
// certificate verification is unaffected by the restriction.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"
	"ydns/common"
	"ydns/log"

	"go.uber.org/zap"
)

// DefaultTimeout bounds connect and TLS handshake when Dialer.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Resolver looks up the addresses of a host. *net.Resolver implements it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Dialer connects to hosts strictly over Family. The zero value dials IPv4
// with net.DefaultResolver and DefaultTimeout. A Dialer holds no state
// besides its configuration and is safe for concurrent and repeated use.
type Dialer struct {
	Family  common.Family
	Timeout time.Duration

	// Resolver defaults to net.DefaultResolver.
	Resolver Resolver

	// TLSConfig is cloned for every connection. ServerName is filled in
	// with the dialed host when empty.
	TLSConfig *tls.Config
}

func (d *Dialer) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return DefaultTimeout
}

func (d *Dialer) resolver() Resolver {
	if d.Resolver != nil {
		return d.Resolver
	}
	return net.DefaultResolver
}

// Resolve returns the first address of host belonging to the dialer's
// family. IP literals are accepted without a lookup if they match.
func (d *Dialer) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		if ip, ok := d.Family.Normalize(ip); ok {
			return ip, nil
		}

		return netip.Addr{}, &Fault{Kind: ResolutionFailed, Family: d.Family, Host: host,
			Err: fmt.Errorf("address literal is not %s", d.Family)}
	}

	addrs, err := d.resolver().LookupNetIP(ctx, d.Family.IPNetwork(), host)
	if err != nil {
		return netip.Addr{}, &Fault{Kind: ResolutionFailed, Family: d.Family, Host: host, Err: err}
	}

	// Lookups for "ip4" may hand back IPv4-mapped IPv6 addresses, and a
	// misbehaving resolver may ignore the network entirely.
	for _, addr := range addrs {
		if addr, ok := d.Family.Normalize(addr); ok {
			return addr, nil
		}
	}

	return netip.Addr{}, &Fault{Kind: ResolutionFailed, Family: d.Family, Host: host, Err: errNoAddress}
}

func (d *Dialer) dial(ctx context.Context, host string, port uint16) (net.Conn, error) {
	ctx = log.SWith(ctx, "host", host, "port", port, log.Family(d.Family))

	addr, err := d.Resolve(ctx, host)
	if err != nil {
		log.S(ctx).Debugw("resolve failed", zap.Error(err))
		return nil, err
	}

	target := netip.AddrPortFrom(addr, port)
	dialer := &net.Dialer{
		Timeout: d.timeout(),
		Control: control(d.Family),
	}

	// net.Dialer releases the socket itself when the connect fails.
	conn, err := dialer.DialContext(ctx, d.Family.TCPNetwork(), target.String())
	if err != nil {
		log.S(ctx).Debugw("connect failed", log.Addr(addr), zap.Error(err))
		return nil, &Fault{Kind: SocketError, Family: d.Family, Host: host, Addr: target, Err: err}
	}

	log.S(ctx).Debugw("connected", log.Addr(addr))
	return conn, nil
}

func (d *Dialer) handshake(ctx context.Context, conn net.Conn, host string, target netip.AddrPort) (*tls.Conn, error) {
	var config *tls.Config
	if d.TLSConfig != nil {
		config = d.TLSConfig.Clone()
	} else {
		config = &tls.Config{}
	}

	if config.ServerName == "" {
		config.ServerName = host
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	tlsConn := tls.Client(conn, config)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		log.S(ctx).Debugw("tls handshake failed", "host", host, zap.Error(err))
		return nil, &Fault{Kind: TLSFailed, Family: d.Family, Host: host, Addr: target, Err: err}
	}

	return tlsConn, nil
}

// Connect resolves host within the dialer's family, connects to the first
// address found and negotiates TLS using host for SNI and verification.
func (d *Dialer) Connect(ctx context.Context, host string, port uint16) (*tls.Conn, error) {
	conn, err := d.dial(ctx, host, port)
	if err != nil {
		return nil, err
	}

	return d.handshake(ctx, conn, host, remoteAddrPort(conn))
}

// DialContext has the signature of http.Transport.DialContext. The network
// requested by the caller is ignored in favor of the dialer's family.
func (d *Dialer) DialContext(ctx context.Context, _, addr string) (net.Conn, error) {
	host, port, err := splitHostPort(addr)
	if err != nil {
		return nil, err
	}

	return d.dial(ctx, host, port)
}

// DialTLSContext has the signature of http.Transport.DialTLSContext.
func (d *Dialer) DialTLSContext(ctx context.Context, _, addr string) (net.Conn, error) {
	host, port, err := splitHostPort(addr)
	if err != nil {
		return nil, err
	}

	return d.Connect(ctx, host, port)
}

func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("bad address %q: %w", addr, err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("bad port in address %q: %w", addr, err)
	}

	return host, uint16(port), nil
}

func remoteAddrPort(conn net.Conn) netip.AddrPort {
	if tcp, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return tcp.AddrPort()
	}
	return netip.AddrPort{}
}
