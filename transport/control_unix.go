//go:build unix

package transport

import (
	"syscall"
	"ydns/common"

	"golang.org/x/sys/unix"
)

// pinSocket marks IPv6 sockets V6ONLY so the kernel never substitutes an
// IPv4-mapped path for them.
func pinSocket(family common.Family) func(c syscall.RawConn) error {
	if family != common.IPv6 {
		return func(syscall.RawConn) error { return nil }
	}

	return func(c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
