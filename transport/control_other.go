//go:build !unix

package transport

import (
	"syscall"
	"ydns/common"
)

func pinSocket(common.Family) func(c syscall.RawConn) error {
	return func(syscall.RawConn) error { return nil }
}
