package transport

import (
	"fmt"
	"syscall"
	"ydns/common"
)

func control(family common.Family) func(network, address string, c syscall.RawConn) error {
	pin := pinSocket(family)
	return func(network, address string, c syscall.RawConn) error {
		if network != family.TCPNetwork() {
			return fmt.Errorf("refusing %s socket for %s dialer", network, family)
		}

		return pin(c)
	}
}
