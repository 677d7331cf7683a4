package log

import (
	"ydns/common"

	"go.uber.org/zap"
)

var (
	// Internal mark the error severe, due to issues in code.
	Internal = zap.String("severe_error", "internal")
)

func Family(f common.Family) zap.Field {
	return zap.Stringer("family", f)
}

func Domain(domain string) zap.Field {
	return zap.String("domain", domain)
}
