package log

import (
	"net/netip"
	"net/url"

	"go.uber.org/zap"
)

// URL logs only scheme and host of u. Update URLs carry a secret in their
// path and must never reach the logs in full.
func URL(key string, u string) zap.Field {
	parsed, err := url.Parse(u)
	if err != nil {
		return zap.String(key, "<unparsable>")
	}

	return zap.String(key, parsed.Scheme+"://"+parsed.Host)
}

func Addr(addr netip.Addr) zap.Field {
	return zap.Stringer("addr", addr)
}

func Stage(stage string) zap.Field {
	return zap.String("stage", stage)
}
