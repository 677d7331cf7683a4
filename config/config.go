package config

import (
	"ydns/common"
	"ydns/ddns"

	"go.uber.org/zap/zapcore"
)

// UndefinedDomain names records that lack a domain key in diagnostics.
const UndefinedDomain = "<undefined>"

// Config keys are the same in every file format and are matched by the
// toml tags, see common.WeakDecodeMap.
type Config struct {
	Timeout common.Duration `toml:"timeout"`
	Proxy   string          `toml:"proxy"`
	NoProxy string          `toml:"no_proxy"`
	Log     Log             `toml:"log"`
	Metrics Metrics         `toml:"metrics"`
	Domains []Domain        `toml:"domains"`
}

type Log struct {
	Level     *zapcore.Level `toml:"level"`
	Encoding  *string        `toml:"encoding"`
	InfoPath  *[]string      `toml:"info_path"`
	ErrorPath *[]string      `toml:"error_path"`
}

type Metrics struct {
	// Textfile is written for the node_exporter textfile collector after
	// every run when set.
	Textfile string `toml:"textfile"`
}

type Domain struct {
	Domain      string `toml:"domain"`
	UpdateURL   string `toml:"update_url"`
	UpdateURLv6 string `toml:"update_url_v6"`
}

func (d Domain) Record() ddns.Record {
	name := d.Domain
	if name == "" {
		name = UndefinedDomain
	}

	return ddns.Record{Domain: name, UpdateURL: d.UpdateURL, UpdateURLv6: d.UpdateURLv6}
}

func (c *Config) Records() []ddns.Record {
	records := make([]ddns.Record, 0, len(c.Domains))
	for _, d := range c.Domains {
		records = append(records, d.Record())
	}
	return records
}
