package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"ydns/common"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound  = errors.New("config file not found")
	ErrParse     = errors.New("config file unparsable")
	ErrNoDomains = errors.New("config file has no domains")
)

// Error is a configuration problem that ends the process before any
// update is attempted. Its message is meant for the user as is.
type Error struct {
	Code int
	msg  string
	err  error
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() []error {
	return []error{exitErr(e.Code), e.err}
}

func exitErr(code int) error {
	switch code {
	case common.ExitConfigNotFound:
		return ErrNotFound
	case common.ExitConfigParse:
		return ErrParse
	default:
		return ErrNoDomains
	}
}

// DefaultPaths lists the config files looked for, highest priority first.
func DefaultPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ydns-py", "config.toml"))
	}
	return append(paths, "/etc/ydns-py.toml")
}

// Locate returns explicit if it exists, or else the first existing file of
// candidates. An explicit path that does not exist is never substituted.
func Locate(explicit string, candidates []string) (string, error) {
	if explicit != "" {
		if !exists(explicit) {
			return "", &Error{
				Code: common.ExitConfigNotFound,
				msg:  fmt.Sprintf("Config file not found: %s", explicit),
			}
		}
		return explicit, nil
	}

	for _, path := range candidates {
		if exists(path) {
			return path, nil
		}
	}

	return "", &Error{
		Code: common.ExitConfigNotFound,
		msg:  fmt.Sprintf("Config file not found (searched: %s)", strings.Join(candidates, ", ")),
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func decode(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}

	var err error
	switch {
	case strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml"):
		err = yaml.Unmarshal(data, &raw)
	case strings.HasSuffix(path, ".json"):
		err = json.Unmarshal(data, &raw)
	default:
		err = toml.Unmarshal(data, &raw)
	}

	return raw, err
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	parseErr := func(err error) error {
		return &Error{
			Code: common.ExitConfigParse,
			msg:  fmt.Sprintf("Failed to read %s: %v", path, err),
			err:  err,
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, parseErr(err)
	}

	raw, err := decode(path, data)
	if err != nil {
		return nil, parseErr(err)
	}

	var conf Config
	if err := common.WeakDecodeMap(raw, &conf); err != nil {
		return nil, parseErr(err)
	}

	if len(conf.Domains) == 0 {
		return nil, &Error{
			Code: common.ExitNoDomains,
			msg:  fmt.Sprintf("No [[domains]] entries found in %s", path),
		}
	}

	return &conf, nil
}
