// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package afdconfig parses etc/AFD_CONFIG: flat `KEY_DEF value` lines,
// one definition per line, the same key allowed to repeat (spec.md §6
// "etc/AFD_CONFIG — text config with KEY_DEF value lines; scanned at
// STAT_INTERVAL", original_source/src/afdd/check_changes.c's
// `get_definition(buffer, MAX_CONNECTIONS_DEF, value, ...)` calls).
package afdconfig

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/stratastor/afd/pkg/errors"
)

// Common key names (original_source's `*_DEF` constants).
const (
	KeyMaxConnections  = "MAX_CONNECTIONS_DEF"
	KeyAldaDaemon      = "ALDA_DAEMON_DEF"
	KeyDefaultOldTime  = "DEFAULT_OLD_FILE_TIME_DEF"
	KeyMaxErrors       = "MAX_ERRORS_DEF"
	KeyRetryInterval   = "DEFAULT_RETRY_INTERVAL_DEF"
	KeyRemoteAFD       = "REMOTE_AFD_DEF"
)

// Config is a parsed AFD_CONFIG: ordered key-value pairs, preserving
// every repeated key (ALDA_DAEMON_DEF, for example, may appear many
// times, one per supervised query daemon).
type Config struct {
	entries []entry
}

type entry struct {
	key   string
	value string
}

// Parse reads line-oriented `KEY value` definitions from r, skipping
// blank lines and '#'-prefixed comments.
func Parse(r *bufio.Scanner) (*Config, error) {
	cfg := &Config{}
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		key := fields[0]
		value := ""
		if len(fields) == 2 {
			value = strings.TrimSpace(fields[1])
		}
		cfg.entries = append(cfg.entries, entry{key: key, value: value})
	}
	if err := r.Err(); err != nil {
		return nil, errors.New(errors.ConfigParseError, err.Error())
	}
	return cfg, nil
}

// ParseFile loads and parses path.
func ParseFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ConfigNotFound, path)
		}
		return nil, errors.New(errors.ConfigLoadFailed, err.Error()).
			WithMetadata("path", path)
	}
	defer f.Close()
	return Parse(bufio.NewScanner(f))
}

// First returns the value of the first occurrence of key, or "" if
// absent.
func (c *Config) First(key string) (string, bool) {
	for _, e := range c.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return "", false
}

// All returns every value for key in file order, for multi-valued
// definitions like ALDA_DAEMON_DEF.
func (c *Config) All(key string) []string {
	var out []string
	for _, e := range c.entries {
		if e.key == key {
			out = append(out, e.value)
		}
	}
	return out
}

// IntOr returns key's value parsed as an int, or def if key is absent
// or unparsable.
func (c *Config) IntOr(key string, def int) int {
	v, ok := c.First(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
