package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Environment variables read by FromEnv
const (
	EnvConfig     = "LTD_LSP_CONFIG"
	EnvKinds      = "LTD_LSP_KINDS"
	EnvExclude    = "LTD_LSP_EXCLUDE"
	EnvJobs       = "LTD_LSP_JOBS"
	EnvDebounceMs = "LTD_LSP_DEBOUNCE_MS"
	EnvLog        = "LTD_LSP_LOG"
	EnvDebug      = "LTD_LSP_DEBUG"
	EnvFormat     = "LTD_LSP_FORMAT"
	EnvSort       = "LTD_LSP_SORT"
)

// FromEnv builds a configuration layer from LTD_LSP_* variables.
// All malformed values are reported together.
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	var cfg Config
	var errs []error

	setString := func(target **string, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		*target = &raw
	}
	setBool := func(target **bool, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := ParseBool(raw, key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*target = &v
	}
	setInt := func(target **int, key string) {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid integer value for %s: %q", key, raw))
			return
		}
		*target = &v
	}

	setString(&cfg.Kinds, EnvKinds)
	setString(&cfg.LogFile, EnvLog)
	setString(&cfg.Format, EnvFormat)
	setInt(&cfg.Jobs, EnvJobs)
	setInt(&cfg.DebounceMs, EnvDebounceMs)
	setBool(&cfg.Debug, EnvDebug)
	setBool(&cfg.Sort, EnvSort)

	if raw := strings.TrimSpace(getenv(EnvExclude)); raw != "" {
		list := SplitList(raw)
		cfg.Exclude = &list
	}

	if cfg.Format != nil {
		lower := strings.ToLower(*cfg.Format)
		cfg.Format = &lower
	}

	return cfg, errors.Join(errs...)
}
