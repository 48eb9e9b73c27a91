package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var keyMap = map[string]string{
	"kinds":       "kinds",
	"kinds_ltd":   "kinds",
	"exclude":     "exclude",
	"excludes":    "exclude",
	"jobs":        "jobs",
	"debounce_ms": "debounce_ms",
	"debounce":    "debounce_ms",
	"log":         "log",
	"log_file":    "log",
	"debug":       "debug",
	"format":      "format",
	"sort":        "sort",
}

// Load reads a configuration file, choosing the decoder by extension
func Load(path string) (Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var raw map[string]any
	switch ext {
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".toml":
		if decodeErr := toml.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return cfg, nil
	}

	decoded, err := decodeConfigMap(raw)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return decoded, nil
}

func decodeConfigMap(raw map[string]any) (Config, error) {
	var cfg Config
	for key, value := range raw {
		canonical, ok := keyMap[normalizeKey(key)]
		if !ok {
			return cfg, fmt.Errorf("unknown config key: %s", key)
		}

		switch canonical {
		case "kinds":
			str, err := expectString(value, canonical)
			if err != nil {
				return cfg, err
			}
			trimmed := strings.TrimSpace(str)
			cfg.Kinds = &trimmed
		case "exclude":
			list, err := expectStringList(value, canonical)
			if err != nil {
				return cfg, err
			}
			cfg.Exclude = &list
		case "jobs":
			n, err := expectInt(value, canonical)
			if err != nil {
				return cfg, err
			}
			cfg.Jobs = &n
		case "debounce_ms":
			n, err := expectInt(value, canonical)
			if err != nil {
				return cfg, err
			}
			cfg.DebounceMs = &n
		case "log":
			str, err := expectString(value, canonical)
			if err != nil {
				return cfg, err
			}
			trimmed := strings.TrimSpace(str)
			cfg.LogFile = &trimmed
		case "debug":
			b, err := expectBool(value, canonical)
			if err != nil {
				return cfg, err
			}
			cfg.Debug = &b
		case "format":
			str, err := expectString(value, canonical)
			if err != nil {
				return cfg, err
			}
			trimmed := strings.ToLower(strings.TrimSpace(str))
			cfg.Format = &trimmed
		case "sort":
			b, err := expectBool(value, canonical)
			if err != nil {
				return cfg, err
			}
			cfg.Sort = &b
		}
	}
	return cfg, nil
}

func expectString(value any, field string) (string, error) {
	if value == nil {
		return "", fmt.Errorf("%s cannot be null", field)
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected string for %s, got %T", field, value)
}

func expectBool(value any, field string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return ParseBool(v, field)
	default:
		return false, fmt.Errorf("expected bool for %s, got %T", field, value)
	}
}

func expectInt(value any, field string) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("expected integer for %s, got %v", field, value)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %q", field, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected integer for %s, got %T", field, value)
	}
}

func expectStringList(value any, field string) ([]string, error) {
	switch v := value.(type) {
	case string:
		return SplitList(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, err := expectString(item, field)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return normalizeList(out), nil
	case []string:
		return normalizeList(v), nil
	default:
		return nil, fmt.Errorf("expected string or list for %s, got %T", field, value)
	}
}

// SplitList splits a comma separated value, dropping blanks
func SplitList(s string) []string {
	return normalizeList(strings.Split(s, ","))
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// ParseBool accepts the usual spellings of a boolean flag value
func ParseBool(raw, field string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value for %s: %q", field, raw)
	}
}

func normalizeKey(key string) string {
	norm := strings.ToLower(strings.TrimSpace(key))
	norm = strings.ReplaceAll(norm, "-", "_")
	return norm
}
