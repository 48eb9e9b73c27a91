package config

import (
	"fmt"
	"os"
	"strings"
)

// Resolved is the outcome of layering every configuration source
type Resolved struct {
	Settings Settings
	// Path and Source describe the config file used, if any
	Path   string
	Source string
}

// Resolve layers defaults, the discovered config file, the environment and
// flag overrides, then validates the result. explicitPath wins over
// LTD_LSP_CONFIG when both are set.
func Resolve(rootDir, explicitPath string, flags Config, getenv func(string) string) (Resolved, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	explicit := strings.TrimSpace(explicitPath)
	if explicit == "" {
		explicit = strings.TrimSpace(getenv(EnvConfig))
	}

	path, source, err := Find(rootDir, explicit, getenv("XDG_CONFIG_HOME"), getenv("HOME"))
	if err != nil {
		return Resolved{}, fmt.Errorf("locate config: %w", err)
	}

	fileCfg, err := Load(path)
	if err != nil {
		return Resolved{}, err
	}

	envCfg, err := FromEnv(getenv)
	if err != nil {
		return Resolved{}, fmt.Errorf("environment: %w", err)
	}

	settings := Merge(Defaults(), fileCfg, envCfg, flags)
	if err := settings.Validate(); err != nil {
		if path != "" {
			return Resolved{}, fmt.Errorf("invalid configuration (file %s): %w", path, err)
		}
		return Resolved{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return Resolved{Settings: settings, Path: path, Source: source}, nil
}
