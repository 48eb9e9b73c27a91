package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	configFilenames = []string{
		".ltd-lsp.yaml",
		".ltd-lsp.yml",
		".ltd-lsp.toml",
		".ltd-lsp.json",
	}
	xdgFilenames = []string{
		"config.yaml",
		"config.yml",
		"config.toml",
		"config.json",
	}
)

// Find locates the configuration file to use and reports where it came from:
// "explicit", "cwd-up", "xdg" or "home". An empty path means none was found.
func Find(rootDir, explicitPath, xdgHome, home string) (string, string, error) {
	if explicit := strings.TrimSpace(explicitPath); explicit != "" {
		candidate, err := filepath.Abs(explicit)
		if err != nil {
			return "", "", err
		}
		info, err := os.Stat(candidate)
		if err != nil {
			return "", "", err
		}
		if info.IsDir() {
			return "", "", fmt.Errorf("config path %q points to a directory", candidate)
		}
		return candidate, "explicit", nil
	}

	start := strings.TrimSpace(rootDir)
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", "", err
	}
	for {
		if candidate, ok := firstExisting(dir, configFilenames); ok {
			return candidate, "cwd-up", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	homeDir := strings.TrimSpace(home)
	if homeDir == "" {
		if h, err := os.UserHomeDir(); err == nil {
			homeDir = h
		}
	}

	xdgRoot := strings.TrimSpace(xdgHome)
	if xdgRoot == "" && homeDir != "" {
		xdgRoot = filepath.Join(homeDir, ".config")
	}
	if xdgRoot != "" {
		if candidate, ok := firstExisting(filepath.Join(xdgRoot, "ltd-lsp"), xdgFilenames); ok {
			return candidate, "xdg", nil
		}
	}

	if homeDir != "" {
		if candidate, ok := firstExisting(homeDir, configFilenames); ok {
			return candidate, "home", nil
		}
	}

	return "", "", nil
}

func firstExisting(dir string, names []string) (string, bool) {
	for _, name := range names {
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
