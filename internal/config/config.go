// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package config loads optional pkgaudit.toml settings. Flags always win;
// the file only moves the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the settings file looked up next to the catalog root and in
// the XDG config directory.
const FileName = "pkgaudit.toml"

// Config holds the file-configurable defaults for the audit commands.
type Config struct {
	Root           string   `toml:"root"`
	Glob           string   `toml:"glob"`
	Managers       []string `toml:"managers"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxSuggestions int      `toml:"max_suggestions"`
	Concurrency    int      `toml:"concurrency"`
}

// Default returns the built-in settings used when no file overrides them.
func Default() Config {
	return Config{
		Root:           ".",
		Glob:           "*.yml",
		TimeoutSeconds: 60,
		MaxSuggestions: 3,
		Concurrency:    1,
	}
}

// Load reads path and overlays it on the defaults. A missing file is not an
// error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-provided settings file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}

	return cfg, nil
}

// Discover returns the first settings file that exists: an explicit path,
// then <root>/pkgaudit.toml, then $XDG_CONFIG_HOME/pkgaudit/pkgaudit.toml.
// An explicit path is returned even when absent so Load can report it.
func Discover(explicit, root string) string {
	if explicit != "" {
		return explicit
	}

	if root != "" {
		candidate := filepath.Join(root, FileName)
		if fileExists(candidate) {
			return candidate
		}
	}

	return filepath.Join(xdgConfigHome(), "pkgaudit", FileName)
}

// LoadExplicit loads an operator-named settings file, where absence is an
// error rather than a fallback to defaults.
func LoadExplicit(path string) (Config, error) {
	if !fileExists(path) {
		return Default(), fmt.Errorf("settings file %s: %w", path, os.ErrNotExist)
	}

	return Load(path)
}

func xdgConfigHome() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return configHome
	}

	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config")
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
