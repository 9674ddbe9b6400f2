// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgaudit/pkgaudit/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
	require.Equal(t, "*.yml", cfg.Glob)
	require.Equal(t, 60, cfg.TimeoutSeconds)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pkgaudit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
glob = "*.yaml"
timeout_seconds = 15
managers = ["winget", "scoop"]
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "*.yaml", cfg.Glob)
	require.Equal(t, 15, cfg.TimeoutSeconds)
	require.Equal(t, []string{"winget", "scoop"}, cfg.Managers)

	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.MaxSuggestions)
	require.Equal(t, 1, cfg.Concurrency)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pkgaudit.toml")
	require.NoError(t, os.WriteFile(path, []byte("glob = [unclosed"), 0o600))

	_, err := config.Load(path)
	require.ErrorContains(t, err, "failed to parse settings")
}

func TestDiscoverPrefersExplicitThenRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	require.Equal(t, "custom.toml", config.Discover("custom.toml", root))

	// No file next to the root: falls through to the XDG location.
	require.Contains(t, config.Discover("", root), filepath.Join("pkgaudit", config.FileName))

	rootFile := filepath.Join(root, config.FileName)
	require.NoError(t, os.WriteFile(rootFile, []byte(""), 0o600))
	require.Equal(t, rootFile, config.Discover("", root))
}

func TestLoadExplicitRequiresFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadExplicit(filepath.Join(t.TempDir(), "absent.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
