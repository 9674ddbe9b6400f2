// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgaudit/pkgaudit/internal/catalog"
	"github.com/pkgaudit/pkgaudit/internal/domain"
)

func writeCatalog(t *testing.T, root, name, content string) {
	t.Helper()

	dir := catalog.Dir(root)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCatalog(t, root, "tools.yml", `packages:
  - id: Foo
    manager: winget
    command: winget install --id Foo.Bar
    name: Foo Viewer
  - just a string, not a mapping
  - id: ""
    manager: choco
  - id: NoManager
  - id: Bar
    manager: chocolatey
    command: choco install bar -y
`)

	files, err := catalog.Files(root, "*.yml")
	require.NoError(t, err)
	require.Len(t, files, 1)

	entries, err := catalog.Load(root, files)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.Equal(t, "Foo", entries[0].PackageID)
	require.Equal(t, "winget", entries[0].Manager)
	require.Equal(t, "Foo Viewer", entries[0].Name)
	require.Equal(t, 1, entries[0].Index)
	require.Equal(t, filepath.Join("data", "catalog", "packages", "tools.yml"), entries[0].FilePath)

	// Positions count raw records, including the skipped ones.
	require.Equal(t, "Bar", entries[1].PackageID)
	require.Equal(t, 5, entries[1].Index)
}

func TestFilesRequiresCatalogDir(t *testing.T) {
	t.Parallel()

	_, err := catalog.Files(t.TempDir(), "*.yml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "package directory not found")
}

func TestFilesSortsMatches(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeCatalog(t, root, "b.yml", "packages: []\n")
	writeCatalog(t, root, "a.yml", "packages: []\n")

	files, err := catalog.Files(root, "*.yml")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.yml", filepath.Base(files[0]))
	require.Equal(t, "b.yml", filepath.Base(files[1]))
}

func TestFilter(t *testing.T) {
	t.Parallel()

	entries := []domain.CatalogEntry{
		{PackageID: "Foo", Manager: "winget"},
		{PackageID: "Bar", Manager: "chocolatey"},
		{PackageID: "Baz", Manager: "scoop"},
	}

	require.Len(t, catalog.Filter(entries, nil, nil), 3)

	// Manager filters fold aliases.
	byManager := catalog.Filter(entries, []string{"choco"}, nil)
	require.Len(t, byManager, 1)
	require.Equal(t, "Bar", byManager[0].PackageID)

	// Package-id filters are case-insensitive.
	byID := catalog.Filter(entries, nil, []string{"foo", "BAZ"})
	require.Len(t, byID, 2)

	both := catalog.Filter(entries, []string{"winget"}, []string{"baz"})
	require.Empty(t, both)
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	entries := []domain.CatalogEntry{
		{PackageID: "Foo", FilePath: "a.yml", Index: 1},
		{PackageID: "Bar", FilePath: "a.yml", Index: 2},
		{PackageID: "Foo", FilePath: "b.yml", Index: 1},
		{PackageID: "Zap", FilePath: "b.yml", Index: 2},
		{PackageID: "Bar", FilePath: "c.yml", Index: 1},
	}

	duplicates := catalog.Duplicates(entries)
	require.Len(t, duplicates, 2)

	require.Equal(t, "Bar", duplicates[0].PackageID)
	require.Len(t, duplicates[0].Occurrences, 2)
	require.Equal(t, "Foo", duplicates[1].PackageID)
	require.Equal(t, "a.yml", duplicates[1].Occurrences[0].FilePath)
}
