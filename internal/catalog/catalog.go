// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package catalog loads the declarative YAML package catalog.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// document is one catalog file: an ordered list of package records.
type document struct {
	Packages []yaml.Node `yaml:"packages"`
}

// record mirrors one package mapping as written in the catalog.
type record struct {
	ID      string `yaml:"id"`
	Manager string `yaml:"manager"`
	Command string `yaml:"command"`
	Name    string `yaml:"name"`
}

// Dir returns the catalog package directory under root.
func Dir(root string) string {
	return filepath.Join(root, "data", "catalog", "packages")
}

// Files lists catalog files under root matching glob, sorted by name.
func Files(root, glob string) ([]string, error) {
	dir := Dir(root)

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("package directory not found: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog glob %q: %w", glob, err)
	}

	sort.Strings(files)

	return files, nil
}

// Load reads catalog entries from files in order. Records missing an id or
// manager, and records that are not mappings at all, are silently skipped;
// the rest keep their 1-based position within the file as Index. FilePath is
// stored relative to root when possible.
func Load(root string, files []string) ([]domain.CatalogEntry, error) {
	var entries []domain.CatalogEntry

	for _, file := range files {
		raw, err := os.ReadFile(file) // #nosec G304 -- paths come from the catalog glob
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}

		var doc document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		path := relativeTo(root, file)

		for idx, node := range doc.Packages {
			if node.Kind != yaml.MappingNode {
				continue
			}

			var rec record
			if err := node.Decode(&rec); err != nil {
				continue
			}

			packageID := strings.TrimSpace(rec.ID)
			manager := strings.TrimSpace(rec.Manager)

			if packageID == "" || manager == "" {
				continue
			}

			entries = append(entries, domain.CatalogEntry{
				PackageID: packageID,
				Manager:   manager,
				Command:   strings.TrimSpace(rec.Command),
				Name:      strings.TrimSpace(rec.Name),
				FilePath:  path,
				Index:     idx + 1,
			})
		}
	}

	return entries, nil
}

// Filter keeps entries matching the manager and package-id restrictions.
// Empty restriction lists match everything; comparisons are
// case-insensitive and manager aliases fold.
func Filter(entries []domain.CatalogEntry, managers, packageIDs []string) []domain.CatalogEntry {
	managerFilter := lowerSet(managers, domain.CanonicalManager)
	packageFilter := lowerSet(packageIDs, strings.ToLower)

	var filtered []domain.CatalogEntry

	for _, entry := range entries {
		if len(managerFilter) > 0 && !managerFilter[domain.CanonicalManager(entry.Manager)] {
			continue
		}

		if len(packageFilter) > 0 && !packageFilter[strings.ToLower(entry.PackageID)] {
			continue
		}

		filtered = append(filtered, entry)
	}

	return filtered
}

func lowerSet(values []string, fold func(string) string) map[string]bool {
	set := make(map[string]bool, len(values))

	for _, value := range values {
		if value != "" {
			set[fold(value)] = true
		}
	}

	return set
}

// Duplicate groups every occurrence of a package id declared more than once.
type Duplicate struct {
	PackageID   string
	Occurrences []domain.CatalogEntry
}

// Duplicates scans entries for package ids appearing more than once across
// the whole catalog, returned sorted by id.
func Duplicates(entries []domain.CatalogEntry) []Duplicate {
	occurrences := make(map[string][]domain.CatalogEntry)
	for _, entry := range entries {
		occurrences[entry.PackageID] = append(occurrences[entry.PackageID], entry)
	}

	var duplicates []Duplicate

	for packageID, group := range occurrences {
		if len(group) > 1 {
			duplicates = append(duplicates, Duplicate{PackageID: packageID, Occurrences: group})
		}
	}

	sort.Slice(duplicates, func(i, j int) bool {
		return duplicates[i].PackageID < duplicates[j].PackageID
	})

	return duplicates
}

func relativeTo(root, file string) string {
	if root == "" {
		return file
	}

	relative, err := filepath.Rel(root, file)
	if err != nil || strings.HasPrefix(relative, "..") {
		return file
	}

	return relative
}
