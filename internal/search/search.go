// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package search issues manager-specific catalog searches and parses their
// tabular CLI output into candidates. Each manager's output grammar is a
// fragile textual contract with the external tool, so every parser is
// isolated behind the shared CandidateSearcher port.
package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"

	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/managers"
)

// columnSplit separates tabular output columns on runs of two or more
// spaces, the layout winget and scoop print.
var columnSplit = regexp.MustCompile(`\s{2,}`)

// parser turns one search invocation's raw output into candidates.
type parser func(output, query string) []domain.SearchCandidate

// Searcher drives one manager's search CLI through a ProcessRunner.
type Searcher struct {
	def    managers.Definition
	runner domain.ProcessRunner
	parse  parser
}

// NewSearcher builds the searcher for a registered manager definition.
func NewSearcher(def managers.Definition, runner domain.ProcessRunner) *Searcher {
	searcher := &Searcher{def: def, runner: runner}

	switch def.Name {
	case domain.ManagerChoco:
		searcher.parse = parseChoco
	case domain.ManagerScoop:
		searcher.parse = parseScoop
	default:
		searcher.parse = parseWinget
	}

	return searcher
}

// Searchers builds one searcher per selected manager, preserving order.
func Searchers(registry *managers.Registry, names []string, runner domain.ProcessRunner) []domain.CandidateSearcher {
	searchers := make([]domain.CandidateSearcher, 0, len(names))

	for _, name := range names {
		if def, exists := registry.Lookup(name); exists {
			searchers = append(searchers, NewSearcher(def, runner))
		}
	}

	return searchers
}

// Manager returns the canonical manager name this searcher queries.
func (s *Searcher) Manager() string {
	return s.def.Name
}

// Search runs one search query and parses the output. A recognized "no
// results" marker short-circuits to an empty set, and a nonzero exit without
// a marker is a recoverable search failure: a failing process prints
// diagnostics, not data, so its lines are never parsed into candidates.
func (s *Searcher) Search(ctx context.Context, query string, timeout time.Duration) ([]domain.SearchCandidate, error) {
	result, err := s.runner.Run(ctx, timeout, s.def.CLI, s.def.SearchArgs(query)...)
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", s.def.Name, err)
	}

	normalized := strings.ToLower(result.Output)
	for _, marker := range s.def.NotFoundMarkers {
		if strings.Contains(normalized, marker) {
			return nil, nil
		}
	}

	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%s search exited %d: %w", s.def.Name, result.ExitCode, domain.ErrSearchFailed)
	}

	return s.parse(result.Output, query), nil
}

// parseWinget reads winget's space-aligned table: header and all-dash
// separator lines are skipped; first column is the display name, second the
// identifier, then version and source.
func parseWinget(output, query string) []domain.SearchCandidate {
	var candidates []domain.SearchCandidate

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeaderLine(trimmed) {
			continue
		}

		columns := columnSplit.Split(trimmed, -1)
		if len(columns) < 2 {
			continue
		}

		metadata := make(map[string]string)
		if len(columns) >= 3 {
			metadata["version"] = columns[2]
		}

		if len(columns) >= 4 {
			metadata["source"] = columns[3]
		}

		candidates = append(candidates, domain.SearchCandidate{
			Manager:    domain.ManagerWinget,
			Identifier: columns[1],
			Name:       columns[0],
			Metadata:   withNormalizedVersion(metadata),
			Query:      query,
			Raw:        strings.TrimRight(line, " \r"),
		})
	}

	return candidates
}

// parseChoco reads choco's --limit-output rows, "identifier|version".
func parseChoco(output, query string) []domain.SearchCandidate {
	var candidates []domain.SearchCandidate

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.Contains(trimmed, "|") {
			continue
		}

		parts := strings.Split(trimmed, "|")
		identifier := strings.TrimSpace(parts[0])

		if identifier == "" {
			continue
		}

		metadata := make(map[string]string)
		if len(parts) > 1 {
			metadata["version"] = strings.TrimSpace(parts[1])
		}

		candidates = append(candidates, domain.SearchCandidate{
			Manager:    domain.ManagerChoco,
			Identifier: identifier,
			Name:       identifier,
			Metadata:   withNormalizedVersion(metadata),
			Query:      query,
			Raw:        trimmed,
		})
	}

	return candidates
}

// parseScoop reads scoop's result list: first column is the app name,
// second (when present) the bucket.
func parseScoop(output, query string) []domain.SearchCandidate {
	var candidates []domain.SearchCandidate

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeaderLine(trimmed) {
			continue
		}

		lowered := strings.ToLower(trimmed)
		if strings.HasPrefix(lowered, "warn") {
			continue
		}

		columns := columnSplit.Split(trimmed, -1)

		identifier := columns[0]
		if identifier == "" || strings.EqualFold(identifier, "name") {
			continue
		}

		metadata := make(map[string]string)
		if len(columns) >= 2 && columns[1] != "" {
			metadata["bucket"] = columns[1]
		}

		candidates = append(candidates, domain.SearchCandidate{
			Manager:    domain.ManagerScoop,
			Identifier: identifier,
			Name:       identifier,
			Metadata:   metadata,
			Query:      query,
			Raw:        trimmed,
		})
	}

	return candidates
}

// isHeaderLine recognizes column headers and dash separator rows.
func isHeaderLine(trimmed string) bool {
	if strings.HasPrefix(strings.ToLower(trimmed), "name ") {
		return true
	}

	return strings.HasPrefix(trimmed, "-") && strings.Trim(trimmed, "- ") == ""
}

// withNormalizedVersion annotates metadata with the canonical form of the
// version column when it parses and differs from the raw text, so report
// consumers can compare versions without re-parsing manager output.
func withNormalizedVersion(metadata map[string]string) map[string]string {
	raw := metadata["version"]
	if raw == "" {
		return metadata
	}

	parsed, err := version.NewVersion(raw)
	if err != nil {
		return metadata
	}

	if canonical := parsed.String(); canonical != raw {
		metadata["version_normalized"] = canonical
	}

	return metadata
}

// Dedupe collapses candidates sharing (manager, lowercased identifier),
// keeping the first occurrence.
func Dedupe(candidates []domain.SearchCandidate) []domain.SearchCandidate {
	seen := make(map[string]bool, len(candidates))

	deduped := make([]domain.SearchCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		key := candidate.Manager + "\x00" + strings.ToLower(candidate.Identifier)
		if seen[key] {
			continue
		}

		seen[key] = true

		deduped = append(deduped, candidate)
	}

	return deduped
}

// FallbackQueries returns the ordered query list for a failing entry:
// catalog package id, previously resolved manager-native id, then display
// name, deduplicated case-insensitively in first-seen order.
func FallbackQueries(entry domain.CatalogEntry, managerIdentifier string) []string {
	seen := make(map[string]bool, 3)

	var queries []string

	for _, value := range []string{entry.PackageID, managerIdentifier, entry.Name} {
		text := strings.TrimSpace(value)
		key := strings.ToLower(text)

		if text != "" && !seen[key] {
			seen[key] = true

			queries = append(queries, text)
		}
	}

	if len(queries) == 0 {
		return []string{entry.PackageID}
	}

	return queries
}
