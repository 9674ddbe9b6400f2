// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/extract"
	"github.com/pkgaudit/pkgaudit/internal/managers"
	"github.com/pkgaudit/pkgaudit/internal/report"
	"github.com/pkgaudit/pkgaudit/internal/score"
	"github.com/pkgaudit/pkgaudit/internal/search"
)

// SuggestOptions bundles the per-run settings of a suggestion pass.
type SuggestOptions struct {
	Managers       []string // filter failing entries by their manager
	PackageIDs     []string // filter failing entries by catalog id
	SearchManagers []string // restrict which managers are searched
	MaxSuggestions int
	Timeout        time.Duration
}

// SuggestService proposes replacement mappings for failing check records.
type SuggestService struct {
	registry *managers.Registry
	runner   domain.ProcessRunner
}

// NewSuggestService creates a suggest service with injected manager tables
// and process runner.
func NewSuggestService(registry *managers.Registry, runner domain.ProcessRunner) *SuggestService {
	return &SuggestService{registry: registry, runner: runner}
}

// FilterFailing keeps the not-found and error records matching the option
// filters, in input order.
func (s *SuggestService) FilterFailing(records []report.CheckRecord, opts SuggestOptions) []report.CheckRecord {
	managerFilter := make(map[string]bool, len(opts.Managers))
	for _, manager := range opts.Managers {
		managerFilter[domain.CanonicalManager(manager)] = true
	}

	packageFilter := make(map[string]bool, len(opts.PackageIDs))
	for _, packageID := range opts.PackageIDs {
		packageFilter[strings.ToLower(packageID)] = true
	}

	var failing []report.CheckRecord

	for _, record := range records {
		status := domain.Status(strings.ToLower(record.Status))
		if !status.IsFailure() {
			continue
		}

		if len(managerFilter) > 0 && !managerFilter[domain.CanonicalManager(record.Manager)] {
			continue
		}

		if len(packageFilter) > 0 && !packageFilter[strings.ToLower(record.PackageID)] {
			continue
		}

		failing = append(failing, record)
	}

	return failing
}

// SuggestForRecord searches the selected managers for a failing record,
// scores and ranks the candidates, and returns the suggestion record. A
// failure for one manager or query is recorded as a note and never stops
// the others.
func (s *SuggestService) SuggestForRecord(ctx context.Context, record report.CheckRecord, opts SuggestOptions) report.SuggestionRecord {
	outcome := record.Outcome()
	entry := outcome.Entry

	// A record produced without an identifier may still yield one here;
	// the amended value feeds both the queries and the scorer.
	managerIdentifier := outcome.ManagerIdentifier
	if managerIdentifier == "" {
		managerIdentifier = extract.ManagerIdentifier(entry)
	}

	queries := search.FallbackQueries(entry, managerIdentifier)
	searchers := search.Searchers(s.registry, s.registry.Resolve(opts.SearchManagers), s.runner)

	var (
		suggestions []domain.ScoredSuggestion
		notes       []string
	)

	for _, searcher := range searchers {
		candidates, note := s.searchWithFallback(ctx, searcher, queries, opts.Timeout)
		if note != "" {
			notes = append(notes, note)

			continue
		}

		suggestions = append(suggestions, score.Rank(entry, managerIdentifier, search.Dedupe(candidates))...)
	}

	// Merge the per-manager rankings; the stable sort keeps discovery
	// order within equal scores.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	limit := opts.MaxSuggestions
	if limit <= 0 || limit > len(suggestions) {
		limit = len(suggestions)
	}

	payload := make([]report.SuggestionPayload, 0, limit)
	for _, suggestion := range suggestions[:limit] {
		command := s.registry.InstallCommandFor(suggestion.Manager, suggestion.Identifier)
		payload = append(payload, report.NewSuggestionPayload(suggestion, command))
	}

	return report.SuggestionRecord{
		PackageID:         record.PackageID,
		Manager:           record.Manager,
		Status:            record.Status,
		Message:           record.Message,
		FilePath:          record.FilePath,
		Index:             record.Index,
		ManagerIdentifier: managerIdentifier,
		Suggestions:       payload,
		Notes:             notes,
	}
}

// searchWithFallback tries the ordered query list until one yields
// candidates. It returns a diagnostic note instead of an error when the
// manager produced nothing usable.
func (s *SuggestService) searchWithFallback(ctx context.Context, searcher domain.CandidateSearcher, queries []string, timeout time.Duration) ([]domain.SearchCandidate, string) {
	var lastErr error

	for _, query := range queries {
		candidates, err := searcher.Search(ctx, query, timeout)
		if err != nil {
			lastErr = err

			continue
		}

		if len(candidates) > 0 {
			return candidates, ""
		}
	}

	if lastErr != nil {
		return nil, fmt.Sprintf("%s: %v", searcher.Manager(), lastErr)
	}

	return nil, fmt.Sprintf("%s: no matches for queries %s", searcher.Manager(), strings.Join(queries, ", "))
}
