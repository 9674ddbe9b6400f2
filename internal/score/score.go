// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package score ranks search candidates against failing catalog entries by
// normalized lexical similarity plus tie-break bonuses.
package score

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// Additive bonuses, each re-clamped to 1.0 after application.
const (
	bonusExactPackageID  = 0.20
	bonusExactIdentifier = 0.10
	bonusSameManager     = 0.05
)

// Similarity returns a symmetric shared-subsequence ratio in [0, 1] between
// two strings, case-insensitively. Identical strings score 1.0; strings
// with no useful overlap score 0.0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	left := strings.Split(strings.ToLower(a), "")
	right := strings.Split(strings.ToLower(b), "")

	return difflib.NewMatcher(left, right).Ratio()
}

// Candidate scores one candidate against a failing entry. managerIdentifier
// is the entry's known manager-native id, or "" when never derived.
func Candidate(entry domain.CatalogEntry, managerIdentifier string, candidate domain.SearchCandidate) float64 {
	base := Similarity(entry.PackageID, candidate.Identifier)

	if entry.Name != "" {
		base = max(base, Similarity(entry.Name, candidate.Name))
		base = max(base, Similarity(entry.Name, candidate.Identifier))
	}

	if managerIdentifier != "" {
		base = max(base, Similarity(managerIdentifier, candidate.Identifier))
	}

	if strings.EqualFold(candidate.Identifier, entry.PackageID) {
		base = min(base+bonusExactPackageID, 1.0)
	}

	if managerIdentifier != "" && strings.EqualFold(candidate.Identifier, managerIdentifier) {
		base = min(base+bonusExactIdentifier, 1.0)
	}

	if domain.CanonicalManager(candidate.Manager) == domain.CanonicalManager(entry.Manager) {
		base = min(base+bonusSameManager, 1.0)
	}

	return base
}

// Rank scores every candidate and orders them descending. The sort is
// stable, so equal scores keep discovery order.
func Rank(entry domain.CatalogEntry, managerIdentifier string, candidates []domain.SearchCandidate) []domain.ScoredSuggestion {
	scored := make([]domain.ScoredSuggestion, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, domain.ScoredSuggestion{
			SearchCandidate: candidate,
			Score:           Candidate(entry, managerIdentifier, candidate),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
