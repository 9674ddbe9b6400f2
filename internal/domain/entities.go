// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package domain contains the core entities and ports of the catalog auditor.
package domain

import (
	"fmt"
	"strings"
)

// Status classifies the outcome of verifying one catalog entry.
type Status string

// Outcome statuses, in the order they appear in report summaries.
const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not-found"
	StatusError    Status = "error"
	StatusSkipped  Status = "skipped"
)

// IsFailure reports whether the status should fail the overall run.
func (s Status) IsFailure() bool {
	return s == StatusNotFound || s == StatusError
}

// Supported package managers, by canonical name.
const (
	ManagerWinget = "winget"
	ManagerChoco  = "choco"
	ManagerScoop  = "scoop"
)

// CanonicalManager lowercases a manager tag and folds aliases
// ("chocolatey" -> "choco"). Unknown managers pass through lowercased.
func CanonicalManager(manager string) string {
	key := strings.ToLower(strings.TrimSpace(manager))
	if key == "chocolatey" {
		return ManagerChoco
	}

	return key
}

// CatalogEntry is one declared package mapping an abstract id to an install
// command for a specific manager. Entries are immutable once loaded; their
// identity is (FilePath, Index).
type CatalogEntry struct {
	PackageID string `json:"package_id"`
	Manager   string `json:"manager"`
	Command   string `json:"command"`
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	Index     int    `json:"index"`
}

// Location renders the entry's catalog position as path#index.
func (e CatalogEntry) Location() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s#%d", e.FilePath, e.Index)
	}

	return e.FilePath
}

// CheckOutcome is the classified result of verifying one catalog entry.
// ManagerIdentifier may be attached after creation when the orchestrator
// later derives it; everything else is written exactly once.
type CheckOutcome struct {
	Entry             CatalogEntry
	ManagerIdentifier string
	Status            Status
	Message           string
	ReturnCode        *int
}

// SearchCandidate is one row parsed from a manager's own search output,
// considered as a possible corrected mapping. Candidates only live for the
// duration of a single failing entry's suggestion pass.
type SearchCandidate struct {
	Manager    string
	Identifier string
	Name       string
	Metadata   map[string]string
	Query      string
	Raw        string
}

// ScoredSuggestion is a candidate ranked against a failing entry.
// Score is always within [0, 1].
type ScoredSuggestion struct {
	SearchCandidate

	Score float64
}
