// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"context"
	"time"
)

// ExecResult carries the observable outcome of one external CLI invocation.
// Output is the combined stdout and stderr text with undecodable bytes
// replaced, never raw binary.
type ExecResult struct {
	ExitCode int
	Output   string
}

// ProcessRunner defines the interface for executing manager CLIs.
// Implemented by the platform adapter for real processes and by a mock
// returning canned (exit code, output) pairs in tests.
type ProcessRunner interface {
	// Run resolves and executes a command within the given timeout,
	// capturing combined output as text. A nonzero exit code is not an
	// error; launch failures and timeouts are.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*ExecResult, error)
}

// CandidateSearcher issues one manager's catalog search and parses its
// tabular output into candidates. Each manager owns an isolated parser so
// output-format drift in one tool cannot affect the others.
type CandidateSearcher interface {
	// Manager returns the canonical manager name this searcher queries.
	Manager() string

	// Search runs the manager's search CLI for the query. It returns an
	// empty slice when the manager reports no results, and an error only
	// when the search itself could not be interpreted.
	Search(ctx context.Context, query string, timeout time.Duration) ([]SearchCandidate, error)
}
