// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package application orchestrates the audit: parse, invoke, classify for
// every catalog entry, then search, score and report for the failures.
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkgaudit/pkgaudit/internal/catalog"
	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/extract"
	"github.com/pkgaudit/pkgaudit/internal/managers"
)

// extractionFailedMessage is attached when no manager identifier is
// derivable from an entry's command.
const extractionFailedMessage = "Unable to determine manager-specific identifier from command."

// CheckOptions bundles the per-run settings of a catalog audit.
type CheckOptions struct {
	Root        string
	Glob        string
	Managers    []string
	PackageIDs  []string
	Timeout     time.Duration
	Concurrency int

	// OnResult is invoked once per finished entry with its position in the
	// filtered catalog. With Concurrency > 1 the calls may arrive out of
	// order; the returned slice is always in catalog order.
	OnResult func(index, total int, outcome domain.CheckOutcome)
}

// CheckService verifies catalog entries against their manager CLIs.
type CheckService struct {
	registry *managers.Registry
	runner   domain.ProcessRunner
}

// NewCheckService creates a check service with injected manager tables and
// process runner.
func NewCheckService(registry *managers.Registry, runner domain.ProcessRunner) *CheckService {
	return &CheckService{registry: registry, runner: runner}
}

// Run loads, filters and checks the catalog under opts.Root, returning one
// outcome per entry in catalog order.
func (s *CheckService) Run(ctx context.Context, opts CheckOptions) ([]domain.CheckOutcome, error) {
	files, err := catalog.Files(opts.Root, opts.Glob)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, domain.ErrNoCatalogFiles
	}

	entries, err := catalog.Load(opts.Root, files)
	if err != nil {
		return nil, err
	}

	entries = catalog.Filter(entries, opts.Managers, opts.PackageIDs)

	return s.CheckEntries(ctx, entries, opts), nil
}

// CheckEntries verifies the given entries, honoring opts.Concurrency.
// Output order always matches input order; a failing check never aborts
// the run.
func (s *CheckService) CheckEntries(ctx context.Context, entries []domain.CatalogEntry, opts CheckOptions) []domain.CheckOutcome {
	outcomes := make([]domain.CheckOutcome, len(entries))

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for idx, entry := range entries {
		group.Go(func() error {
			outcomes[idx] = s.CheckEntry(groupCtx, entry, opts.Timeout)

			if opts.OnResult != nil && limit == 1 {
				opts.OnResult(idx, len(entries), outcomes[idx])
			}

			return nil
		})
	}

	// Workers never return errors; failures become outcome statuses.
	_ = group.Wait()

	if opts.OnResult != nil && limit > 1 {
		for idx, outcome := range outcomes {
			opts.OnResult(idx, len(entries), outcome)
		}
	}

	return outcomes
}

// CheckEntry runs the parse -> invoke -> classify pipeline for one entry.
// Every failure mode is converted into a (status, message) pair; nothing
// propagates past the entry.
func (s *CheckService) CheckEntry(ctx context.Context, entry domain.CatalogEntry, timeout time.Duration) domain.CheckOutcome {
	outcome := domain.CheckOutcome{Entry: entry}

	def, supported := s.registry.Lookup(entry.Manager)
	if !supported {
		outcome.Status = domain.StatusSkipped
		outcome.Message = managers.SkippedMessage

		return outcome
	}

	identifier := extract.ManagerIdentifier(entry)
	if identifier == "" {
		outcome.Status = domain.StatusSkipped
		outcome.Message = extractionFailedMessage

		return outcome
	}

	outcome.ManagerIdentifier = identifier

	result, err := s.runner.Run(ctx, timeout, def.CLI, def.CheckArgs(identifier)...)
	if err != nil {
		outcome.Status = domain.StatusError
		outcome.Message = launchFailureMessage(err, def.CLI, timeout)

		return outcome
	}

	outcome.Status, outcome.Message = def.Classify(identifier, result.ExitCode, result.Output)
	outcome.ReturnCode = &result.ExitCode

	return outcome
}

// launchFailureMessage distinguishes a missing executable from a timeout.
func launchFailureMessage(err error, cli string, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("Verification command exceeded the %s timeout.", timeout)
	}

	return fmt.Sprintf("Failed to start %q. Ensure it is installed.", cli)
}

// HasFailures reports whether any outcome should fail the run. Under
// strict, skipped entries count as failures too.
func HasFailures(outcomes []domain.CheckOutcome, strict bool) bool {
	for _, outcome := range outcomes {
		if outcome.Status.IsFailure() {
			return true
		}

		if strict && outcome.Status == domain.StatusSkipped {
			return true
		}
	}

	return false
}
