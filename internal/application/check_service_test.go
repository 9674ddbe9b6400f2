// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package application_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkgaudit/pkgaudit/internal/adapters/platform"
	"github.com/pkgaudit/pkgaudit/internal/application"
	"github.com/pkgaudit/pkgaudit/internal/catalog"
	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/managers"
)

const wingetCheckFoo = "winget show --id Foo --exact --disable-interactivity --source winget"

func newCheckService(runner domain.ProcessRunner) *application.CheckService {
	return application.NewCheckService(managers.Defaults(), runner)
}

func TestCheckEntryUnsupportedManagerSkipsWithoutInvocation(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()
	entry := domain.CatalogEntry{PackageID: "Foo", Manager: "brew", Command: "brew install foo"}

	outcome := newCheckService(runner).CheckEntry(context.Background(), entry, time.Second)

	require.Equal(t, domain.StatusSkipped, outcome.Status)
	require.Equal(t, "No verifier implemented for this manager.", outcome.Message)
	require.Empty(t, runner.Calls())
	require.Nil(t, outcome.ReturnCode)
}

func TestCheckEntryExtractionFailureSkips(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()
	entry := domain.CatalogEntry{PackageID: "Foo", Manager: "winget", Command: "winget source update"}

	outcome := newCheckService(runner).CheckEntry(context.Background(), entry, time.Second)

	require.Equal(t, domain.StatusSkipped, outcome.Status)
	require.Contains(t, outcome.Message, "Unable to determine manager-specific identifier")
	require.Empty(t, runner.Calls())
}

func TestCheckEntryClassifiesNotFound(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()
	runner.SetResult(wingetCheckFoo, 1, "No package found matching input criteria.")

	entry := domain.CatalogEntry{PackageID: "Foo", Manager: "winget", Command: "winget install --id Foo --exact"}
	outcome := newCheckService(runner).CheckEntry(context.Background(), entry, time.Second)

	require.Equal(t, domain.StatusNotFound, outcome.Status)
	require.Contains(t, outcome.Message, "No package found matching input criteria.")
	require.Equal(t, "Foo", outcome.ManagerIdentifier)
	require.NotNil(t, outcome.ReturnCode)
	require.Equal(t, 1, *outcome.ReturnCode)
}

func TestCheckEntryLaunchFailure(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()

	entry := domain.CatalogEntry{PackageID: "Foo", Manager: "winget", Command: "winget install --id Foo"}
	outcome := newCheckService(runner).CheckEntry(context.Background(), entry, time.Second)

	require.Equal(t, domain.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, `Failed to start "winget"`)
}

func TestCheckEntryTimeout(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()
	runner.SetError(wingetCheckFoo, fmt.Errorf("command timed out: %w", context.DeadlineExceeded))

	entry := domain.CatalogEntry{PackageID: "Foo", Manager: "winget", Command: "winget install --id Foo"}
	outcome := newCheckService(runner).CheckEntry(context.Background(), entry, 5*time.Second)

	require.Equal(t, domain.StatusError, outcome.Status)
	require.Contains(t, outcome.Message, "exceeded the 5s timeout")
}

func TestCheckEntriesPreservesCatalogOrder(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()
	runner.SetResult(wingetCheckFoo, 0, "Found Foo [Foo]")
	runner.SetResult("choco search bar --exact --limit-output --id-only", 0, "bar|1.0.0")

	entries := []domain.CatalogEntry{
		{PackageID: "Foo", Manager: "winget", Command: "winget install --id Foo"},
		{PackageID: "bar", Manager: "choco", Command: "choco install bar -y"},
		{PackageID: "baz", Manager: "nuget", Command: "nuget install baz"},
	}

	var seen []string

	opts := application.CheckOptions{
		Timeout: time.Second,
		OnResult: func(index, total int, outcome domain.CheckOutcome) {
			require.Equal(t, 3, total)

			seen = append(seen, fmt.Sprintf("%d:%s", index, outcome.Entry.PackageID))
		},
	}

	outcomes := newCheckService(runner).CheckEntries(context.Background(), entries, opts)

	require.Len(t, outcomes, 3)
	require.Equal(t, domain.StatusOK, outcomes[0].Status)
	require.Equal(t, domain.StatusOK, outcomes[1].Status)
	require.Equal(t, domain.StatusSkipped, outcomes[2].Status)
	require.Equal(t, []string{"0:Foo", "1:bar", "2:baz"}, seen)
}

func TestCheckEntriesParallelKeepsOrder(t *testing.T) {
	t.Parallel()

	runner := platform.NewMockProcessRunner()

	var entries []domain.CatalogEntry

	for i := range 8 {
		id := fmt.Sprintf("pkg%d", i)
		entries = append(entries, domain.CatalogEntry{
			PackageID: id,
			Manager:   "scoop",
			Command:   "scoop install " + id,
		})
		runner.SetResult("scoop search "+id, 0, id+" (1.0) main")
	}

	outcomes := newCheckService(runner).CheckEntries(context.Background(), entries,
		application.CheckOptions{Timeout: time.Second, Concurrency: 4})

	require.Len(t, outcomes, 8)

	for i, outcome := range outcomes {
		require.Equal(t, fmt.Sprintf("pkg%d", i), outcome.Entry.PackageID)
		require.Equal(t, domain.StatusOK, outcome.Status)
	}
}

func TestRunLoadsAndFiltersCatalog(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := catalog.Dir(root)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "apps.yml"), []byte(`packages:
  - id: Foo
    manager: winget
    command: winget install --id Foo
  - id: bar
    manager: choco
    command: choco install bar -y
`), 0o600))

	runner := platform.NewMockProcessRunner()
	runner.SetResult(wingetCheckFoo, 0, "Found Foo [Foo]")

	outcomes, err := newCheckService(runner).Run(context.Background(), application.CheckOptions{
		Root:     root,
		Glob:     "*.yml",
		Managers: []string{"winget"},
		Timeout:  time.Second,
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, "Foo", outcomes[0].Entry.PackageID)

	// A glob that matches nothing is a setup failure.
	_, err = newCheckService(runner).Run(context.Background(), application.CheckOptions{
		Root: root,
		Glob: "*.nope",
	})
	require.ErrorIs(t, err, domain.ErrNoCatalogFiles)
}

func TestHasFailures(t *testing.T) {
	t.Parallel()

	outcomes := []domain.CheckOutcome{
		{Status: domain.StatusOK},
		{Status: domain.StatusSkipped},
	}

	require.False(t, application.HasFailures(outcomes, false))
	require.True(t, application.HasFailures(outcomes, true))

	outcomes = append(outcomes, domain.CheckOutcome{Status: domain.StatusNotFound})
	require.True(t, application.HasFailures(outcomes, false))
}
