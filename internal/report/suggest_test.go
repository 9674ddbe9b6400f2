// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/report"
)

func sampleSuggestionRecord() report.SuggestionRecord {
	return report.SuggestionRecord{
		PackageID:         "ghost",
		Manager:           "winget",
		Status:            "not-found",
		Message:           "winget reported no matching package.",
		FilePath:          "data/catalog/packages/tools.yml",
		Index:             2,
		ManagerIdentifier: "Ghost.App",
		Suggestions: []report.SuggestionPayload{
			{
				Manager:    "winget",
				Identifier: "Ghost.Desktop",
				Name:       "Ghost Desktop",
				Score:      0.92,
				Command:    "winget install --id Ghost.Desktop --exact --source winget --disable-interactivity",
				Metadata:   map[string]string{"version": "1.0", "version_normalized": "1.0.0", "source": "winget"},
				Query:      "ghost",
				Raw:        "Ghost Desktop  Ghost.Desktop  1.0  winget",
			},
		},
		Notes: []string{"scoop: no matches for queries ghost"},
	}
}

func TestNewSuggestionPayloadRoundsScore(t *testing.T) {
	t.Parallel()

	suggestion := domain.ScoredSuggestion{
		SearchCandidate: domain.SearchCandidate{
			Manager:    "winget",
			Identifier: "Foo.Bar",
			Name:       "Foo Bar",
			Query:      "foo",
		},
		Score: 0.123456,
	}

	payload := report.NewSuggestionPayload(suggestion, "winget install --id Foo.Bar")

	require.InDelta(t, 0.1235, payload.Score, 1e-9)
	require.Equal(t, "winget install --id Foo.Bar", payload.Command)
	require.Equal(t, "Foo.Bar", payload.Identifier)
}

func TestWriteSuggestionsCreatesDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "nested", "fixes.json")

	require.NoError(t, report.WriteSuggestions(path, []report.SuggestionRecord{sampleSuggestionRecord()}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(raw, []byte("\n")))

	var records []report.SuggestionRecord

	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 1)
	require.Equal(t, "ghost", records[0].PackageID)
	require.InDelta(t, 0.92, records[0].Suggestions[0].Score, 1e-9)
}

func TestFixesRoundTripPreservesUnknownFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixes.json")
	original := `[
  {
    "package_id": "ghost",
    "reviewed_by": "alice"
  },
  {
    "package_id": "second"
  }
]
`
	require.NoError(t, os.WriteFile(path, []byte(original), 0o600))

	records, err := report.ReadFixes(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NoError(t, report.WriteFixes(path, records[1:]))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "second")
	require.NotContains(t, string(raw), "reviewed_by")
}

func TestReadFixesErrors(t *testing.T) {
	t.Parallel()

	_, err := report.ReadFixes(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, domain.ErrNoInput)

	path := filepath.Join(t.TempDir(), "object.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))

	_, err = report.ReadFixes(path)
	require.ErrorContains(t, err, "top-level JSON array")
}

func TestRenderSuggestions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	report.RenderSuggestions(&buf, sampleSuggestionRecord())
	output := buf.String()

	require.Contains(t, output, "ghost (winget) -> NOT-FOUND")
	require.Contains(t, output, "  Reason: winget reported no matching package.")
	require.Contains(t, output, "  Catalog: data/catalog/packages/tools.yml#2")
	require.Contains(t, output, "  Manager ID: Ghost.App")
	require.Contains(t, output, "    1. winget: winget install --id Ghost.Desktop --exact --source winget --disable-interactivity")
	require.Contains(t, output, `       -> Ghost Desktop (score 0.92, query "ghost")`)
	require.Contains(t, output, "       -> version=1.0, version_normalized=1.0.0, source=winget")
	require.Contains(t, output, "    - scoop: no matches for queries ghost")
}

func TestRenderSuggestionsEmpty(t *testing.T) {
	t.Parallel()

	record := sampleSuggestionRecord()
	record.Suggestions = nil
	record.Notes = nil

	var buf bytes.Buffer

	report.RenderSuggestions(&buf, record)

	require.Contains(t, buf.String(), "  Suggestions: none")
	require.NotContains(t, buf.String(), "Notes:")
}
