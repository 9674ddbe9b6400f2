// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// SuggestionPayload is one proposed replacement mapping for a failing entry.
type SuggestionPayload struct {
	Manager    string            `json:"manager"`
	Identifier string            `json:"identifier"`
	Name       string            `json:"name"`
	Score      float64           `json:"score"`
	Command    string            `json:"command"`
	Metadata   map[string]string `json:"metadata"`
	Query      string            `json:"query"`
	Raw        string            `json:"raw"`
}

// SuggestionRecord pairs a failing entry with its ranked suggestions and
// the diagnostic notes gathered while searching.
type SuggestionRecord struct {
	PackageID         string              `json:"package_id"`
	Manager           string              `json:"manager"`
	Status            string              `json:"status"`
	Message           string              `json:"message"`
	FilePath          string              `json:"file_path"`
	Index             int                 `json:"index"`
	ManagerIdentifier string              `json:"manager_identifier"`
	Suggestions       []SuggestionPayload `json:"suggestions"`
	Notes             []string            `json:"notes"`
}

// NewSuggestionPayload builds the wire form of one scored suggestion.
// Scores are rounded to four decimals.
func NewSuggestionPayload(suggestion domain.ScoredSuggestion, command string) SuggestionPayload {
	return SuggestionPayload{
		Manager:    suggestion.Manager,
		Identifier: suggestion.Identifier,
		Name:       suggestion.Name,
		Score:      math.Round(suggestion.Score*10000) / 10000,
		Command:    command,
		Metadata:   suggestion.Metadata,
		Query:      suggestion.Query,
		Raw:        suggestion.Raw,
	}
}

// WriteSuggestions persists suggestion records as an indented JSON array,
// creating parent directories as needed.
func WriteSuggestions(path string, records []SuggestionRecord) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write output JSON: %w", err)
	}

	return nil
}

// ReadFixes loads a persisted suggestions file as raw records so unknown
// fields survive a rewrite.
func ReadFixes(path string) ([]json.RawMessage, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is an operator-provided fixes file
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoInput, path)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("expected a top-level JSON array in %s: %w", path, err)
	}

	return records, nil
}

// WriteFixes persists raw fix records back to path.
func WriteFixes(path string, records []json.RawMessage) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode fixes: %w", err)
	}

	if err := os.WriteFile(path, append(payload, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write fixes: %w", err)
	}

	return nil
}

// RenderSuggestions writes one record's human-readable block: the failing
// entry, its ranked suggestions with synthesized commands, and any notes.
func RenderSuggestions(writer io.Writer, record SuggestionRecord) {
	fmt.Fprintf(writer, "%s (%s) -> %s\n", record.PackageID, record.Manager, strings.ToUpper(record.Status))

	if record.Message != "" {
		fmt.Fprintf(writer, "  Reason: %s\n", record.Message)
	}

	location := record.FilePath
	if record.Index > 0 {
		location = fmt.Sprintf("%s#%d", record.FilePath, record.Index)
	}

	fmt.Fprintf(writer, "  Catalog: %s\n", location)

	if record.ManagerIdentifier != "" {
		fmt.Fprintf(writer, "  Manager ID: %s\n", record.ManagerIdentifier)
	}

	if len(record.Suggestions) == 0 {
		fmt.Fprintln(writer, "  Suggestions: none")
	} else {
		fmt.Fprintln(writer, "  Suggestions:")

		for idx, suggestion := range record.Suggestions {
			fmt.Fprintf(writer, "    %d. %s: %s\n", idx+1, suggestion.Manager, suggestion.Command)
			fmt.Fprintf(writer, "       -> %s (score %.2f, query %q)\n", suggestion.Name, suggestion.Score, suggestion.Query)

			if metadata := formatMetadata(suggestion.Metadata); metadata != "" {
				fmt.Fprintf(writer, "       -> %s\n", metadata)
			}
		}
	}

	if len(record.Notes) > 0 {
		fmt.Fprintln(writer, "  Notes:")

		for _, note := range record.Notes {
			fmt.Fprintf(writer, "    - %s\n", note)
		}
	}

	fmt.Fprintln(writer)
}

// formatMetadata renders metadata as "key=value, ..." in a stable order.
func formatMetadata(metadata map[string]string) string {
	result := ""

	for _, key := range []string{"version", "version_normalized", "source", "bucket"} {
		if value := metadata[key]; value != "" {
			if result != "" {
				result += ", "
			}

			result += key + "=" + value
		}
	}

	return result
}
