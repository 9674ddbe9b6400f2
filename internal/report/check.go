// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package report renders check outcomes and fix suggestions as tabular text
// or JSON, and reads them back for the suggestion pass.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// Status cell styles for TTY table output.
var (
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))  // green
	styleNotFound = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange
	styleError    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red
	styleSkipped  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // grey
)

// CheckRecord is the JSON serialization of one check outcome. It is the
// wire format between `check --format json` and `suggest --input`.
type CheckRecord struct {
	PackageID         string `json:"package_id"`
	Manager           string `json:"manager"`
	Command           string `json:"command"`
	Name              string `json:"name"`
	FilePath          string `json:"file_path"`
	Index             int    `json:"index"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	ManagerIdentifier string `json:"manager_identifier"`
	ReturnCode        *int   `json:"return_code"`
}

// RecordFromOutcome converts an outcome to its wire form.
func RecordFromOutcome(outcome domain.CheckOutcome) CheckRecord {
	return CheckRecord{
		PackageID:         outcome.Entry.PackageID,
		Manager:           outcome.Entry.Manager,
		Command:           outcome.Entry.Command,
		Name:              outcome.Entry.Name,
		FilePath:          outcome.Entry.FilePath,
		Index:             outcome.Entry.Index,
		Status:            string(outcome.Status),
		Message:           outcome.Message,
		ManagerIdentifier: outcome.ManagerIdentifier,
		ReturnCode:        outcome.ReturnCode,
	}
}

// Outcome converts a wire record back into a domain outcome.
func (r CheckRecord) Outcome() domain.CheckOutcome {
	return domain.CheckOutcome{
		Entry: domain.CatalogEntry{
			PackageID: r.PackageID,
			Manager:   r.Manager,
			Command:   r.Command,
			Name:      r.Name,
			FilePath:  r.FilePath,
			Index:     r.Index,
		},
		ManagerIdentifier: r.ManagerIdentifier,
		Status:            domain.Status(r.Status),
		Message:           r.Message,
		ReturnCode:        r.ReturnCode,
	}
}

// WriteCheckJSON writes the outcomes as an indented JSON array.
func WriteCheckJSON(writer io.Writer, outcomes []domain.CheckOutcome) error {
	records := make([]CheckRecord, 0, len(outcomes))
	for _, outcome := range outcomes {
		records = append(records, RecordFromOutcome(outcome))
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("failed to encode check report: %w", err)
	}

	return nil
}

// ReadCheckRecords loads a check JSON report from path.
func ReadCheckRecords(path string) ([]CheckRecord, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is an operator-provided report file
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoInput, path)
	}

	var records []CheckRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse check report %s: %w", path, err)
	}

	return records, nil
}

// CheckTable renders the human check report: one row per entry, a message
// line beneath any non-ok row, and a trailing count-by-status summary.
type CheckTable struct {
	writer io.Writer
	color  bool
}

// NewCheckTable creates a table renderer; color styles status cells.
func NewCheckTable(writer io.Writer, color bool) *CheckTable {
	return &CheckTable{writer: writer, color: color}
}

// Render writes the full report.
func (t *CheckTable) Render(outcomes []domain.CheckOutcome) {
	header := fmt.Sprintf("%s %s %s %s SOURCE",
		runewidth.FillRight("STATUS", 10),
		runewidth.FillRight("PACKAGE", 24),
		runewidth.FillRight("MANAGER", 10),
		runewidth.FillRight("MANAGER-ID", 28))

	fmt.Fprintln(t.writer, header)
	fmt.Fprintln(t.writer, strings.Repeat("-", runewidth.StringWidth(header)))

	for _, outcome := range outcomes {
		entry := outcome.Entry

		identifier := outcome.ManagerIdentifier
		if identifier == "" {
			identifier = "-"
		}

		fmt.Fprintf(t.writer, "%s %s %s %s %s\n",
			t.statusCell(outcome.Status),
			runewidth.FillRight(entry.PackageID, 24),
			runewidth.FillRight(entry.Manager, 10),
			runewidth.FillRight(identifier, 28),
			entry.Location())

		if outcome.Status != domain.StatusOK && outcome.Message != "" {
			fmt.Fprintf(t.writer, "  %s\n", outcome.Message)
		}
	}

	t.renderSummary(outcomes)
}

func (t *CheckTable) renderSummary(outcomes []domain.CheckOutcome) {
	counts := make(map[domain.Status]int, 4)
	for _, outcome := range outcomes {
		counts[outcome.Status]++
	}

	fmt.Fprintln(t.writer, "\nSummary:")

	for _, status := range []domain.Status{domain.StatusOK, domain.StatusNotFound, domain.StatusError, domain.StatusSkipped} {
		if counts[status] > 0 {
			fmt.Fprintf(t.writer, "  %s: %d\n", status, counts[status])
		}
	}
}

// statusCell uppercases and pads the status, styling it when color is on.
// Padding happens before styling so ANSI codes don't skew the column width.
func (t *CheckTable) statusCell(status domain.Status) string {
	cell := runewidth.FillRight(strings.ToUpper(string(status)), 10)
	if !t.color {
		return cell
	}

	switch status {
	case domain.StatusOK:
		return styleOK.Render(cell)
	case domain.StatusNotFound:
		return styleNotFound.Render(cell)
	case domain.StatusError:
		return styleError.Render(cell)
	case domain.StatusSkipped:
		return styleSkipped.Render(cell)
	default:
		return cell
	}
}
