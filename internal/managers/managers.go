// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package managers holds the per-manager configuration tables: CLI names,
// check and search command shapes, not-found markers, and classification
// rules. Tables are injected into the services so tests can substitute
// fake managers.
package managers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// snippetLimit caps diagnostic output snippets embedded in messages.
const snippetLimit = 200

// SkippedMessage is attached to entries whose manager has no verifier.
const SkippedMessage = "No verifier implemented for this manager."

// Definition describes how to drive and interpret one package manager CLI.
type Definition struct {
	// Name is the canonical manager name (see domain manager constants).
	Name string
	// DisplayName is used in human-readable outcome messages.
	DisplayName string
	// CLI is the executable invoked for checks and searches.
	CLI string
	// CheckArgs builds the argument list verifying that identifier resolves.
	CheckArgs func(identifier string) []string
	// SearchArgs builds the argument list for a catalog search.
	SearchArgs func(query string) []string
	// NotFoundMarkers are case-insensitive substrings signalling "no result".
	NotFoundMarkers []string
	// RequireMatchLine demands a result line whose leading token equals the
	// queried identifier even on exit 0 (scoop's search has no exact mode).
	RequireMatchLine bool
	// OKMessage is the message attached to successful checks.
	OKMessage string
	// InstallCommand synthesizes a catalog install command for identifier.
	InstallCommand func(identifier string) string
}

// Registry is the injected set of known manager definitions.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry from explicit definitions.
func NewRegistry(defs ...Definition) *Registry {
	registry := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		registry.defs[def.Name] = def
	}

	return registry
}

// Defaults returns the production registry for winget, choco and scoop.
func Defaults() *Registry {
	return NewRegistry(wingetDefinition(), chocoDefinition(), scoopDefinition())
}

// Lookup resolves a manager tag (aliases folded) to its definition.
func (r *Registry) Lookup(manager string) (Definition, bool) {
	def, exists := r.defs[domain.CanonicalManager(manager)]

	return def, exists
}

// Names returns the canonical names of all registered managers, winget
// first (it carries the richest metadata), the rest sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if (names[i] == domain.ManagerWinget) != (names[j] == domain.ManagerWinget) {
			return names[i] == domain.ManagerWinget
		}

		return names[i] < names[j]
	})

	return names
}

// Resolve maps a list of manager tags to registered canonical names,
// deduplicated, winget first. An empty input selects every manager.
func (r *Registry) Resolve(managers []string) []string {
	if len(managers) == 0 {
		return r.Names()
	}

	seen := make(map[string]bool)

	var resolved []string

	for _, manager := range managers {
		name := domain.CanonicalManager(manager)
		if _, exists := r.defs[name]; exists && !seen[name] {
			seen[name] = true

			resolved = append(resolved, name)
		}
	}

	sort.Slice(resolved, func(i, j int) bool {
		if (resolved[i] == domain.ManagerWinget) != (resolved[j] == domain.ManagerWinget) {
			return resolved[i] == domain.ManagerWinget
		}

		return resolved[i] < resolved[j]
	})

	return resolved
}

// Classify maps one check invocation's exit code and combined output to an
// outcome status and message. It is state-free; identifier is only consulted
// for managers that require a matching result line.
func (d Definition) Classify(identifier string, exitCode int, output string) (domain.Status, string) {
	normalized := strings.ToLower(output)
	for _, marker := range d.NotFoundMarkers {
		if strings.Contains(normalized, marker) {
			return domain.StatusNotFound,
				fmt.Sprintf("%s reported no matching package. Output: %s", d.DisplayName, SummarizeOutput(output))
		}
	}

	if exitCode != 0 {
		return domain.StatusError, SummarizeOutput(output)
	}

	if d.RequireMatchLine {
		return d.classifyMatchLine(identifier, output)
	}

	return domain.StatusOK, d.OKMessage
}

// classifyMatchLine demands at least one output line whose leading token is
// the queried identifier, case-insensitively, allowing a following space,
// "(" or end of line.
func (d Definition) classifyMatchLine(identifier, output string) (domain.Status, string) {
	var lines []string

	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	if len(lines) == 0 {
		return domain.StatusNotFound,
			fmt.Sprintf("%s returned no search results. Output: %s", d.DisplayName, SummarizeOutput(output))
	}

	wanted := strings.ToLower(identifier)
	for _, line := range lines {
		lowered := strings.ToLower(line)
		if lowered == wanted || strings.HasPrefix(lowered, wanted+" ") || strings.HasPrefix(lowered, wanted+"(") {
			return domain.StatusOK, d.OKMessage
		}
	}

	return domain.StatusNotFound, SummarizeOutput(output)
}

// SummarizeOutput collapses whitespace and truncates raw CLI output so it
// can be embedded in a one-line message.
func SummarizeOutput(output string) string {
	if output == "" {
		return ""
	}

	snippet := strings.Join(strings.Fields(output), " ")
	if len(snippet) <= snippetLimit {
		return snippet
	}

	return strings.TrimRight(snippet[:snippetLimit], " ") + "..."
}

func wingetDefinition() Definition {
	return Definition{
		Name:        domain.ManagerWinget,
		DisplayName: "winget",
		CLI:         "winget",
		CheckArgs: func(identifier string) []string {
			return []string{"show", "--id", identifier, "--exact", "--disable-interactivity", "--source", "winget"}
		},
		SearchArgs: func(query string) []string {
			return []string{"search", query, "--source", "winget", "--disable-interactivity", "--accept-source-agreements"}
		},
		NotFoundMarkers: []string{
			"no package found matching input criteria",
			"no packages found matching input criteria",
			"no package found matching the input criteria",
			"no application found matching input criteria",
			"no app found matching input criteria",
		},
		OKMessage: "winget show located the package.",
		InstallCommand: func(identifier string) string {
			return fmt.Sprintf("winget install --id %s --exact --source winget --disable-interactivity", identifier)
		},
	}
}

func chocoDefinition() Definition {
	return Definition{
		Name:        domain.ManagerChoco,
		DisplayName: "Chocolatey",
		CLI:         "choco",
		CheckArgs: func(identifier string) []string {
			return []string{"search", identifier, "--exact", "--limit-output", "--id-only"}
		},
		SearchArgs: func(query string) []string {
			return []string{"search", query, "--page=0", "--page-size=30", "--order-by-popularity", "--no-color", "--limit-output"}
		},
		NotFoundMarkers: []string{
			"0 packages found",
			"no packages found",
			"not installed. cannot find",
		},
		OKMessage: "Chocolatey search located the package.",
		InstallCommand: func(identifier string) string {
			return fmt.Sprintf("choco install %s -y", identifier)
		},
	}
}

func scoopDefinition() Definition {
	return Definition{
		Name:        domain.ManagerScoop,
		DisplayName: "Scoop",
		CLI:         "scoop",
		CheckArgs: func(identifier string) []string {
			return []string{"search", identifier}
		},
		SearchArgs: func(query string) []string {
			return []string{"search", query}
		},
		NotFoundMarkers: []string{
			"couldn't find manifest",
			"could not find manifest",
			"no matches found",
		},
		RequireMatchLine: true,
		OKMessage:        "Scoop search located the package.",
		InstallCommand: func(identifier string) string {
			return fmt.Sprintf("scoop install %s", identifier)
		},
	}
}

// InstallCommandFor synthesizes an install command for any manager,
// falling back to "<manager> install <identifier>" for unknown ones.
func (r *Registry) InstallCommandFor(manager, identifier string) string {
	if def, exists := r.Lookup(manager); exists {
		return def.InstallCommand(identifier)
	}

	return fmt.Sprintf("%s install %s", domain.CanonicalManager(manager), identifier)
}
