// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package extract derives manager-native identifiers from catalog install
// commands. Extraction is pure: the same command and manager always yield
// the same identifier.
package extract

import (
	"regexp"
	"strings"

	"github.com/google/shlex"
	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// wingetIDFlag matches an explicit --id flag, the preferred identifier
// source for winget commands regardless of token order.
var wingetIDFlag = regexp.MustCompile(`(?i)--id(?:=|\s+)([\w.\-]+)`)

// Verb sets accepted between the manager invocation token and the
// positional identifier.
var (
	wingetVerbs = map[string]bool{"install": true, "upgrade": true, "show": true, "display": true, "list": true}
	chocoVerbs  = map[string]bool{"install": true, "upgrade": true, "info": true, "search": true, "uninstall": true}
	scoopVerbs  = map[string]bool{"install": true, "update": true, "upgrade": true, "info": true, "search": true}
)

// ManagerIdentifier extracts the manager-native identifier from an entry's
// install command, or "" when the command does not match the manager's
// expected shape.
func ManagerIdentifier(entry domain.CatalogEntry) string {
	switch domain.CanonicalManager(entry.Manager) {
	case domain.ManagerWinget:
		return WingetIdentifier(entry.Command)
	case domain.ManagerChoco:
		return ChocoIdentifier(entry.Command)
	case domain.ManagerScoop:
		return ScoopIdentifier(entry.Command)
	default:
		return ""
	}
}

// WingetIdentifier extracts the package id from a winget command, preferring
// an explicit --id flag over positional parsing.
func WingetIdentifier(command string) string {
	if command == "" {
		return ""
	}

	if match := wingetIDFlag.FindStringSubmatch(command); match != nil {
		return match[1]
	}

	return positionalIdentifier(command, "winget", wingetVerbs)
}

// ChocoIdentifier extracts the package id from a choco command.
func ChocoIdentifier(command string) string {
	return positionalIdentifier(command, "choco", chocoVerbs)
}

// ScoopIdentifier extracts the app name from a scoop command.
func ScoopIdentifier(command string) string {
	return positionalIdentifier(command, "scoop", scoopVerbs)
}

// positionalIdentifier finds the manager invocation token, requires one of
// the accepted verbs after it, and returns the first following token that is
// not a flag, with surrounding quotes stripped.
func positionalIdentifier(command, tool string, verbs map[string]bool) string {
	if command == "" {
		return ""
	}

	tokens := SplitCommand(command)
	for idx, token := range tokens {
		if !strings.EqualFold(token, tool) {
			continue
		}

		verbIndex := idx + 1
		if verbIndex >= len(tokens) {
			return ""
		}

		if !verbs[strings.ToLower(tokens[verbIndex])] {
			continue
		}

		for cursor := verbIndex + 1; cursor < len(tokens); cursor++ {
			candidate := tokens[cursor]
			if candidate == "" || strings.HasPrefix(candidate, "-") {
				continue
			}

			return strings.Trim(candidate, `"'`)
		}
	}

	return ""
}

// SplitCommand tokenizes a command string honoring quoted substrings,
// falling back to naive whitespace splitting on malformed input.
func SplitCommand(command string) []string {
	if command == "" {
		return nil
	}

	tokens, err := shlex.Split(command)
	if err != nil {
		return strings.Fields(command)
	}

	return tokens
}
