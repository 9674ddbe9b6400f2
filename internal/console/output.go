// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package console provides progress and diagnostic output helpers shared by
// the CLI commands. Reports go to stdout; everything here goes to stderr.
package console

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// OutputState holds global output configuration.
type OutputState struct {
	Verbose bool
	Quiet   bool
}

// DefaultOutput provides output formatting utilities.
var DefaultOutput = &OutputState{} //nolint:gochecknoglobals

// SetMode configures output mode.
func (o *OutputState) SetMode(verbose, quiet bool) {
	o.Verbose = verbose
	o.Quiet = quiet
}

// IsTTY checks if output is going to a terminal (not piped/redirected).
func (o *OutputState) IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ColorEnabled reports whether stdout should carry ANSI color, honoring
// no-color.org conventions.
func (o *OutputState) ColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}

	return o.IsTTY(os.Stdout.Fd())
}

// Progressf writes progress messages to stderr (only if verbose).
func (o *OutputState) Progressf(format string, args ...any) {
	if o.Verbose && !o.Quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// Successf writes success messages to stderr.
func (o *OutputState) Successf(format string, args ...any) {
	if !o.Quiet {
		fmt.Fprintf(os.Stderr, "✓ "+format+"\n", args...)
	}
}

// Warningf writes warning messages to stderr (always visible).
func (o *OutputState) Warningf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// Errorf writes error messages to stderr (always visible).
func (o *OutputState) Errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}
