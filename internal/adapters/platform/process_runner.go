// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package platform provides the production process execution adapter.
package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// shimSuffixes are tried, in order, when PATH resolution fails on Windows.
// Package manager entry points are frequently .cmd or .ps1 shims that
// LookPath misses when PATHEXT is trimmed down.
var shimSuffixes = []string{".exe", ".bat", ".cmd", ".ps1"}

// ProcessRunner implements the domain.ProcessRunner port with real OS
// processes. One process is spawned per call; there is no retry here.
type ProcessRunner struct {
	verbose bool
}

// NewProcessRunner creates a process runner.
func NewProcessRunner(verbose bool) *ProcessRunner {
	return &ProcessRunner{verbose: verbose}
}

// Run resolves name, executes it with args within timeout, and returns the
// exit code together with combined output text. Nonzero exits are reported
// through ExecResult; only launch failures and timeouts return an error.
func (r *ProcessRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*domain.ExecResult, error) {
	argv, err := prepareCommand(name, args)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if r.verbose {
		fmt.Fprintf(os.Stderr, "executing: %s\n", strings.Join(argv, " "))
	}

	var combined bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204 -- argv comes from injected manager tables
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("command %q exceeded the %s timeout: %w", name, timeout, context.DeadlineExceeded)
	}

	if runErr != nil {
		exitErr := &exec.ExitError{}
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("failed to start %q: %w", name, domain.ErrExecutableNotFound)
		}
	}

	return &domain.ExecResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Output:   strings.ToValidUTF8(combined.String(), "�"),
	}, nil
}

// prepareCommand resolves the executable for name and returns the full argv
// to run, wrapping PowerShell scripts with an interpreter invocation.
func prepareCommand(name string, args []string) ([]string, error) {
	if name == "" {
		return nil, domain.ErrEmptyCommand
	}

	if resolved, err := exec.LookPath(name); err == nil {
		return append([]string{resolved}, args...), nil
	}

	if runtime.GOOS == "windows" {
		if path, suffix := findShim(name); path != "" {
			if suffix == ".ps1" {
				if shell := findPowerShell(); shell != "" {
					argv := []string{shell, "-NoLogo", "-NoProfile", "-ExecutionPolicy", "Bypass", "-File", path}

					return append(argv, args...), nil
				}
			}

			return append([]string{path}, args...), nil
		}
	}

	return nil, fmt.Errorf("%q is not available on PATH: %w", name, domain.ErrExecutableNotFound)
}

// findShim scans PATH directories for name combined with a known shim
// suffix, returning the first hit and its suffix.
func findShim(name string) (string, string) {
	pathEnv := os.Getenv("PATH")
	if pathEnv == "" {
		return "", ""
	}

	for _, dir := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}

		base := strings.Trim(dir, `"`)
		for _, suffix := range shimSuffixes {
			candidate := filepath.Join(base, name+suffix)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, suffix
			}
		}
	}

	return "", ""
}

// findPowerShell prefers pwsh over the legacy powershell executable.
func findPowerShell() string {
	for _, shell := range []string{"pwsh", "powershell"} {
		if resolved, err := exec.LookPath(shell); err == nil {
			return resolved
		}
	}

	return ""
}
