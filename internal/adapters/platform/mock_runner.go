// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package platform

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// MockProcessRunner implements the ProcessRunner port for testing with
// canned (exit code, output) pairs keyed by the full command line. Safe for
// concurrent use so parallel check runs can share one instance.
type MockProcessRunner struct {
	mu      sync.Mutex
	results map[string]domain.ExecResult
	errors  map[string]error
	calls   []string
}

// NewMockProcessRunner creates a mock process runner.
func NewMockProcessRunner() *MockProcessRunner {
	return &MockProcessRunner{
		results: make(map[string]domain.ExecResult),
		errors:  make(map[string]error),
	}
}

// SetResult registers the canned result for a command line.
func (m *MockProcessRunner) SetResult(command string, exitCode int, output string) {
	m.results[command] = domain.ExecResult{ExitCode: exitCode, Output: output}
}

// SetError registers a launch failure or timeout for a command line.
func (m *MockProcessRunner) SetError(command string, err error) {
	m.errors[command] = err
}

// Calls returns every command line submitted to the runner, in order.
func (m *MockProcessRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

// Run returns the canned result for the command line. Unregistered commands
// behave like a missing executable so tests fail loudly on unexpected calls.
func (m *MockProcessRunner) Run(_ context.Context, _ time.Duration, name string, args ...string) (*domain.ExecResult, error) {
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))

	m.mu.Lock()
	m.calls = append(m.calls, command)
	m.mu.Unlock()

	if err, exists := m.errors[command]; exists {
		return nil, err
	}

	if result, exists := m.results[command]; exists {
		return &result, nil
	}

	return nil, fmt.Errorf("no mock registered for %q: %w", command, domain.ErrExecutableNotFound)
}
