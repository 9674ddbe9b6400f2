// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"errors"
	"fmt"
)

// Static error definitions for err113 compliance.
var (
	// ErrExecutableNotFound indicates a manager CLI could not be resolved.
	ErrExecutableNotFound = errors.New("executable not found")
	// ErrEmptyCommand indicates an empty command sequence was submitted.
	ErrEmptyCommand = errors.New("command sequence cannot be empty")
	// ErrSearchFailed indicates a manager search produced neither results
	// nor a recognized empty marker.
	ErrSearchFailed = errors.New("search returned no parseable output")
	// ErrNoCatalogFiles indicates the catalog glob matched nothing.
	ErrNoCatalogFiles = errors.New("no catalog files matched the provided glob")
	// ErrNoInput indicates a required input file is missing.
	ErrNoInput = errors.New("input file not found")
)

// ExitError carries a specific process exit code for a failure mode.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// NewExitError creates an ExitError with the specified code and message.
func NewExitError(code int, message string, err error) *ExitError {
	return &ExitError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
