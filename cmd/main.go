// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package main provides the CLI entry point for pkgaudit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/pkgaudit/pkgaudit/internal/cli"
	"github.com/pkgaudit/pkgaudit/internal/domain"
)

func main() {
	os.Exit(run())
}

func run() int {
	// One instance at a time: concurrent runs would race on the manager
	// CLIs' own locks and on the fixes file.
	lockPath := filepath.Join(os.TempDir(), "pkgaudit.lock")
	lock := flock.New(lockPath)

	locked, err := lock.TryLock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to acquire process lock: %v\n", err)

		return cli.ExitSystemError
	}

	if !locked {
		fmt.Fprintf(os.Stderr, "Another pkgaudit instance is already running\n")

		return cli.ExitGeneralError
	}

	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to release process lock: %v\n", unlockErr)
		}
	}()

	app := cli.App()

	ctx := context.Background()
	if err := app.Run(ctx, os.Args); err != nil {
		exitErr := &domain.ExitError{}
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "%s\n", exitErr.Error())

			return exitErr.Code
		}

		fmt.Fprintf(os.Stderr, "Unexpected error: %v\n", err)

		return cli.ExitGeneralError
	}

	return cli.ExitSuccess
}
