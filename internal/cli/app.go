// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

// Package cli provides the pkgaudit command-line interface.
package cli

import (
	"context"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/pkgaudit/pkgaudit/internal/config"
	"github.com/pkgaudit/pkgaudit/internal/console"
	"github.com/pkgaudit/pkgaudit/internal/domain"
)

// Exit codes follow standard Unix conventions for better scripting support.
// Range 0-125 are safe to use (126+ have special meaning in shells).
const (
	ExitSuccess      = 0  // All checked entries resolved
	ExitGeneralError = 1  // Failing entries, missing catalog, or runtime failure
	ExitUsageError   = 2  // Invalid command line usage
	ExitConfigError  = 3  // Settings file error
	ExitSystemError  = 12 // Process lock or filesystem failure
)

// Version is stamped at build time via -ldflags.
var Version = "dev" //nolint:gochecknoglobals

// CLI wires the audit commands to the shared flags and settings.
type CLI struct {
	app *cli.Command

	verbose    bool
	quiet      bool
	configPath string

	cfg config.Config
}

// NewCLI creates the pkgaudit command tree.
func NewCLI() *CLI {
	app := &CLI{cfg: config.Default()}

	app.app = &cli.Command{
		Name:    "pkgaudit",
		Usage:   "Audit package catalogs against winget, Chocolatey and Scoop",
		Version: Version,
		Suggest: true,
		Description: `Verifies that every catalog entry still resolves in its package
manager's repository, and proposes corrected identifiers for the ones
that don't.

ESSENTIAL COMMANDS:
  check                     Verify every catalog entry against its manager CLI
  suggest                   Search managers for replacements for failing entries
  dupes                     Report catalog ids declared more than once
  trim                      Drop resolved records from a fixes file

QUICK START:
  pkgaudit check --format json > check.json
  pkgaudit suggest --input check.json
  pkgaudit trim 5`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "show progress messages on stderr",
				Aliases:     []string{"v"},
				Destination: &app.verbose,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Usage:       "suppress non-essential output",
				Aliases:     []string{"q"},
				Destination: &app.quiet,
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to a pkgaudit.toml settings file",
				Destination: &app.configPath,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return app.initConfig(ctx, cmd)
		},
		Commands: []*cli.Command{
			app.createCheckCommand(),
			app.createSuggestCommand(),
			app.createDupesCommand(),
			app.createTrimCommand(),
		},
	}

	return app
}

// App provides the composed command tree for the entry point.
func App() *cli.Command {
	return NewCLI().app
}

// Run executes the CLI application.
func (app *CLI) Run(ctx context.Context, args []string) error {
	return app.app.Run(ctx, args)
}

// initConfig configures the shared output state. Settings load later, per
// command, once the --root flag is known (see loadSettings).
func (app *CLI) initConfig(ctx context.Context, _ *cli.Command) (context.Context, error) {
	console.DefaultOutput.SetMode(app.verbose, app.quiet)

	return ctx, nil
}

// loadSettings resolves and loads the settings file for one command run. An
// explicitly named file must exist; the discovered one (next to --root, then
// the XDG location) may not.
func (app *CLI) loadSettings(cmd *cli.Command) error {
	var err error

	if app.configPath != "" {
		app.cfg, err = config.LoadExplicit(app.configPath)
	} else {
		app.cfg, err = config.Load(config.Discover("", app.rootFor(cmd)))
	}

	if err != nil {
		return domain.NewExitError(ExitConfigError, "invalid settings", err)
	}

	return nil
}

// timeoutFor converts a --timeout seconds value, falling back to the
// configured default.
func (app *CLI) timeoutFor(seconds int) time.Duration {
	if seconds <= 0 {
		seconds = app.cfg.TimeoutSeconds
	}

	return time.Duration(seconds) * time.Second
}
