// SPDX-FileCopyrightText: 2025 The Pkgaudit Authors
// SPDX-License-Identifier: EUPL-1.2

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	cli "github.com/urfave/cli/v3"

	"github.com/pkgaudit/pkgaudit/internal/adapters/platform"
	"github.com/pkgaudit/pkgaudit/internal/application"
	"github.com/pkgaudit/pkgaudit/internal/catalog"
	"github.com/pkgaudit/pkgaudit/internal/console"
	"github.com/pkgaudit/pkgaudit/internal/domain"
	"github.com/pkgaudit/pkgaudit/internal/managers"
	"github.com/pkgaudit/pkgaudit/internal/report"
)

const (
	formatTable = "table"
	formatJSON  = "json"

	defaultTrimCount = 20
)

// createCheckCommand creates the catalog verification command.
func (app *CLI) createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Verify every catalog entry against its manager CLI",
		Description: `Extracts the manager-native identifier from each catalog entry's
install command, asks the manager CLI whether it still resolves, and
reports one of ok, not-found, error or skipped per entry.

Examples:
  pkgaudit check                              # Human-readable table
  pkgaudit check --format json > check.json   # Wire format for suggest
  pkgaudit check --manager winget --strict    # Winget only, skips fail too`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "catalog repository root",
			},
			&cli.StringFlag{
				Name:  "glob",
				Usage: "catalog file glob under <root>/data/catalog/packages",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format: table or json",
				Value: formatTable,
			},
			&cli.StringSliceFlag{
				Name:    "manager",
				Aliases: []string{"m"},
				Usage:   "only check entries of this manager (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "package-id",
				Aliases: []string{"p"},
				Usage:   "only check this catalog id (repeatable)",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "per-invocation timeout in seconds",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "treat skipped entries as failures",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "number of parallel manager invocations",
			},
		},
		Action: app.runCheck,
	}
}

func (app *CLI) runCheck(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if format != formatTable && format != formatJSON {
		return domain.NewExitError(ExitUsageError, "invalid --format value: must be table or json", nil)
	}

	if err := app.loadSettings(cmd); err != nil {
		return err
	}

	opts := application.CheckOptions{
		Root:        app.rootFor(cmd),
		Glob:        app.globFor(cmd),
		Managers:    app.managersFor(cmd),
		PackageIDs:  cmd.StringSlice("package-id"),
		Timeout:     app.timeoutFor(cmd.Int("timeout")),
		Concurrency: app.concurrencyFor(cmd),
	}

	if format == formatTable && !app.quiet {
		opts.OnResult = func(index, total int, outcome domain.CheckOutcome) {
			fmt.Fprintf(os.Stderr, "[%d/%d] Checking %s (%s)... %s\n",
				index+1, total, outcome.Entry.PackageID, outcome.Entry.Manager, outcome.Status)
		}
	}

	service := application.NewCheckService(managers.Defaults(), platform.NewProcessRunner(app.verbose))

	outcomes, err := service.Run(ctx, opts)
	if err != nil {
		return domain.NewExitError(ExitGeneralError, "catalog audit failed", err)
	}

	if format == formatJSON {
		if err := report.WriteCheckJSON(os.Stdout, outcomes); err != nil {
			return domain.NewExitError(ExitGeneralError, "failed to write report", err)
		}
	} else {
		report.NewCheckTable(os.Stdout, console.DefaultOutput.ColorEnabled()).Render(outcomes)
	}

	if application.HasFailures(outcomes, cmd.Bool("strict")) {
		return domain.NewExitError(ExitGeneralError, "catalog audit found failing entries", nil)
	}

	return nil
}

// createSuggestCommand creates the replacement-search command.
func (app *CLI) createSuggestCommand() *cli.Command {
	return &cli.Command{
		Name:  "suggest",
		Usage: "Search managers for replacements for failing entries",
		Description: `Reads a check JSON report, searches each manager's catalog for the
not-found and error entries, and writes ranked replacement commands to a
fixes file.

Examples:
  pkgaudit suggest --input check.json
  pkgaudit suggest --input check.json --search-manager winget
  pkgaudit suggest --input check.json --max-suggestions 5 --no-stdout`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "check JSON report to read (default <root>/check.json)",
			},
			&cli.StringFlag{
				Name:  "root",
				Usage: "catalog repository root",
			},
			&cli.StringSliceFlag{
				Name:    "manager",
				Aliases: []string{"m"},
				Usage:   "only suggest for failing entries of this manager (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "package-id",
				Aliases: []string{"p"},
				Usage:   "only suggest for this catalog id (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "search-manager",
				Usage: "restrict which manager catalogs are searched (repeatable)",
			},
			&cli.IntFlag{
				Name:  "max-suggestions",
				Usage: "maximum suggestions kept per entry",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "per-search timeout in seconds",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "fixes file to write (default <root>/fixes.json)",
			},
			&cli.BoolFlag{
				Name:  "no-stdout",
				Usage: "skip the human-readable rendering",
			},
		},
		Action: app.runSuggest,
	}
}

func (app *CLI) runSuggest(ctx context.Context, cmd *cli.Command) error {
	if err := app.loadSettings(cmd); err != nil {
		return err
	}

	root := app.rootFor(cmd)

	input := cmd.String("input")
	if input == "" {
		input = filepath.Join(root, "check.json")
	}

	output := cmd.String("output")
	if output == "" {
		output = filepath.Join(root, "fixes.json")
	}

	maxSuggestions := cmd.Int("max-suggestions")
	if maxSuggestions <= 0 {
		maxSuggestions = app.cfg.MaxSuggestions
	}

	opts := application.SuggestOptions{
		Managers:       cmd.StringSlice("manager"),
		PackageIDs:     cmd.StringSlice("package-id"),
		SearchManagers: cmd.StringSlice("search-manager"),
		MaxSuggestions: maxSuggestions,
		Timeout:        app.timeoutFor(cmd.Int("timeout")),
	}

	records, err := report.ReadCheckRecords(input)
	if err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to read check report", err)
	}

	service := application.NewSuggestService(managers.Defaults(), platform.NewProcessRunner(app.verbose))

	failing := service.FilterFailing(records, opts)
	if len(failing) == 0 {
		console.DefaultOutput.Successf("No failing entries in %s.", input)

		return nil
	}

	results := make([]report.SuggestionRecord, 0, len(failing))

	for idx, record := range failing {
		if !app.quiet {
			fmt.Fprintf(os.Stderr, "[%d/%d] Searching replacements for %s (%s)...\n",
				idx+1, len(failing), record.PackageID, record.Manager)
		}

		results = append(results, service.SuggestForRecord(ctx, record, opts))
	}

	if err := report.WriteSuggestions(output, results); err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to write fixes", err)
	}

	if !cmd.Bool("no-stdout") {
		for _, result := range results {
			report.RenderSuggestions(os.Stdout, result)
		}
	}

	console.DefaultOutput.Successf("Wrote %d suggestion records to %s.", len(results), output)

	return nil
}

// createDupesCommand creates the duplicate-id scan command.
func (app *CLI) createDupesCommand() *cli.Command {
	return &cli.Command{
		Name:  "dupes",
		Usage: "Report catalog ids declared more than once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "catalog repository root",
			},
			&cli.StringFlag{
				Name:  "glob",
				Usage: "catalog file glob under <root>/data/catalog/packages",
			},
		},
		Action: app.runDupes,
	}
}

func (app *CLI) runDupes(_ context.Context, cmd *cli.Command) error {
	if err := app.loadSettings(cmd); err != nil {
		return err
	}

	root := app.rootFor(cmd)

	files, err := catalog.Files(root, app.globFor(cmd))
	if err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to list catalog files", err)
	}

	if len(files) == 0 {
		return domain.NewExitError(ExitGeneralError, "no catalog files found", domain.ErrNoCatalogFiles)
	}

	entries, err := catalog.Load(root, files)
	if err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to load catalog", err)
	}

	duplicates := catalog.Duplicates(entries)
	if len(duplicates) == 0 {
		console.DefaultOutput.Successf("No duplicate ids across %d entries.", len(entries))

		return nil
	}

	for _, duplicate := range duplicates {
		fmt.Printf("%s (%d occurrences):\n", duplicate.PackageID, len(duplicate.Occurrences))

		for _, occurrence := range duplicate.Occurrences {
			fmt.Printf("  %s  %s\n", occurrence.Location(), occurrence.Manager)
		}
	}

	return domain.NewExitError(ExitGeneralError,
		fmt.Sprintf("%d catalog ids are declared more than once", len(duplicates)), nil)
}

// createTrimCommand creates the fixes-file maintenance command.
func (app *CLI) createTrimCommand() *cli.Command {
	return &cli.Command{
		Name:      "trim",
		Usage:     "Drop the leading records from a fixes file",
		ArgsUsage: "[count]",
		Description: `Removes the first COUNT records (default 20) from a fixes file after
they have been applied to the catalog, rewriting the file in place.
Fields this tool does not know about survive the rewrite.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "fixes",
				Usage: "fixes file to trim",
				Value: "fixes.json",
			},
		},
		Action: app.runTrim,
	}
}

func (app *CLI) runTrim(_ context.Context, cmd *cli.Command) error {
	if err := app.loadSettings(cmd); err != nil {
		return err
	}

	count := defaultTrimCount

	if args := cmd.Args().Slice(); len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 {
			return domain.NewExitError(ExitUsageError, "count must be a non-negative integer", err)
		}

		count = parsed
	}

	path := cmd.String("fixes")

	records, err := report.ReadFixes(path)
	if err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to read fixes", err)
	}

	if count > len(records) {
		count = len(records)
	}

	if err := report.WriteFixes(path, records[count:]); err != nil {
		return domain.NewExitError(ExitGeneralError, "failed to rewrite fixes", err)
	}

	console.DefaultOutput.Successf("Removed %d records from %s, %d remaining.", count, path, len(records)-count)

	return nil
}

// rootFor resolves the catalog root from the flag or the settings file.
func (app *CLI) rootFor(cmd *cli.Command) string {
	if root := cmd.String("root"); root != "" {
		return root
	}

	return app.cfg.Root
}

func (app *CLI) globFor(cmd *cli.Command) string {
	if glob := cmd.String("glob"); glob != "" {
		return glob
	}

	return app.cfg.Glob
}

func (app *CLI) managersFor(cmd *cli.Command) []string {
	if selected := cmd.StringSlice("manager"); len(selected) > 0 {
		return selected
	}

	return app.cfg.Managers
}

func (app *CLI) concurrencyFor(cmd *cli.Command) int {
	if concurrency := cmd.Int("concurrency"); concurrency > 0 {
		return concurrency
	}

	return app.cfg.Concurrency
}
