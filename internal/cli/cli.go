// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	"io"
	"log/slog"

	urfave "github.com/urfave/cli/v2"
	"github.com/vk/kwgrid/internal/app"
	"github.com/vk/kwgrid/internal/exitcodes"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const description = `kwgrid runs keyword-driven test suites written in HCL.

Exit status is the number of failed tests (capped at 250), 251 after help,
252 for invalid data or usage, 253 when interrupted and 255 for internal
errors.`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating that help was printed and nothing should run, or an
// ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg *app.Config
	var cfgErr error
	cmd := &urfave.App{
		Name:            "kwgrid",
		Usage:           "A keyword-driven test execution engine.",
		UsageText:       "kwgrid [options] SUITE_PATH [SUITE_PATH...]",
		Description:     description,
		Flags:           Flags(),
		Writer:          output,
		ErrWriter:       output,
		HideHelpCommand: true,
		// Errors are returned to the caller, which owns the exit code.
		ExitErrHandler: func(*urfave.Context, error) {},
		Action: func(c *urfave.Context) error {
			if c.NArg() == 0 {
				slog.Debug("No suite path provided, printing usage and exiting.")
				return urfave.ShowAppHelp(c)
			}
			cfg, cfgErr = app.NewConfig(app.Config{
				SuitePaths:      c.Args().Slice(),
				VariableFiles:   c.StringSlice(VariableFileFlag),
				Variables:       c.StringSlice(VariableFlag),
				LogFormat:       c.String(LogFormatFlag),
				LogLevel:        c.String(LogLevelFlag),
				HealthcheckPort: c.Int(HealthcheckPortFlag),
				Grace:           c.Duration(TimeoutGraceFlag),
				ShowTests:       c.Bool(ShowTestsFlag),
				Color:           c.Bool(ColorFlag),
			})
			return nil
		},
	}

	if err := cmd.Run(append([]string{"kwgrid"}, args...)); err != nil {
		return nil, false, &ExitError{Code: exitcodes.InvalidData, Message: err.Error()}
	}
	if cfgErr != nil {
		return nil, false, &ExitError{Code: exitcodes.InvalidData, Message: cfgErr.Error()}
	}
	if cfg == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
