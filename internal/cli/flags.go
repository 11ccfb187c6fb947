// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package cli

import (
	urfave "github.com/urfave/cli/v2"
)

const EnvVarPrefix = "KWGRID"

// Flag names.
const (
	VariableFileFlag    = "variablefile"
	VariableFlag        = "variable"
	LogFormatFlag       = "log-format"
	LogLevelFlag        = "log-level"
	HealthcheckPortFlag = "healthcheck-port"
	TimeoutGraceFlag    = "timeout-grace"
	ShowTestsFlag       = "show-tests"
	ColorFlag           = "color"
)

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

// Flags returns fresh flag definitions. urfave flags record parse state,
// so each parse gets its own set.
func Flags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringSliceFlag{
			Name:    VariableFileFlag,
			Aliases: []string{"V"},
			EnvVars: prefixEnvVar("VARIABLE_FILES"),
			Usage:   "YAML file with global variables. Can be given several times; later files win",
		},
		&urfave.StringSliceFlag{
			Name:    VariableFlag,
			Aliases: []string{"v"},
			EnvVars: prefixEnvVar("VARIABLES"),
			Usage:   "Global scalar variable as 'name:value'. Overrides variable files",
		},
		&urfave.StringFlag{
			Name:    LogFormatFlag,
			Value:   "text",
			EnvVars: prefixEnvVar("LOG_FORMAT"),
			Usage:   "Log output format. Options: 'text' or 'json'",
		},
		&urfave.StringFlag{
			Name:    LogLevelFlag,
			Value:   "info",
			EnvVars: prefixEnvVar("LOG_LEVEL"),
			Usage:   "Set the logging level. Options: 'debug', 'info', 'warn', 'error'",
		},
		&urfave.IntFlag{
			Name:    HealthcheckPortFlag,
			Value:   0,
			EnvVars: prefixEnvVar("HEALTHCHECK_PORT"),
			Usage:   "Port for the HTTP health check and metrics server. 0 is disabled",
		},
		&urfave.DurationFlag{
			Name:    TimeoutGraceFlag,
			Value:   0,
			EnvVars: prefixEnvVar("TIMEOUT_GRACE"),
			Usage:   "How long a timed out keyword may keep running before it is reported as abandoned (e.g. '500ms')",
		},
		&urfave.BoolFlag{
			Name:    ShowTestsFlag,
			Value:   true,
			EnvVars: prefixEnvVar("SHOW_TESTS"),
			Usage:   "List every test in the summary table",
		},
		&urfave.BoolFlag{
			Name:    ColorFlag,
			Value:   false,
			EnvVars: prefixEnvVar("COLOR"),
			Usage:   "Color the summary table by outcome",
		},
	}
}
