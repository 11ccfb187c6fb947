// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SuitePaths    []string // .hcl files or directories
	VariableFiles []string // YAML, applied in order
	Variables     []string // "name:value", override variable files

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	// Grace is how long a timed out keyword may keep running before it is
	// reported as abandoned. Zero uses the engine default.
	Grace time.Duration

	// ShowTests lists every test in the summary table.
	ShowTests bool
	Color     bool
}

var logFormats = []string{"text", "json"}

// NewConfig validates cfg and returns a copy with normalized values.
func NewConfig(cfg Config) (*Config, error) {
	var errs []string
	if len(cfg.SuitePaths) == 0 {
		errs = append(errs, "at least one suite path is required")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", cfg.LogFormat))
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := levels[cfg.LogLevel]; !ok {
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Sprintf("invalid healthcheck port %d", cfg.HealthcheckPort))
	}
	if cfg.Grace < 0 {
		errs = append(errs, "timeout grace cannot be negative")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n- %s", strings.Join(errs, "\n- "))
	}
	return &cfg, nil
}
