// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/metrics"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/internal/varfile"
)

// Loader turns suite paths into a suite tree.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*model.Suite, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	ctx       context.Context
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	converter *typeconv.Converter
	suite     *model.Suite
	variables map[string]any
	metrics   *metrics.Metrics

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Invalid suites or variables are returned as errors; a library that fails
// validation is a programmer error and panics.
func NewApp(outW io.Writer, cfg *Config, loader Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	vars, err := loadVariables(ctx, cfg)
	if err != nil {
		return nil, err
	}

	suite, err := loader.Load(ctx, cfg.SuitePaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load suites: %w", err)
	}
	logger.Debug("Suites loaded into the model.", "suite", suite.Name, "tests", suite.TestCount())

	// Create and populate the registry with Go libraries.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg.RegisterAll(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	conv := typeconv.NewConverter()
	if err := reg.ValidateRegistry(ctx, conv); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:      outW,
		ctx:       ctx,
		logger:    logger,
		config:    cfg,
		registry:  reg,
		converter: conv,
		suite:     suite,
		variables: vars,
		metrics:   metrics.New(),
	}, nil
}

// loadVariables merges variable files in order, then command line
// variables.
func loadVariables(ctx context.Context, cfg *Config) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)
	vars := make(map[string]any)
	for _, path := range cfg.VariableFiles {
		fileVars, err := varfile.Load(path)
		if err != nil {
			return nil, err
		}
		for name, v := range fileVars {
			vars[name] = v
		}
		logger.Debug("Variable file loaded.", "path", path, "count", len(fileVars))
	}
	cliVars, err := varfile.ParseAssignments(cfg.Variables)
	if err != nil {
		return nil, err
	}
	for name, v := range cliVars {
		vars[name] = v
	}
	return vars, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Suite returns the loaded suite tree.
func (a *App) Suite() *model.Suite {
	return a.suite
}
