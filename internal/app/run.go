// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"fmt"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/exitcodes"
	"github.com/vk/kwgrid/internal/listener"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/summary"
	"github.com/vk/kwgrid/internal/timeout"
)

// Run executes the loaded suites, prints the summary table and returns the
// run. Cancelling ctx stops the run after the current test.
func (a *App) Run(ctx context.Context) (*result.Run, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.startHealthcheckServer()
	defer func() { _ = a.closeHealthcheckServer() }()

	names := make([]string, 0, len(a.registry.Imports()))
	for _, imp := range a.registry.Imports() {
		names = append(names, imp.Name)
	}
	a.logger.Info("Libraries registered.", "count", len(names), "names", names)

	e := engine.New(engine.Options{
		Libraries: a.registry.Imports(),
		Preload:   a.registry.Preloaded(),
		Variables: a.variables,
		Listeners: []listener.Listener{a.metrics},
		Grace:     a.config.Grace,
		Converter: a.converter,
	})

	run, err := e.Run(ctx, a.suite)
	if err != nil {
		return nil, fmt.Errorf("execution failed: %w", err)
	}
	a.metrics.RecordRun(run)

	f := &summary.Formatter{ShowTests: a.config.ShowTests, Color: a.config.Color}
	fmt.Fprint(a.outW, f.Format(run))

	// Give abandoned units one more grace period to finish before the
	// process exits underneath them.
	grace := a.config.Grace
	if grace <= 0 {
		grace = timeout.DefaultGrace
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	if n := e.Governor().Wait(waitCtx); n > 0 {
		a.logger.Warn("⚠️ Exiting with units still running after their timeout.", "count", n)
	}

	a.logger.Debug("App.Run method finished.")
	return run, nil
}

// ExitCode maps a finished run to the process exit status. A cancelled
// context means the run was interrupted.
func ExitCode(ctx context.Context, run *result.Run) int {
	if ctx.Err() != nil {
		return exitcodes.Interrupted
	}
	return exitcodes.FromFailed(len(run.Failed()))
}
