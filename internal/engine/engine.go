// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/listener"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timeout"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/internal/variables"
	"github.com/vk/kwgrid/internal/varscan"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Options configure an Engine.
type Options struct {
	// Libraries lists every importable library.
	Libraries []*library.Import
	// Preload names libraries available in every suite without an import,
	// such as BuiltIn.
	Preload []string
	// Variables are global variables keyed by decorated name, e.g.
	// "${HOST}" or "@{USERS}".
	Variables map[string]any
	Listeners []listener.Listener
	// Grace is how long a timed out unit may take to stop before it is
	// reported as abandoned.
	Grace time.Duration
	// Converter defaults to typeconv.NewConverter().
	Converter *typeconv.Converter
}

// Engine runs suites. An Engine runs one suite tree at a time.
type Engine struct {
	conv      *typeconv.Converter
	imports   []*library.Import
	preload   []string
	globals   map[string]any
	listeners listener.Chain
	governor  *timeout.Governor
	tracer    trace.Tracer
}

// New creates an engine.
func New(opts Options) *Engine {
	conv := opts.Converter
	if conv == nil {
		conv = typeconv.NewConverter()
	}
	return &Engine{
		conv:      conv,
		imports:   opts.Libraries,
		preload:   opts.Preload,
		globals:   opts.Variables,
		listeners: listener.Chain(opts.Listeners),
		governor:  timeout.NewGovernor(opts.Grace),
		tracer:    otel.Tracer("kwgrid engine"),
	}
}

// Governor returns the timeout governor, e.g. to list units abandoned
// after their timeout.
func (e *Engine) Governor() *timeout.Governor {
	return e.governor
}

// Run executes the suite tree. Cancelling ctx lets the running test finish
// and fails the remaining ones as interrupted. The error is non-nil only for
// problems outside test data, such as invalid global variables.
func (e *Engine) Run(ctx context.Context, suite *model.Suite) (*result.Run, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, span := e.tracer.Start(ctx, fmt.Sprintf("run %s", suite.Name))
	defer span.End()

	run := result.NewRun(suite.Name)
	span.SetAttributes(attribute.String("kwgrid.run_id", run.ID.String()))
	logger.Info("🚀 Run started.", "run_id", run.ID, "suite", suite.Name, "tests", suite.TestCount())

	globals := variables.New()
	for _, name := range literal.SortedKeys(e.globals) {
		if err := globals.Set(name, e.globals[name]); err != nil {
			return nil, fmt.Errorf("setting global variable '%s' failed: %w", name, err)
		}
	}

	r := &runner{
		Engine:    e,
		stop:      ctx,
		instances: library.NewInstances(e.imports...),
		run:       run,
		fixed:     make(map[string]bool, len(e.globals)),
	}
	for name := range e.globals {
		if m, ok := varscan.ParseAssign(name, false); ok {
			r.fixed[normalize.Name(m.Base)] = true
		}
	}
	// Execution ignores cancellation of ctx; r.stop is checked between
	// tests instead so shared library instances are never left half used.
	exec := context.WithoutCancel(ctx)

	root := catalog.New(e.conv)
	keys := library.Keys{Suite: suite.Name}
	for _, name := range e.preload {
		if err := r.importLibrary(exec, root, globals, name, "", keys); err != nil {
			return nil, err
		}
	}

	r.runSuite(exec, &suiteFrame{vars: globals, catalog: root}, suite, run.Suite)
	run.End = time.Now()

	if global := library.ScopeKey(library.ScopeGlobal, keys); len(r.abandoned.using(global)) > 0 {
		r.release(exec, global)
	}
	if err := r.instances.CloseAll(exec); err != nil {
		logger.Warn("Closing library instances failed.", "error", err)
	}
	if abandoned := e.governor.Abandoned(); len(abandoned) > 0 {
		logger.Warn("⚠️ Some timed out units are still running.", "count", len(abandoned))
	}
	stats := run.Stats()
	logger.Info("🏁 Run finished.", "run_id", run.ID, "total", stats.Total, "passed", stats.Passed,
		"failed", stats.Failed, "skipped", stats.Skipped, "elapsed", run.End.Sub(run.Start))
	return run, nil
}
