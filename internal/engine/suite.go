// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/suggest"
	"github.com/vk/kwgrid/internal/variables"
	"github.com/vk/kwgrid/internal/varscan"
	"go.opentelemetry.io/otel/attribute"
)

// runSuite runs one suite: setup, tests, child suites and teardown.
func (r *runner) runSuite(ctx context.Context, parent *suiteFrame, s *model.Suite, res *result.Result) {
	sf := &suiteFrame{
		suite:     s,
		longname:  model.Longname(parent.longname, s.Name),
		res:       res,
		inherited: parent.inherited,
	}
	ctx, logger := ctxlog.With(ctx, "suite", sf.longname)
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", s.Name))
	defer span.End()
	span.SetAttributes(attribute.String("kwgrid.suite", sf.longname), attribute.String("kwgrid.result_id", res.ID.String()))

	// 1. Scope, variables, keywords.
	res.Doc = s.Doc
	sf.vars = parent.vars.Child(variables.Suite)
	r.suiteVariables(ctx, sf)
	keys := library.Keys{Suite: sf.longname}
	sf.catalog = r.suiteCatalog(ctx, parent.catalog, sf, keys)
	for _, issue := range Precompile(s, sf.catalog) {
		logger.Warn("Invalid test data.", "owner", issue.Owner, "error", issue.Message)
	}

	r.listeners.StartSuite(ctx, s, res)
	logger.Info("▶️ Starting suite.", "tests", len(s.Tests), "suites", len(s.Suites))

	f := &frame{suite: sf, vars: sf.vars, keys: keys}

	// 2. Setup, skipped when an ancestor already failed.
	var setupErr error
	ran := sf.inherited == nil && !r.fatal
	if ran {
		setupErr = r.runFixture(ctx, f, res, result.KindSetup, s.Setup)
		if kwerrors.IsFatal(setupErr) {
			r.fatal = true
		}
	}
	children := sf.inherited
	switch {
	case setupErr == nil:
	case kwerrors.IsSkip(setupErr):
		children = kwerrors.Prefixed("Skipped in parent suite setup:\n", setupErr)
	default:
		children = kwerrors.Prefixed("Parent suite setup failed:\n", setupErr)
	}

	// 3. Tests and child suites.
	for _, t := range s.Tests {
		r.runTest(ctx, sf, children, t)
	}
	for _, child := range s.Suites {
		inner := *sf
		inner.inherited = children
		r.runSuite(ctx, &inner, child, res.Add(result.KindSuite, child.Name))
	}

	// 4. Teardown runs whenever the setup ran.
	var teardownErr error
	if ran {
		teardownErr = r.runFixture(ctx, f.teardown(), res, result.KindTeardown, s.Teardown)
		if kwerrors.IsFatal(teardownErr) {
			r.fatal = true
		}
	}
	if teardownErr != nil {
		failTests(res, teardownErr)
	}
	r.release(ctx, library.ScopeKey(library.ScopeSuite, keys))

	status, message := suiteOutcome(res, setupErr, teardownErr)
	res.Finish(status, message)
	recordSpan(span, outcomeError(status, message))
	r.listeners.EndSuite(ctx, s, res)
	stats := result.StatsOf(res)
	logger.Info("✅ Suite finished.", "status", res.Status, "passed", stats.Passed, "failed", stats.Failed, "skipped", stats.Skipped)
}

// failTests marks the tests below res failed after a suite teardown
// failure. Skipped tests stay skipped.
func failTests(res *result.Result, err error) {
	for _, t := range res.Tests() {
		switch t.Status {
		case result.StatusPass:
			t.Override(result.StatusFail, "Parent suite teardown failed:\n"+err.Error())
		case result.StatusFail:
			t.Override(result.StatusFail, t.Message+"\n\nAlso parent suite teardown failed:\n"+err.Error())
		}
	}
}

func suiteOutcome(res *result.Result, setupErr, teardownErr error) (result.Status, string) {
	var msg []string
	if setupErr != nil {
		msg = append(msg, "Suite setup failed:\n"+setupErr.Error())
	}
	if teardownErr != nil {
		prefix := "Suite teardown failed:\n"
		if setupErr != nil {
			prefix = "\n\nAlso suite teardown failed:\n"
		}
		msg = append(msg, prefix+teardownErr.Error())
	}
	status := res.SuiteStatus()
	if len(res.Tests()) == 0 && (setupErr != nil && !kwerrors.IsSkip(setupErr) || teardownErr != nil) {
		status = result.StatusFail
	}
	return status, strings.Join(msg, "")
}

func outcomeError(status result.Status, message string) error {
	if status != result.StatusFail {
		return nil
	}
	return kwerrors.Failf("%s", message)
}

// suiteVariables applies the suite variable table in order. Invalid entries
// are logged and skipped, and entries naming a global variable given to the
// engine keep the global value.
func (r *runner) suiteVariables(ctx context.Context, sf *suiteFrame) {
	logger := ctxlog.FromContext(ctx)
	builtins := map[string]any{
		"${SUITE_NAME}":          sf.longname,
		"${SUITE_SOURCE}":        sf.suite.Source,
		"${SUITE_DOCUMENTATION}": sf.suite.Doc,
		"&{SUITE_METADATA}":      metadata(sf.suite.Metadata),
	}
	for name, value := range builtins {
		if err := sf.vars.Set(name, value); err != nil {
			logger.Error("Setting built-in variable failed.", "variable", name, "error", err)
		}
	}
	for _, v := range sf.suite.Variables {
		m, ok := varscan.ParseAssign(v.Name, false)
		if !ok {
			logger.Error("Invalid variable name in variable table.", "variable", v.Name)
			continue
		}
		if r.fixed[normalize.Name(m.Base)] {
			logger.Debug("Variable table entry overridden by a global variable.", "variable", v.Name)
			continue
		}
		value, err := variableValue(sf.vars, m.Identifier, v.Values, " ")
		if err == nil {
			err = sf.vars.Set(m.Name(), value)
		}
		if err != nil {
			logger.Error("Setting variable failed.", "variable", v.Name, "error", err)
		}
	}
}

func metadata(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// suiteCatalog imports the suite's libraries and registers its user
// keywords on top of the parent catalog.
func (r *runner) suiteCatalog(ctx context.Context, parent *catalog.Catalog, sf *suiteFrame, keys library.Keys) *catalog.Catalog {
	logger := ctxlog.FromContext(ctx)
	cat := parent.Child()
	for _, imp := range sf.suite.Libraries {
		if err := r.importLibrary(ctx, cat, sf.vars, imp.Name, imp.Alias, keys); err != nil {
			logger.Error("❌ Importing library failed.", "library", imp.Name, "error", err)
		}
	}
	for _, kw := range sf.suite.Keywords {
		owner := kw.Owner
		if owner == "" {
			owner = sf.suite.Name
		}
		if _, err := cat.AddUser(owner, kw); err != nil {
			logger.Error("❌ Registering user keyword failed.", "keyword", kw.Name, "error", err)
		}
	}
	return cat
}

func (r *runner) importLibrary(ctx context.Context, cat *catalog.Catalog, vars *variables.Store, name, alias string, keys library.Keys) error {
	name, err := vars.ReplaceText(name)
	if err != nil {
		return err
	}
	imp, ok := r.instances.Import(name)
	if !ok {
		return fmt.Errorf("Importing library '%s' failed: library not found.%s", name, suggest.Format(suggest.Closest(name, r.instances.Names())))
	}
	lib, err := r.instances.Get(ctx, imp.Name, keys)
	if err != nil {
		return err
	}
	return cat.AddLibrary(imp.Name, alias, lib)
}
