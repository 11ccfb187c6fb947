// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timeout"
	"github.com/vk/kwgrid/internal/variables"
	"go.opentelemetry.io/otel/attribute"
)

func (r *runner) runTest(ctx context.Context, sf *suiteFrame, inherited error, t *model.Test) {
	res := sf.res.Add(result.KindTest, t.Name)
	longname := model.Longname(sf.longname, t.Name)
	ctx, logger := ctxlog.With(ctx, "test", t.Name, "id", res.ID.String())
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", t.Name))
	defer span.End()
	span.SetAttributes(attribute.String("kwgrid.test", longname), attribute.String("kwgrid.result_id", res.ID.String()))

	res.Tags = mergeTags(sf.suite.TestTags, t.Tags)
	res.Doc = t.Doc
	r.listeners.StartTest(ctx, t, res)
	// The start hook may have changed tags and body.
	res.Tags = mergeTags(sf.suite.TestTags, t.Tags)
	logger.Debug("▶️ Starting test.")

	keys := library.Keys{Suite: sf.longname, Test: longname}
	err := r.testOutcome(ctx, sf, inherited, t, res, keys)
	if err != nil && tagged(res.Tags, tagSkipOnFailure) && !kwerrors.IsSkip(err) && !kwerrors.IsFatal(err) {
		err = &kwerrors.Skip{Message: "Failed test skipped using 'robot:skip-on-failure' tag.\n\nOriginal failure:\n" + err.Error()}
	}
	if kwerrors.IsFatal(err) {
		r.fatal = true
	}
	finish(res, err)
	recordSpan(span, err)

	r.release(ctx, library.ScopeKey(library.ScopeTest, keys))
	r.listeners.EndTest(ctx, t, res)
}

// testOutcome runs setup, body and teardown and returns the combined
// failure.
func (r *runner) testOutcome(ctx context.Context, sf *suiteFrame, inherited error, t *model.Test, res *result.Result, keys library.Keys) error {
	switch {
	case r.stop.Err() != nil:
		return kwerrors.Failf("Test execution stopped due to an interrupt.")
	case r.fatal:
		return kwerrors.Failf("Test execution stopped due to a fatal error.")
	case inherited != nil:
		return inherited
	case tagged(res.Tags, tagSkip):
		return &kwerrors.Skip{Message: "Test skipped using 'robot:skip' tag."}
	case len(t.Body) == 0:
		return &syntaxError{msg: "Test cannot be empty."}
	}

	vars := sf.vars.Child(variables.Test)
	tags := make([]any, len(res.Tags))
	for i, tag := range res.Tags {
		tags[i] = tag
	}
	for name, value := range map[string]any{
		"${TEST_NAME}":          t.Name,
		"@{TEST_TAGS}":          tags,
		"${TEST_DOCUMENTATION}": t.Doc,
	} {
		if err := vars.SetLocal(name, value); err != nil {
			return err
		}
	}
	f := &frame{suite: sf, vars: vars, keys: keys, mode: modeFor(res.Tags, modeStop)}

	setup, teardown := t.Setup, t.Teardown
	if !setup.Valid() {
		setup = sf.suite.TestSetup
	}
	if !teardown.Valid() {
		teardown = sf.suite.TestTeardown
	}
	timeoutText := t.Timeout
	if timeoutText == "" {
		timeoutText = sf.suite.TestTimeout
	}

	limit, err := r.limit(f, timeout.KindTest, t.Name, timeoutText)
	if err == nil {
		err = r.guard(ctx, keys, res, limit, func(ctx context.Context, res *result.Result) error {
			gf := f.with(func(c *frame) { c.vars = f.vars.Child(variables.Local) })
			if err := r.runFixture(ctx, gf.with(func(c *frame) { c.mode = modeStop }), res, result.KindSetup, setup); err != nil {
				if kwerrors.IsSkip(err) {
					return err
				}
				return kwerrors.Prefixed("Setup failed:\n", err)
			}
			return r.runBody(ctx, gf, res, t.Body)
		})
	}
	if teardown.Valid() {
		td := r.runFixture(ctx, f.teardown(), res, result.KindTeardown, teardown)
		err = kwerrors.WithTeardown(err, td)
	}
	return err
}

// mergeTags combines suite level test tags with the test's own, keeping
// the first spelling of duplicates.
func mergeTags(groups ...[]string) []string {
	var out []string
	for _, tags := range groups {
		for _, tag := range tags {
			if !tagged(out, tag) {
				out = append(out, tag)
			}
		}
	}
	return out
}
