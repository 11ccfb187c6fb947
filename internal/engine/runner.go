// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"errors"

	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/variables"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxDepth bounds user keyword nesting.
const maxDepth = 100

// Reserved tags changing how tests and keywords run.
const (
	tagContinue          = "robot:continue-on-failure"
	tagRecursiveContinue = "robot:recursive-continue-on-failure"
	tagStop              = "robot:stop-on-failure"
	tagRecursiveStop     = "robot:recursive-stop-on-failure"
	tagSkip              = "robot:skip"
	tagSkipOnFailure     = "robot:skip-on-failure"
)

// runner holds the state of one Engine.Run call.
type runner struct {
	*Engine
	stop      context.Context
	instances *library.Instances
	run       *result.Run
	fatal     bool
	// fixed holds the normalized base names of Options.Variables.
	fixed     map[string]bool
	abandoned abandonedSet
}

// suiteFrame is the state shared by everything running in one suite.
type suiteFrame struct {
	suite    *model.Suite
	longname string
	vars     *variables.Store
	catalog  *catalog.Catalog
	res      *result.Result
	// inherited fails or skips every test before it starts, e.g. after a
	// failed parent suite setup.
	inherited error
}

type continueMode int

const (
	modeStop continueMode = iota
	modeContinue
	modeRecursiveContinue
	modeRecursiveStop
)

// frame is the execution context of one body. Frames are copied, never
// shared, when entering keywords, loops and branches.
type frame struct {
	suite   *suiteFrame
	vars    *variables.Store
	keys    library.Keys
	mode    continueMode
	depth   int
	loops   int
	keyword bool
	finally bool
}

func (f *frame) with(fn func(*frame)) *frame {
	c := *f
	fn(&c)
	return &c
}

func (f *frame) arena() *model.Arena { return f.suite.suite.Arena }

// teardown returns the frame teardowns run in: every failure continues.
func (f *frame) teardown() *frame {
	return f.with(func(c *frame) {
		c.mode = modeRecursiveContinue
		c.finally = false
	})
}

// continues reports whether the body goes on after err.
func (f *frame) continues(err error) bool {
	if kwerrors.IsContinuable(err) {
		return true
	}
	if f.mode != modeContinue && f.mode != modeRecursiveContinue {
		return false
	}
	return kwerrors.Classify(err) == kwerrors.KindFailure
}

// modeFor returns the continue mode of a body tagged with tags, entered
// from a body running in mode.
func modeFor(tags []string, mode continueMode) continueMode {
	switch {
	case tagged(tags, tagRecursiveStop), mode == modeRecursiveStop:
		return modeRecursiveStop
	case tagged(tags, tagStop):
		return modeStop
	case tagged(tags, tagRecursiveContinue), mode == modeRecursiveContinue:
		return modeRecursiveContinue
	case tagged(tags, tagContinue):
		return modeContinue
	}
	return modeStop
}

func tagged(tags []string, tag string) bool {
	want := normalize.Name(tag)
	for _, t := range tags {
		if normalize.Name(t) == want {
			return true
		}
	}
	return false
}

// controlSignal carries RETURN, BREAK and CONTINUE up to the construct that
// consumes it. It is never reported as a failure.
type controlSignal struct {
	kind  model.Kind
	value any
}

func (s *controlSignal) Error() string {
	return string(s.kind) + " signal"
}

func asSignal(err error) (*controlSignal, bool) {
	var sig *controlSignal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}

// syntaxError is invalid test data found at execution time. TRY/EXCEPT
// never catches it.
type syntaxError struct {
	msg string
}

func (e *syntaxError) Error() string         { return e.msg }
func (e *syntaxError) DefinitionError() bool { return true }

// catchable reports whether EXCEPT branches may handle err.
func catchable(err error) bool {
	var syn *syntaxError
	if errors.As(err, &syn) {
		return false
	}
	switch kwerrors.Classify(err) {
	case kwerrors.KindFatal, kwerrors.KindSkip, kwerrors.KindTimeout:
		return false
	}
	return true
}

// statusOf maps an outcome to a result status and message.
func statusOf(err error) (result.Status, string) {
	if _, ok := asSignal(err); ok || err == nil {
		return result.StatusPass, ""
	}
	if kwerrors.IsSkip(err) {
		return result.StatusSkip, err.Error()
	}
	return result.StatusFail, err.Error()
}

func finish(res *result.Result, err error) {
	res.Finish(statusOf(err))
}

func recordSpan(span trace.Span, err error) {
	if _, ok := asSignal(err); ok || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// enter creates the result of one item and calls the start hooks. The item
// must be read from the arena again afterwards since hooks may replace its
// body.
func (r *runner) enter(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, kind result.Kind, name string) *result.Result {
	res := parent.Add(kind, name)
	r.listeners.StartItem(ctx, f.arena(), id, res)
	return res
}

func (r *runner) leave(ctx context.Context, f *frame, id model.ItemID, res *result.Result, err error) {
	finish(res, err)
	r.listeners.EndItem(ctx, f.arena(), id, res)
}

// step runs fn between enter and leave.
func (r *runner) step(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, kind result.Kind, name string,
	fn func(ctx context.Context, res *result.Result) error,
) error {
	res := r.enter(ctx, f, parent, id, kind, name)
	err := fn(ctx, res)
	r.leave(ctx, f, id, res, err)
	return err
}

// notRun records items that were never reached.
func (r *runner) notRun(f *frame, parent *result.Result, ids []model.ItemID) {
	for _, id := range ids {
		kind, name := describe(f.arena().Get(id))
		parent.Add(kind, name).Finish(result.StatusNotRun, "")
	}
}

func describe(item model.Item) (result.Kind, string) {
	switch it := item.(type) {
	case *model.KeywordCall:
		return result.KindKeyword, it.Name
	case *model.ForLoop:
		return result.KindFor, forName(it)
	case *model.WhileLoop:
		return result.KindWhile, it.Condition
	case *model.IfChain:
		return result.KindIf, ""
	case *model.IfBranch:
		return result.KindBranch, branchName(string(it.Type), it.Condition)
	case *model.TryChain:
		return result.KindTry, ""
	case *model.TryBranch:
		return result.KindBranch, branchName(string(it.Type), it.Patterns...)
	case *model.VarAssign:
		return result.KindVar, it.Name
	case *model.Return:
		return result.KindReturn, ""
	case *model.Break:
		return result.KindBreak, ""
	case *model.Continue:
		return result.KindContinue, ""
	}
	return result.KindError, ""
}
