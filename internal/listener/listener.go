// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package listener defines hooks called around suites, tests and body
// items. Hooks receive the live model node and its result and may mutate
// either: the engine reads a body only after the start hook returned.
package listener

import (
	"context"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
)

// Listener observes a run.
type Listener interface {
	StartSuite(ctx context.Context, suite *model.Suite, res *result.Result)
	EndSuite(ctx context.Context, suite *model.Suite, res *result.Result)
	StartTest(ctx context.Context, test *model.Test, res *result.Result)
	EndTest(ctx context.Context, test *model.Test, res *result.Result)
	// StartItem gets the arena so it can replace the item's body with
	// Arena.SetBody before it runs. id is model.NoItem for keywords started
	// by other keywords, such as Run Keyword.
	StartItem(ctx context.Context, arena *model.Arena, id model.ItemID, res *result.Result)
	EndItem(ctx context.Context, arena *model.Arena, id model.ItemID, res *result.Result)
}

// Base implements every hook as a no-op. Embed it to override a subset.
type Base struct{}

func (Base) StartSuite(context.Context, *model.Suite, *result.Result)              {}
func (Base) EndSuite(context.Context, *model.Suite, *result.Result)                {}
func (Base) StartTest(context.Context, *model.Test, *result.Result)                {}
func (Base) EndTest(context.Context, *model.Test, *result.Result)                  {}
func (Base) StartItem(context.Context, *model.Arena, model.ItemID, *result.Result) {}
func (Base) EndItem(context.Context, *model.Arena, model.ItemID, *result.Result)   {}

// Chain calls listeners in registration order.
type Chain []Listener

var _ Listener = Chain(nil)

func (c Chain) StartSuite(ctx context.Context, s *model.Suite, r *result.Result) {
	for _, l := range c {
		l.StartSuite(ctx, s, r)
	}
}

func (c Chain) EndSuite(ctx context.Context, s *model.Suite, r *result.Result) {
	for _, l := range c {
		l.EndSuite(ctx, s, r)
	}
}

func (c Chain) StartTest(ctx context.Context, t *model.Test, r *result.Result) {
	for _, l := range c {
		l.StartTest(ctx, t, r)
	}
}

func (c Chain) EndTest(ctx context.Context, t *model.Test, r *result.Result) {
	for _, l := range c {
		l.EndTest(ctx, t, r)
	}
}

func (c Chain) StartItem(ctx context.Context, a *model.Arena, id model.ItemID, r *result.Result) {
	for _, l := range c {
		l.StartItem(ctx, a, id, r)
	}
}

func (c Chain) EndItem(ctx context.Context, a *model.Arena, id model.ItemID, r *result.Result) {
	for _, l := range c {
		l.EndItem(ctx, a, id, r)
	}
}

// Logging writes suite and test boundaries at info level and body items at
// debug level to the logger in the context.
type Logging struct {
	Base
}

func (Logging) StartSuite(ctx context.Context, s *model.Suite, r *result.Result) {
	ctxlog.FromContext(ctx).Info("▶️ Suite started.", "suite", s.Name, "id", r.ID.String(), "tests", s.TestCount())
}

func (Logging) EndSuite(ctx context.Context, s *model.Suite, r *result.Result) {
	stats := result.StatsOf(r)
	ctxlog.FromContext(ctx).Info("⏹️ Suite finished.", "suite", s.Name, "status", r.Status,
		"passed", stats.Passed, "failed", stats.Failed, "skipped", stats.Skipped, "elapsed", r.Elapsed())
}

func (Logging) StartTest(ctx context.Context, t *model.Test, r *result.Result) {
	ctxlog.FromContext(ctx).Info("Test started.", "test", t.Name, "id", r.ID.String())
}

func (Logging) EndTest(ctx context.Context, t *model.Test, r *result.Result) {
	logger := ctxlog.FromContext(ctx)
	switch r.Status {
	case result.StatusFail:
		logger.Info("❌ Test failed.", "test", t.Name, "message", r.Message, "elapsed", r.Elapsed())
	case result.StatusSkip:
		logger.Info("Test skipped.", "test", t.Name, "message", r.Message)
	default:
		logger.Info("✅ Test passed.", "test", t.Name, "elapsed", r.Elapsed())
	}
}

func (Logging) StartItem(ctx context.Context, _ *model.Arena, _ model.ItemID, r *result.Result) {
	ctxlog.FromContext(ctx).Debug("Item started.", "kind", r.Kind, "name", r.FullName(), "id", r.ID.String())
}

func (Logging) EndItem(ctx context.Context, _ *model.Arena, _ model.ItemID, r *result.Result) {
	ctxlog.FromContext(ctx).Debug("Item finished.", "kind", r.Kind, "name", r.FullName(), "status", r.Status)
}
