// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"

	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
)

// runBody runs items in order under parent. Failures the frame continues
// on are collected; any other failure stops the body and the remaining
// items are recorded as NOT RUN. A control signal ends the body and is
// returned unless failures were collected before it. An expired timeout
// stops the body before its next item.
func (r *runner) runBody(ctx context.Context, f *frame, parent *result.Result, ids []model.ItemID) error {
	var failures []error
	for i, id := range ids {
		if ctx.Err() != nil {
			r.notRun(f, parent, ids[i:])
			failures = append(failures, context.Cause(ctx))
			break
		}
		err := r.runItem(ctx, f, parent, id)
		if err == nil {
			continue
		}
		if _, ok := asSignal(err); ok {
			r.notRun(f, parent, ids[i+1:])
			if len(failures) > 0 {
				return kwerrors.Join(failures...)
			}
			return err
		}
		failures = append(failures, err)
		if !f.continues(err) {
			r.notRun(f, parent, ids[i+1:])
			break
		}
	}
	return kwerrors.Join(failures...)
}

func (r *runner) runItem(ctx context.Context, f *frame, parent *result.Result, id model.ItemID) error {
	switch item := f.arena().Get(id).(type) {
	case *model.KeywordCall:
		return r.runCall(ctx, f, parent, id, item, result.KindKeyword)
	case *model.ForLoop:
		return r.runFor(ctx, f, parent, id, item)
	case *model.WhileLoop:
		return r.runWhile(ctx, f, parent, id, item)
	case *model.IfChain:
		return r.runIf(ctx, f, parent, id)
	case *model.TryChain:
		return r.runTry(ctx, f, parent, id)
	case *model.VarAssign:
		return r.runVar(ctx, f, parent, id, item)
	case *model.Return:
		return r.runReturn(ctx, f, parent, id, item)
	case *model.Break:
		return r.runLoopControl(ctx, f, parent, id, model.KindBreak)
	case *model.Continue:
		return r.runLoopControl(ctx, f, parent, id, model.KindContinue)
	case *model.Error:
		return r.step(ctx, f, parent, id, result.KindError, "", func(context.Context, *result.Result) error {
			return &kwerrors.Definition{Message: item.Message}
		})
	default:
		return &syntaxError{msg: fmt.Sprintf("Unexpected %T item in body.", item)}
	}
}
