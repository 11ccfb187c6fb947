// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"strings"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timeout"
	"github.com/vk/kwgrid/internal/timestr"
	"github.com/vk/kwgrid/internal/variables"
)

// runUser runs a user keyword in a fresh keyword scope.
func (r *runner) runUser(ctx context.Context, f *frame, res *result.Result, kw *catalog.Keyword, bound *argspec.Bound) (any, error) {
	uk := kw.User
	if f.depth >= maxDepth {
		return nil, kwerrors.Definitionf("Maximum limit of started keywords and control structures exceeded.")
	}
	if len(uk.Body) == 0 {
		return nil, &syntaxError{msg: "User keyword cannot be empty."}
	}
	bound, err := argspec.ConvertGiven(ctx, r.conv, kw.Spec, bound)
	if err != nil {
		return nil, err
	}

	kf := f.with(func(c *frame) {
		c.vars = f.vars.Child(variables.Keyword)
		c.depth++
		c.loops = 0
		c.keyword = true
		c.finally = false
		c.mode = modeFor(uk.Tags, f.mode)
	})
	if err := bindArguments(ctx, r, kf.vars, kw.Spec, bound); err != nil {
		return nil, err
	}

	limit, err := r.limit(kf, timeout.KindKeyword, kw.Name, uk.Timeout)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("▶️ Running user keyword.", "keyword", kw.FullName(), "depth", kf.depth)
	var value any
	bodyErr := r.guard(ctx, kf.keys, res, limit, func(ctx context.Context, res *result.Result) error {
		// Each guarded unit writes to its own scope chain.
		gf := kf.with(func(c *frame) { c.vars = kf.vars.Child(variables.Local) })
		return r.runBody(ctx, gf, res, uk.Body)
	})
	if sig, ok := asSignal(bodyErr); ok {
		value, bodyErr = sig.value, nil
	} else if bodyErr == nil && len(uk.Return) > 0 {
		value, bodyErr = returnValue(kf.vars, uk.Return)
	}
	if uk.Teardown.Valid() {
		tdErr := r.runFixture(ctx, kf.teardown(), res, result.KindTeardown, uk.Teardown)
		bodyErr = kwerrors.WithTeardown(bodyErr, tdErr)
	}
	if bodyErr != nil {
		return nil, bodyErr
	}
	return value, nil
}

// bindArguments creates the argument variables of a user keyword. Defaults
// are resolved in the keyword's own scope so they can refer to earlier
// arguments.
func bindArguments(ctx context.Context, r *runner, vars *variables.Store, spec *argspec.Spec, bound *argspec.Bound) error {
	for _, a := range bound.Variables(spec) {
		value := a.Value
		if a.Default {
			name := strings.TrimSuffix(a.Target[2:], "}")
			if text, ok := spec.Defaults[name].(string); ok {
				v, err := vars.ReplaceString(text)
				if err != nil {
					return err
				}
				if value, err = argspec.ConvertValue(ctx, r.conv, spec, name, v); err != nil {
					return err
				}
			}
		}
		if err := vars.SetLocal(a.Target, value); err != nil {
			return err
		}
	}
	return nil
}

// limit parses a timeout setting after replacing variables in it.
func (r *runner) limit(f *frame, kind timeout.Kind, name, text string) (timeout.Limit, error) {
	if timestr.IsNone(text) {
		return timeout.Limit{Kind: kind, Name: name}, nil
	}
	text, err := f.vars.ReplaceText(text)
	if err != nil {
		return timeout.Limit{}, err
	}
	return timeout.Parse(kind, name, text)
}

// returnValue evaluates RETURN values: nothing, one value or a list.
func returnValue(vars *variables.Store, values []string) (any, error) {
	items, err := vars.ReplaceList(values)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	}
	return items, nil
}

func (r *runner) runReturn(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, ret *model.Return) error {
	return r.step(ctx, f, parent, id, result.KindReturn, "", func(ctx context.Context, res *result.Result) error {
		res.Args = ret.Values
		switch {
		case !f.keyword:
			return &syntaxError{msg: "RETURN can only be used inside a user keyword."}
		case f.finally:
			return &syntaxError{msg: "RETURN cannot be used in FINALLY branch."}
		}
		value, err := returnValue(f.vars, ret.Values)
		if err != nil {
			return err
		}
		return &controlSignal{kind: model.KindReturn, value: value}
	})
}
