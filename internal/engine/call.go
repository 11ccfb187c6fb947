// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timestr"
	"github.com/vk/kwgrid/internal/variables"
)

// runFixture runs a setup or teardown. NONE and empty names are no-ops.
func (r *runner) runFixture(ctx context.Context, f *frame, parent *result.Result, kind result.Kind, id model.ItemID) error {
	if !id.Valid() {
		return nil
	}
	switch item := f.arena().Get(id).(type) {
	case *model.KeywordCall:
		if timestr.IsNone(item.Name) {
			return nil
		}
		return r.runCall(ctx, f, parent, id, item, kind)
	case *model.Error:
		return r.step(ctx, f, parent, id, kind, "", func(context.Context, *result.Result) error {
			return &kwerrors.Definition{Message: item.Message}
		})
	}
	return &syntaxError{msg: fmt.Sprintf("Setup and teardown must be keyword calls, got %s.", f.arena().Get(id).Kind())}
}

func (r *runner) runCall(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, call *model.KeywordCall, kind result.Kind) error {
	return r.step(ctx, f, parent, id, kind, call.Name, func(ctx context.Context, res *result.Result) error {
		res.Args = call.Args
		res.Assign = call.Assign
		return r.invoke(ctx, f, res, call)
	})
}

// invoke resolves and runs one call and assigns its return value.
func (r *runner) invoke(ctx context.Context, f *frame, res *result.Result, call *model.KeywordCall) error {
	// 1. Validate assignment targets before anything runs.
	if err := argspec.ValidateTargets(call.Assign); err != nil {
		return &syntaxError{msg: err.Error()}
	}

	// 2. Resolve the keyword.
	name, err := f.vars.ReplaceText(call.Name)
	if err != nil {
		return err
	}
	match, err := f.suite.catalog.Find(name)
	if err != nil {
		return err
	}
	kw := match.Keyword

	// 3. Build arguments.
	embedded, err := embeddedValues(f.vars, match.Args)
	if err != nil {
		return err
	}
	positional, named, err := callArguments(f.vars, kw, call.Args, call.Named)
	if err != nil {
		return err
	}

	// 4. Run and assign.
	value, err := r.execute(ctx, f, res, kw, append(embedded, positional...), named)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return assign(f.vars, call.Assign, value)
}

func embeddedValues(vars *variables.Store, captured []string) ([]any, error) {
	out := make([]any, 0, len(captured))
	for _, text := range captured {
		v, err := vars.ReplaceString(text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// callArguments splits raw tokens into positional and named arguments and
// replaces variables in them. "@{list}" tokens expand in place and
// "&{dict}" tokens expand into named arguments.
func callArguments(vars *variables.Store, kw *catalog.Keyword, tokens []string, extra map[string]string) ([]any, []argspec.Named, error) {
	rawPos, rawNamed, err := argspec.Split(kw.Spec, tokens)
	if err != nil {
		return nil, nil, err
	}
	positional, err := vars.ReplaceList(rawPos)
	if err != nil {
		return nil, nil, err
	}
	var named []argspec.Named
	for _, n := range rawNamed {
		text, _ := n.Value.(string)
		value, err := vars.ReplaceString(text)
		if err != nil {
			return nil, nil, err
		}
		if n.Name != "" {
			named = append(named, argspec.Named{Name: n.Name, Value: value})
			continue
		}
		dict, ok := variables.ToMap(value)
		if !ok {
			return nil, nil, kwerrors.Failf("Value of variable '%s' is not dictionary or dictionary-like.", text)
		}
		for _, k := range literal.SortedKeys(dict) {
			named = append(named, argspec.Named{Name: k, Value: dict[k]})
		}
	}
	for _, k := range literal.SortedKeys(extra) {
		value, err := vars.ReplaceString(extra[k])
		if err != nil {
			return nil, nil, err
		}
		named = append(named, argspec.Named{Name: k, Value: value})
	}
	return positional, named, nil
}

// execute binds arguments and runs a resolved keyword.
func (r *runner) execute(ctx context.Context, f *frame, res *result.Result, kw *catalog.Keyword, positional []any, named []argspec.Named) (any, error) {
	res.Name = kw.Name
	res.Owner = kw.Owner
	res.Tags = kw.Tags
	res.Doc = kw.Doc

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("keyword %s", kw.FullName()))
	defer span.End()

	bound, err := argspec.Resolve(kw.Spec, positional, named)
	if err != nil {
		recordSpan(span, err)
		return nil, err
	}
	var value any
	if kw.IsUser() {
		value, err = r.runUser(ctx, f, res, kw, bound)
	} else {
		value, err = r.runLibrary(ctx, f, res, kw, bound)
	}
	recordSpan(span, err)
	return value, err
}

func (r *runner) runLibrary(ctx context.Context, f *frame, res *result.Result, kw *catalog.Keyword, bound *argspec.Bound) (value any, err error) {
	bound, err = argspec.Convert(ctx, r.conv, kw.Spec, bound)
	if err != nil {
		return nil, err
	}
	lib, err := r.instances.Get(ctx, kw.Library, f.keys)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("Keyword '%s' panicked: %v\n%s", kw.FullName(), p, debug.Stack())
		}
	}()
	ctxlog.FromContext(ctx).Debug("Running library keyword.", "keyword", kw.FullName())
	rt := &Runtime{r: r, f: f, res: res}
	return lib.RunKeyword(withRuntime(ctx, rt), kw.Name, bound.Positional, bound.NamedMap())
}

// assign stores a keyword's return value into its assignment targets.
func assign(vars *variables.Store, targets []string, value any) error {
	if len(targets) == 0 {
		return nil
	}
	assignments, err := argspec.Destructure(targets, value)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if err := vars.Assign(a.Target, a.Value); err != nil {
			return err
		}
	}
	return nil
}
