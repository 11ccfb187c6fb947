// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/variables"
)

type runtimeKey struct{}

// Runtime gives library keywords access to the running engine: variables
// of the calling scope and nested keyword execution.
type Runtime struct {
	r   *runner
	f   *frame
	res *result.Result
}

func withRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFromContext returns the runtime of the library keyword ctx was
// passed to.
func RuntimeFromContext(ctx context.Context) (*Runtime, bool) {
	rt, ok := ctx.Value(runtimeKey{}).(*Runtime)
	return rt, ok
}

// Variables returns the variable store of the calling scope.
func (rt *Runtime) Variables() *variables.Store { return rt.f.vars }

// Suite returns the long name of the running suite.
func (rt *Runtime) Suite() string { return rt.f.suite.longname }

// Test returns the long name of the running test, empty in suite fixtures.
func (rt *Runtime) Test() string { return rt.f.keys.Test }

// Result returns the result node of the calling keyword.
func (rt *Runtime) Result() *result.Result { return rt.res }

// SetVariable sets a variable in the given scope. Local sets it in the
// calling scope.
func (rt *Runtime) SetVariable(scope variables.Kind, name string, value any) error {
	switch scope {
	case variables.Local, variables.Keyword:
		return rt.f.vars.Set(name, value)
	case variables.Suite:
		return rt.f.vars.SetScoped(variables.Suite, name, value)
	}
	return rt.f.vars.SetScoped(scope, name, value)
}

// SetSuitesVariable sets a suite variable also seen by child suites.
func (rt *Runtime) SetSuitesVariable(name string, value any) error {
	return rt.f.vars.SetSuites(name, value)
}

// Evaluate evaluates an expression; $name references are looked up in the
// calling scope.
func (rt *Runtime) Evaluate(expr string) (any, error) {
	return literal.Evaluate(expr, rt.f.vars.Lookup)
}

// KeywordNames returns the full names of every keyword visible to the
// caller.
func (rt *Runtime) KeywordNames() []string {
	return rt.f.suite.catalog.Names()
}

// RunKeyword runs a keyword by name with already resolved arguments. String
// arguments of the form "name=value" become named arguments when the
// keyword accepts the name. The nested result is added under the caller.
func (rt *Runtime) RunKeyword(ctx context.Context, name string, args ...any) (any, error) {
	r, f := rt.r, rt.f
	var value any
	err := r.step(ctx, f, rt.res, model.NoItem, result.KindKeyword, name, func(ctx context.Context, res *result.Result) error {
		res.Args = make([]string, len(args))
		for i, a := range args {
			res.Args[i] = literal.ToString(a)
		}
		match, err := f.suite.catalog.Find(name)
		if err != nil {
			return err
		}
		positional := make([]any, 0, len(match.Args)+len(args))
		for _, a := range match.Args {
			positional = append(positional, a)
		}
		rest, named := splitValues(match.Keyword.Spec, args)
		value, err = r.execute(ctx, f, res, match.Keyword, append(positional, rest...), named)
		return err
	})
	return value, err
}

// splitValues detects trailing "name=value" strings accepted by spec.
func splitValues(spec *argspec.Spec, args []any) ([]any, []argspec.Named) {
	split := len(args)
	for split > 0 {
		s, ok := args[split-1].(string)
		if !ok {
			break
		}
		i := unescapedEquals(s)
		if i <= 0 || !spec.AcceptsNamed(s[:i]) {
			break
		}
		split--
	}
	named := make([]argspec.Named, 0, len(args)-split)
	for _, a := range args[split:] {
		s := a.(string)
		i := unescapedEquals(s)
		named = append(named, argspec.Named{Name: s[:i], Value: s[i+1:]})
	}
	return args[:split], named
}

// Recoverable reports whether keywords such as Run Keyword And Ignore Error
// may swallow err. Fatal errors, skips, timeouts and invalid control
// structures are never recoverable.
func Recoverable(err error) bool {
	return err != nil && catchable(err)
}

// MatchError matches an error message against a pattern of the given type:
// LITERAL, START, GLOB or REGEXP.
func MatchError(typ, pattern, message string) (bool, error) {
	return matchMessage(typ, pattern, message)
}
