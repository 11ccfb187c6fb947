// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"context"
	"strings"

	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
)

func (b *builtIn) runKeywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name: "Run Keyword",
			Args: []string{"name", "*args"},
			Doc:  "Executes the given keyword with the given arguments.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				return runNested(ctx, c, 0)
			},
		},
		{
			Name: "Run Keyword And Return Status",
			Args: []string{"name", "*args"},
			Doc:  "Runs the given keyword and returns the status as a boolean.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				_, err := runNested(ctx, c, 0)
				if err != nil && !engine.Recoverable(err) {
					return nil, err
				}
				return err == nil, nil
			},
		},
		{
			Name: "Run Keyword And Ignore Error",
			Args: []string{"name", "*args"},
			Doc:  "Runs the given keyword and ignores a possible error. Returns the status and the return value or the error message.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				v, err := runNested(ctx, c, 0)
				switch {
				case err == nil:
					return []any{"PASS", v}, nil
				case engine.Recoverable(err):
					return []any{"FAIL", err.Error()}, nil
				}
				return nil, err
			},
		},
		{
			Name: "Run Keyword And Expect Error",
			Args: []string{"expected_error", "name", "*args"},
			Doc: "Runs the keyword and checks that the expected error occurred. The pattern is a glob by default; " +
				"EQUALS:, STARTS:, REGEXP: and GLOB: prefixes select the matching mode.",
			Run: expectError,
		},
		{
			Name: "Run Keyword And Continue On Failure",
			Args: []string{"name", "*args"},
			Doc:  "Runs the keyword and continues execution even if a failure occurs.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				v, err := runNested(ctx, c, 0)
				if err != nil && engine.Recoverable(err) && !kwerrors.IsContinuable(err) {
					return v, &kwerrors.Failure{Message: err.Error(), Continuable: true}
				}
				return v, err
			},
		},
	}
}

// runNested runs the keyword named by the argument at index at with the
// arguments following it.
func runNested(ctx context.Context, c library.Call, at int) (any, error) {
	rt, err := runtimeOf(ctx)
	if err != nil {
		return nil, err
	}
	name := literal.ToString(c.Arg(at))
	var args []any
	if len(c.Positional) > at+1 {
		args = c.Positional[at+1:]
	}
	return rt.RunKeyword(ctx, name, args...)
}

var expectPrefixes = []struct {
	prefix string
	typ    string
}{
	{"EQUALS:", "LITERAL"},
	{"STARTS:", "START"},
	{"REGEXP:", "REGEXP"},
	{"GLOB:", "GLOB"},
}

func expectError(ctx context.Context, c library.Call) (any, error) {
	expected := literal.ToString(c.Arg(0))
	_, err := runNested(ctx, c, 1)
	if err == nil {
		return nil, kwerrors.Failf("Expected error '%s' did not occur.", expected)
	}
	if !engine.Recoverable(err) {
		return nil, err
	}

	typ, pattern := "GLOB", expected
	for _, p := range expectPrefixes {
		if strings.HasPrefix(expected, p.prefix) {
			typ, pattern = p.typ, strings.TrimSpace(strings.TrimPrefix(expected, p.prefix))
			break
		}
	}
	msg := err.Error()
	ok, matchErr := engine.MatchError(typ, pattern, msg)
	if matchErr != nil {
		return nil, matchErr
	}
	if !ok {
		return nil, kwerrors.Failf("Expected error '%s' but got '%s'.", expected, msg)
	}
	return msg, nil
}
