// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"context"
	"reflect"
	"strings"

	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/variables"
)

func (b *builtIn) verifyKeywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name: "Fail",
			Args: []string{"msg=None"},
			Doc:  "Fails the test with the given message.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				msg, ok := optional(c.Arg(0))
				if !ok {
					msg = "AssertionError"
				}
				return nil, kwerrors.Failf("%s", msg)
			},
		},
		{
			Name: "Fatal Error",
			Args: []string{"msg=None"},
			Doc:  "Stops the whole run. Remaining tests are failed.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				msg, ok := optional(c.Arg(0))
				if !ok {
					msg = "AssertionError"
				}
				return nil, &kwerrors.Fatal{Message: msg}
			},
		},
		{
			Name: "Skip",
			Args: []string{"msg=Skipped with Skip keyword."},
			Doc:  "Skips the rest of the current test.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return nil, &kwerrors.Skip{Message: literal.ToString(c.Arg(0))}
			},
		},
		{
			Name: "Skip If",
			Args: []string{"condition", "msg=None"},
			Doc:  "Skips the rest of the current test if the condition is true.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				ok, err := truth(ctx, c.Arg(0))
				if err != nil || !ok {
					return nil, err
				}
				msg, given := optional(c.Arg(1))
				if !given {
					msg = literal.ToString(c.Arg(0))
				}
				return nil, &kwerrors.Skip{Message: msg}
			},
		},
		{
			Name: "Should Be True",
			Args: []string{"condition", "msg=None"},
			Doc:  "Fails if the condition is not true. Strings are evaluated as expressions.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				ok, err := truth(ctx, c.Arg(0))
				if err != nil || ok {
					return nil, err
				}
				return nil, failure(c.Arg(1), false, "'%s' should be true.", literal.ToString(c.Arg(0)))
			},
		},
		{
			Name:  "Should Be Equal",
			Args:  []string{"first", "second", "msg=None", "values=True", "ignore_case=False", "strip_spaces=False"},
			Types: map[string]string{"values": "bool", "ignore_case": "bool", "strip_spaces": "bool"},
			Doc:   "Fails if the given objects are unequal.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				first, second := c.Arg(0), c.Arg(1)
				if c.Arg(5) == true {
					first, second = mapText(first, strings.TrimSpace), mapText(second, strings.TrimSpace)
				}
				if c.Arg(4) == true {
					first, second = mapText(first, strings.ToLower), mapText(second, strings.ToLower)
				}
				if equal(first, second) {
					return nil, nil
				}
				return nil, failure(c.Arg(2), c.Arg(3) != false, "%s", unequal(c.Arg(0), c.Arg(1), "!="))
			},
		},
		{
			Name:  "Should Not Be Equal",
			Args:  []string{"first", "second", "msg=None", "values=True"},
			Types: map[string]string{"values": "bool"},
			Doc:   "Fails if the given objects are equal.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				if !equal(c.Arg(0), c.Arg(1)) {
					return nil, nil
				}
				return nil, failure(c.Arg(2), c.Arg(3) != false, "%s", unequal(c.Arg(0), c.Arg(1), "=="))
			},
		},
		{
			Name:  "Should Be Equal As Integers",
			Args:  []string{"first", "second", "msg=None", "values=True"},
			Types: map[string]string{"first": "int", "second": "int", "values": "bool"},
			Doc:   "Fails if objects are unequal after converting them to integers.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				if c.Arg(0) == c.Arg(1) {
					return nil, nil
				}
				return nil, failure(c.Arg(2), c.Arg(3) != false, "%s", unequal(c.Arg(0), c.Arg(1), "!="))
			},
		},
		{
			Name:  "Should Contain",
			Args:  []string{"container", "item", "msg=None", "values=True"},
			Types: map[string]string{"values": "bool"},
			Doc:   "Fails if container does not contain item one or more times.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				ok, err := contains(c.Arg(0), c.Arg(1))
				if err != nil || ok {
					return nil, err
				}
				return nil, failure(c.Arg(2), c.Arg(3) != false, "%s does not contain %s", literal.Repr(c.Arg(0)), literal.Repr(c.Arg(1)))
			},
		},
		{
			Name: "Should Be Empty",
			Args: []string{"item", "msg=None"},
			Doc:  "Verifies that the given item is empty.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				n, err := length(c.Arg(0))
				if err != nil || n == 0 {
					return nil, err
				}
				return nil, failure(c.Arg(1), false, "%s should be empty.", literal.Repr(c.Arg(0)))
			},
		},
		{
			Name:  "Length Should Be",
			Args:  []string{"item", "length", "msg=None"},
			Types: map[string]string{"length": "int"},
			Doc:   "Verifies that the length of the given item is correct.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				n, err := length(c.Arg(0))
				if err != nil {
					return nil, err
				}
				want := c.Arg(1).(int)
				if n == want {
					return nil, nil
				}
				return nil, failure(c.Arg(2), false, "Length of %s should be %d but is %d.", literal.Repr(c.Arg(0)), want, n)
			},
		},
	}
}

// truth evaluates a condition. Strings are expressions, other values use
// the usual truth rules.
func truth(ctx context.Context, condition any) (bool, error) {
	text, ok := condition.(string)
	if !ok {
		return literal.Truthy(condition), nil
	}
	rt, err := runtimeOf(ctx)
	if err != nil {
		return false, err
	}
	v, err := rt.Evaluate(text)
	if err != nil {
		return false, kwerrors.Failf("Evaluating expression '%s' failed: %s", text, err)
	}
	return literal.Truthy(v), nil
}

func contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		return strings.Contains(s, literal.ToString(item)), nil
	}
	if list, ok := variables.ToList(container); ok {
		for _, v := range list {
			if equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	}
	rv := reflect.ValueOf(container)
	if variables.IsMapping(container) {
		key, ok := item.(string)
		if !ok {
			return false, nil
		}
		return rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key())).IsValid(), nil
	}
	return false, kwerrors.Failf("Cannot check whether %s contains anything.", literal.Repr(container))
}

// mapText applies fn to strings and leaves other values alone.
func mapText(v any, fn func(string) string) any {
	if s, ok := v.(string); ok {
		return fn(s)
	}
	return v
}
