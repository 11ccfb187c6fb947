// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"context"
	"errors"
	"strings"

	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/variables"
)

func (b *builtIn) variableKeywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name: "Set Variable",
			Args: []string{"*values"},
			Doc:  "Returns the given values which can then be assigned to variables.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				switch len(c.Positional) {
				case 0:
					return "", nil
				case 1:
					return c.Positional[0], nil
				}
				return append([]any{}, c.Positional...), nil
			},
		},
		{
			Name: "Set Test Variable",
			Args: []string{"name", "*values"},
			Doc:  "Makes a variable available everywhere within the scope of the current test.",
			Run:  scopedSetter(variables.Test),
		},
		{
			Name: "Set Task Variable",
			Args: []string{"name", "*values"},
			Doc:  "Makes a variable available everywhere within the scope of the current task.",
			Run:  scopedSetter(variables.Test),
		},
		{
			Name:  "Set Suite Variable",
			Args:  []string{"name", "*values", "children=False"},
			Types: map[string]string{"children": "bool"},
			Doc:   "Makes a variable available everywhere within the scope of the current suite.",
			Run:   setSuiteVariable,
		},
		{
			Name: "Set Global Variable",
			Args: []string{"name", "*values"},
			Doc:  "Makes a variable available globally in all tests and suites.",
			Run:  scopedSetter(variables.Global),
		},
		{
			Name: "Get Variable Value",
			Args: []string{"name", "default=None"},
			Doc:  "Returns the variable value or default if the variable does not exist.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				rt, err := runtimeOf(ctx)
				if err != nil {
					return nil, err
				}
				v, err := rt.Variables().Get(variableName(literal.ToString(c.Arg(0)), '$'))
				if errors.Is(err, variables.ErrNotFound) {
					if d, ok := optional(c.Arg(1)); ok {
						return d, nil
					}
					return nil, nil
				}
				return v, err
			},
		},
		{
			Name: "Variable Should Exist",
			Args: []string{"name", "msg=None"},
			Doc:  "Fails unless the given variable exists within the current scope.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				rt, err := runtimeOf(ctx)
				if err != nil {
					return nil, err
				}
				name := variableName(literal.ToString(c.Arg(0)), '$')
				if rt.Variables().Contains(name) {
					return nil, nil
				}
				return nil, failure(c.Arg(1), false, "Variable '%s' does not exist.", name)
			},
		},
		{
			Name: "Evaluate",
			Args: []string{"expression"},
			Doc:  "Evaluates the given expression and returns the result. Variables are referenced as $name.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				rt, err := runtimeOf(ctx)
				if err != nil {
					return nil, err
				}
				expr := literal.ToString(c.Arg(0))
				v, err := rt.Evaluate(expr)
				if err != nil {
					return nil, kwerrors.Failf("Evaluating expression '%s' failed: %s", expr, err)
				}
				return v, nil
			},
		},
		{
			Name: "Create List",
			Args: []string{"*items"},
			Doc:  "Returns a list containing given items.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return append([]any{}, c.Positional...), nil
			},
		},
		{
			Name: "Create Dictionary",
			Args: []string{"*items", "**entries"},
			Doc:  "Creates and returns a dictionary based on the given items. Positional items are key and value pairs.",
			Run:  createDictionary,
		},
		{
			Name: "Catenate",
			Args: []string{"*items"},
			Doc:  "Catenates the given items together and returns the resulted string. A first item SEPARATOR=<sep> changes the separator.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				sep := " "
				items := c.Positional
				if len(items) > 0 {
					if s, ok := items[0].(string); ok && strings.HasPrefix(s, "SEPARATOR=") {
						sep = strings.TrimPrefix(s, "SEPARATOR=")
						items = items[1:]
					}
				}
				parts := make([]string, len(items))
				for i, it := range items {
					parts[i] = literal.ToString(it)
				}
				return strings.Join(parts, sep), nil
			},
		},
		{
			Name: "Get Length",
			Args: []string{"item"},
			Doc:  "Returns and logs the length of the given item.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return length(c.Arg(0))
			},
		},
	}
}

// setValue picks the value a Set X Variable keyword assigns. Without values
// the current value of the variable is used.
func setValue(rt *engine.Runtime, name string, values []any) (string, any, error) {
	ident := byte('$')
	if s := strings.TrimSpace(name); s != "" && (s[0] == '@' || s[0] == '&') {
		ident = s[0]
	}
	full := variableName(name, ident)
	switch {
	case len(values) == 0:
		v, err := rt.Variables().Get(full)
		return full, v, err
	case len(values) == 1 && ident != '@':
		return full, values[0], nil
	case ident == '&':
		return full, nil, kwerrors.Failf("Dictionary variable '%s' accepts only one value.", full)
	}
	return full, append([]any{}, values...), nil
}

func scopedSetter(kind variables.Kind) func(context.Context, library.Call) (any, error) {
	return func(ctx context.Context, c library.Call) (any, error) {
		rt, err := runtimeOf(ctx)
		if err != nil {
			return nil, err
		}
		name, value, err := setValue(rt, literal.ToString(c.Arg(0)), c.Positional[1:])
		if err != nil {
			return nil, err
		}
		return nil, rt.SetVariable(kind, name, value)
	}
}

func setSuiteVariable(ctx context.Context, c library.Call) (any, error) {
	rt, err := runtimeOf(ctx)
	if err != nil {
		return nil, err
	}
	values := c.Positional[1:]
	children := false
	if v, ok := c.Named["children"]; ok {
		children = v == true
	}
	name, value, err := setValue(rt, literal.ToString(c.Arg(0)), values)
	if err != nil {
		return nil, err
	}
	if children {
		return nil, rt.SetSuitesVariable(name, value)
	}
	return nil, rt.SetVariable(variables.Suite, name, value)
}

func createDictionary(_ context.Context, c library.Call) (any, error) {
	if len(c.Positional)%2 != 0 {
		return nil, kwerrors.Failf("Expected even number of positional items, got %d.", len(c.Positional))
	}
	out := make(map[string]any, len(c.Positional)/2+len(c.Named))
	for i := 0; i < len(c.Positional); i += 2 {
		out[literal.ToString(c.Positional[i])] = c.Positional[i+1]
	}
	for k, v := range c.Named {
		out[k] = v
	}
	return out, nil
}
