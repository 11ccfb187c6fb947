// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package argspec

import (
	"fmt"

	"github.com/vk/kwgrid/internal/variables"
	"github.com/vk/kwgrid/internal/varscan"
)

// Assignment binds one value to a variable target such as "${x}" or
// "@{rest}".
type Assignment struct {
	Target string
	Value  any
	// Default marks an argument that took its declared default. User
	// keywords resolve such values in their own scope.
	Default bool
}

// Variables turns a binding into variable assignments for a user keyword
// body: scalars for positional and named-only parameters, a list for the
// var-positional and a dictionary for the var-named parameter.
func (b *Bound) Variables(spec *Spec) []Assignment {
	var out []Assignment
	for i, name := range spec.Positional {
		out = append(out, Assignment{Target: "${" + name + "}", Value: b.Positional[i], Default: b.IsDefaulted(name)})
	}
	if spec.VarPositional != "" {
		rest := append([]any{}, b.Positional[len(spec.Positional):]...)
		out = append(out, Assignment{Target: "@{" + spec.VarPositional + "}", Value: rest})
	}
	kwargs := map[string]any{}
	for _, arg := range b.Named {
		if spec.IsNamedOnly(arg.Name) {
			out = append(out, Assignment{Target: "${" + arg.Name + "}", Value: arg.Value, Default: b.IsDefaulted(arg.Name)})
			continue
		}
		kwargs[arg.Name] = arg.Value
	}
	if spec.VarNamed != "" {
		out = append(out, Assignment{Target: "&{" + spec.VarNamed + "}", Value: kwargs})
	}
	return out
}

// AssignError reports a return value that does not fit the assignment
// targets.
type AssignError struct {
	Message string
}

func (e *AssignError) Error() string {
	return "Cannot set variables: " + e.Message
}

// ValidateTargets checks assignment targets statically: every target must
// be a variable, at most one may be a list and a dictionary must be alone.
func ValidateTargets(targets []string) error {
	lists := 0
	for _, t := range targets {
		m, ok := varscan.ParseAssign(t, true)
		if !ok {
			return &AssignError{Message: fmt.Sprintf("Invalid assignment target '%s'.", t)}
		}
		switch m.Identifier {
		case '@':
			lists++
			if lists > 1 {
				return &AssignError{Message: "Assignment can contain only one list or dictionary variable."}
			}
		case '&':
			if len(targets) > 1 {
				return &AssignError{Message: "Dictionary variable cannot be assigned with other variables."}
			}
		}
	}
	return nil
}

// Destructure splits a return value over assignment targets with the same
// catch-all rule as argument binding: a single scalar takes the whole value,
// several scalars take one item each, and one "@{list}" target anywhere
// collects the items the scalars around it leave over.
func Destructure(targets []string, value any) ([]Assignment, error) {
	if err := ValidateTargets(targets); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	first, _ := varscan.ParseAssign(targets[0], true)
	if len(targets) == 1 && first.Identifier != '@' {
		return []Assignment{{Target: targets[0], Value: value}}, nil
	}

	listAt := -1
	for i, t := range targets {
		if m, _ := varscan.ParseAssign(t, true); m.Identifier == '@' {
			listAt = i
		}
	}
	var items []any
	if value == nil && listAt < 0 {
		items = make([]any, len(targets))
	} else {
		var ok bool
		items, ok = variables.ToList(value)
		if !ok {
			return nil, &AssignError{Message: fmt.Sprintf("Expected list-like value, got %T.", value)}
		}
	}

	if listAt < 0 {
		if len(items) != len(targets) {
			return nil, &AssignError{Message: fmt.Sprintf("Expected %d return values, got %d.", len(targets), len(items))}
		}
		out := make([]Assignment, len(targets))
		for i, t := range targets {
			out[i] = Assignment{Target: t, Value: items[i]}
		}
		return out, nil
	}

	scalars := len(targets) - 1
	if len(items) < scalars {
		return nil, &AssignError{Message: fmt.Sprintf("Expected %d or more return values, got %d.", scalars, len(items))}
	}
	after := len(targets) - listAt - 1
	out := make([]Assignment, 0, len(targets))
	for i := 0; i < listAt; i++ {
		out = append(out, Assignment{Target: targets[i], Value: items[i]})
	}
	rest := append([]any{}, items[listAt:len(items)-after]...)
	out = append(out, Assignment{Target: targets[listAt], Value: rest})
	for i := 0; i < after; i++ {
		out = append(out, Assignment{Target: targets[listAt+1+i], Value: items[len(items)-after+i]})
	}
	return out, nil
}
