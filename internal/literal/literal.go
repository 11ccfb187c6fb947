// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package literal

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Lookup resolves a $name reference to its current value.
type Lookup func(name string) (any, error)

// Error reports an expression that could not be parsed or evaluated.
type Error struct {
	Expression string
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Evaluating expression '%s' failed: %s", e.Expression, e.Message)
}

type mode int

const (
	modeLiteral mode = iota
	modeExpression
)

// Parse evaluates text that must consist of literals only: strings, numbers,
// booleans, None and nested lists, tuples, sets and dictionaries of those.
func Parse(text string) (any, error) {
	expr, _, err := compile(text, modeLiteral)
	if err != nil {
		return nil, err
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, &Error{Expression: text, Message: diagMessage(diags)}
	}
	return fromResult(text, val)
}

// Evaluate evaluates a condition-style expression. $name references are
// resolved through lookup; only a small set of functions may be called.
func Evaluate(text string, lookup Lookup) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Expression: text, Message: "expression is empty"}
	}
	expr, names, err := compile(text, modeExpression)
	if err != nil {
		return nil, err
	}
	ctx := &hcl.EvalContext{
		Variables: make(map[string]cty.Value, len(names)),
		Functions: make(map[string]function.Function, len(functions)),
	}
	for name, fn := range functions {
		ctx.Functions[name] = fn
	}
	for name := range names {
		if lookup == nil {
			return nil, &Error{Expression: text, Message: fmt.Sprintf("variable '$%s' not found", name)}
		}
		v, err := lookup(name)
		if err != nil {
			return nil, fmt.Errorf("Evaluating expression '%s' failed: %w", text, err)
		}
		cv, err := ToCty(v)
		if err != nil {
			return nil, &Error{Expression: text, Message: err.Error()}
		}
		ctx.Variables[varPrefix+name] = cv
	}
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, &Error{Expression: text, Message: diagMessage(diags)}
	}
	return fromResult(text, val)
}

// Condition evaluates text and applies truth rules to the result.
func Condition(text string, lookup Lookup) (bool, error) {
	v, err := Evaluate(text, lookup)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

func fromResult(text string, val cty.Value) (any, error) {
	v, err := FromCty(val)
	if err != nil {
		return nil, &Error{Expression: text, Message: err.Error()}
	}
	return v, nil
}

// compile rewrites, parses and validates text.
func compile(text string, m mode) (hclsyntax.Expression, map[string]struct{}, error) {
	names := make(map[string]struct{})
	toks, err := lex(text, names)
	if err != nil {
		return nil, nil, &Error{Expression: text, Message: err.Error()}
	}
	if m == modeLiteral && len(names) > 0 {
		return nil, nil, &Error{Expression: text, Message: "variables are not allowed in literals"}
	}
	src, err := rewrite(toks)
	if err != nil {
		return nil, nil, &Error{Expression: text, Message: err.Error()}
	}
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, nil, &Error{Expression: text, Message: diagMessage(diags)}
	}
	if err := validate(expr, m); err != nil {
		return nil, nil, &Error{Expression: text, Message: err.Error()}
	}
	return expr, names, nil
}

func diagMessage(diags hcl.Diagnostics) string {
	var msgs []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
