// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/internal/variables"
)

// optional returns the text of an optional argument; nil, empty and "None"
// mean not given.
func optional(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s := literal.ToString(v)
	if s == "" || strings.EqualFold(s, typeconv.NoneString) {
		return "", false
	}
	return s, true
}

// failure builds an assertion failure. A custom message replaces the
// default one, or is prefixed to it when values is true.
func failure(custom any, values bool, format string, args ...any) error {
	def := fmt.Sprintf(format, args...)
	msg, ok := optional(custom)
	switch {
	case !ok:
		return kwerrors.Failf("%s", def)
	case values:
		return kwerrors.Failf("%s: %s", msg, def)
	}
	return kwerrors.Failf("%s", msg)
}

// unequal formats the "a != b" message, adding types when both sides look
// the same.
func unequal(first, second any, op string) string {
	a, b := literal.ToString(first), literal.ToString(second)
	if a == b && reflect.TypeOf(first) != reflect.TypeOf(second) {
		return fmt.Sprintf("%s (%s) %s %s (%s)", a, typeName(first), op, b, typeName(second))
	}
	return fmt.Sprintf("%s %s %s", a, op, b)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "None"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, int32:
		return "integer"
	case float64, float32:
		return "float"
	}
	if _, ok := variables.ToList(v); ok {
		return "list"
	}
	if variables.IsMapping(v) {
		return "dictionary"
	}
	return fmt.Sprintf("%T", v)
}

// equal compares two values, treating numbers of different Go types by
// value.
func equal(a, b any) bool {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// length returns the length of strings, lists and dictionaries.
func length(item any) (int, error) {
	switch v := item.(type) {
	case string:
		return len([]rune(v)), nil
	case []byte:
		return len(v), nil
	}
	if list, ok := variables.ToList(item); ok {
		return len(list), nil
	}
	rv := reflect.ValueOf(item)
	if rv.Kind() == reflect.Map {
		return rv.Len(), nil
	}
	return 0, kwerrors.Failf("Could not get length of %s.", literal.Repr(item))
}

// variableName turns "x", "${x}" or "$x" into "${x}" for the given sigil.
func variableName(text string, sigil byte) string {
	s := strings.TrimSpace(text)
	if len(s) > 1 && (s[0] == '$' || s[0] == '@' || s[0] == '&') {
		if s[1] == '{' && strings.HasSuffix(s, "}") {
			return s
		}
		return fmt.Sprintf("%c{%s}", s[0], s[1:])
	}
	return fmt.Sprintf("%c{%s}", sigil, s)
}
