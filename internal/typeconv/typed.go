// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/vk/kwgrid/internal/literal"
)

// convertTyped handles values that are not raw text: already typed values
// pass, lossless numeric adaptations are applied and containers are
// validated element by element.
func convertTyped(info *TypeInfo, value any) (any, error) {
	switch info.Kind {
	case KindAny:
		return value, nil
	case KindUnion, KindLiteral:
		return convert(info, value)
	case KindString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		if isNumber(value) || isBool(value) {
			return literal.ToString(value), nil
		}
	case KindInt:
		if isBool(value) {
			break
		}
		if i, ok := toInt(value); ok {
			return i, nil
		}
	case KindFloat:
		if isBool(value) {
			break
		}
		if f, ok := toFloat(value); ok {
			return f, nil
		}
	case KindBool:
		if b, ok := value.(bool); ok {
			return b, nil
		}
	case KindNone:
		if value == nil {
			return nil, nil
		}
	case KindBytes:
		if b, ok := value.([]byte); ok {
			return b, nil
		}
	case KindDatetime, KindDate:
		if t, ok := value.(time.Time); ok {
			return t, nil
		}
		if f, ok := toFloat(value); ok && !isBool(value) && info.Kind == KindDatetime {
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
		}
	case KindTimedelta:
		if d, ok := value.(time.Duration); ok {
			return d, nil
		}
		if f, ok := toFloat(value); ok && !isBool(value) {
			return time.Duration(math.Round(f * float64(time.Second))), nil
		}
	case KindEnum:
		if s, ok := value.(string); ok {
			return convertEnum(info, s)
		}
	case KindCustom:
		return value, nil
	case KindList, KindSet, KindTuple:
		return convertSequence(info, value)
	case KindDict:
		return convertDict(info, value)
	case KindRecord:
		return convertRecord(info, value)
	}
	return nil, errNotConvertible
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, false
		}
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f == math.Trunc(f) && math.Abs(f) <= math.MaxInt64 {
			return int(f), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		out[it.Key().String()] = it.Value().Interface()
	}
	return out, true
}

// elementType returns the i-th type parameter or nil for "any".
func elementType(info *TypeInfo, i int) *TypeInfo {
	if i < len(info.Nested) {
		return info.Nested[i]
	}
	return nil
}

// convertElement converts one container element and describes a failure
// with its position.
func convertElement(info *TypeInfo, value any, where string) (any, error) {
	if info == nil {
		return value, nil
	}
	out, err := convert(info, value)
	if err != nil {
		msg := fmt.Sprintf("%s: expected %s, got %s", where, info, literal.Repr(value))
		if !errors.Is(err, errNotConvertible) {
			msg += " (" + err.Error() + ")"
		}
		return nil, errors.New(msg)
	}
	return out, nil
}

func convertSequence(info *TypeInfo, value any) (any, error) {
	items, ok := toSlice(value)
	if !ok {
		return nil, errNotConvertible
	}
	if info.Kind == KindTuple && info.Type.IsTupleType() && !fitsShape(info.Type, items) {
		return nil, fmt.Errorf("expected %d items, got %d", len(info.Nested), len(items))
	}
	out := make([]any, 0, len(items))
	seen := make(map[string]bool)
	for i, item := range items {
		el := elementType(info, 0)
		if info.Kind == KindTuple && !info.Variadic {
			el = elementType(info, i)
		}
		converted, err := convertElement(el, item, fmt.Sprintf("item %d", i))
		if err != nil {
			return nil, err
		}
		if info.Kind == KindSet {
			key := literal.Repr(converted)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertDict(info *TypeInfo, value any) (any, error) {
	m, ok := toMap(value)
	if !ok {
		return nil, errNotConvertible
	}
	keyType, valueType := elementType(info, 0), elementType(info, 1)
	out := make(map[string]any, len(m))
	for _, k := range literal.SortedKeys(m) {
		if _, err := convertElement(keyType, k, fmt.Sprintf("key '%s'", k)); err != nil {
			return nil, err
		}
		converted, err := convertElement(valueType, m[k], fmt.Sprintf("item '%s'", k))
		if err != nil {
			return nil, err
		}
		out[k] = converted
	}
	return out, nil
}

func convertRecord(info *TypeInfo, value any) (any, error) {
	m, ok := toMap(value)
	if !ok {
		return nil, fmt.Errorf("value is not a dictionary")
	}
	if !fitsShape(info.Type, m) {
		if missing := missingAttributes(info.Type, m); len(missing) > 0 {
			return nil, fmt.Errorf("required item '%s' missing", missing[0])
		}
		return nil, errNotConvertible
	}
	out := make(map[string]any, len(m))
	known := make(map[string]bool, len(info.Fields))
	for _, f := range info.Fields {
		known[f.Name] = true
		v, present := m[f.Name]
		if !present {
			continue
		}
		converted, err := convertElement(f.Type, v, fmt.Sprintf("item '%s'", f.Name))
		if err != nil {
			return nil, err
		}
		out[f.Name] = converted
	}
	var unknown []string
	for _, k := range literal.SortedKeys(m) {
		if known[k] {
			continue
		}
		if info.Closed {
			unknown = append(unknown, "'"+k+"'")
			continue
		}
		out[k] = m[k]
	}
	if len(unknown) > 0 {
		names := make([]string, len(info.Fields))
		for i, f := range info.Fields {
			names[i] = "'" + f.Name + "'"
		}
		return nil, fmt.Errorf("item %s not allowed. Available items: %s", strings.Join(unknown, ", "), strings.Join(names, ", "))
	}
	return out, nil
}
