// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/zclconf/go-cty/cty"
)

// errNotConvertible is the cause of failures that need no further detail.
var errNotConvertible = errors.New("not convertible")

// ConversionError reports a value that could not be converted to its
// declared type.
type ConversionError struct {
	Argument string
	Type     *TypeInfo
	Value    any
	Cause    error
}

func (e *ConversionError) Error() string {
	value := literal.Repr(e.Value)
	if _, isText := e.Value.(string); !isText && e.Value != nil {
		value += fmt.Sprintf(" (%T)", e.Value)
	}
	var msg string
	if e.Argument != "" {
		msg = fmt.Sprintf("Argument '%s' got value %s that cannot be converted to %s", e.Argument, value, e.Type)
	} else {
		msg = fmt.Sprintf("Value %s cannot be converted to %s", value, e.Type)
	}
	if e.Cause != nil && !errors.Is(e.Cause, errNotConvertible) {
		msg += ": " + e.Cause.Error()
	}
	return msg + "."
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Converter converts values and holds the named types registered for one
// run. It is safe for concurrent use.
type Converter struct {
	mu    sync.RWMutex
	named map[string]*TypeInfo
}

// NewConverter returns a converter knowing only the built-in types.
func NewConverter() *Converter {
	return &Converter{named: make(map[string]*TypeInfo)}
}

func (c *Converter) register(info *TypeInfo) *TypeInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := normalize.Name(info.Name)
	if _, exists := c.named[key]; exists {
		panic(fmt.Sprintf("type '%s' is already registered", info.Name))
	}
	c.named[key] = info
	return info
}

func (c *Converter) lookup(name string) (*TypeInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.named[normalize.Name(name)]
	return info, ok
}

// Lookup returns a registered named type.
func (c *Converter) Lookup(name string) (*TypeInfo, bool) {
	return c.lookup(name)
}

// RegisterEnum registers an enumeration. Values convert to the member name.
func (c *Converter) RegisterEnum(name string, members ...string) *TypeInfo {
	if len(members) == 0 {
		panic(fmt.Sprintf("enum '%s' has no members", name))
	}
	values := make([]any, len(members))
	for i, m := range members {
		values[i] = m
	}
	return c.register(&TypeInfo{Name: name, Kind: KindEnum, Members: values, Type: cty.String})
}

// RegisterRecord registers a structurally typed record whose shape is a cty
// object type. Optional attributes are not required; a closed record rejects
// unknown keys.
func (c *Converter) RegisterRecord(name string, shape cty.Type, closed bool) *TypeInfo {
	if !shape.IsObjectType() {
		panic(fmt.Sprintf("record '%s' must be an object type, got %s", name, shape.FriendlyName()))
	}
	return c.register(recordFromObject(name, shape, closed))
}

// RegisterConverter registers a custom type converted by fn.
func (c *Converter) RegisterConverter(name string, fn ConverterFunc) *TypeInfo {
	return c.register(&TypeInfo{Name: name, Kind: KindCustom, Custom: fn, Type: cty.NilType})
}

// Convert converts value to the given type.
func (c *Converter) Convert(info *TypeInfo, value any) (any, error) {
	return c.ConvertArgument("", info, value)
}

// ConvertArgument converts the value of the named argument. A nil type
// passes the value through.
func (c *Converter) ConvertArgument(argument string, info *TypeInfo, value any) (any, error) {
	if info == nil {
		return value, nil
	}
	out, err := convert(info, value)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) && convErr.Argument == "" && convErr.Type == info {
			err = convErr.Cause
		}
		return nil, &ConversionError{Argument: argument, Type: info, Value: value, Cause: err}
	}
	return out, nil
}

// convert dispatches on kind. Text goes through the text converters, other
// values are checked and, where lossless, adapted.
func convert(info *TypeInfo, value any) (any, error) {
	switch info.Kind {
	case KindAny:
		return value, nil
	case KindUnion:
		return convertUnion(info, value)
	case KindLiteral:
		return convertLiteral(info, value)
	}
	if value == nil {
		if info.Kind == KindNone {
			return nil, nil
		}
		return nil, errNotConvertible
	}
	if text, ok := value.(string); ok {
		return convertText(info, text)
	}
	return convertTyped(info, value)
}

func convertText(info *TypeInfo, text string) (any, error) {
	switch info.Kind {
	case KindString:
		return text, nil
	case KindInt:
		return parseInt(text)
	case KindFloat:
		return parseFloat(text)
	case KindBool:
		return parseBool(text)
	case KindNone:
		return parseNone(text)
	case KindBytes:
		return parseBytes(text)
	case KindDatetime:
		return parseDatetime(text)
	case KindDate:
		return parseDate(text)
	case KindTimedelta:
		return parseTimedelta(text)
	case KindEnum:
		return convertEnum(info, text)
	case KindCustom:
		return info.Custom(text)
	case KindList, KindTuple, KindSet, KindDict, KindRecord:
		parsed, err := literal.Parse(text)
		if err != nil {
			var litErr *literal.Error
			if errors.As(err, &litErr) {
				return nil, fmt.Errorf("invalid expression")
			}
			return nil, err
		}
		return convertTyped(info, parsed)
	}
	return nil, errNotConvertible
}

func convertUnion(info *TypeInfo, value any) (any, error) {
	text, isText := value.(string)
	if isText && info.Nullable() {
		// The null literal wins over members like str that accept any text.
		if out, err := parseNone(text); err == nil {
			return out, nil
		}
	}
	if !isText {
		for _, member := range info.Nested {
			if matches(member, value) {
				return value, nil
			}
		}
	}
	for _, member := range info.Nested {
		if out, err := convert(member, value); err == nil {
			return out, nil
		}
	}
	return nil, errNotConvertible
}

// matches reports whether value already has the shape of the type.
func matches(info *TypeInfo, value any) bool {
	switch info.Kind {
	case KindAny:
		return true
	case KindNone:
		return value == nil
	case KindUnion:
		for _, m := range info.Nested {
			if matches(m, value) {
				return true
			}
		}
		return false
	}
	if value == nil {
		return false
	}
	out, err := convertTyped(info, value)
	if err != nil {
		return false
	}
	return literal.Repr(out) == literal.Repr(value)
}

func convertLiteral(info *TypeInfo, value any) (any, error) {
	for _, m := range info.Members {
		if literal.Repr(m) == literal.Repr(value) {
			return m, nil
		}
	}
	text, isText := value.(string)
	if !isText {
		return nil, errNotConvertible
	}
	for _, m := range info.Members {
		switch mv := m.(type) {
		case string:
			if normalize.Fold(mv) == normalize.Fold(text) {
				return mv, nil
			}
		case nil:
			if _, err := parseNone(text); err == nil {
				return nil, nil
			}
		case bool:
			if b, err := parseBool(text); err == nil && b == mv {
				return mv, nil
			}
		case int:
			if i, err := parseInt(text); err == nil && i == mv {
				return mv, nil
			}
		case float64:
			if f, err := parseFloat(text); err == nil && f == mv {
				return mv, nil
			}
		}
	}
	return nil, errNotConvertible
}

// maxListedMembers truncates the member list in enum errors.
const maxListedMembers = 10

func convertEnum(info *TypeInfo, text string) (any, error) {
	for _, m := range info.Members {
		if m.(string) == text {
			return text, nil
		}
	}
	names := make([]string, 0, maxListedMembers)
	for i, m := range info.Members {
		if i == maxListedMembers {
			break
		}
		names = append(names, literal.Repr(m))
	}
	listed := joinOr(names)
	if extra := len(info.Members) - len(names); extra > 0 {
		listed = fmt.Sprintf("%s, ... (%d more)", strings.Join(names, ", "), extra)
	}
	return nil, fmt.Errorf("%s does not have member '%s'. Available: %s", info.Name, text, listed)
}
