// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/vk/kwgrid/internal/normalize"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// reflectKeyword is an exported method exposed as a keyword.
type reflectKeyword struct {
	name       string
	method     reflect.Value
	takesCtx   bool
	params     []reflect.Type
	variadic   bool
	returnsVal bool
	returnsErr bool
}

// Reflect exposes the exported methods of a Go value as keywords. A method
// named ClickButton becomes "Click Button". A leading context.Context
// parameter receives the keyword context. Methods may return nothing, a
// value, an error or a value and an error.
type Reflect struct {
	name     string
	receiver any
	order    []string
	keywords map[string]*reflectKeyword
}

var _ TypedLibrary = (*Reflect)(nil)

// NewReflect inspects receiver. Methods with other return shapes are an
// error; Close is reserved for the Closer contract.
func NewReflect(name string, receiver any) (*Reflect, error) {
	rv := reflect.ValueOf(receiver)
	rt := rv.Type()
	r := &Reflect{name: name, receiver: receiver, keywords: make(map[string]*reflectKeyword)}
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if m.Name == "Close" {
			continue
		}
		kw, err := inspectMethod(m.Name, rv.Method(i))
		if err != nil {
			return nil, fmt.Errorf("library '%s': %w", name, err)
		}
		r.keywords[normalize.Name(kw.name)] = kw
		r.order = append(r.order, kw.name)
	}
	return r, nil
}

func inspectMethod(methodName string, method reflect.Value) (*reflectKeyword, error) {
	mt := method.Type()
	kw := &reflectKeyword{name: SplitCamel(methodName), method: method, variadic: mt.IsVariadic()}
	for i := 0; i < mt.NumIn(); i++ {
		in := mt.In(i)
		if i == 0 && in == contextType {
			kw.takesCtx = true
			continue
		}
		kw.params = append(kw.params, in)
	}
	switch mt.NumOut() {
	case 0:
	case 1:
		if mt.Out(0) == errorType {
			kw.returnsErr = true
		} else {
			kw.returnsVal = true
		}
	case 2:
		if mt.Out(1) != errorType {
			return nil, fmt.Errorf("method %s: second result must be error", methodName)
		}
		kw.returnsVal, kw.returnsErr = true, true
	default:
		return nil, fmt.Errorf("method %s: too many results", methodName)
	}
	return kw, nil
}

// SplitCamel turns a Go identifier into a keyword name:
// "GetHTTPStatus" -> "Get HTTP Status".
func SplitCamel(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (r *Reflect) keyword(name string) *reflectKeyword {
	return r.keywords[normalize.Name(name)]
}

func (r *Reflect) Name() string { return r.name }

func (r *Reflect) KeywordNames() []string {
	return append([]string{}, r.order...)
}

func (r *Reflect) KeywordArguments(name string) []string {
	kw := r.keyword(name)
	if kw == nil {
		return nil
	}
	args := make([]string, len(kw.params))
	for i := range kw.params {
		args[i] = fmt.Sprintf("arg%d", i+1)
	}
	if kw.variadic {
		args[len(args)-1] = "*args"
	}
	return args
}

func (r *Reflect) KeywordTypes(name string) map[string]string {
	kw := r.keyword(name)
	if kw == nil {
		return nil
	}
	types := make(map[string]string)
	for i, p := range kw.params {
		argName := fmt.Sprintf("arg%d", i+1)
		if kw.variadic && i == len(kw.params)-1 {
			argName, p = "args", p.Elem()
		}
		if t := typeName(p); t != "" {
			types[argName] = t
		}
	}
	return types
}

func (r *Reflect) KeywordTags(string) []string { return nil }

// typeName maps a Go type to a type string understood by the converter.
func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "str"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.PkgPath() == "time" && t.Name() == "Duration" {
			return "timedelta"
		}
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "bytes"
		}
		if el := typeName(t.Elem()); el != "" {
			return "list[" + el + "]"
		}
		return "list"
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			if el := typeName(t.Elem()); el != "" {
				return "dict[str, " + el + "]"
			}
			return "dict"
		}
	}
	return ""
}

func (r *Reflect) RunKeyword(ctx context.Context, name string, positional []any, named map[string]any) (any, error) {
	kw := r.keyword(name)
	if kw == nil {
		return nil, fmt.Errorf("library '%s' has no keyword '%s'", r.name, name)
	}
	if len(named) > 0 {
		return nil, fmt.Errorf("keyword '%s' does not accept named arguments", kw.name)
	}
	var in []reflect.Value
	if kw.takesCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, v := range positional {
		var target reflect.Type
		switch {
		case kw.variadic && i >= len(kw.params)-1:
			target = kw.params[len(kw.params)-1].Elem()
		case i < len(kw.params):
			target = kw.params[i]
		default:
			return nil, fmt.Errorf("keyword '%s' expected %d arguments, got %d", kw.name, len(kw.params), len(positional))
		}
		arg, err := coerce(v, target)
		if err != nil {
			return nil, fmt.Errorf("keyword '%s' argument %d: %w", kw.name, i+1, err)
		}
		in = append(in, arg)
	}

	out := kw.method.Call(in)
	var value any
	if kw.returnsVal {
		value = out[0].Interface()
	}
	if kw.returnsErr {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}
	return value, nil
}

// Close releases the receiver when it implements Closer.
func (r *Reflect) Close(ctx context.Context) error {
	if c, ok := r.receiver.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

// coerce adapts an already converted value to a parameter type.
func coerce(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	if numeric(rv.Kind()) && numeric(target.Kind()) {
		return rv.Convert(target), nil
	}
	if rv.Kind() == reflect.Slice && target.Kind() == reflect.Slice {
		out := reflect.MakeSlice(target, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			el, err := coerce(rv.Index(i).Interface(), target.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(el)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, target)
}
