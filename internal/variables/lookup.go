// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/suggest"
	"github.com/vk/kwgrid/internal/varscan"
)

// AttributeGetter lets a value expose attributes to ${value.attr} syntax.
type AttributeGetter interface {
	Attribute(name string) (any, bool)
}

var repeatPattern = regexp.MustCompile(`^(.+?)\s*\*\s*(\d+)$`)

// Get returns the value of a decorated reference such as "${x}", "@{list}",
// "&{dict}", "%{ENV}" or "${x}[0]".
func (s *Store) Get(name string) (any, error) {
	m := varscan.Search(name, varscan.Options{})
	if !m.IsWhole() {
		return nil, newError(ErrInvalid, name, fmt.Sprintf("Invalid variable name '%s'.", name))
	}
	return s.resolve(m)
}

// Lookup returns the value of a bare scalar name, e.g. "x" for ${x}.
func (s *Store) Lookup(name string) (any, error) {
	return s.resolveBase('$', name)
}

// Contains reports whether the decorated reference resolves.
func (s *Store) Contains(name string) bool {
	_, err := s.Get(name)
	return err == nil
}

func (s *Store) resolve(m varscan.Match) (any, error) {
	base := m.Base
	if m.NestedBase {
		replaced, err := s.ReplaceText(base)
		if err != nil {
			return nil, err
		}
		base = replaced
	}
	display := string(m.Identifier) + "{" + base + "}"

	if m.Identifier == '%' {
		return envValue(base)
	}

	value, err := s.resolveBase(m.Identifier, base)
	if err != nil {
		return nil, err
	}
	if len(m.Items) == 0 {
		return checkShape(m.Identifier, display, value)
	}

	// Items apply to the plain value; the sigil then checks the item.
	for _, item := range m.Items {
		key, err := s.ReplaceString(item)
		if err != nil {
			return nil, err
		}
		if value, err = getItem(display, value, key); err != nil {
			return nil, err
		}
		display += "[" + item + "]"
	}
	return checkShape(m.Identifier, display, value)
}

func (s *Store) resolveBase(ident byte, base string) (any, error) {
	key := normalize.Name(base)
	if e, ok := s.find(key); ok {
		if ident != '$' && key == "empty" && e.display == "EMPTY" {
			if ident == '@' {
				return []any{}, nil
			}
			return map[string]any{}, nil
		}
		return e.value, nil
	}
	if v, ok := numberValue(base); ok {
		return v, nil
	}
	if v, ok, err := s.extended(base); ok || err != nil {
		return v, err
	}
	display := string(ident) + "{" + base + "}"
	msg := fmt.Sprintf("Variable '%s' not found.", display)
	return nil, newError(ErrNotFound, display, msg+suggest.Format(suggest.Closest(display, s.decorated(ident))))
}

func (s *Store) decorated(ident byte) []string {
	names := s.Names()
	for i, n := range names {
		names[i] = string(ident) + n[1:]
	}
	return names
}

// extended resolves ${base.attr.attr} and ${text * 3}.
func (s *Store) extended(name string) (any, bool, error) {
	if m := repeatPattern.FindStringSubmatch(name); m != nil {
		e, ok := s.find(normalize.Name(m[1]))
		if ok {
			if text, isText := e.value.(string); isText {
				n, _ := strconv.Atoi(m[2])
				return strings.Repeat(text, n), true, nil
			}
		}
	}
	dot := strings.IndexByte(name, '.')
	if dot <= 0 {
		return nil, false, nil
	}
	e, ok := s.find(normalize.Name(name[:dot]))
	if !ok {
		return nil, false, nil
	}
	value := e.value
	path := name[:dot]
	for _, attr := range strings.Split(name[dot+1:], ".") {
		attr = strings.TrimSpace(attr)
		next, found := getAttr(value, attr)
		if !found {
			msg := fmt.Sprintf("Resolving variable '${%s}' failed: '%s' has no attribute '%s'.", name, "${"+path+"}", attr)
			return nil, true, newError(ErrAttribute, "${"+name+"}", msg)
		}
		value = next
		path += "." + attr
	}
	return value, true, nil
}

func getAttr(value any, attr string) (any, bool) {
	if g, ok := value.(AttributeGetter); ok {
		return g.Attribute(attr)
	}
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(attr).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Struct:
		f, ok := fieldByName(rv, attr)
		if !ok {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func fieldByName(rv reflect.Value, name string) (reflect.Value, bool) {
	if f := rv.FieldByName(name); f.IsValid() && f.CanInterface() {
		return f, true
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() && normalize.Equal(t.Field(i).Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func envValue(base string) (any, error) {
	name, def, hasDefault := strings.Cut(base, "=")
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if hasDefault {
		return def, nil
	}
	display := "%{" + name + "}"
	return nil, newError(ErrNotFound, display, fmt.Sprintf("Environment variable '%s' not found.", display))
}

// checkShape enforces that @{x} holds a sequence and &{x} a mapping.
func checkShape(ident byte, display string, value any) (any, error) {
	switch ident {
	case '@':
		list, ok := ToList(value)
		if !ok {
			return nil, newError(ErrInvalid, display, fmt.Sprintf("Value of variable '%s' is not list or list-like.", display))
		}
		return list, nil
	case '&':
		if !IsMapping(value) {
			return nil, newError(ErrInvalid, display, fmt.Sprintf("Value of variable '%s' is not dictionary or dictionary-like.", display))
		}
	}
	return value, nil
}

// ToList returns value as []any when it is a slice or array. Strings are not
// lists.
func ToList(value any) ([]any, bool) {
	if list, ok := value.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if b, ok := value.([]byte); ok {
		out := make([]any, len(b))
		for i, c := range b {
			out[i] = int(c)
		}
		return out, true
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsMapping reports whether value is a map with string keys.
func IsMapping(value any) bool {
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

// ToMap returns value as map[string]any when it is a map with string keys,
// e.g. a map[string]string returned by a library keyword.
func ToMap(value any) (map[string]any, bool) {
	if m, ok := value.(map[string]any); ok {
		return m, true
	}
	if !IsMapping(value) {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	out := make(map[string]any, rv.Len())
	for it := rv.MapRange(); it.Next(); {
		out[it.Key().String()] = it.Value().Interface()
	}
	return out, true
}

func getItem(display string, container, key any) (any, error) {
	rv := reflect.ValueOf(container)
	switch {
	case IsMapping(container):
		k := literal.ToString(key)
		v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, newError(ErrNotFound, display, fmt.Sprintf("Dictionary '%s' has no key '%s'.", display, k))
		}
		return v.Interface(), nil
	case rv.Kind() == reflect.String:
		runes := []rune(rv.String())
		items := make([]any, len(runes))
		for i, r := range runes {
			items[i] = string(r)
		}
		v, err := sequenceItem(display, "String", items, key)
		if list, ok := v.([]any); ok && err == nil {
			var b strings.Builder
			for _, r := range list {
				b.WriteString(r.(string))
			}
			return b.String(), nil
		}
		return v, err
	}
	if list, ok := ToList(container); ok {
		return sequenceItem(display, "List", list, key)
	}
	return nil, newError(ErrInvalid, display, fmt.Sprintf("Variable '%s' is not a list, a string or a dictionary.", display))
}

func sequenceItem(display, kind string, list []any, key any) (any, error) {
	text := literal.ToString(key)
	if i, ok := key.(int); ok {
		text = strconv.Itoa(i)
	}
	if strings.Contains(text, ":") {
		return sliceItems(display, kind, list, text)
	}
	i, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, newError(ErrInvalid, display, fmt.Sprintf("%s '%s' used with invalid index '%s'.", kind, display, text))
	}
	idx := i
	if idx < 0 {
		idx += len(list)
	}
	if idx < 0 || idx >= len(list) {
		return nil, newError(ErrNotFound, display, fmt.Sprintf("%s '%s' has no item in index %d.", kind, display, i))
	}
	return list[idx], nil
}

func sliceItems(display, kind string, list []any, text string) ([]any, error) {
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		return nil, newError(ErrInvalid, display, fmt.Sprintf("%s '%s' used with invalid index '%s'.", kind, display, text))
	}
	bounds := make([]*int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, newError(ErrInvalid, display, fmt.Sprintf("%s '%s' used with invalid index '%s'.", kind, display, text))
		}
		bounds[i] = &v
	}
	step := 1
	if bounds[2] != nil {
		step = *bounds[2]
	}
	if step == 0 {
		return nil, newError(ErrInvalid, display, fmt.Sprintf("%s '%s' used with invalid index '%s'.", kind, display, text))
	}
	n := len(list)
	clamp := func(b *int, def int) int {
		if b == nil {
			return def
		}
		v := *b
		if v < 0 {
			v += n
		}
		lo, hi := 0, n
		if step < 0 {
			lo, hi = -1, n-1
		}
		return max(lo, min(v, hi))
	}
	out := []any{}
	if step > 0 {
		for i := clamp(bounds[0], 0); i < clamp(bounds[1], n); i += step {
			out = append(out, list[i])
		}
	} else {
		for i := clamp(bounds[0], n-1); i > clamp(bounds[1], -1); i += step {
			out = append(out, list[i])
		}
	}
	return out, nil
}
