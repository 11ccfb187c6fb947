// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/normalize"
	"github.com/vk/kwgrid/internal/varscan"
)

// AttributeSetter lets a value accept ${value.attr} assignments. Returned
// errors are reported as attribute errors.
type AttributeSetter interface {
	SetAttribute(name string, value any) error
}

// prepared is a validated assignment.
type prepared struct {
	key   string
	entry entry
}

func prepare(name string, value any) (prepared, error) {
	m, ok := varscan.ParseAssign(name, false)
	if !ok {
		return prepared{}, newError(ErrInvalid, name, fmt.Sprintf("Invalid variable name '%s'.", name))
	}
	display := m.Name()
	switch m.Identifier {
	case '@':
		list, ok := ToList(value)
		if !ok {
			return prepared{}, newError(ErrInvalid, display, fmt.Sprintf("Value of variable '%s' is not list or list-like.", display))
		}
		value = list
	case '&':
		if !IsMapping(value) {
			return prepared{}, newError(ErrInvalid, display, fmt.Sprintf("Value of variable '%s' is not dictionary or dictionary-like.", display))
		}
	}
	return prepared{key: normalize.Name(m.Base), entry: entry{display: m.Base, value: value}}, nil
}

// Set binds a variable in the innermost scope. Loop scopes are skipped unless
// they already hold the name, so assignments made inside a loop body outlive
// the iteration.
func (s *Store) Set(name string, value any) error {
	p, err := prepare(name, value)
	if err != nil {
		return err
	}
	s.writeTarget(p.key).set(p.key, p.entry)
	return nil
}

// SetLocal binds a variable in the innermost scope, loop scopes included.
func (s *Store) SetLocal(name string, value any) error {
	p, err := prepare(name, value)
	if err != nil {
		return err
	}
	s.chain[len(s.chain)-1].set(p.key, p.entry)
	return nil
}

func (s *Store) writeTarget(key string) *Scope {
	for i := len(s.chain) - 1; i > 0; i-- {
		sc := s.chain[i]
		if sc.kind != Local || sc.has(key) {
			return sc
		}
	}
	return s.chain[len(s.chain)-1]
}

// SetScoped binds a variable in the innermost scope of the given kind and in
// every scope inside it, so no local shadow hides the new value.
func (s *Store) SetScoped(kind Kind, name string, value any) error {
	return s.setScoped(kind, name, value, false)
}

// SetSuites is SetScoped(Suite, ...) that also makes the variable visible in
// child suites started afterwards.
func (s *Store) SetSuites(name string, value any) error {
	return s.setScoped(Suite, name, value, true)
}

func (s *Store) setScoped(kind Kind, name string, value any, children bool) error {
	p, err := prepare(name, value)
	if err != nil {
		return err
	}
	idx := s.indexOf(kind)
	if idx < 0 {
		return newError(ErrInvalid, name, fmt.Sprintf("Cannot set %s variable when no %s is started.", strings.ToLower(kind.String()), strings.ToLower(kind.String())))
	}
	p.entry.shared = true
	p.entry.children = children
	for i := idx; i < len(s.chain); i++ {
		e := p.entry
		if i > idx {
			e.children = false
		}
		s.chain[i].set(p.key, e)
	}
	return nil
}

// Assign binds a return value to an assignment target: "${x}", "@{x} =",
// "${obj.attr}" or "${dict}[key]".
func (s *Store) Assign(target string, value any) error {
	m, ok := varscan.ParseAssign(target, true)
	if !ok {
		return newError(ErrInvalid, target, fmt.Sprintf("Invalid variable name '%s'.", target))
	}
	if len(m.Items) > 0 {
		return s.setItem(m, value)
	}
	if m.Identifier == '$' && strings.Contains(m.Base, ".") {
		err := s.SetExtended(m.Name(), value)
		if err == nil || !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return s.Set(m.Name(), value)
}

// SetExtended assigns value to an attribute of an existing variable, as in
// "${obj.attr}". The base is resolved with the usual rules, so nested bases
// such as "${a.b.c}" work. A missing base is ErrNotFound, a target that
// rejects the change is ErrAttribute.
func (s *Store) SetExtended(name string, value any) error {
	m, ok := varscan.ParseAssign(name, false)
	if !ok || m.Identifier != '$' {
		return newError(ErrInvalid, name, fmt.Sprintf("Invalid variable name '%s'.", name))
	}
	dot := strings.LastIndexByte(m.Base, '.')
	if dot <= 0 || dot == len(m.Base)-1 {
		return newError(ErrInvalid, name, fmt.Sprintf("Invalid extended variable name '%s'.", name))
	}
	baseName, attr := m.Base[:dot], strings.TrimSpace(m.Base[dot+1:])
	base, err := s.resolveBase('$', baseName)
	if err != nil {
		return err
	}
	if err := setAttr(base, attr, value); err != nil {
		display := "${" + baseName + "}"
		return newError(ErrAttribute, display, fmt.Sprintf("Setting attribute '%s' to variable '%s' failed: %s", attr, display, err))
	}
	return nil
}

func setAttr(target any, attr string, value any) error {
	if setter, ok := target.(AttributeSetter); ok {
		return setter.SetAttribute(attr, value)
	}
	rv := reflect.ValueOf(target)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("'%T' keys are not strings", target)
		}
		v, err := assignable(value, rv.Type().Elem())
		if err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(attr).Convert(rv.Type().Key()), v)
		return nil
	case reflect.Pointer:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			break
		}
		field, ok := fieldByName(rv.Elem(), attr)
		if !ok || !field.CanSet() {
			return fmt.Errorf("'%T' object has no attribute '%s'", target, attr)
		}
		v, err := assignable(value, field.Type())
		if err != nil {
			return err
		}
		field.Set(v)
		return nil
	}
	return fmt.Errorf("'%T' object does not support attribute assignment", target)
}

func assignable(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot assign None to %s", t)
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot assign %s to %s", literal.Repr(value), t)
}

// setItem implements "${dict}[key] =" and "${list}[index] =".
func (s *Store) setItem(m varscan.Match, value any) error {
	base := varscan.Match{String: m.Name(), Identifier: '$', Base: m.Base, Start: 0, End: len(m.Name()), NestedBase: m.NestedBase}
	if len(m.Items) > 1 {
		base.Items = m.Items[:len(m.Items)-1]
		base.String += "[" + strings.Join(base.Items, "][") + "]"
		base.End = len(base.String)
	}
	container, err := s.resolve(base)
	if err != nil {
		return err
	}
	key, err := s.ReplaceString(m.Items[len(m.Items)-1])
	if err != nil {
		return err
	}
	display := base.String
	rv := reflect.ValueOf(container)
	switch {
	case IsMapping(container):
		v, err := assignable(value, rv.Type().Elem())
		if err != nil {
			return newError(ErrInvalid, display, fmt.Sprintf("Setting item '%s' of '%s' failed: %s", literal.ToString(key), display, err))
		}
		rv.SetMapIndex(reflect.ValueOf(literal.ToString(key)).Convert(rv.Type().Key()), v)
		return nil
	case rv.Kind() == reflect.Slice:
		i, ok := key.(int)
		if !ok {
			if _, err := fmt.Sscan(literal.ToString(key), &i); err != nil {
				return newError(ErrInvalid, display, fmt.Sprintf("List '%s' used with invalid index '%s'.", display, literal.ToString(key)))
			}
		}
		idx := i
		if idx < 0 {
			idx += rv.Len()
		}
		if idx < 0 || idx >= rv.Len() {
			return newError(ErrNotFound, display, fmt.Sprintf("List '%s' has no item in index %d.", display, i))
		}
		v, err := assignable(value, rv.Type().Elem())
		if err != nil {
			return newError(ErrInvalid, display, fmt.Sprintf("Setting item %d of '%s' failed: %s", i, display, err))
		}
		rv.Index(idx).Set(v)
		return nil
	}
	return newError(ErrInvalid, display, fmt.Sprintf("Variable '%s' is not a list or a dictionary.", display))
}
