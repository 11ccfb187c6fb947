// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package argspec describes keyword argument contracts and binds call-site
// arguments to them.
package argspec

import (
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/typeconv"
)

// Spec is the argument contract of one keyword.
type Spec struct {
	// Keyword is used in error messages.
	Keyword string
	// Positional parameters in declaration order. They can also be given
	// by name.
	Positional []string
	// Defaults holds default values of positional and named-only
	// parameters. A missing key means the parameter is required.
	Defaults map[string]any
	// VarPositional collects surplus positional arguments. Empty when not
	// accepted.
	VarPositional string
	// NamedOnly parameters can only be given by name.
	NamedOnly []string
	// VarNamed collects named arguments matching no declared parameter.
	VarNamed string
	// Types maps parameter names to declared types. For VarPositional and
	// VarNamed the type applies to each collected value.
	Types map[string]*typeconv.TypeInfo
}

// Error is an argument mismatch between a call and a spec. It is a
// definition level failure and never continuable.
type Error struct {
	Keyword string
	Message string
}

func (e *Error) Error() string {
	if e.Keyword == "" {
		return e.Message
	}
	return fmt.Sprintf("Keyword '%s' %s", e.Keyword, e.Message)
}

// DefinitionError marks argument mismatches as test data errors.
func (e *Error) DefinitionError() bool { return true }

func (s *Spec) errorf(format string, args ...any) *Error {
	return &Error{Keyword: s.Keyword, Message: fmt.Sprintf(format, args...)}
}

// HasDefault reports whether the parameter has a default value.
func (s *Spec) HasDefault(name string) bool {
	_, ok := s.Defaults[name]
	return ok
}

// MinArgs is the number of positional parameters without a default.
func (s *Spec) MinArgs() int {
	n := 0
	for _, p := range s.Positional {
		if !s.HasDefault(p) {
			n++
		}
	}
	return n
}

// MaxArgs is the number of positional parameters, or -1 when a
// var-positional parameter makes it unbounded.
func (s *Spec) MaxArgs() int {
	if s.VarPositional != "" {
		return -1
	}
	return len(s.Positional)
}

// IsPositional reports whether name is a declared positional parameter.
func (s *Spec) IsPositional(name string) bool {
	return indexOf(s.Positional, name) >= 0
}

// IsNamedOnly reports whether name is a declared named-only parameter.
func (s *Spec) IsNamedOnly(name string) bool {
	return indexOf(s.NamedOnly, name) >= 0
}

// AcceptsNamed reports whether name=value can be given to this spec.
func (s *Spec) AcceptsNamed(name string) bool {
	return s.VarNamed != "" || s.IsPositional(name) || s.IsNamedOnly(name)
}

// TypeOf returns the declared type of a parameter or nil.
func (s *Spec) TypeOf(name string) *typeconv.TypeInfo {
	return s.Types[name]
}

// Names returns every parameter name in declaration order.
func (s *Spec) Names() []string {
	names := append([]string{}, s.Positional...)
	if s.VarPositional != "" {
		names = append(names, s.VarPositional)
	}
	names = append(names, s.NamedOnly...)
	if s.VarNamed != "" {
		names = append(names, s.VarNamed)
	}
	return names
}

// Validate checks the structural rules of a spec: unique names, no required
// positional after one with a default, and types only for known names.
func (s *Spec) Validate() error {
	var errs []string
	seen := make(map[string]bool)
	for _, name := range s.Names() {
		if name == "" {
			errs = append(errs, "empty parameter name")
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("multiple parameters named '%s'", name))
		}
		seen[name] = true
	}
	defaulted := false
	for _, p := range s.Positional {
		if s.HasDefault(p) {
			defaulted = true
		} else if defaulted {
			errs = append(errs, fmt.Sprintf("non-default parameter '%s' follows default parameters", p))
		}
	}
	for name := range s.Types {
		if !seen[name] {
			errs = append(errs, fmt.Sprintf("type given for unknown parameter '%s'", name))
		}
	}
	for name := range s.Defaults {
		if !s.IsPositional(name) && !s.IsNamedOnly(name) {
			errs = append(errs, fmt.Sprintf("default given for unknown parameter '%s'", name))
		}
	}
	if lo, hi := s.MinArgs(), s.MaxArgs(); hi >= 0 && lo > hi {
		errs = append(errs, fmt.Sprintf("minimum %d exceeds maximum %d", lo, hi))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid argument specification for '%s':\n- %s", s.Keyword, strings.Join(errs, "\n- "))
}

// String renders the spec in declaration syntax, e.g. "a, b=two, *rest".
func (s *Spec) String() string {
	var parts []string
	for _, p := range s.Positional {
		parts = append(parts, s.describe(p))
	}
	if s.VarPositional != "" {
		parts = append(parts, "*"+s.VarPositional)
	} else if len(s.NamedOnly) > 0 {
		parts = append(parts, "*")
	}
	for _, p := range s.NamedOnly {
		parts = append(parts, s.describe(p))
	}
	if s.VarNamed != "" {
		parts = append(parts, "**"+s.VarNamed)
	}
	return strings.Join(parts, ", ")
}

func (s *Spec) describe(name string) string {
	out := name
	if t := s.Types[name]; t != nil {
		out += ": " + t.Name
	}
	if d, ok := s.Defaults[name]; ok {
		out += "=" + typeconv.Format(d)
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

// countArgs renders "1 argument" or "2 arguments".
func countArgs(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return fmt.Sprintf("%d arguments", n)
}

// arityMessage renders the expected argument count of the spec.
func (s *Spec) arityMessage(given int) string {
	lo, hi := s.MinArgs(), s.MaxArgs()
	var expected string
	switch {
	case hi < 0:
		expected = "at least " + countArgs(lo)
	case lo == hi:
		expected = countArgs(lo)
	default:
		expected = fmt.Sprintf("%d to %s", lo, countArgs(hi))
	}
	return fmt.Sprintf("expected %s, got %d.", expected, given)
}
