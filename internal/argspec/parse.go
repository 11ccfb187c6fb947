// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package argspec

import (
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/internal/varscan"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("Invalid argument specification: "+format, args...)
}

// splitType splits "name: type" into its parts.
func splitType(text string) (string, string) {
	name, typ, found := strings.Cut(text, ":")
	if !found {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(typ)
}

// builder accumulates parameters in declaration order and enforces the
// ordering rules shared by both declaration styles.
type builder struct {
	spec      *Spec
	conv      *typeconv.Converter
	namedOnly bool
	defaulted bool
}

func newBuilder(conv *typeconv.Converter, keyword string) *builder {
	return &builder{
		spec: &Spec{Keyword: keyword, Defaults: map[string]any{}, Types: map[string]*typeconv.TypeInfo{}},
		conv: conv,
	}
}

func (b *builder) checkOpen() error {
	if b.spec.VarNamed != "" {
		return invalid("Only last argument can be kwargs.")
	}
	return nil
}

func (b *builder) setType(name, typ, decl string) error {
	if typ == "" {
		return nil
	}
	if b.conv == nil {
		return invalid("Types are not supported in '%s'.", decl)
	}
	info, err := b.conv.Parse(typ)
	if err != nil {
		return invalid("Invalid type in '%s': %s", decl, err)
	}
	b.spec.Types[name] = info
	return nil
}

func (b *builder) addScalar(name string, def any, hasDefault bool) error {
	if b.namedOnly {
		b.spec.NamedOnly = append(b.spec.NamedOnly, name)
	} else {
		if !hasDefault && b.defaulted {
			return invalid("Non-default argument after default arguments.")
		}
		b.defaulted = b.defaulted || hasDefault
		b.spec.Positional = append(b.spec.Positional, name)
	}
	if hasDefault {
		b.spec.Defaults[name] = def
	}
	return nil
}

func (b *builder) addVarPositional(name string) error {
	if b.namedOnly {
		return invalid("Cannot have multiple varargs.")
	}
	b.namedOnly = true
	b.spec.VarPositional = name
	return nil
}

func (b *builder) finish() (*Spec, error) {
	if err := b.spec.Validate(); err != nil {
		return nil, err
	}
	return b.spec, nil
}

// ParseUser parses user keyword argument declarations such as "${a}",
// "${b: int}=2", "@{rest}", "@{}" (named-only marker) and "&{named}".
// Defaults are kept as raw text and resolved by the caller when the keyword
// runs.
func ParseUser(conv *typeconv.Converter, keyword string, decls []string) (*Spec, error) {
	b := newBuilder(conv, keyword)
	for _, decl := range decls {
		if err := b.checkOpen(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(decl) == "@{}" {
			if err := b.addVarPositional(""); err != nil {
				return nil, err
			}
			continue
		}
		m := varscan.Search(decl, varscan.Options{Identifiers: "$@&"})
		if !m.Found() || m.Start != 0 || len(m.Items) > 0 {
			return nil, invalid("Invalid argument syntax '%s'.", decl)
		}
		def, hasDefault := strings.CutPrefix(m.After(), "=")
		if m.After() != "" && !hasDefault {
			return nil, invalid("Invalid argument syntax '%s'.", decl)
		}
		name, typ := splitType(m.Base)

		var err error
		switch m.Identifier {
		case '$':
			if name == "" {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			err = b.addScalar(name, def, hasDefault)
		case '@':
			if hasDefault {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			if name == "" {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			err = b.addVarPositional(name)
		case '&':
			if hasDefault || name == "" {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			b.spec.VarNamed = name
		}
		if err != nil {
			return nil, err
		}
		if err := b.setType(name, typ, decl); err != nil {
			return nil, err
		}
	}
	return b.finish()
}

// ParseDynamic parses library argument declarations: "a", "b=default",
// "c: int", "*args", "*" (named-only marker) and "**kwargs". Types may also
// come separately, keyed by parameter name.
func ParseDynamic(conv *typeconv.Converter, keyword string, decls []string, types map[string]string) (*Spec, error) {
	b := newBuilder(conv, keyword)
	for _, decl := range decls {
		if err := b.checkOpen(); err != nil {
			return nil, err
		}
		text, def, hasDefault := strings.Cut(decl, "=")
		text = strings.TrimSpace(text)
		name, typ := splitType(text)

		var err error
		switch {
		case strings.HasPrefix(name, "**"):
			name = name[2:]
			if hasDefault || name == "" {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			b.spec.VarNamed = name
		case strings.HasPrefix(name, "*"):
			name = name[1:]
			if hasDefault {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			err = b.addVarPositional(name)
		default:
			if name == "" {
				return nil, invalid("Invalid argument syntax '%s'.", decl)
			}
			err = b.addScalar(name, def, hasDefault)
		}
		if err != nil {
			return nil, err
		}
		if err := b.setType(name, typ, decl); err != nil {
			return nil, err
		}
	}
	for _, name := range literal.SortedKeys(types) {
		if _, declared := b.spec.Types[name]; declared {
			continue
		}
		if err := b.setType(name, types[name], name); err != nil {
			return nil, err
		}
	}
	return b.finish()
}
