// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package argspec

import (
	"context"
	"slices"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/internal/varscan"
)

// Named is one name=value argument. In the output of Split an empty Name
// marks a "&{dict}" token whose items expand to named arguments.
type Named struct {
	Name  string
	Value any
}

// Bound is the result of binding a call to a spec.
type Bound struct {
	// Positional holds one value per positional parameter followed by the
	// var-positional values.
	Positional []any
	// Named holds named-only values in declaration order followed by the
	// var-named values in call order.
	Named []Named
	// Defaulted lists parameters that took their default value.
	Defaulted []string
}

// NamedMap returns the named values keyed by name.
func (b *Bound) NamedMap() map[string]any {
	out := make(map[string]any, len(b.Named))
	for _, n := range b.Named {
		out[n.Name] = n.Value
	}
	return out
}

// IsDefaulted reports whether the parameter took its default value.
func (b *Bound) IsDefaulted(name string) bool {
	return slices.Contains(b.Defaulted, name)
}

// namedIndex returns the position of the first unescaped "=" or -1.
func namedIndex(token string) int {
	for i := 0; i < len(token); i++ {
		if token[i] == '=' && !varscan.IsEscaped(token, i) {
			return i
		}
	}
	return -1
}

// Split divides raw call-site tokens into positional and named groups. A
// token is named when the text before its first unescaped "=" is a
// parameter the spec accepts by name. A token that is exactly one
// "&{dict}" reference expands to named arguments later. After the first
// named token every token must be named.
func Split(spec *Spec, tokens []string) ([]string, []Named, error) {
	var positional []string
	var named []Named
	for _, token := range tokens {
		if m := varscan.Search(token, varscan.Options{}); m.IsWhole() && m.Identifier == '&' && len(m.Items) == 0 {
			named = append(named, Named{Value: token})
			continue
		}
		if i := namedIndex(token); i > 0 {
			name := token[:i]
			if spec.AcceptsNamed(name) && !varscan.Search(name, varscan.Options{}).Found() {
				named = append(named, Named{Name: name, Value: token[i+1:]})
				continue
			}
		}
		if len(named) > 0 {
			return nil, nil, spec.errorf("got positional argument '%s' after named arguments.", token)
		}
		positional = append(positional, token)
	}
	return positional, named, nil
}

// Resolve binds positional and named values to the spec. Positional values
// fill positional parameters left to right, surplus values go to the
// var-positional parameter, named values fill positional, named-only or
// var-named parameters, and unfilled parameters take their defaults.
// Resolving the returned values again yields the same binding.
func Resolve(spec *Spec, positional []any, named []Named) (*Bound, error) {
	n := len(spec.Positional)
	if len(positional) > n && spec.VarPositional == "" {
		return nil, spec.errorf("%s", spec.arityMessage(len(positional)))
	}
	values := make(map[string]any, n+len(spec.NamedOnly))
	given := make(map[string]bool, n+len(spec.NamedOnly))
	for i := 0; i < n && i < len(positional); i++ {
		values[spec.Positional[i]] = positional[i]
		given[spec.Positional[i]] = true
	}
	var extras []any
	if len(positional) > n {
		extras = positional[n:]
	}

	var varNamed []Named
	seenVarNamed := make(map[string]bool)
	positionalByName := 0
	for _, arg := range named {
		switch {
		case spec.IsPositional(arg.Name) || spec.IsNamedOnly(arg.Name):
			if given[arg.Name] {
				return nil, spec.errorf("got multiple values for argument '%s'.", arg.Name)
			}
			if spec.IsPositional(arg.Name) {
				positionalByName++
			}
			values[arg.Name] = arg.Value
			given[arg.Name] = true
		case spec.VarNamed != "":
			if seenVarNamed[arg.Name] {
				return nil, spec.errorf("got multiple values for argument '%s'.", arg.Name)
			}
			seenVarNamed[arg.Name] = true
			varNamed = append(varNamed, arg)
		default:
			return nil, spec.errorf("got unexpected named argument '%s'.", arg.Name)
		}
	}

	bound := &Bound{Positional: make([]any, 0, n+len(extras))}
	for _, name := range spec.Positional {
		if given[name] {
			bound.Positional = append(bound.Positional, values[name])
			continue
		}
		def, ok := spec.Defaults[name]
		if !ok {
			return nil, spec.errorf("%s", spec.arityMessage(min(len(positional), n)+positionalByName))
		}
		bound.Positional = append(bound.Positional, def)
		bound.Defaulted = append(bound.Defaulted, name)
	}
	bound.Positional = append(bound.Positional, extras...)

	for _, name := range spec.NamedOnly {
		if given[name] {
			bound.Named = append(bound.Named, Named{Name: name, Value: values[name]})
			continue
		}
		def, ok := spec.Defaults[name]
		if !ok {
			return nil, spec.errorf("missing named-only argument '%s'.", name)
		}
		bound.Named = append(bound.Named, Named{Name: name, Value: def})
		bound.Defaulted = append(bound.Defaulted, name)
	}
	bound.Named = append(bound.Named, varNamed...)
	return bound, nil
}

// Convert runs the type converter over bound values whose parameter has a
// declared type and whose value is still raw text. Other values pass
// through unchanged.
func Convert(ctx context.Context, conv *typeconv.Converter, spec *Spec, bound *Bound) (*Bound, error) {
	return convert(ctx, conv, spec, bound, false)
}

// ConvertGiven is Convert leaving defaulted values alone. User keywords
// resolve their defaults in their own scope and convert them with
// ConvertValue.
func ConvertGiven(ctx context.Context, conv *typeconv.Converter, spec *Spec, bound *Bound) (*Bound, error) {
	return convert(ctx, conv, spec, bound, true)
}

// ConvertValue converts one value of the named parameter.
func ConvertValue(ctx context.Context, conv *typeconv.Converter, spec *Spec, name string, value any) (any, error) {
	info := spec.Types[name]
	text, isText := value.(string)
	if info == nil || !isText {
		return value, nil
	}
	out, err := conv.ConvertArgument(name, info, text)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Argument converted.", "keyword", spec.Keyword, "argument", name, "type", info.Name)
	return out, nil
}

func convert(ctx context.Context, conv *typeconv.Converter, spec *Spec, bound *Bound, skipDefaults bool) (*Bound, error) {
	if len(spec.Types) == 0 {
		return bound, nil
	}
	out := &Bound{
		Positional: make([]any, len(bound.Positional)),
		Named:      make([]Named, len(bound.Named)),
		Defaulted:  bound.Defaulted,
	}
	for i, v := range bound.Positional {
		name := spec.VarPositional
		if i < len(spec.Positional) {
			name = spec.Positional[i]
			if skipDefaults && bound.IsDefaulted(name) {
				out.Positional[i] = v
				continue
			}
		}
		converted, err := ConvertValue(ctx, conv, spec, name, v)
		if err != nil {
			return nil, err
		}
		out.Positional[i] = converted
	}
	for i, arg := range bound.Named {
		name := arg.Name
		if !spec.IsNamedOnly(name) {
			name = spec.VarNamed
		} else if skipDefaults && bound.IsDefaulted(name) {
			out.Named[i] = arg
			continue
		}
		converted, err := ConvertValue(ctx, conv, spec, name, arg.Value)
		if err != nil {
			return nil, err
		}
		out.Named[i] = Named{Name: arg.Name, Value: converted}
	}
	return out, nil
}
