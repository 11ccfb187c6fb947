// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/zclconf/go-cty/cty"
)

var builtinKinds = map[string]Kind{
	"any": KindAny, "object": KindAny,
	"str": KindString, "string": KindString, "text": KindString,
	"int": KindInt, "integer": KindInt, "long": KindInt,
	"float": KindFloat, "double": KindFloat, "number": KindFloat,
	"bool": KindBool, "boolean": KindBool,
	"none": KindNone, "nonetype": KindNone,
	"bytes": KindBytes, "bytearray": KindBytes,
	"datetime": KindDatetime,
	"date": KindDate,
	"timedelta": KindTimedelta, "duration": KindTimedelta,
	"list": KindList, "sequence": KindList,
	"tuple": KindTuple,
	"set": KindSet, "frozenset": KindSet,
	"dict": KindDict, "dictionary": KindDict, "mapping": KindDict, "map": KindDict,
}

// Parse parses a type string. Names registered on the converter take
// precedence over built-in names.
func (c *Converter) Parse(text string) (*TypeInfo, error) {
	p := &typeParser{src: text, conv: c}
	info, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("invalid type '%s': unexpected '%s'", text, p.src[p.pos:])
	}
	return info, nil
}

// MustParse is Parse for types known to be valid; it panics on error.
func (c *Converter) MustParse(text string) *TypeInfo {
	info, err := c.Parse(text)
	if err != nil {
		panic(err)
	}
	return info
}

type typeParser struct {
	src  string
	pos  int
	conv *Converter
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type '%s': %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) union() (*TypeInfo, error) {
	first, err := p.term()
	if err != nil {
		return nil, err
	}
	members := []*TypeInfo{first}
	for p.peek() == '|' {
		p.pos++
		next, err := p.term()
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return newUnion(members), nil
}

func newUnion(members []*TypeInfo) *TypeInfo {
	var flat []*TypeInfo
	for _, m := range members {
		if m.Kind == KindUnion {
			flat = append(flat, m.Nested...)
			continue
		}
		flat = append(flat, m)
	}
	names := make([]string, len(flat))
	for i, m := range flat {
		names[i] = m.Name
	}
	return &TypeInfo{
		Name:   strings.Join(names, " | "),
		Kind:   KindUnion,
		Nested: flat,
		Type:   ctyType(KindUnion, flat, false),
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) term() (*TypeInfo, error) {
	name := p.ident()
	if name == "" {
		return nil, p.errorf("expected a type name")
	}
	lower := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(name, "typing."), "collections.abc."))

	if lower == "literal" {
		return p.literalTerm(name)
	}

	var params []*TypeInfo
	variadic := false
	if p.peek() == '[' {
		p.pos++
		for {
			if p.peek() == '.' && strings.HasPrefix(p.src[p.pos:], "...") {
				p.pos += 3
				variadic = true
			} else {
				param, err := p.union()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
			}
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case ']':
				p.pos++
			default:
				return nil, p.errorf("expected ',' or ']'")
			}
			break
		}
	}

	switch lower {
	case "union":
		if len(params) == 0 {
			return nil, p.errorf("Union requires parameters")
		}
		return newUnion(params), nil
	case "optional":
		if len(params) != 1 {
			return nil, p.errorf("Optional requires exactly one parameter")
		}
		return newUnion([]*TypeInfo{params[0], noneType()}), nil
	}

	if registered, ok := p.conv.lookup(name); ok {
		if len(params) > 0 {
			return nil, p.errorf("type '%s' does not accept parameters", name)
		}
		return registered, nil
	}

	kind, ok := builtinKinds[lower]
	if !ok {
		return nil, p.errorf("unknown type '%s'", name)
	}
	if err := checkParams(kind, params, variadic); err != nil {
		return nil, p.errorf("%s", err)
	}
	return &TypeInfo{
		Name:     p.written(name, params, variadic),
		Kind:     kind,
		Nested:   params,
		Variadic: variadic,
		Type:     ctyType(kind, params, variadic),
	}, nil
}

func (p *typeParser) written(name string, params []*TypeInfo, variadic bool) string {
	if len(params) == 0 {
		return name
	}
	names := make([]string, len(params))
	for i, n := range params {
		names[i] = n.Name
	}
	if variadic {
		names = append(names, "...")
	}
	return name + "[" + strings.Join(names, ", ") + "]"
}

func checkParams(kind Kind, params []*TypeInfo, variadic bool) error {
	n := len(params)
	switch kind {
	case KindList, KindSet:
		if n > 1 || variadic {
			return fmt.Errorf("%s accepts one parameter", friendlyNames[kind])
		}
	case KindDict:
		if n != 0 && n != 2 || variadic {
			return fmt.Errorf("dictionary accepts two parameters")
		}
	case KindTuple:
		if variadic && n != 1 {
			return fmt.Errorf("variadic tuple accepts exactly one element type")
		}
	default:
		if n > 0 || variadic {
			return fmt.Errorf("%s does not accept parameters", friendlyNames[kind])
		}
	}
	return nil
}

func noneType() *TypeInfo {
	return &TypeInfo{Name: "None", Kind: KindNone, Type: cty.DynamicPseudoType}
}

// literalTerm parses Literal['a', 1, None] whose parameters are values.
func (p *typeParser) literalTerm(name string) (*TypeInfo, error) {
	if p.peek() != '[' {
		return nil, p.errorf("Literal requires values")
	}
	start := p.pos
	depth := 0
	end := -1
	inQuote := byte(0)
	for i := p.pos; i < len(p.src); i++ {
		c := p.src[i]
		switch {
		case inQuote != 0:
			if c == '\\' {
				i++
			} else if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, p.errorf("unclosed Literal")
	}
	body := p.src[start+1 : end]
	p.pos = end + 1
	v, err := literal.Parse("[" + body + "]")
	if err != nil {
		return nil, p.errorf("invalid Literal values: %s", err)
	}
	values, _ := v.([]any)
	if len(values) == 0 {
		return nil, p.errorf("Literal requires values")
	}
	return &TypeInfo{
		Name:    name + "[" + strings.TrimSpace(body) + "]",
		Kind:    KindLiteral,
		Members: values,
		Type:    ctyType(KindLiteral, nil, false),
	}, nil
}
