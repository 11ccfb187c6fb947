// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/zclconf/go-cty/cty"
)

// Kind is the conversion strategy of a type.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindNone
	KindBytes
	KindDatetime
	KindDate
	KindTimedelta
	KindList
	KindTuple
	KindSet
	KindDict
	KindUnion
	KindLiteral
	KindEnum
	KindRecord
	KindCustom
)

// ConverterFunc converts raw text to a custom type.
type ConverterFunc func(text string) (any, error)

// Field is one key of a record type.
type Field struct {
	Name     string
	Type     *TypeInfo
	Required bool
}

// TypeInfo describes a declared parameter type.
type TypeInfo struct {
	// Name is the type as written, e.g. "list[int]".
	Name string
	// Nested holds type parameters, union members or record field types.
	Nested []*TypeInfo
	// Type is the native shape, cty.NilType when the kind has none.
	Type cty.Type
	Kind Kind
	// Members are enum member names or Literal values.
	Members []any
	// Variadic marks tuple[X, ...].
	Variadic bool
	// Fields and Closed describe records.
	Fields []Field
	Closed bool
	Custom ConverterFunc
}

var friendlyNames = map[Kind]string{
	KindAny:       "any",
	KindString:    "string",
	KindInt:       "integer",
	KindFloat:     "float",
	KindBool:      "boolean",
	KindNone:      "None",
	KindBytes:     "bytes",
	KindDatetime:  "datetime",
	KindDate:      "date",
	KindTimedelta: "timedelta",
	KindList:      "list",
	KindTuple:     "tuple",
	KindSet:       "set",
	KindDict:      "dictionary",
}

// String returns the name used in error messages: friendly names for plain
// built-in types, "X or Y" for unions, the written name otherwise.
func (t *TypeInfo) String() string {
	if t == nil {
		return "any"
	}
	switch t.Kind {
	case KindUnion:
		names := make([]string, len(t.Nested))
		for i, n := range t.Nested {
			names[i] = n.String()
		}
		return joinOr(names)
	case KindLiteral:
		names := make([]string, len(t.Members))
		for i, m := range t.Members {
			names[i] = literal.Repr(m)
		}
		return joinOr(names)
	}
	if len(t.Nested) == 0 {
		if name, ok := friendlyNames[t.Kind]; ok {
			return name
		}
	}
	return t.Name
}

// Nullable reports whether None is an accepted value.
func (t *TypeInfo) Nullable() bool {
	if t == nil || t.Kind == KindAny || t.Kind == KindNone {
		return true
	}
	for _, n := range t.Nested {
		if t.Kind == KindUnion && n.Nullable() {
			return true
		}
	}
	if t.Kind == KindLiteral {
		for _, m := range t.Members {
			if m == nil {
				return true
			}
		}
	}
	return false
}

func joinOr(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

// ctyType computes the native handle for a kind with the given parameters.
func ctyType(kind Kind, nested []*TypeInfo, variadic bool) cty.Type {
	elem := func(i int) cty.Type {
		if i >= len(nested) || nested[i].Type == cty.NilType {
			return cty.DynamicPseudoType
		}
		return nested[i].Type
	}
	switch kind {
	case KindAny, KindUnion, KindLiteral:
		return cty.DynamicPseudoType
	case KindString, KindBytes, KindEnum:
		return cty.String
	case KindInt, KindFloat, KindTimedelta:
		return cty.Number
	case KindBool:
		return cty.Bool
	case KindList:
		return cty.List(elem(0))
	case KindSet:
		return cty.Set(elem(0))
	case KindDict:
		return cty.Map(elem(1))
	case KindTuple:
		if variadic || len(nested) == 0 {
			return cty.List(elem(0))
		}
		elems := make([]cty.Type, len(nested))
		for i := range nested {
			elems[i] = elem(i)
		}
		return cty.Tuple(elems)
	}
	return cty.NilType
}

// FromCtyType builds a TypeInfo from a cty type, as declared in HCL type
// expressions. Object types become open records whose optional attributes
// are not required.
func FromCtyType(t cty.Type) *TypeInfo {
	switch {
	case t == cty.DynamicPseudoType:
		return &TypeInfo{Name: "any", Kind: KindAny, Type: t}
	case t == cty.String:
		return &TypeInfo{Name: "str", Kind: KindString, Type: t}
	case t == cty.Number:
		return &TypeInfo{Name: "float", Kind: KindFloat, Type: t}
	case t == cty.Bool:
		return &TypeInfo{Name: "bool", Kind: KindBool, Type: t}
	case t.IsListType():
		el := FromCtyType(t.ElementType())
		return &TypeInfo{Name: "list[" + el.Name + "]", Kind: KindList, Nested: []*TypeInfo{el}, Type: t}
	case t.IsSetType():
		el := FromCtyType(t.ElementType())
		return &TypeInfo{Name: "set[" + el.Name + "]", Kind: KindSet, Nested: []*TypeInfo{el}, Type: t}
	case t.IsMapType():
		el := FromCtyType(t.ElementType())
		key := &TypeInfo{Name: "str", Kind: KindString, Type: cty.String}
		return &TypeInfo{Name: "dict[str, " + el.Name + "]", Kind: KindDict, Nested: []*TypeInfo{key, el}, Type: t}
	case t.IsTupleType():
		var nested []*TypeInfo
		var names []string
		for _, et := range t.TupleElementTypes() {
			n := FromCtyType(et)
			nested = append(nested, n)
			names = append(names, n.Name)
		}
		return &TypeInfo{Name: "tuple[" + strings.Join(names, ", ") + "]", Kind: KindTuple, Nested: nested, Type: t}
	case t.IsObjectType():
		return recordFromObject("record", t, false)
	}
	return &TypeInfo{Name: t.FriendlyName(), Kind: KindAny, Type: cty.DynamicPseudoType}
}

func recordFromObject(name string, t cty.Type, closed bool) *TypeInfo {
	info := &TypeInfo{Name: name, Kind: KindRecord, Type: t, Closed: closed}
	for _, attr := range literal.SortedKeys(t.AttributeTypes()) {
		ft := FromCtyType(t.AttributeType(attr))
		info.Fields = append(info.Fields, Field{Name: attr, Type: ft, Required: !t.AttributeOptional(attr)})
		info.Nested = append(info.Nested, ft)
	}
	return info
}
