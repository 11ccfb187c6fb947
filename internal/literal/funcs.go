// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package literal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// inFuncName is the internal function membership tests are rewritten into.
const inFuncName = "__in"

// functions is the complete set of callable names in conditions.
var functions = map[string]function.Function{
	"len":      lenFunc,
	"str":      strFunc,
	"int":      intFunc,
	"float":    floatFunc,
	"contains": stdlib.ContainsFunc,
	"upper":    stdlib.UpperFunc,
	"lower":    stdlib.LowerFunc,
	"abs":      stdlib.AbsoluteFunc,
	"min":      stdlib.MinFunc,
	"max":      stdlib.MaxFunc,
	inFuncName: inFunc,
}

var lenFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v := args[0]
		ty := v.Type()
		switch {
		case ty == cty.String:
			return cty.NumberIntVal(int64(utf8.RuneCountInString(v.AsString()))), nil
		case ty.IsObjectType():
			return cty.NumberIntVal(int64(len(ty.AttributeTypes()))), nil
		case ty.IsCollectionType() || ty.IsTupleType():
			return cty.NumberIntVal(int64(v.LengthInt())), nil
		}
		return cty.NilVal, fmt.Errorf("object of type %s has no len()", ty.FriendlyName())
	},
})

var strFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType, AllowNull: true}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v, err := FromCty(args[0])
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(ToString(v)), nil
	},
})

var intFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v := args[0]
		switch v.Type() {
		case cty.Number:
			i, _ := v.AsBigFloat().Int(nil)
			return cty.NumberVal(new(big.Float).SetInt(i)), nil
		case cty.Bool:
			if v.True() {
				return cty.NumberIntVal(1), nil
			}
			return cty.NumberIntVal(0), nil
		case cty.String:
			i, err := strconv.ParseInt(strings.TrimSpace(v.AsString()), 10, 64)
			if err != nil {
				return cty.NilVal, fmt.Errorf("invalid literal for int(): %q", v.AsString())
			}
			return cty.NumberIntVal(i), nil
		}
		return cty.NilVal, fmt.Errorf("int() argument must be a string or a number, not %s", v.Type().FriendlyName())
	},
})

var floatFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		v := args[0]
		switch v.Type() {
		case cty.Number:
			return v, nil
		case cty.String:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.AsString()), 64)
			if err != nil {
				return cty.NilVal, fmt.Errorf("could not convert string to float: %q", v.AsString())
			}
			return cty.NumberFloatVal(f), nil
		}
		return cty.NilVal, fmt.Errorf("float() argument must be a string or a number, not %s", v.Type().FriendlyName())
	},
})

// inFunc implements membership: substring for strings, element equality for
// sequences and key presence for mappings.
var inFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "container", Type: cty.DynamicPseudoType},
		{Name: "item", Type: cty.DynamicPseudoType, AllowNull: true},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		container, item := args[0], args[1]
		ty := container.Type()
		switch {
		case ty == cty.String:
			if item.IsNull() || item.Type() != cty.String {
				return cty.NilVal, fmt.Errorf("'in <string>' requires string as left operand")
			}
			return cty.BoolVal(strings.Contains(container.AsString(), item.AsString())), nil
		case ty.IsObjectType():
			if item.IsNull() || item.Type() != cty.String {
				return cty.False, nil
			}
			return cty.BoolVal(ty.HasAttribute(item.AsString())), nil
		case ty.IsMapType():
			if item.IsNull() || item.Type() != cty.String {
				return cty.False, nil
			}
			return container.HasIndex(item), nil
		case ty.IsCollectionType() || ty.IsTupleType():
			for it := container.ElementIterator(); it.Next(); {
				_, elem := it.Element()
				if elem.IsNull() || item.IsNull() {
					if elem.IsNull() && item.IsNull() {
						return cty.True, nil
					}
					continue
				}
				if elem.Type().Equals(item.Type()) && elem.Equals(item).True() {
					return cty.True, nil
				}
			}
			return cty.False, nil
		}
		return cty.NilVal, fmt.Errorf("argument of type %s is not iterable", ty.FriendlyName())
	},
})
