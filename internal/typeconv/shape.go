// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"github.com/vk/kwgrid/internal/literal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// shapeType keeps the structure of a tuple or object type and relaxes every
// element to any. Element values are converted by convertElement.
func shapeType(t cty.Type) cty.Type {
	switch {
	case t.IsTupleType():
		elems := make([]cty.Type, len(t.TupleElementTypes()))
		for i := range elems {
			elems[i] = cty.DynamicPseudoType
		}
		return cty.Tuple(elems)
	case t.IsObjectType():
		attrs := make(map[string]cty.Type, len(t.AttributeTypes()))
		var optional []string
		for name := range t.AttributeTypes() {
			attrs[name] = cty.DynamicPseudoType
			if t.AttributeOptional(name) {
				optional = append(optional, name)
			}
		}
		return cty.ObjectWithOptionalAttrs(attrs, optional)
	}
	return cty.DynamicPseudoType
}

// fitsShape reports whether value has the arity of a tuple type or the
// required attributes of an object type. Values without a cty form, such
// as times, are compared by length or key set directly.
func fitsShape(t cty.Type, value any) bool {
	v, err := literal.ToCty(value)
	if err != nil {
		return fitsShapeDirect(t, value)
	}
	_, err = convert.Convert(v, shapeType(t))
	return err == nil
}

func fitsShapeDirect(t cty.Type, value any) bool {
	switch {
	case t.IsTupleType():
		items, ok := toSlice(value)
		return ok && len(items) == len(t.TupleElementTypes())
	case t.IsObjectType():
		m, ok := toMap(value)
		if !ok {
			return false
		}
		for name := range t.AttributeTypes() {
			if _, present := m[name]; !present && !t.AttributeOptional(name) {
				return false
			}
		}
	}
	return true
}

// missingAttributes lists the required attributes of an object type absent
// from m, in sorted order.
func missingAttributes(t cty.Type, m map[string]any) []string {
	var missing []string
	for _, name := range literal.SortedKeys(t.AttributeTypes()) {
		if _, present := m[name]; !present && !t.AttributeOptional(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
