// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// source gives access to the bytes of one parsed file so expressions can
// be read verbatim.
type source struct {
	path  string
	bytes []byte
}

func (s *source) text(r hcl.Range) string {
	return string(r.SliceBytes(s.bytes))
}

// isExprDefined checks if an HCL expression was actually present in the
// source. Omitted optional attributes may be represented by zero-width
// placeholder expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// rawString returns the text of a scalar expression without applying HCL
// template semantics.
func (s *source) rawString(expr hclsyntax.Expression) (string, error) {
	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr, *hclsyntax.TemplateWrapExpr:
		return s.unquote(e.Range())
	case *hclsyntax.LiteralValueExpr:
		if e.Val.IsNull() {
			return "None", nil
		}
		return s.text(e.Range()), nil
	case *hclsyntax.TupleConsExpr:
		return "", fmt.Errorf("%s: expected a single value, got a list", e.Range())
	case *hclsyntax.ObjectConsExpr:
		return "", fmt.Errorf("%s: expected a single value, got an object", e.Range())
	}
	return strings.TrimSpace(s.text(expr.Range())), nil
}

// rawStrings accepts a list or a single value.
func (s *source) rawStrings(expr hclsyntax.Expression) ([]string, error) {
	tuple, ok := expr.(*hclsyntax.TupleConsExpr)
	if !ok {
		v, err := s.rawString(expr)
		if err != nil {
			return nil, err
		}
		return []string{v}, nil
	}
	out := make([]string, 0, len(tuple.Exprs))
	for _, item := range tuple.Exprs {
		v, err := s.rawString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type objectItem struct {
	key   string
	value hclsyntax.Expression
}

// rawObject returns the items of an object constructor in source order.
func (s *source) rawObject(expr hclsyntax.Expression) ([]objectItem, error) {
	obj, ok := expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object", expr.Range())
	}
	items := make([]objectItem, 0, len(obj.Items))
	for _, item := range obj.Items {
		key := hcl.ExprAsKeyword(item.KeyExpr)
		if key == "" {
			keyExpr := item.KeyExpr
			if wrapped, ok := keyExpr.(*hclsyntax.ObjectConsKeyExpr); ok {
				keyExpr = wrapped.Wrapped
			}
			var err error
			if key, err = s.rawString(keyExpr); err != nil {
				return nil, err
			}
		}
		items = append(items, objectItem{key: key, value: item.ValueExpr})
	}
	return items, nil
}

func (s *source) unquote(r hcl.Range) (string, error) {
	raw := s.text(r)
	if strings.HasPrefix(raw, "<<") {
		return heredoc(raw), nil
	}
	v, err := strconv.Unquote(raw)
	if err != nil {
		return "", fmt.Errorf("%s: invalid string %s: %w", r, raw, err)
	}
	v = strings.ReplaceAll(v, "$${", "${")
	return strings.ReplaceAll(v, "%%{", "%{"), nil
}

// heredoc returns the content lines of a heredoc including the final
// newline. The "<<-" form strips the common leading whitespace.
func heredoc(raw string) string {
	lines := strings.Split(raw, "\n")
	marker := strings.TrimSpace(strings.TrimLeft(lines[0], "<-"))
	indented := strings.HasPrefix(lines[0], "<<-")
	body := lines[1:]
	for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
		body = body[:len(body)-1]
	}
	if len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == marker {
		body = body[:len(body)-1]
	}
	if indented {
		trim := -1
		for _, l := range body {
			if strings.TrimSpace(l) == "" {
				continue
			}
			n := len(l) - len(strings.TrimLeft(l, " \t"))
			if trim < 0 || n < trim {
				trim = n
			}
		}
		for i, l := range body {
			if len(l) >= trim && trim > 0 {
				body[i] = l[trim:]
			}
		}
	}
	if len(body) == 0 {
		return ""
	}
	return strings.Join(body, "\n") + "\n"
}
