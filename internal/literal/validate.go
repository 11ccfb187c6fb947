// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package literal

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// validate walks the syntax tree and rejects every node type outside the
// allowed grammar for the given mode.
func validate(expr hclsyntax.Expression, m mode) error {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return nil
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			if _, ok := part.(*hclsyntax.LiteralValueExpr); !ok {
				return fmt.Errorf("string templates are not supported")
			}
		}
		return nil
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			if err := validate(item, m); err != nil {
				return err
			}
		}
		return nil
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			if err := validate(item.KeyExpr, m); err != nil {
				return err
			}
			if err := validate(item.ValueExpr, m); err != nil {
				return err
			}
		}
		return nil
	case *hclsyntax.ObjectConsKeyExpr:
		if name := hcl.ExprAsKeyword(e.Wrapped); name != "" && !e.ForceNonLiteral {
			return nil
		}
		return validate(e.Wrapped, m)
	case *hclsyntax.ParenthesesExpr:
		return validate(e.Expression, m)
	case *hclsyntax.UnaryOpExpr:
		if m == modeLiteral && e.Op != hclsyntax.OpNegate {
			return fmt.Errorf("operators are not allowed in literals")
		}
		return validate(e.Val, m)
	}

	if m == modeLiteral {
		return fmt.Errorf("value is not a literal")
	}

	switch e := expr.(type) {
	case *hclsyntax.BinaryOpExpr:
		if err := validate(e.LHS, m); err != nil {
			return err
		}
		return validate(e.RHS, m)
	case *hclsyntax.ConditionalExpr:
		for _, sub := range []hclsyntax.Expression{e.Condition, e.TrueResult, e.FalseResult} {
			if err := validate(sub, m); err != nil {
				return err
			}
		}
		return nil
	case *hclsyntax.ScopeTraversalExpr:
		root := e.Traversal.RootName()
		if !strings.HasPrefix(root, varPrefix) {
			return fmt.Errorf("name '%s' is not defined", root)
		}
		return nil
	case *hclsyntax.RelativeTraversalExpr:
		return validate(e.Source, m)
	case *hclsyntax.IndexExpr:
		if err := validate(e.Collection, m); err != nil {
			return err
		}
		return validate(e.Key, m)
	case *hclsyntax.FunctionCallExpr:
		if _, ok := functions[e.Name]; !ok {
			return fmt.Errorf("function '%s' is not allowed", e.Name)
		}
		if e.ExpandFinal {
			return fmt.Errorf("argument expansion is not allowed")
		}
		for _, arg := range e.Args {
			if err := validate(arg, m); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("expression of type %T is not allowed", expr)
}
