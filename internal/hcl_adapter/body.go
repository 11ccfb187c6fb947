// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/kwgrid/internal/model"
)

// itemError keeps a malformed item in the tree so it fails when reached.
func itemError(format string, args ...any) model.Node {
	return model.N(&model.Error{Message: fmt.Sprintf(format, args...)})
}

// items translates the body blocks of a test, keyword or control
// structure. Attributes are settings of the owner and are skipped here.
func (d *decoder) items(body *hclsyntax.Body) []model.Node {
	var nodes []model.Node
	// open is the index of the IF or TRY chain later branches attach to.
	open, openType := -1, ""

	for _, blk := range body.Blocks {
		switch blk.Type {
		case "if":
			branch := d.ifBranch(model.BranchIf, blk)
			nodes = append(nodes, model.N(&model.IfChain{}, branch))
			open, openType = len(nodes)-1, "if"
			continue
		case "else_if":
			if openType != "if" {
				nodes = append(nodes, itemError("ELSE IF without IF."))
				open, openType = -1, ""
				continue
			}
			nodes[open].Children = append(nodes[open].Children, d.ifBranch(model.BranchElseIf, blk))
			continue
		case "try":
			branch := d.tryBranch(model.BranchTry, blk)
			nodes = append(nodes, model.N(&model.TryChain{}, branch))
			open, openType = len(nodes)-1, "try"
			continue
		case "except", "finally":
			typ := model.BranchExcept
			if blk.Type == "finally" {
				typ = model.BranchFinally
			}
			if openType != "try" {
				nodes = append(nodes, itemError("%s without TRY.", typ))
				open, openType = -1, ""
				continue
			}
			nodes[open].Children = append(nodes[open].Children, d.tryBranch(typ, blk))
			continue
		case "else":
			switch openType {
			case "if":
				nodes[open].Children = append(nodes[open].Children, d.ifBranch(model.BranchElse, blk))
			case "try":
				nodes[open].Children = append(nodes[open].Children, d.tryBranch(model.BranchElse, blk))
			default:
				nodes = append(nodes, itemError("ELSE without IF or TRY."))
				open, openType = -1, ""
			}
			continue
		}

		open, openType = -1, ""
		switch blk.Type {
		case "call":
			nodes = append(nodes, d.call(blk))
		case "var":
			nodes = append(nodes, d.varItem(blk))
		case "for":
			nodes = append(nodes, d.forLoop(blk))
		case "while":
			nodes = append(nodes, d.whileLoop(blk))
		case "return":
			values, err := d.values(blk, "values")
			if err != nil {
				nodes = append(nodes, itemError("Invalid RETURN: %s", err))
				continue
			}
			nodes = append(nodes, model.N(&model.Return{Values: values}))
		case "break":
			nodes = append(nodes, model.N(&model.Break{}))
		case "continue":
			nodes = append(nodes, model.N(&model.Continue{}))
		default:
			nodes = append(nodes, itemError("Unrecognized block '%s'.", blk.Type))
		}
	}
	return nodes
}

// settings reads the attributes of an item block. Unknown attributes are
// reported as an error so the item fails.
func (d *decoder) settings(blk *hclsyntax.Block, known ...string) (map[string]hclsyntax.Expression, error) {
	out := make(map[string]hclsyntax.Expression)
	for _, a := range sortedAttrs(blk.Body) {
		ok := false
		for _, k := range known {
			if a.Name == k {
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unsupported setting '%s' at %s", a.Name, a.SrcRange)
		}
		out[a.Name] = a.Expr
	}
	return out, nil
}

func (d *decoder) values(blk *hclsyntax.Block, name string) ([]string, error) {
	set, err := d.settings(blk, name)
	if err != nil {
		return nil, err
	}
	if expr, ok := set[name]; ok {
		return d.src.rawStrings(expr)
	}
	return nil, nil
}

func (d *decoder) str(set map[string]hclsyntax.Expression, name string) (string, error) {
	expr, ok := set[name]
	if !ok || !isExprDefined(expr) {
		return "", nil
	}
	return d.src.rawString(expr)
}

func (d *decoder) strs(set map[string]hclsyntax.Expression, name string) ([]string, error) {
	expr, ok := set[name]
	if !ok || !isExprDefined(expr) {
		return nil, nil
	}
	return d.src.rawStrings(expr)
}

func (d *decoder) call(blk *hclsyntax.Block) model.Node {
	set, err := d.settings(blk, "name", "args", "named", "assign")
	if err != nil {
		return itemError("Invalid keyword call: %s", err)
	}
	call := &model.KeywordCall{Lineno: blk.DefRange().Start.Line}
	switch {
	case len(blk.Labels) == 1:
		call.Name = blk.Labels[0]
	case len(blk.Labels) > 1:
		return itemError("Keyword call accepts one name label, got %d.", len(blk.Labels))
	default:
		if call.Name, err = d.str(set, "name"); err != nil {
			return itemError("Invalid keyword call: %s", err)
		}
	}
	if call.Args, err = d.strs(set, "args"); err != nil {
		return itemError("Invalid keyword call '%s': %s", call.Name, err)
	}
	if call.Assign, err = d.strs(set, "assign"); err != nil {
		return itemError("Invalid keyword call '%s': %s", call.Name, err)
	}
	if expr, ok := set["named"]; ok {
		items, err := d.src.rawObject(expr)
		if err != nil {
			return itemError("Invalid keyword call '%s': %s", call.Name, err)
		}
		call.Named = make(map[string]string, len(items))
		for _, item := range items {
			v, err := d.src.rawString(item.value)
			if err != nil {
				return itemError("Invalid keyword call '%s': %s", call.Name, err)
			}
			call.Named[item.key] = v
		}
	}
	return model.N(call)
}

func (d *decoder) varItem(blk *hclsyntax.Block) model.Node {
	set, err := d.settings(blk, "name", "value", "values", "scope", "separator")
	if err != nil {
		return itemError("Invalid VAR: %s", err)
	}
	v := &model.VarAssign{}
	if v.Name, err = d.str(set, "name"); err != nil {
		return itemError("Invalid VAR: %s", err)
	}
	if _, ok := set["value"]; ok {
		var one string
		if one, err = d.str(set, "value"); err != nil {
			return itemError("Invalid VAR '%s': %s", v.Name, err)
		}
		v.Values = []string{one}
	}
	if _, ok := set["values"]; ok {
		if v.Values != nil {
			return itemError("Invalid VAR '%s': 'value' and 'values' cannot be used together.", v.Name)
		}
		if v.Values, err = d.strs(set, "values"); err != nil {
			return itemError("Invalid VAR '%s': %s", v.Name, err)
		}
	}
	if v.Scope, err = d.str(set, "scope"); err != nil {
		return itemError("Invalid VAR '%s': %s", v.Name, err)
	}
	if _, ok := set["separator"]; ok {
		sep, err := d.str(set, "separator")
		if err != nil {
			return itemError("Invalid VAR '%s': %s", v.Name, err)
		}
		v.Separator = sep
	}
	return model.N(v)
}

var forModes = map[string]model.ForMode{
	"in":           model.ForIn,
	"in_range":     model.ForInRange,
	"in_enumerate": model.ForInEnumerate,
	"in_zip":       model.ForInZip,
}

func (d *decoder) forLoop(blk *hclsyntax.Block) model.Node {
	set, err := d.settings(blk, "vars", "in", "in_range", "in_enumerate", "in_zip",
		"start", "mode", "fill", "limit", "on_limit", "on_limit_message")
	if err != nil {
		return itemError("Invalid FOR loop: %s", err)
	}
	loop := &model.ForLoop{}
	if loop.Vars, err = d.strs(set, "vars"); err != nil {
		return itemError("Invalid FOR loop: %s", err)
	}

	var modes []string
	for key, mode := range forModes {
		expr, ok := set[key]
		if !ok {
			continue
		}
		modes = append(modes, key)
		loop.Mode = mode
		if loop.Values, err = d.src.rawStrings(expr); err != nil {
			return itemError("Invalid FOR loop: %s", err)
		}
	}
	switch len(modes) {
	case 0:
		return itemError("FOR loop has no 'in', 'in_range', 'in_enumerate' or 'in_zip' values.")
	case 1:
	default:
		sort.Strings(modes)
		return itemError("FOR loop accepts one iteration mode, got %s.", strings.Join(modes, " and "))
	}

	for key, dst := range map[string]*string{
		"start":            &loop.Start,
		"mode":             &loop.ZipMode,
		"fill":             &loop.Fill,
		"limit":            &loop.Limit,
		"on_limit":         &loop.OnLimit,
		"on_limit_message": &loop.OnLimitMessage,
	} {
		if *dst, err = d.str(set, key); err != nil {
			return itemError("Invalid FOR loop: %s", err)
		}
	}
	return model.N(loop, d.items(blk.Body)...)
}

func (d *decoder) whileLoop(blk *hclsyntax.Block) model.Node {
	set, err := d.settings(blk, "condition", "limit", "on_limit", "on_limit_message")
	if err != nil {
		return itemError("Invalid WHILE loop: %s", err)
	}
	loop := &model.WhileLoop{}
	for key, dst := range map[string]*string{
		"condition":        &loop.Condition,
		"limit":            &loop.Limit,
		"on_limit":         &loop.OnLimit,
		"on_limit_message": &loop.OnLimitMessage,
	} {
		if *dst, err = d.str(set, key); err != nil {
			return itemError("Invalid WHILE loop: %s", err)
		}
	}
	return model.N(loop, d.items(blk.Body)...)
}

func (d *decoder) ifBranch(typ model.BranchType, blk *hclsyntax.Block) model.Node {
	known := []string{"condition"}
	if typ == model.BranchElse {
		known = nil
	}
	set, err := d.settings(blk, known...)
	if err != nil {
		return model.N(&model.IfBranch{Type: typ}, itemError("Invalid %s branch: %s", typ, err))
	}
	b := &model.IfBranch{Type: typ}
	if b.Condition, err = d.str(set, "condition"); err != nil {
		return model.N(&model.IfBranch{Type: typ}, itemError("Invalid %s branch: %s", typ, err))
	}
	return model.N(b, d.items(blk.Body)...)
}

func (d *decoder) tryBranch(typ model.BranchType, blk *hclsyntax.Block) model.Node {
	var known []string
	if typ == model.BranchExcept {
		known = []string{"patterns", "type", "assign"}
	}
	set, err := d.settings(blk, known...)
	if err != nil {
		return model.N(&model.TryBranch{Type: typ}, itemError("Invalid %s branch: %s", typ, err))
	}
	b := &model.TryBranch{Type: typ}
	if b.Patterns, err = d.strs(set, "patterns"); err == nil {
		if b.PatternType, err = d.str(set, "type"); err == nil {
			b.Assign, err = d.str(set, "assign")
		}
	}
	if err != nil {
		return model.N(&model.TryBranch{Type: typ}, itemError("Invalid %s branch: %s", typ, err))
	}
	return model.N(b, d.items(blk.Body)...)
}
