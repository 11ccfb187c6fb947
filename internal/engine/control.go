// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/variables"
	"github.com/vk/kwgrid/internal/varscan"
)

func branchName(typ string, parts ...string) string {
	return strings.TrimSpace(strings.Join(append([]string{typ}, parts...), "    "))
}

// runIf runs the first branch whose condition holds. Every other branch
// gets a NOT RUN result, and so does the root when no branch ran.
func (r *runner) runIf(ctx context.Context, f *frame, parent *result.Result, id model.ItemID) error {
	return r.step(ctx, f, parent, id, result.KindIf, "", func(ctx context.Context, res *result.Result) error {
		matched := false
		var out error
		for _, bid := range f.arena().Children(id) {
			branch, ok := f.arena().Get(bid).(*model.IfBranch)
			if !ok {
				return &syntaxError{msg: "IF structure contains an invalid branch."}
			}
			if matched || out != nil {
				r.notRun(f, res, []model.ItemID{bid})
				continue
			}
			take, err := branch.Type == model.BranchElse, error(nil)
			if !take {
				take, err = condition(f.vars, branch.Condition)
			}
			bres := r.enter(ctx, f, res, bid, result.KindBranch, branchName(string(branch.Type), branch.Condition))
			switch {
			case err != nil:
				out = err
			case take:
				matched = true
				out = r.runBody(ctx, f, bres, f.arena().Children(bid))
			default:
				bres.Finish(result.StatusNotRun, "")
			}
			r.leave(ctx, f, bid, bres, out)
		}
		if !matched && out == nil {
			res.Finish(result.StatusNotRun, "")
		}
		return out
	})
}

type tryParts struct {
	try, els, fin model.ItemID
	excepts       []model.ItemID
}

// splitTry validates the branch order TRY, EXCEPT..., ELSE, FINALLY.
func splitTry(arena *model.Arena, ids []model.ItemID) (tryParts, error) {
	parts := tryParts{try: model.NoItem, els: model.NoItem, fin: model.NoItem}
	for i, id := range ids {
		b, ok := arena.Get(id).(*model.TryBranch)
		if !ok {
			return parts, &syntaxError{msg: "TRY structure contains an invalid branch."}
		}
		switch {
		case i == 0 && b.Type != model.BranchTry:
			return parts, &syntaxError{msg: "TRY structure must start with a TRY branch."}
		case b.Type == model.BranchTry && i > 0:
			return parts, &syntaxError{msg: "TRY structure can have only one TRY branch."}
		case parts.fin.Valid():
			return parts, &syntaxError{msg: "FINALLY branch must be last."}
		case b.Type == model.BranchExcept && parts.els.Valid():
			return parts, &syntaxError{msg: "EXCEPT not allowed after ELSE."}
		case b.Type == model.BranchElse && parts.els.Valid():
			return parts, &syntaxError{msg: "Only one ELSE allowed."}
		case b.Type == model.BranchElse && len(parts.excepts) == 0:
			return parts, &syntaxError{msg: "ELSE branch requires an EXCEPT branch."}
		}
		switch b.Type {
		case model.BranchTry:
			parts.try = id
		case model.BranchExcept:
			parts.excepts = append(parts.excepts, id)
		case model.BranchElse:
			parts.els = id
		case model.BranchFinally:
			parts.fin = id
		default:
			return parts, &syntaxError{msg: fmt.Sprintf("Invalid TRY branch type '%s'.", b.Type)}
		}
	}
	if !parts.try.Valid() {
		return parts, &syntaxError{msg: "TRY structure must start with a TRY branch."}
	}
	if len(parts.excepts) == 0 && !parts.fin.Valid() {
		return parts, &syntaxError{msg: "TRY structure must have EXCEPT or FINALLY branch."}
	}
	return parts, nil
}

func (r *runner) runTry(ctx context.Context, f *frame, parent *result.Result, id model.ItemID) error {
	return r.step(ctx, f, parent, id, result.KindTry, "", func(ctx context.Context, res *result.Result) error {
		arena := f.arena()
		parts, err := splitTry(arena, arena.Children(id))
		if err != nil {
			return err
		}

		// 1. TRY
		tryErr := r.runBranch(ctx, f, res, parts.try, nil)
		pending := tryErr
		handled := false

		// 2. First matching EXCEPT
		for _, eid := range parts.excepts {
			branch := arena.Get(eid).(*model.TryBranch)
			_, signal := asSignal(pending)
			if handled || pending == nil || signal || !catchable(pending) {
				r.notRun(f, res, []model.ItemID{eid})
				continue
			}
			ok, err := r.exceptMatches(f, branch, pending.Error())
			if err != nil {
				handled = true
				pending = err
				bres := r.enter(ctx, f, res, eid, result.KindBranch, branchName(string(branch.Type), branch.Patterns...))
				r.leave(ctx, f, eid, bres, err)
				continue
			}
			if !ok {
				r.notRun(f, res, []model.ItemID{eid})
				continue
			}
			handled = true
			message := pending.Error()
			pending = r.runBranch(ctx, f, res, eid, func(vars *variables.Store) error {
				if branch.Assign == "" {
					return nil
				}
				return vars.Set(branch.Assign, message)
			})
		}

		// 3. ELSE when TRY passed
		if parts.els.Valid() {
			if tryErr == nil {
				pending = r.runBranch(ctx, f, res, parts.els, nil)
			} else {
				r.notRun(f, res, []model.ItemID{parts.els})
			}
		}

		// 4. FINALLY always; its failure wins.
		if parts.fin.Valid() {
			ff := f.with(func(c *frame) { c.finally = true })
			if err := r.runBranch(ctx, ff, res, parts.fin, nil); err != nil {
				pending = err
			}
		}
		return pending
	})
}

func (r *runner) runBranch(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, prepare func(*variables.Store) error) error {
	branch := f.arena().Get(id).(*model.TryBranch)
	name := branchName(string(branch.Type), branch.Patterns...)
	return r.step(ctx, f, parent, id, result.KindBranch, name, func(ctx context.Context, res *result.Result) error {
		if branch.Assign != "" {
			res.Assign = []string{branch.Assign}
		}
		if prepare != nil {
			if err := prepare(f.vars); err != nil {
				return err
			}
		}
		return r.runBody(ctx, f, res, f.arena().Children(id))
	})
}

// exceptMatches reports whether an EXCEPT branch handles message. A branch
// without patterns handles everything.
func (r *runner) exceptMatches(f *frame, branch *model.TryBranch, message string) (bool, error) {
	if len(branch.Patterns) == 0 {
		return true, nil
	}
	typ := "LITERAL"
	if branch.PatternType != "" {
		text, err := f.vars.ReplaceText(branch.PatternType)
		if err != nil {
			return false, err
		}
		typ = strings.ToUpper(strings.TrimSpace(text))
	}
	for _, p := range branch.Patterns {
		pattern, err := f.vars.ReplaceText(p)
		if err != nil {
			return false, err
		}
		ok, err := matchMessage(typ, pattern, message)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func matchMessage(typ, pattern, message string) (bool, error) {
	switch typ {
	case "LITERAL":
		return strings.TrimSpace(pattern) == strings.TrimSpace(message), nil
	case "START":
		return strings.HasPrefix(message, pattern), nil
	case "GLOB":
		return globRegexp(pattern).MatchString(message), nil
	case "REGEXP":
		re, err := regexp.Compile(`(?s)^(?:` + pattern + `)$`)
		if err != nil {
			return false, kwerrors.Failf("Invalid EXCEPT pattern '%s': %s", pattern, err)
		}
		return re.MatchString(message), nil
	}
	return false, kwerrors.Failf("Invalid EXCEPT pattern type '%s'. Valid values are 'GLOB', 'REGEXP', 'START' and 'LITERAL'.", typ)
}

// globRegexp translates a glob with *, ? and [chars] into an anchored
// regexp matching across lines.
func globRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return regexp.MustCompile(`^` + regexp.QuoteMeta(glob) + `$`)
	}
	return re
}

func (r *runner) runLoopControl(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, kind model.Kind) error {
	rk := result.KindBreak
	if kind == model.KindContinue {
		rk = result.KindContinue
	}
	return r.step(ctx, f, parent, id, rk, "", func(context.Context, *result.Result) error {
		switch {
		case f.loops == 0:
			return &syntaxError{msg: fmt.Sprintf("%s can only be used inside a loop.", kind)}
		case f.finally:
			return &syntaxError{msg: fmt.Sprintf("%s cannot be used in FINALLY branch.", kind)}
		}
		return &controlSignal{kind: kind}
	})
}

func (r *runner) runVar(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, v *model.VarAssign) error {
	return r.step(ctx, f, parent, id, result.KindVar, v.Name, func(ctx context.Context, res *result.Result) error {
		res.Args = v.Values
		m, ok := varscan.ParseAssign(v.Name, false)
		if !ok {
			return &syntaxError{msg: fmt.Sprintf("Invalid variable name '%s'.", v.Name)}
		}
		sep := " "
		if v.Separator != "" {
			text, err := f.vars.ReplaceText(v.Separator)
			if err != nil {
				return err
			}
			sep = text
		}
		value, err := variableValue(f.vars, m.Identifier, v.Values, sep)
		if err != nil {
			return err
		}
		scope := "LOCAL"
		if v.Scope != "" {
			text, err := f.vars.ReplaceText(v.Scope)
			if err != nil {
				return err
			}
			scope = strings.ToUpper(strings.TrimSpace(text))
		}
		name := m.Name()
		switch scope {
		case "LOCAL":
			return f.vars.Set(name, value)
		case "TEST", "TASK":
			return f.vars.SetScoped(variables.Test, name, value)
		case "SUITE":
			return f.vars.SetScoped(variables.Suite, name, value)
		case "SUITES":
			return f.vars.SetSuites(name, value)
		case "GLOBAL":
			return f.vars.SetScoped(variables.Global, name, value)
		}
		return kwerrors.Failf("VAR option 'scope' does not accept value '%s'. Valid values are 'LOCAL', 'TEST', 'TASK', 'SUITE', 'SUITES' and 'GLOBAL'.", scope)
	})
}

// variableValue builds the value of a VAR item or a suite variable table
// entry: scalars join their values with sep, lists expand @{list} items and
// dictionaries take name=value items or whole &{dict} variables.
func variableValue(vars *variables.Store, ident byte, values []string, sep string) (any, error) {
	switch ident {
	case '@':
		return vars.ReplaceList(values)
	case '&':
		dict := map[string]any{}
		for _, item := range values {
			m := varscan.Search(item, varscan.Options{Identifiers: "&"})
			if m.IsWhole() {
				v, err := vars.ReplaceString(item)
				if err != nil {
					return nil, err
				}
				d, ok := v.(map[string]any)
				if !ok {
					return nil, kwerrors.Failf("Value of variable '%s' is not dictionary or dictionary-like.", item)
				}
				for k, val := range d {
					dict[k] = val
				}
				continue
			}
			i := unescapedEquals(item)
			if i < 0 {
				return nil, kwerrors.Failf("Invalid dictionary variable item '%s'. Items must use 'name=value' syntax or be dictionary variables themselves.", item)
			}
			key, err := vars.ReplaceText(item[:i])
			if err != nil {
				return nil, err
			}
			val, err := vars.ReplaceString(item[i+1:])
			if err != nil {
				return nil, err
			}
			dict[key] = val
		}
		return dict, nil
	}
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return vars.ReplaceString(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		text, err := vars.ReplaceText(v)
		if err != nil {
			return nil, err
		}
		parts[i] = text
	}
	return strings.Join(parts, sep), nil
}

func unescapedEquals(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' && !varscan.IsEscaped(s, i) {
			return i
		}
	}
	return -1
}
