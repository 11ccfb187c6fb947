// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timestr"
	"github.com/vk/kwgrid/internal/variables"
	"github.com/vk/kwgrid/internal/varscan"
)

// defaultWhileLimit bounds WHILE loops without an explicit limit.
const defaultWhileLimit = 10000

func forName(loop *model.ForLoop) string {
	parts := append(append(append([]string{}, loop.Vars...), string(loop.Mode)), loop.Values...)
	return strings.Join(parts, "    ")
}

// placeholder records the single NOT RUN iteration of a loop whose body
// never ran.
func placeholder(res *result.Result) {
	res.Add(result.KindIteration, "").Finish(result.StatusNotRun, "")
}

func (r *runner) runFor(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, loop *model.ForLoop) error {
	return r.step(ctx, f, parent, id, result.KindFor, forName(loop), func(ctx context.Context, res *result.Result) error {
		// The start hook may have replaced the loop body.
		loop, _ := f.arena().Get(id).(*model.ForLoop)
		if len(loop.Body) == 0 {
			placeholder(res)
			return &syntaxError{msg: "FOR loop cannot be empty."}
		}
		if err := checkLoopVars(loop.Vars); err != nil {
			placeholder(res)
			return err
		}
		lim, err := parseLoopLimit(f.vars, "FOR", loop.Limit, loop.OnLimit, loop.OnLimitMessage, 0)
		if err != nil {
			placeholder(res)
			return err
		}
		iterations, err := forIterations(f.vars, loop)
		if err != nil {
			placeholder(res)
			return err
		}
		if len(iterations) == 0 {
			placeholder(res)
			return nil
		}

		lf := f.with(func(c *frame) {
			c.loops++
			c.finally = false
		})
		started := time.Now()
		var failures []error
		for i, values := range iterations {
			if ctx.Err() != nil {
				return kwerrors.Join(append(failures, context.Cause(ctx))...)
			}
			if lim.reached(i, started) {
				return lim.outcome(ctx, failures)
			}
			vars := lf.vars.Child(variables.Local)
			ires := res.Add(result.KindIteration, "")
			ires.Variables = make(map[string]string, len(loop.Vars))
			names := make([]string, len(loop.Vars))
			for j, name := range loop.Vars {
				if err := vars.SetLocal(name, values[j]); err != nil {
					ires.Finish(result.StatusFail, err.Error())
					return kwerrors.Join(append(failures, err)...)
				}
				ires.Variables[name] = literal.ToString(values[j])
				names[j] = name + " = " + literal.ToString(values[j])
			}
			ires.Name = strings.Join(names, ", ")
			err := r.runBody(ctx, lf.with(func(c *frame) { c.vars = vars }), ires, f.arena().Children(id))
			if stop, out := afterIteration(lf, ires, err, &failures); stop {
				return out
			}
		}
		return kwerrors.Join(failures...)
	})
}

func (r *runner) runWhile(ctx context.Context, f *frame, parent *result.Result, id model.ItemID, loop *model.WhileLoop) error {
	return r.step(ctx, f, parent, id, result.KindWhile, loop.Condition, func(ctx context.Context, res *result.Result) error {
		loop, _ := f.arena().Get(id).(*model.WhileLoop)
		if len(loop.Body) == 0 {
			placeholder(res)
			return &syntaxError{msg: "WHILE loop cannot be empty."}
		}
		lim, err := parseLoopLimit(f.vars, "WHILE", loop.Limit, loop.OnLimit, loop.OnLimitMessage, defaultWhileLimit)
		if err != nil {
			placeholder(res)
			return err
		}

		lf := f.with(func(c *frame) {
			c.loops++
			c.finally = false
		})
		started := time.Now()
		var failures []error
		count := 0
		for ; ; count++ {
			if ctx.Err() != nil {
				return kwerrors.Join(append(failures, context.Cause(ctx))...)
			}
			if loop.Condition != "" {
				ok, err := condition(lf.vars, loop.Condition)
				if err != nil {
					if count == 0 {
						placeholder(res)
					}
					return kwerrors.Join(append(failures, err)...)
				}
				if !ok {
					break
				}
			}
			if lim.reached(count, started) {
				return lim.outcome(ctx, failures)
			}
			ires := res.Add(result.KindIteration, "")
			err := r.runBody(ctx, lf, ires, f.arena().Children(id))
			if stop, out := afterIteration(lf, ires, err, &failures); stop {
				return out
			}
		}
		if count == 0 {
			placeholder(res)
		}
		return kwerrors.Join(failures...)
	})
}

// afterIteration finishes an iteration result and decides whether the loop
// ends. When it does, out is what the loop returns.
func afterIteration(f *frame, ires *result.Result, err error, failures *[]error) (stop bool, out error) {
	if sig, ok := asSignal(err); ok {
		ires.Finish(result.StatusPass, "")
		switch sig.kind {
		case model.KindContinue:
			return false, nil
		case model.KindBreak:
			return true, kwerrors.Join(*failures...)
		}
		if len(*failures) > 0 {
			return true, kwerrors.Join(*failures...)
		}
		return true, err
	}
	finish(ires, err)
	if err == nil {
		return false, nil
	}
	*failures = append(*failures, err)
	if f.continues(err) {
		return false, nil
	}
	return true, kwerrors.Join(*failures...)
}

func checkLoopVars(names []string) error {
	if len(names) == 0 {
		return &syntaxError{msg: "FOR loop has no loop variables."}
	}
	for _, name := range names {
		if m, ok := varscan.ParseAssign(name, false); !ok || m.Identifier != '$' {
			return &syntaxError{msg: fmt.Sprintf("Invalid FOR loop variable '%s'.", name)}
		}
	}
	return nil
}

// forIterations evaluates the loop values once and groups them into one
// slice of values per iteration, one value per loop variable.
func forIterations(vars *variables.Store, loop *model.ForLoop) ([][]any, error) {
	n := len(loop.Vars)
	switch loop.Mode {
	case model.ForIn, "":
		items, err := vars.ReplaceList(loop.Values)
		if err != nil {
			return nil, err
		}
		return groupValues(items, n)
	case model.ForInRange:
		items, err := vars.ReplaceList(loop.Values)
		if err != nil {
			return nil, err
		}
		numbers, err := rangeValues(vars, items)
		if err != nil {
			return nil, err
		}
		return groupValues(numbers, n)
	case model.ForInEnumerate:
		return enumerateValues(vars, loop)
	case model.ForInZip:
		return zipValues(vars, loop)
	}
	return nil, &syntaxError{msg: fmt.Sprintf("Invalid FOR loop type '%s'. Expected 'IN', 'IN RANGE', 'IN ENUMERATE' or 'IN ZIP'.", loop.Mode)}
}

func groupValues(items []any, n int) ([][]any, error) {
	if len(items)%n != 0 {
		return nil, kwerrors.Failf("Number of FOR loop values should be multiple of its variables. Got %d variables but %d value%s.",
			n, len(items), plural(len(items)))
	}
	out := make([][]any, 0, len(items)/n)
	for i := 0; i < len(items); i += n {
		out = append(out, items[i:i+n])
	}
	return out, nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func rangeValues(vars *variables.Store, items []any) ([]any, error) {
	if len(items) == 0 || len(items) > 3 {
		return nil, kwerrors.Failf("FOR IN RANGE expected 1-3 arguments, got %d.", len(items))
	}
	nums := make([]float64, len(items))
	integers := true
	for i, item := range items {
		v, err := toNumber(vars, item)
		if err != nil {
			return nil, err
		}
		nums[i] = v
		integers = integers && v == math.Trunc(v)
	}
	start, end, step := 0.0, nums[0], 1.0
	if len(nums) > 1 {
		start, end = nums[0], nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	if step == 0 {
		return nil, kwerrors.Failf("FOR IN RANGE step cannot be 0.")
	}
	var out []any
	for v := start; (step > 0 && v < end) || (step < 0 && v > end); v += step {
		if integers {
			out = append(out, int(v))
		} else {
			out = append(out, v)
		}
	}
	return out, nil
}

// toNumber accepts numbers and strings holding a number or an expression.
func toNumber(vars *variables.Store, item any) (float64, error) {
	switch v := item.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		value, err := literal.Evaluate(v, vars.Lookup)
		if err != nil {
			return 0, kwerrors.Failf("Converting FOR IN RANGE argument '%s' to number failed: %s", v, err)
		}
		return toNumber(vars, value)
	}
	return 0, kwerrors.Failf("FOR IN RANGE argument must be a number, got %s.", literal.Repr(item))
}

func enumerateValues(vars *variables.Store, loop *model.ForLoop) ([][]any, error) {
	start := 0
	if loop.Start != "" {
		text, err := vars.ReplaceText(loop.Start)
		if err != nil {
			return nil, err
		}
		if start, err = strconv.Atoi(strings.TrimSpace(text)); err != nil {
			return nil, kwerrors.Failf("Invalid FOR IN ENUMERATE start value '%s': expected an integer.", text)
		}
	}
	items, err := vars.ReplaceList(loop.Values)
	if err != nil {
		return nil, err
	}
	n := len(loop.Vars)
	if n == 1 {
		out := make([][]any, len(items))
		for i, item := range items {
			out[i] = []any{[]any{start + i, item}}
		}
		return out, nil
	}
	groups, err := groupValues(items, n-1)
	if err != nil {
		return nil, err
	}
	out := make([][]any, len(groups))
	for i, g := range groups {
		out[i] = append([]any{start + i}, g...)
	}
	return out, nil
}

func zipValues(vars *variables.Store, loop *model.ForLoop) ([][]any, error) {
	mode := "SHORTEST"
	if loop.ZipMode != "" {
		text, err := vars.ReplaceText(loop.ZipMode)
		if err != nil {
			return nil, err
		}
		mode = strings.ToUpper(strings.TrimSpace(text))
	}
	if mode != "SHORTEST" && mode != "STRICT" && mode != "LONGEST" {
		return nil, kwerrors.Failf("FOR IN ZIP option 'mode' does not accept value '%s'. Valid values are 'STRICT', 'SHORTEST' and 'LONGEST'.", mode)
	}
	var fill any
	if loop.Fill != "" {
		v, err := vars.ReplaceString(loop.Fill)
		if err != nil {
			return nil, err
		}
		fill = v
	}

	lists := make([][]any, len(loop.Values))
	lengths := make([]string, len(loop.Values))
	shortest, longest := math.MaxInt, 0
	for i, text := range loop.Values {
		v, err := vars.ReplaceString(text)
		if err != nil {
			return nil, err
		}
		list, ok := variables.ToList(v)
		if !ok {
			return nil, kwerrors.Failf("FOR IN ZIP items must be list-like, but item %d is %s.", i+1, literal.Repr(v))
		}
		lists[i] = list
		lengths[i] = strconv.Itoa(len(list))
		shortest = min(shortest, len(list))
		longest = max(longest, len(list))
	}
	if len(lists) == 0 {
		return nil, nil
	}
	n := len(loop.Vars)
	if n != 1 && n != len(lists) {
		return nil, kwerrors.Failf("FOR IN ZIP expects an equal number of variables and iterables. Got %d variable%s and %d iterable%s.",
			n, plural(n), len(lists), plural(len(lists)))
	}

	count := shortest
	switch mode {
	case "STRICT":
		if shortest != longest {
			return nil, kwerrors.Failf("FOR IN ZIP items should have equal lengths in the STRICT mode, but lengths are %s.", strings.Join(lengths, ", "))
		}
	case "LONGEST":
		count = longest
	}
	out := make([][]any, count)
	for i := range out {
		row := make([]any, len(lists))
		for j, list := range lists {
			if i < len(list) {
				row[j] = list[i]
			} else {
				row[j] = fill
			}
		}
		if n == 1 {
			out[i] = []any{row}
		} else {
			out[i] = row
		}
	}
	return out, nil
}

// loopLimit bounds a loop by iteration count or elapsed time.
type loopLimit struct {
	kind    string
	max     int
	maxTime time.Duration
	text    string
	pass    bool
	message string
}

func parseLoopLimit(vars *variables.Store, kind, limit, onLimit, message string, def int) (*loopLimit, error) {
	lim := &loopLimit{kind: kind, max: def, text: fmt.Sprintf("%d iterations", def)}
	if limit != "" {
		text, err := vars.ReplaceText(limit)
		if err != nil {
			return nil, err
		}
		text = strings.TrimSpace(text)
		lim.max, lim.maxTime, lim.text = 0, 0, text
		switch {
		case timestr.IsNone(text):
		case isCount(text):
			n, _ := parseCount(text)
			if n <= 0 {
				return nil, kwerrors.Failf("Invalid %s loop limit: Iteration count must be a positive integer, got '%s'.", kind, text)
			}
			lim.max, lim.text = n, fmt.Sprintf("%d iterations", n)
		default:
			d, err := timestr.Parse(text)
			if err != nil {
				return nil, kwerrors.Failf("Invalid %s loop limit: %s", kind, err)
			}
			lim.maxTime, lim.text = d, timestr.Format(d)
		}
	}
	if onLimit != "" {
		text, err := vars.ReplaceText(onLimit)
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(strings.TrimSpace(text)) {
		case "PASS":
			lim.pass = true
		case "FAIL":
		default:
			return nil, kwerrors.Failf("Invalid %s loop 'on_limit' value '%s'. Valid values are 'PASS' and 'FAIL'.", kind, text)
		}
	}
	if message != "" {
		text, err := vars.ReplaceText(message)
		if err != nil {
			return nil, err
		}
		lim.message = text
	}
	return lim, nil
}

// parseCount accepts "10", "10 times" and "10x".
func parseCount(text string) (int, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(t, "times"), "x"))
	n, err := strconv.Atoi(t)
	return n, err == nil
}

func isCount(text string) bool {
	_, ok := parseCount(text)
	return ok
}

func (l *loopLimit) reached(done int, started time.Time) bool {
	if l.max > 0 && done >= l.max {
		return true
	}
	return l.maxTime > 0 && time.Since(started) >= l.maxTime
}

// outcome is the loop result once the limit is hit.
func (l *loopLimit) outcome(ctx context.Context, failures []error) error {
	if l.pass {
		ctxlog.FromContext(ctx).Info("Loop limit reached, continuing.", "loop", l.kind, "limit", l.text)
		return kwerrors.Join(failures...)
	}
	msg := l.message
	if msg == "" {
		msg = fmt.Sprintf("%s loop was aborted because it did not finish within the limit of %s. "+
			"Use the 'limit' argument to increase or remove the limit if needed.", l.kind, l.text)
	}
	return kwerrors.Join(append(failures, kwerrors.Failf("%s", msg))...)
}

// condition evaluates an IF or WHILE condition. ${var} references are
// replaced as text first; $var references are looked up as values.
func condition(vars *variables.Store, text string) (bool, error) {
	replaced, err := vars.ReplaceText(text)
	if err != nil {
		return false, err
	}
	return literal.Condition(replaced, vars.Lookup)
}
