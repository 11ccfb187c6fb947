// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/timestr"
)

// LevelTrace is below slog.LevelDebug.
const LevelTrace = slog.LevelDebug - 4

func parseLevel(text string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO", "HTML":
		return slog.LevelInfo, nil
	case "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, kwerrors.Failf("Invalid log level '%s'.", text)
}

func (b *builtIn) loggingKeywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name:  "Log",
			Args:  []string{"message", "level=INFO", "console=False"},
			Types: map[string]string{"console": "bool"},
			Doc:   "Logs the given message with the given level.",
			Run:   b.log,
		},
		{
			Name: "Log Many",
			Args: []string{"*messages"},
			Doc:  "Logs the given messages as separate entries using the INFO level.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				logger := ctxlog.FromContext(ctx)
				for _, msg := range c.Positional {
					logger.Info(literal.ToString(msg))
				}
				return nil, nil
			},
		},
		{
			Name:  "Log To Console",
			Args:  []string{"message", "stream=STDOUT", "no_newline=False"},
			Types: map[string]string{"no_newline": "bool"},
			Doc:   "Writes the message to the console.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return nil, b.console(literal.ToString(c.Arg(0)), literal.ToString(c.Arg(1)), c.Arg(2) == true)
			},
		},
		{
			Name: "Log Variables",
			Args: []string{"level=INFO"},
			Doc:  "Logs all variables in the current scope, sorted by name.",
			Run:  b.logVariables,
		},
		{
			Name: "No Operation",
			Doc:  "Does absolutely nothing.",
			Run:  func(context.Context, library.Call) (any, error) { return nil, nil },
		},
		{
			Name:  "Sleep",
			Args:  []string{"time", "reason=None"},
			Types: map[string]string{"time": "timedelta"},
			Doc:   "Pauses execution for the given time.",
			Run:   b.sleep,
		},
	}
}

func (b *builtIn) log(ctx context.Context, c library.Call) (any, error) {
	level, err := parseLevel(literal.ToString(c.Arg(1)))
	if err != nil {
		return nil, err
	}
	msg := literal.ToString(c.Arg(0))
	ctxlog.FromContext(ctx).Log(ctx, level, msg)
	if c.Arg(2) == true {
		return nil, b.console(msg, "STDOUT", false)
	}
	return nil, nil
}

func (b *builtIn) logVariables(ctx context.Context, c library.Call) (any, error) {
	level, err := parseLevel(literal.ToString(c.Arg(0)))
	if err != nil {
		return nil, err
	}
	rt, err := runtimeOf(ctx)
	if err != nil {
		return nil, err
	}
	all := rt.Variables().All()
	logger := ctxlog.FromContext(ctx)
	for _, name := range literal.SortedKeys(all) {
		logger.Log(ctx, level, fmt.Sprintf("${%s} = %s", name, literal.Repr(all[name])))
	}
	return nil, nil
}

func (b *builtIn) console(msg, stream string, noNewline bool) error {
	w := b.stdout
	switch strings.ToUpper(stream) {
	case "STDOUT", "":
	case "STDERR":
		w = b.stderr
	default:
		return kwerrors.Failf("Invalid stream '%s', expected STDOUT or STDERR.", stream)
	}
	if !noNewline {
		msg += "\n"
	}
	_, err := fmt.Fprint(w, msg)
	return err
}

func (b *builtIn) sleep(ctx context.Context, c library.Call) (any, error) {
	d, _ := c.Arg(0).(time.Duration)
	if d < 0 {
		d = 0
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Sleeping.", "time", timestr.Format(d))
	if reason, ok := optional(c.Arg(1)); ok {
		logger.Info(reason)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}
