// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package timeout bounds the wall-clock duration of test and keyword
// bodies. A guarded unit runs in its own goroutine with a cancellable
// context. When the limit passes the caller gets a *TimeoutError at once;
// a unit that ignores cancellation beyond the grace period keeps running in
// the background and is reported through Governor.Abandoned. Units are
// never forcibly terminated.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/timestr"
)

// DefaultGrace is how long an expired unit may take to notice cancellation
// before it is reported as abandoned.
const DefaultGrace = 500 * time.Millisecond

// Kind names the unit a timeout guards.
type Kind string

const (
	KindTest    Kind = "Test"
	KindKeyword Kind = "Keyword"
)

// TimeoutError reports an exceeded limit. Abandoned is set when the unit
// was still running after the grace period.
type TimeoutError struct {
	Kind      Kind
	Name      string
	Limit     time.Duration
	Abandoned bool
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timeout %s exceeded.", e.Kind, timestr.Format(e.Limit))
}

func (e *TimeoutError) Timeout() bool { return true }

// Limit is a parsed timeout setting.
type Limit struct {
	Kind     Kind
	Name     string
	Duration time.Duration
}

// Parse parses a timeout setting such as "1 minute" or "NONE". A zero
// Duration means no timeout.
func Parse(kind Kind, name, text string) (Limit, error) {
	l := Limit{Kind: kind, Name: name}
	if timestr.IsNone(text) {
		return l, nil
	}
	d, err := timestr.Parse(text)
	if err != nil {
		return l, fmt.Errorf("Setting %s timeout failed: %w", lower(kind), err)
	}
	if d < 0 {
		return l, fmt.Errorf("Setting %s timeout failed: timeout cannot be negative", lower(kind))
	}
	l.Duration = d
	return l, nil
}

func lower(k Kind) string {
	if k == KindTest {
		return "test"
	}
	return "keyword"
}

// Abandoned describes a unit still running after its timeout.
type Abandoned struct {
	Kind    Kind
	Name    string
	Limit   time.Duration
	Expired time.Time
	done    <-chan struct{}
}

// Governor runs guarded units and tracks the ones left running.
type Governor struct {
	grace time.Duration

	mu        sync.Mutex
	abandoned []*Abandoned
}

// NewGovernor returns a governor with the given grace period. A
// non-positive grace uses DefaultGrace.
func NewGovernor(grace time.Duration) *Governor {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Governor{grace: grace}
}

type outcome struct {
	err error
}

// Run executes fn under limit. Without a limit fn runs inline. An
// enclosing timeout that expires first is reported instead of limit, so
// nested units share one deadline chain. Cancellation of ctx for any other
// reason is passed to fn, and Run waits for it to return.
func (g *Governor) Run(ctx context.Context, limit Limit, fn func(ctx context.Context) error) error {
	_, err := g.Guard(ctx, limit, fn)
	return err
}

// Guard is Run for callers that share state with fn. When fn is abandoned
// after its timeout, stopped is closed once fn returns; it is nil whenever
// fn has already returned, so the caller may read what fn wrote.
func (g *Governor) Guard(ctx context.Context, limit Limit, fn func(ctx context.Context) error) (stopped <-chan struct{}, err error) {
	if limit.Duration <= 0 {
		return nil, fn(ctx)
	}
	own := &TimeoutError{Kind: limit.Kind, Name: limit.Name, Limit: limit.Duration}
	guarded, cancel := context.WithTimeoutCause(ctx, limit.Duration, own)
	defer cancel()

	done := make(chan struct{})
	result := make(chan outcome, 1)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				result <- outcome{err: fmt.Errorf("%s '%s' panicked: %v\n%s", lower(limit.Kind), limit.Name, r, debug.Stack())}
			}
		}()
		result <- outcome{err: fn(guarded)}
	}()

	select {
	case out := <-result:
		return nil, out.err
	case <-guarded.Done():
	}

	var expired *TimeoutError
	if !errors.As(context.Cause(guarded), &expired) {
		out := <-result
		return nil, out.err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Timeout exceeded, waiting for the unit to stop.", "kind", limit.Kind, "name", limit.Name, "limit", limit.Duration)
	grace := time.NewTimer(g.grace)
	defer grace.Stop()
	select {
	case <-result:
		return nil, expired
	case <-grace.C:
	}

	g.mu.Lock()
	g.abandoned = append(g.abandoned, &Abandoned{
		Kind:    limit.Kind,
		Name:    limit.Name,
		Limit:   limit.Duration,
		Expired: time.Now(),
		done:    done,
	})
	g.mu.Unlock()
	logger.Warn("⚠️ Unit still running in the background after timeout.",
		"kind", limit.Kind, "name", limit.Name, "limit", limit.Duration, "grace", g.grace)

	reported := *expired
	reported.Abandoned = true
	return done, &reported
}

// Abandoned lists the units that are still running after their timeout.
// Units that have since finished are dropped.
func (g *Governor) Abandoned() []Abandoned {
	g.mu.Lock()
	defer g.mu.Unlock()
	running := g.abandoned[:0]
	var out []Abandoned
	for _, a := range g.abandoned {
		select {
		case <-a.done:
			continue
		default:
		}
		running = append(running, a)
		out = append(out, *a)
	}
	g.abandoned = running
	return out
}

// Wait blocks until every abandoned unit has finished or ctx is done, and
// returns how many are still running.
func (g *Governor) Wait(ctx context.Context) int {
	g.mu.Lock()
	pending := append([]*Abandoned(nil), g.abandoned...)
	g.mu.Unlock()
	for _, a := range pending {
		select {
		case <-a.done:
		case <-ctx.Done():
			return len(g.Abandoned())
		}
	}
	return len(g.Abandoned())
}

// Remaining returns the time left before the closest deadline of ctx, or
// false without one.
func Remaining(ctx context.Context) (time.Duration, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return time.Until(deadline), true
}
