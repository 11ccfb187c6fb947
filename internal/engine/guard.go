// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"context"
	"sync"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/timeout"
)

// abandonedUnit is a test or keyword body still running after its timeout.
type abandonedUnit struct {
	keys    library.Keys
	stopped <-chan struct{}
}

// uses reports whether the unit may still touch instances under scopeKey.
func (u abandonedUnit) uses(scopeKey string) bool {
	return scopeKey == library.ScopeKey(library.ScopeGlobal, u.keys) ||
		scopeKey == library.ScopeKey(library.ScopeSuite, u.keys) ||
		scopeKey == library.ScopeKey(library.ScopeTest, u.keys)
}

func (u abandonedUnit) running() bool {
	select {
	case <-u.stopped:
		return false
	default:
		return true
	}
}

// abandonedSet is shared with guarded goroutines, which may abandon
// nested units of their own.
type abandonedSet struct {
	mu    sync.Mutex
	units []abandonedUnit
}

func (s *abandonedSet) add(u abandonedUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, u)
}

// using returns the stop channels of running units that use scopeKey.
func (s *abandonedSet) using(scopeKey string) []<-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []<-chan struct{}
	for _, u := range s.units {
		if u.running() && u.uses(scopeKey) {
			out = append(out, u.stopped)
		}
	}
	return out
}

// guard runs fn under limit. fn writes its results to a staged copy of res
// that is merged once fn has returned. The staged results of a unit
// abandoned after its timeout are dropped, so the unit never writes to the
// live tree.
func (r *runner) guard(ctx context.Context, keys library.Keys, res *result.Result, limit timeout.Limit,
	fn func(ctx context.Context, res *result.Result) error,
) error {
	stage := res.Stage()
	stopped, err := r.governor.Guard(ctx, limit, func(ctx context.Context) error {
		return fn(ctx, stage)
	})
	if stopped != nil {
		r.abandoned.add(abandonedUnit{keys: keys, stopped: stopped})
		return err
	}
	res.Merge(stage)
	return err
}

// release closes the library instances of scopeKey. Instances an abandoned
// unit may still use are closed once it stops.
func (r *runner) release(ctx context.Context, scopeKey string) {
	logger := ctxlog.FromContext(ctx)
	if waits := r.abandoned.using(scopeKey); len(waits) > 0 {
		logger.Warn("Library instances stay open until abandoned units stop.", "key", scopeKey, "units", len(waits))
		r.instances.ReleaseAfter(ctx, scopeKey, waits...)
		return
	}
	if err := r.instances.Release(ctx, scopeKey); err != nil {
		logger.Warn("Releasing library instances failed.", "key", scopeKey, "error", err)
	}
}
