// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/registry"
)

// SleeperLibrary is the name MockSleeperModule registers.
const SleeperLibrary = "Sleeper"

// MockSleeperModule is a shared, self-contained module for timeout tests.
// Its "Sleep And Record" keyword records the execution time of each call.
// With IgnoreCancel the keyword keeps sleeping after its timeout expires.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	IgnoreCancel   bool

	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Record returns the execution record of id.
func (m *MockSleeperModule) Record(id string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ExecutionTimes[id]
	return rec, ok
}

// Register registers the preloaded "Sleeper" library.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	lib := library.NewStatic(SleeperLibrary, &library.Keyword{
		Name: "Sleep And Record",
		Args: []string{"id"},
		Run: func(ctx context.Context, c library.Call) (any, error) {
			id := literal.ToString(c.Arg(0))

			startTime := time.Now()
			var err error
			if m.IgnoreCancel {
				time.Sleep(m.sleepDuration)
			} else {
				select {
				case <-time.After(m.sleepDuration):
				case <-ctx.Done():
					err = context.Cause(ctx)
				}
			}
			endTime := time.Now()

			m.mu.Lock()
			m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- id
			}
			return nil, err
		},
	})
	r.RegisterLibrary(&library.Import{
		Name:  SleeperLibrary,
		Scope: library.ScopeGlobal,
		New:   func(context.Context) (library.Library, error) { return lib, nil },
	})
	r.Preload(SleeperLibrary)
}
