// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package integration_tests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/testutil"
)

// scopeSpyModule registers a "Spy" library whose instances remember which
// tests used them and record when they are closed.
type scopeSpyModule struct {
	scope library.Scope

	mu     sync.Mutex
	seen   map[int][]string
	closed []int
	next   int
}

type spyInstance struct {
	*library.Static
	id  int
	mod *scopeSpyModule
}

func (s *spyInstance) Close(context.Context) error {
	s.mod.mu.Lock()
	defer s.mod.mu.Unlock()
	s.mod.closed = append(s.mod.closed, s.id)
	return nil
}

func (m *scopeSpyModule) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  "Spy",
		Scope: m.scope,
		New: func(context.Context) (library.Library, error) {
			m.mu.Lock()
			m.next++
			inst := &spyInstance{id: m.next, mod: m}
			m.mu.Unlock()
			inst.Static = library.NewStatic("Spy", &library.Keyword{
				Name: "Touch",
				Args: []string{"who"},
				Run: func(_ context.Context, c library.Call) (any, error) {
					m.mu.Lock()
					defer m.mu.Unlock()
					if m.seen == nil {
						m.seen = make(map[int][]string)
					}
					m.seen[inst.id] = append(m.seen[inst.id], c.Arg(0).(string))
					return nil, nil
				},
			})
			return inst, nil
		},
	})
}

// users returns the callers grouped per instance, dropping instances that
// were created but never used.
func (m *scopeSpyModule) users() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]string
	for id := 1; id <= m.next; id++ {
		if who, ok := m.seen[id]; ok {
			out = append(out, who)
		}
	}
	return out
}

const scopesSuite = `
	suite "Scopes" {
		suite "First" {
			library "Spy" {}
			test "A" {
				call "Touch" { args = ["A"] }
			}
			test "B" {
				call "Touch" { args = ["B"] }
			}
		}
		suite "Second" {
			library "Spy" {}
			test "C" {
				call "Spy.Touch" { args = ["C"] }
			}
		}
	}
`

// Test for: library instances are shared according to their scope and
// closed when the scope ends.
func TestCoreExecution_LibraryScopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		scope library.Scope
		want  [][]string
	}{
		{name: "global", scope: library.ScopeGlobal, want: [][]string{{"A", "B", "C"}}},
		{name: "suite", scope: library.ScopeSuite, want: [][]string{{"A", "B"}, {"C"}}},
		{name: "test", scope: library.ScopeTest, want: [][]string{{"A"}, {"B"}, {"C"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			spy := &scopeSpyModule{scope: tt.scope}

			// --- Act ---
			res := testutil.RunHCLSuiteTest(t, scopesSuite, spy)

			// --- Assert ---
			require.NoError(t, res.Err)
			for _, name := range []string{"A", "B", "C"} {
				testutil.AssertTestPassed(t, res, name)
			}
			require.Equal(t, tt.want, spy.users())

			spy.mu.Lock()
			defer spy.mu.Unlock()
			require.Len(t, spy.closed, spy.next, "every instance must be closed")
		})
	}
}
