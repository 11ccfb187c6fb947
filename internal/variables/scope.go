// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import (
	"sync"

	"github.com/vk/kwgrid/internal/normalize"
)

// Kind identifies the boundary a scope belongs to.
type Kind int

const (
	Global Kind = iota
	Suite
	Test
	Keyword
	// Local scopes hold loop variables of a single iteration.
	Local
)

func (k Kind) String() string {
	switch k {
	case Global:
		return "GLOBAL"
	case Suite:
		return "SUITE"
	case Test:
		return "TEST"
	case Keyword:
		return "KEYWORD"
	case Local:
		return "LOCAL"
	}
	return "UNKNOWN"
}

type entry struct {
	// display is the base name as first written, used in messages.
	display string
	value   any
	// shared entries were set explicitly into their scope and stay visible
	// across keyword boundaries.
	shared bool
	// children entries of a suite scope are copied into child suites.
	children bool
}

// Scope is one layer of the namespace.
type Scope struct {
	kind Kind
	mu   sync.RWMutex
	vars map[string]entry
}

func newScope(kind Kind) *Scope {
	return &Scope{kind: kind, vars: make(map[string]entry)}
}

// Kind returns the boundary the scope belongs to.
func (sc *Scope) Kind() Kind {
	return sc.kind
}

func (sc *Scope) get(key string) (entry, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	e, ok := sc.vars[key]
	return e, ok
}

func (sc *Scope) set(key string, e entry) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.vars[key] = e
}

func (sc *Scope) has(key string) bool {
	_, ok := sc.get(key)
	return ok
}

func (sc *Scope) snapshot() map[string]entry {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	out := make(map[string]entry, len(sc.vars))
	for k, v := range sc.vars {
		out[k] = v
	}
	return out
}

// Store is a chain of scopes. The zero value is not usable; call New.
type Store struct {
	chain []*Scope
}

// New returns a store holding only the global scope, populated with the
// built-in variables.
func New() *Store {
	global := newScope(Global)
	for name, value := range builtins() {
		global.set(normalize.Name(name), entry{display: name, value: value, shared: true})
	}
	return &Store{chain: []*Scope{global}}
}

// Child returns a store with one more scope of the given kind. A child suite
// starts from the global scope and inherits only the variables its parent
// suite set for children.
func (s *Store) Child(kind Kind) *Store {
	if kind == Global {
		return s
	}
	if kind == Suite {
		scope := newScope(Suite)
		for _, sc := range s.chain {
			if sc.kind != Suite {
				continue
			}
			for k, e := range sc.snapshot() {
				if e.children {
					scope.set(k, e)
				}
			}
		}
		return &Store{chain: []*Scope{s.chain[0], scope}}
	}
	chain := make([]*Scope, len(s.chain), len(s.chain)+1)
	copy(chain, s.chain)
	return &Store{chain: append(chain, newScope(kind))}
}

// Kind returns the kind of the innermost scope.
func (s *Store) Kind() Kind {
	return s.chain[len(s.chain)-1].kind
}

// Depth returns the number of scopes in the chain.
func (s *Store) Depth() int {
	return len(s.chain)
}

// Has reports whether a scope of the given kind is on the chain.
func (s *Store) Has(kind Kind) bool {
	return s.indexOf(kind) >= 0
}

func (s *Store) indexOf(kind Kind) int {
	for i := len(s.chain) - 1; i >= 0; i-- {
		if s.chain[i].kind == kind {
			return i
		}
	}
	return -1
}

// find looks a key up innermost first. Once the search crosses a keyword
// boundary, only shared entries of test and keyword scopes are visible.
func (s *Store) find(key string) (entry, bool) {
	crossed := false
	for i := len(s.chain) - 1; i >= 0; i-- {
		sc := s.chain[i]
		e, ok := sc.get(key)
		if ok && (!crossed || e.shared || sc.kind <= Suite) {
			return e, true
		}
		if sc.kind == Keyword {
			crossed = true
		}
	}
	return entry{}, false
}

// Names returns the display names of every visible variable, each with the
// scalar sigil.
func (s *Store) Names() []string {
	seen := make(map[string]bool)
	var names []string
	crossed := false
	for i := len(s.chain) - 1; i >= 0; i-- {
		sc := s.chain[i]
		for k, e := range sc.snapshot() {
			if seen[k] || (crossed && !e.shared && sc.kind > Suite) {
				continue
			}
			seen[k] = true
			names = append(names, "${"+e.display+"}")
		}
		if sc.kind == Keyword {
			crossed = true
		}
	}
	return names
}

// All returns every visible variable keyed by its display name.
func (s *Store) All() map[string]any {
	out := make(map[string]any)
	seen := make(map[string]bool)
	crossed := false
	for i := len(s.chain) - 1; i >= 0; i-- {
		sc := s.chain[i]
		for k, e := range sc.snapshot() {
			if seen[k] || (crossed && !e.shared && sc.kind > Suite) {
				continue
			}
			seen[k] = true
			out[e.display] = e.value
		}
		if sc.kind == Keyword {
			crossed = true
		}
	}
	return out
}
