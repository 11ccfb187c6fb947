// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package result holds the tree produced by a run. It mirrors the executed
// model: suites, tests and every body item reached during execution.
package result

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of a result.
type Status string

const (
	StatusPass   Status = "PASS"
	StatusFail   Status = "FAIL"
	StatusSkip   Status = "SKIP"
	StatusNotRun Status = "NOT RUN"
)

// Kind identifies what a result mirrors.
type Kind string

const (
	KindSuite     Kind = "SUITE"
	KindTest      Kind = "TEST"
	KindKeyword   Kind = "KEYWORD"
	KindSetup     Kind = "SETUP"
	KindTeardown  Kind = "TEARDOWN"
	KindFor       Kind = "FOR"
	KindIteration Kind = "ITERATION"
	KindWhile     Kind = "WHILE"
	KindIf        Kind = "IF/ELSE ROOT"
	KindBranch    Kind = "BRANCH"
	KindTry       Kind = "TRY/EXCEPT ROOT"
	KindVar       Kind = "VAR"
	KindReturn    Kind = "RETURN"
	KindBreak     Kind = "BREAK"
	KindContinue  Kind = "CONTINUE"
	KindError     Kind = "ERROR"
)

func (k Kind) prefix() byte {
	switch k {
	case KindSuite:
		return 's'
	case KindTest:
		return 't'
	}
	return 'k'
}

// Result is one node of the result tree. Status is empty until the node
// finishes.
type Result struct {
	ID      ID
	Kind    Kind
	Name    string
	Owner   string
	Args    []string
	Assign  []string
	Tags    []string
	Doc     string
	Status  Status
	Message string
	Start   time.Time
	End     time.Time
	// Variables holds iteration bindings, e.g. "${i}" -> "1".
	Variables map[string]string
	Children  []*Result

	counts map[byte]int
}

// NewSuite returns a root suite result started now.
func NewSuite(name string) *Result {
	return &Result{
		ID:    ID{Path: []Segment{{Prefix: 's', Index: 1}}},
		Kind:  KindSuite,
		Name:  name,
		Start: time.Now(),
	}
}

// Add creates a child result started now.
func (r *Result) Add(kind Kind, name string) *Result {
	if r.counts == nil {
		r.counts = make(map[byte]int)
	}
	p := kind.prefix()
	r.counts[p]++
	child := &Result{
		ID:    r.ID.Child(p, r.counts[p]),
		Kind:  kind,
		Name:  name,
		Start: time.Now(),
	}
	r.Children = append(r.Children, child)
	return child
}

// Stage returns a detached node with the identity of r. Children added to
// it get the IDs they would get under r. Merge moves them into r.
func (r *Result) Stage() *Result {
	stage := &Result{ID: r.ID, Kind: r.Kind, Name: r.Name, Start: r.Start}
	if len(r.counts) > 0 {
		stage.counts = make(map[byte]int, len(r.counts))
		for p, n := range r.counts {
			stage.counts[p] = n
		}
	}
	return stage
}

// Merge appends the children of a node returned by Stage. The stage must
// not be used afterwards.
func (r *Result) Merge(stage *Result) {
	r.Children = append(r.Children, stage.Children...)
	r.counts = stage.counts
}

// Finish sets the terminal status. Later calls are ignored so every node
// gets exactly one status.
func (r *Result) Finish(status Status, message string) {
	if r.Status != "" {
		return
	}
	r.Status = status
	r.Message = message
	r.End = time.Now()
}

// Override replaces an already set status, used when a teardown or a
// parent failure changes the outcome of a finished test.
func (r *Result) Override(status Status, message string) {
	r.Status = status
	r.Message = message
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// Finished reports whether the result has a status.
func (r *Result) Finished() bool { return r.Status != "" }

// Elapsed returns the duration between start and end.
func (r *Result) Elapsed() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}

// FullName returns Owner.Name for keywords with an owner.
func (r *Result) FullName() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "." + r.Name
}

// Walk visits r and its descendants depth first. Returning false skips the
// children of a node.
func (r *Result) Walk(fn func(*Result) bool) {
	if !fn(r) {
		return
	}
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

// Find returns the descendant with the given ID.
func (r *Result) Find(id string) *Result {
	var found *Result
	r.Walk(func(n *Result) bool {
		if found != nil {
			return false
		}
		if n.ID.String() == id {
			found = n
			return false
		}
		return strings.HasPrefix(id, n.ID.String()+"-")
	})
	return found
}

// Tests returns every test result under r in execution order.
func (r *Result) Tests() []*Result {
	var tests []*Result
	r.Walk(func(n *Result) bool {
		if n.Kind == KindTest {
			tests = append(tests, n)
			return false
		}
		return n.Kind == KindSuite
	})
	return tests
}

// Suites returns r and its nested suites in execution order.
func (r *Result) Suites() []*Result {
	var suites []*Result
	r.Walk(func(n *Result) bool {
		if n.Kind == KindSuite {
			suites = append(suites, n)
			return true
		}
		return false
	})
	return suites
}

// SuiteStatus derives a suite status from its tests: FAIL when any test
// failed, PASS when any passed, SKIP otherwise.
func (r *Result) SuiteStatus() Status {
	status := StatusSkip
	for _, t := range r.Tests() {
		switch t.Status {
		case StatusFail:
			return StatusFail
		case StatusPass:
			status = StatusPass
		}
	}
	return status
}

// Run is the root of one execution.
type Run struct {
	ID    uuid.UUID
	Suite *Result
	Start time.Time
	End   time.Time
}

// NewRun starts a run with a fresh ID.
func NewRun(suite string) *Run {
	return &Run{ID: uuid.New(), Suite: NewSuite(suite), Start: time.Now()}
}

// Stats counts test outcomes.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// StatsOf counts the tests under r.
func StatsOf(r *Result) Stats {
	var s Stats
	for _, t := range r.Tests() {
		s.Total++
		switch t.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusSkip:
			s.Skipped++
		}
	}
	return s
}

// Stats counts the tests of the whole run.
func (r *Run) Stats() Stats { return StatsOf(r.Suite) }

// Failed returns the failed tests of the run.
func (r *Run) Failed() []*Result {
	var failed []*Result
	for _, t := range r.Suite.Tests() {
		if t.Status == StatusFail {
			failed = append(failed, t)
		}
	}
	return failed
}
