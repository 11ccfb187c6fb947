// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import "strings"

// Variable is one entry of a suite variable table, e.g. "${HOST}" with a
// single value or "@{USERS}" with several.
type Variable struct {
	Name   string
	Values []string
}

// LibraryImport imports a library into a suite. Alias renames it for
// qualified keyword names.
type LibraryImport struct {
	Name  string
	Alias string
}

// UserKeyword is a keyword implemented in test data. Args holds
// declarations such as "${a: int}", "${b}=two", "@{rest}" and "&{named}".
// Return is the legacy return setting evaluated after the body.
type UserKeyword struct {
	Name     string
	Doc      string
	Args     []string
	Body     []ItemID
	Return   []string
	Timeout  string
	Tags     []string
	Teardown ItemID
	// Owner is the resource or suite that defines the keyword.
	Owner string
}

// NewKeyword returns a user keyword without teardown.
func NewKeyword(name string, args ...string) *UserKeyword {
	return &UserKeyword{Name: name, Args: args, Teardown: NoItem}
}

// Test is one test case.
type Test struct {
	Name     string
	Doc      string
	Tags     []string
	Timeout  string
	Setup    ItemID
	Teardown ItemID
	Body     []ItemID
	Lineno   int
}

// NewTest returns a test without setup and teardown.
func NewTest(name string) *Test {
	return &Test{Name: name, Setup: NoItem, Teardown: NoItem}
}

// HasTag reports whether the test has the tag, compared case and space
// insensitively.
func (t *Test) HasTag(tag string) bool {
	return hasTag(t.Tags, tag)
}

func hasTag(tags []string, tag string) bool {
	want := normTag(tag)
	for _, t := range tags {
		if normTag(t) == want {
			return true
		}
	}
	return false
}

func normTag(tag string) string {
	return strings.ToLower(strings.Join(strings.Fields(tag), ""))
}

// HasTag reports whether a user keyword has the tag.
func (k *UserKeyword) HasTag(tag string) bool {
	return hasTag(k.Tags, tag)
}

// Suite is a collection of tests and child suites sharing one Arena.
type Suite struct {
	Name     string
	Doc      string
	Source   string
	Metadata map[string]string
	Setup    ItemID
	Teardown ItemID
	Tests    []*Test
	Suites   []*Suite

	Keywords  []*UserKeyword
	Variables []Variable
	Libraries []LibraryImport

	// Defaults applied to every test of this suite.
	TestTags     []string
	TestTimeout  string
	TestSetup    ItemID
	TestTeardown ItemID

	Arena *Arena
}

// NewSuite returns a root suite with a fresh arena.
func NewSuite(name string) *Suite {
	return newSuite(name, NewArena())
}

func newSuite(name string, arena *Arena) *Suite {
	return &Suite{
		Name:         name,
		Metadata:     map[string]string{},
		Setup:        NoItem,
		Teardown:     NoItem,
		TestSetup:    NoItem,
		TestTeardown: NoItem,
		Arena:        arena,
	}
}

// AddSuite appends a child suite sharing this suite's arena.
func (s *Suite) AddSuite(name string) *Suite {
	child := newSuite(name, s.Arena)
	s.Suites = append(s.Suites, child)
	return child
}

// AddTest appends a test whose body is built from nodes.
func (s *Suite) AddTest(name string, body ...Node) *Test {
	t := NewTest(name)
	t.Body = s.Arena.Build(NoItem, body...)
	s.Tests = append(s.Tests, t)
	return t
}

// AddKeyword appends a user keyword whose body is built from nodes.
func (s *Suite) AddKeyword(kw *UserKeyword, body ...Node) *UserKeyword {
	kw.Body = s.Arena.Build(NoItem, body...)
	s.Keywords = append(s.Keywords, kw)
	return kw
}

// Fixture stores a setup or teardown call and returns its ID.
func (s *Suite) Fixture(name string, args ...string) ItemID {
	return s.Arena.Add(NoItem, Call(name, args...))
}

// TestCount returns the number of tests in this suite and its children.
func (s *Suite) TestCount() int {
	n := len(s.Tests)
	for _, child := range s.Suites {
		n += child.TestCount()
	}
	return n
}

// Longname joins suite names with dots.
func Longname(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
