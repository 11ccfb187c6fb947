// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package library defines the contract between the engine and keyword
// libraries, adapters that implement it for Go code, and the per-scope
// lifetime of library instances.
package library

import (
	"context"
	"fmt"
	"strings"
)

// Library is the capability set every keyword library implements.
type Library interface {
	Name() string
	KeywordNames() []string
	// KeywordArguments returns declarations such as "a", "b=default",
	// "*args", "*" and "**kwargs".
	KeywordArguments(name string) []string
	KeywordTags(name string) []string
	RunKeyword(ctx context.Context, name string, positional []any, named map[string]any) (any, error)
}

// TypedLibrary is implemented by libraries that declare argument types as
// type strings keyed by parameter name.
type TypedLibrary interface {
	Library
	KeywordTypes(name string) map[string]string
}

// DocumentedLibrary is implemented by libraries with keyword documentation.
type DocumentedLibrary interface {
	Library
	KeywordDoc(name string) string
}

// Closer is implemented by libraries holding resources released when their
// scope ends.
type Closer interface {
	Close(ctx context.Context) error
}

// Scope is the sharing scope of library instances.
type Scope int

const (
	// ScopeGlobal shares one instance for the whole run.
	ScopeGlobal Scope = iota
	// ScopeSuite creates one instance per suite.
	ScopeSuite
	// ScopeTest creates one instance per test.
	ScopeTest
)

func (s Scope) String() string {
	switch s {
	case ScopeSuite:
		return "SUITE"
	case ScopeTest:
		return "TEST"
	}
	return "GLOBAL"
}

// ParseScope parses GLOBAL, SUITE or TEST case-insensitively.
func ParseScope(text string) (Scope, error) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "", "GLOBAL":
		return ScopeGlobal, nil
	case "SUITE":
		return ScopeSuite, nil
	case "TEST":
		return ScopeTest, nil
	}
	return ScopeGlobal, fmt.Errorf("invalid library scope '%s', expected GLOBAL, SUITE or TEST", text)
}

// Import describes how to create instances of one library.
type Import struct {
	Name  string
	Scope Scope
	New   func(ctx context.Context) (Library, error)
}
