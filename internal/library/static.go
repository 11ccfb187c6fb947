// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"fmt"

	"github.com/vk/kwgrid/internal/normalize"
)

// Call carries the arguments of one keyword invocation.
type Call struct {
	Positional []any
	Named      map[string]any
}

// Arg returns the i-th positional argument or nil.
func (c Call) Arg(i int) any {
	if i < 0 || i >= len(c.Positional) {
		return nil
	}
	return c.Positional[i]
}

// Keyword is one entry of a Static library.
type Keyword struct {
	Name  string
	Args  []string
	Types map[string]string
	Tags  []string
	Doc   string
	Run   func(ctx context.Context, call Call) (any, error)
}

// Static is a library backed by an explicit keyword table.
type Static struct {
	name     string
	order    []string
	keywords map[string]*Keyword
}

var (
	_ TypedLibrary      = (*Static)(nil)
	_ DocumentedLibrary = (*Static)(nil)
)

// NewStatic builds a library from keywords. Duplicate names are a
// programming error and panic.
func NewStatic(name string, keywords ...*Keyword) *Static {
	s := &Static{name: name, keywords: make(map[string]*Keyword, len(keywords))}
	for _, kw := range keywords {
		key := normalize.Name(kw.Name)
		if _, exists := s.keywords[key]; exists {
			panic(fmt.Sprintf("keyword '%s' already registered in library '%s'", kw.Name, name))
		}
		s.keywords[key] = kw
		s.order = append(s.order, kw.Name)
	}
	return s
}

func (s *Static) keyword(name string) *Keyword {
	return s.keywords[normalize.Name(name)]
}

func (s *Static) Name() string { return s.name }

func (s *Static) KeywordNames() []string {
	return append([]string{}, s.order...)
}

func (s *Static) KeywordArguments(name string) []string {
	if kw := s.keyword(name); kw != nil {
		return kw.Args
	}
	return nil
}

func (s *Static) KeywordTypes(name string) map[string]string {
	if kw := s.keyword(name); kw != nil {
		return kw.Types
	}
	return nil
}

func (s *Static) KeywordTags(name string) []string {
	if kw := s.keyword(name); kw != nil {
		return kw.Tags
	}
	return nil
}

func (s *Static) KeywordDoc(name string) string {
	if kw := s.keyword(name); kw != nil {
		return kw.Doc
	}
	return ""
}

func (s *Static) RunKeyword(ctx context.Context, name string, positional []any, named map[string]any) (any, error) {
	kw := s.keyword(name)
	if kw == nil {
		return nil, fmt.Errorf("library '%s' has no keyword '%s'", s.name, name)
	}
	return kw.Run(ctx, Call{Positional: positional, Named: named})
}
