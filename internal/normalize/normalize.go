// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package normalize implements the caseless, space- and underscore-insensitive
// name comparison used for keyword, library and variable names.
package normalize

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// Casers keep per-call state, so each goroutine borrows its own.
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Name folds case and removes all whitespace and underscores.
func Name(s string) string {
	c := folders.Get().(*cases.Caser)
	folded := c.String(s)
	folders.Put(c)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch r {
		case ' ', '\t', '\n', '\r', '\u00a0', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Equal reports whether two names are equal after normalization.
func Equal(a, b string) bool {
	return Name(a) == Name(b)
}

// Fold folds case only, for comparisons where spaces are significant.
func Fold(s string) string {
	c := folders.Get().(*cases.Caser)
	defer folders.Put(c)
	return c.String(s)
}
