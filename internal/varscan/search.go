// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package varscan

import "strings"

// DefaultIdentifiers are the sigils recognized when Options.Identifiers is empty.
const DefaultIdentifiers = "$@&%"

// Options tune a search.
type Options struct {
	// Identifiers lists the recognized sigils. Empty means DefaultIdentifiers.
	Identifiers string
	// PreferFirst closes a reference at the first brace not owned by a nested
	// reference instead of balancing every brace.
	PreferFirst bool
	// NoItems disables parsing of [item] suffixes.
	NoItems bool
}

func (o Options) identifiers() string {
	if o.Identifiers == "" {
		return DefaultIdentifiers
	}
	return o.Identifiers
}

// Match describes one variable reference found in String.
type Match struct {
	String     string
	Identifier byte
	Base       string
	Items      []string
	Start      int
	End        int
	// NestedBase is set when Base contains another reference that must be
	// resolved before the base itself can be looked up.
	NestedBase bool
}

var notFound = Match{Start: -1, End: -1}

// Found reports whether the match describes a reference.
func (m Match) Found() bool {
	return m.Start >= 0
}

// Name returns the reference without item suffixes, e.g. "${name}".
func (m Match) Name() string {
	if !m.Found() {
		return ""
	}
	return string(m.Identifier) + "{" + m.Base + "}"
}

// Text returns the exact matched text including item suffixes.
func (m Match) Text() string {
	if !m.Found() {
		return ""
	}
	return m.String[m.Start:m.End]
}

// Before returns the text preceding the match.
func (m Match) Before() string {
	if !m.Found() {
		return m.String
	}
	return m.String[:m.Start]
}

// After returns the text following the match.
func (m Match) After() string {
	if !m.Found() {
		return ""
	}
	return m.String[m.End:]
}

// IsWhole reports whether the reference spans the entire string.
func (m Match) IsWhole() bool {
	return m.Found() && m.Start == 0 && m.End == len(m.String)
}

// Search returns the first well-formed reference in s.
func Search(s string, opts Options) Match {
	return SearchFrom(s, 0, opts)
}

// SearchFrom returns the first well-formed reference starting at or after
// index start.
func SearchFrom(s string, start int, opts Options) Match {
	idents := opts.identifiers()
	if start < 0 {
		start = 0
	}
	for i := start; i < len(s)-1; i++ {
		if s[i+1] != '{' || strings.IndexByte(idents, s[i]) < 0 {
			continue
		}
		if IsEscaped(s, i) {
			continue
		}
		closing, ok := closeBrace(s, i+1, opts.PreferFirst, idents)
		if !ok || closing == i+2 {
			continue
		}
		m := Match{
			String:     s,
			Identifier: s[i],
			Base:       s[i+2 : closing],
			Start:      i,
			End:        closing + 1,
		}
		if m.Identifier != '%' && !opts.NoItems {
			m.Items, m.End = parseItems(s, m.End)
		}
		m.NestedBase = Search(m.Base, Options{Identifiers: "$@&%"}).Found()
		return m
	}
	return notFound
}

// SearchAll returns every non-overlapping reference in s, in order.
func SearchAll(s string, opts Options) []Match {
	var matches []Match
	for pos := 0; pos < len(s); {
		m := SearchFrom(s, pos, opts)
		if !m.Found() {
			break
		}
		matches = append(matches, m)
		pos = m.End
	}
	return matches
}

// IsEscaped reports whether the byte at index i is preceded by an odd number
// of backslashes.
func IsEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// closeBrace returns the index of the brace closing the one at open.
func closeBrace(s string, open int, preferFirst bool, idents string) (int, bool) {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '{':
			if !preferFirst || j == open || (j > 0 && strings.IndexByte(idents, s[j-1]) >= 0 && !IsEscaped(s, j-1)) {
				depth++
			}
		case '}':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return -1, false
}

// parseItems consumes chained [item] suffixes starting at pos.
func parseItems(s string, pos int) ([]string, int) {
	var items []string
	for pos < len(s) && s[pos] == '[' {
		closing, ok := closeBracket(s, pos)
		if !ok {
			break
		}
		items = append(items, s[pos+1:closing])
		pos = closing + 1
	}
	return items, pos
}

func closeBracket(s string, open int) (int, bool) {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return -1, false
}
