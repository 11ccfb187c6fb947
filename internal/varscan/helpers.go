// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package varscan

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// IsVariable reports whether s is exactly one reference using one of the
// given sigils, optionally with item suffixes.
func IsVariable(s string, identifiers string) bool {
	m := Search(s, Options{Identifiers: identifiers})
	return m.IsWhole()
}

// IsScalar reports whether s is exactly one ${scalar} reference without items.
func IsScalar(s string) bool {
	m := Search(s, Options{Identifiers: "$"})
	return m.IsWhole() && len(m.Items) == 0
}

// IsAssign reports whether s is a valid assignment target such as "${x}",
// "@{list} =" or, when allowItems is set, "${dict}[key]=".
func IsAssign(s string, allowItems bool) bool {
	_, ok := ParseAssign(s, allowItems)
	return ok
}

// ParseAssign strips the optional trailing "=" of an assignment target and
// returns the reference describing it.
func ParseAssign(s string, allowItems bool) (Match, bool) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(trimmed, "=")
	trimmed = strings.TrimRight(trimmed, " ")
	m := Search(trimmed, Options{Identifiers: "$@&"})
	if !m.IsWhole() {
		return notFound, false
	}
	if len(m.Items) > 0 && (!allowItems || m.Identifier != '$') {
		return notFound, false
	}
	return m, true
}

// Unescape removes backslash escapes from plain text. Known escapes are
// \n, \t, \r, \xHH, \uHHHH and \UHHHHHHHH; any other escaped character is
// kept as-is without its backslash. A trailing lone backslash is preserved.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch next := s[i]; next {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			if r, ok := hexRune(s, i+1, width); ok {
				b.WriteRune(r)
				i += width
			} else {
				b.WriteByte(next)
			}
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String()
}

func hexRune(s string, start, width int) (rune, bool) {
	if start+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+width], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// Escape makes text safe to be scanned again: backslashes and sigils that
// would start a reference are prefixed with a backslash.
func Escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || (strings.IndexByte(DefaultIdentifiers, c) >= 0 && i+1 < len(s) && s[i+1] == '{') {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
