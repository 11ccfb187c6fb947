// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import (
	"strings"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/varscan"
)

// ReplaceString resolves every reference in text. When text is exactly one
// reference, the referenced value is returned as-is, container or not.
// Otherwise each value is stringified into the surrounding text.
func (s *Store) ReplaceString(text string) (any, error) {
	m := varscan.Search(text, varscan.Options{})
	if !m.Found() {
		return varscan.Unescape(text), nil
	}
	if m.IsWhole() {
		return s.resolve(m)
	}
	return s.ReplaceText(text)
}

// ReplaceText resolves every reference in text and always returns a string.
func (s *Store) ReplaceText(text string) (string, error) {
	var b strings.Builder
	for {
		m := varscan.Search(text, varscan.Options{})
		if !m.Found() {
			b.WriteString(varscan.Unescape(text))
			return b.String(), nil
		}
		b.WriteString(varscan.Unescape(m.Before()))
		v, err := s.resolve(m)
		if err != nil {
			return "", err
		}
		b.WriteString(literal.ToString(v))
		text = m.After()
	}
}

// ReplaceList resolves a list of items. Items that are exactly one @{list}
// reference are expanded in place.
func (s *Store) ReplaceList(items []string) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		m := varscan.Search(item, varscan.Options{})
		if m.IsWhole() && m.Identifier == '@' {
			v, err := s.resolve(m)
			if err != nil {
				return nil, err
			}
			list, _ := ToList(v)
			out = append(out, list...)
			continue
		}
		v, err := s.ReplaceString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Replace resolves references inside a value: strings are replaced, slices
// and string-keyed maps are walked recursively, anything else is returned
// unchanged.
func (s *Store) Replace(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return s.ReplaceString(v)
	case []string:
		return s.ReplaceList(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := s.Replace(item)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			rk, err := s.ReplaceText(k)
			if err != nil {
				return nil, err
			}
			r, err := s.Replace(item)
			if err != nil {
				return nil, err
			}
			out[rk] = r
		}
		return out, nil
	}
	return value, nil
}
