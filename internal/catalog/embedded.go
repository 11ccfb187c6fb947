// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/kwgrid/internal/varscan"
)

// Embedded is a keyword name with embedded argument placeholders, such as
// "Select ${item} from ${list}" or "Wait ${n:\d+} seconds".
type Embedded struct {
	Template string
	// Names of the placeholders in order of appearance.
	Names []string
	re    *regexp.Regexp
}

// templateOptions scans placeholders in longest mode so custom patterns may
// contain balanced braces, as in ${year:\d{4}}.
var templateOptions = varscan.Options{Identifiers: "$", NoItems: true}

// CompileEmbedded compiles a keyword name template into an anchored,
// case-insensitive regexp. A template without placeholders returns nil.
func CompileEmbedded(template string) (*Embedded, error) {
	matches := varscan.SearchAll(template, templateOptions)
	if len(matches) == 0 {
		return nil, nil
	}
	e := &Embedded{Template: template}
	var b strings.Builder
	b.WriteString("(?i)^")
	pos := 0
	for _, m := range matches {
		b.WriteString(regexp.QuoteMeta(template[pos:m.Start]))
		name, pattern, custom := strings.Cut(m.Base, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("embedded argument '%s' has no name", m.Text())
		}
		if custom {
			pattern = strings.TrimSpace(pattern)
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, fmt.Errorf("embedded argument '%s' has invalid pattern: %w", name, err)
			}
			b.WriteString("(" + nonCapturing(pattern) + ")")
		} else {
			b.WriteString("(.*?)")
		}
		e.Names = append(e.Names, name)
		pos = m.End
	}
	b.WriteString(regexp.QuoteMeta(template[pos:]))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling keyword name '%s' failed: %w", template, err)
	}
	e.re = re
	return e, nil
}

// nonCapturing turns capturing groups of a custom pattern, named ones
// included, into non-capturing ones so only placeholders capture.
func nonCapturing(pattern string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			b.WriteByte(pattern[i+1])
			i++
			continue
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '(' && !inClass:
			rest := pattern[i+1:]
			if !strings.HasPrefix(rest, "?") {
				b.WriteString("(?:")
				continue
			}
			if name := groupName(rest); name > 0 {
				b.WriteString("(?:")
				i += name
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// groupName returns the length of a "?P<name>" or "?<name>" prefix of
// rest, or 0 when rest does not open a named group.
func groupName(rest string) int {
	var open int
	switch {
	case strings.HasPrefix(rest, "?P<"):
		open = 3
	case strings.HasPrefix(rest, "?<"):
		open = 2
	default:
		return 0
	}
	end := strings.IndexByte(rest[open:], '>')
	if end < 0 {
		return 0
	}
	return open + end + 1
}

// Match matches a call-site name and returns the captured values.
func (e *Embedded) Match(name string) ([]string, bool) {
	groups := e.re.FindStringSubmatch(name)
	if groups == nil {
		return nil, false
	}
	return groups[1:], true
}

// String returns the template.
func (e *Embedded) String() string {
	return e.Template
}
