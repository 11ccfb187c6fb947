// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package result

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Segment is one step of a result ID, e.g. "t3" for the third test of a
// suite.
type Segment struct {
	Prefix byte
	Index  int
}

// ID locates a result in the tree, e.g. "s1-s2-t3-k1".
type ID struct {
	Path []Segment
}

// segmentRegex parses a single segment such as "s1" or "k12".
var segmentRegex = regexp.MustCompile(`^([stk])([1-9]\d*)$`)

// String serializes the ID into its canonical form.
func (id ID) String() string {
	var sb strings.Builder
	for i, seg := range id.Path {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(seg.Prefix)
		sb.WriteString(strconv.Itoa(seg.Index))
	}
	return sb.String()
}

// Child returns the ID of the index-th child with the given prefix.
func (id ID) Child(prefix byte, index int) ID {
	path := make([]Segment, len(id.Path), len(id.Path)+1)
	copy(path, id.Path)
	return ID{Path: append(path, Segment{Prefix: prefix, Index: index})}
}

// ParseID parses the canonical form produced by String.
func ParseID(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("result id cannot be empty")
	}
	var id ID
	for _, part := range strings.Split(raw, "-") {
		m := segmentRegex.FindStringSubmatch(part)
		if m == nil {
			return ID{}, fmt.Errorf("invalid result id segment %q", part)
		}
		index, err := strconv.Atoi(m[2])
		if err != nil {
			return ID{}, fmt.Errorf("invalid result id segment %q: %w", part, err)
		}
		id.Path = append(id.Path, Segment{Prefix: m[1][0], Index: index})
	}
	if id.Path[0].Prefix != 's' {
		return ID{}, fmt.Errorf("result id %q must start with a suite", raw)
	}
	return id, nil
}
