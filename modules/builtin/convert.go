// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin

import (
	"context"
	"strconv"
	"strings"

	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
)

func (b *builtIn) conversionKeywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name: "Convert To Integer",
			Args: []string{"item", "base=None"},
			Doc:  "Converts the given item to an integer number. Strings may use the 0b, 0o and 0x prefixes or an explicit base.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				if base, ok := optional(c.Arg(1)); ok {
					return toIntBase(literal.ToString(c.Arg(0)), base)
				}
				return b.convert("int", c.Arg(0))
			},
		},
		{
			Name: "Convert To Number",
			Args: []string{"item"},
			Doc:  "Converts the given item to a floating point number.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return b.convert("float", c.Arg(0))
			},
		},
		{
			Name: "Convert To String",
			Args: []string{"item"},
			Doc:  "Converts the given item to a string.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				return literal.ToString(c.Arg(0)), nil
			},
		},
		{
			Name: "Convert To Boolean",
			Args: []string{"item"},
			Doc:  "Converts the given item to a boolean. Strings 'True' and 'False' are converted case-insensitively, other values by their truth.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				if s, ok := c.Arg(0).(string); ok {
					switch strings.ToLower(strings.TrimSpace(s)) {
					case "true":
						return true, nil
					case "false":
						return false, nil
					}
				}
				return literal.Truthy(c.Arg(0)), nil
			},
		},
	}
}

func (b *builtIn) convert(typ string, value any) (any, error) {
	info, err := b.conv.Parse(typ)
	if err != nil {
		return nil, err
	}
	return b.conv.Convert(info, value)
}

func toIntBase(text, base string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(base))
	if err != nil || n < 2 || n > 36 {
		return nil, kwerrors.Failf("Invalid base '%s'.", base)
	}
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(text), "_", ""))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")
	prefixes := map[int]string{2: "0b", 8: "0o", 16: "0x"}
	s = strings.TrimPrefix(s, prefixes[n])
	v, err := strconv.ParseInt(s, n, 64)
	if err != nil {
		return nil, kwerrors.Failf("'%s' cannot be converted to an integer using base %d.", text, n)
	}
	if neg {
		v = -v
	}
	return int(v), nil
}
