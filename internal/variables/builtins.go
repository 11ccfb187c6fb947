// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func builtins() map[string]any {
	vars := map[string]any{
		"EMPTY":   "",
		"SPACE":   " ",
		"TRUE":    true,
		"FALSE":   false,
		"NONE":    nil,
		"null":    nil,
		`\n`:      "\n",
		"/":       string(filepath.Separator),
		":":       string(filepath.ListSeparator),
		"TEMPDIR": os.TempDir(),
	}
	if wd, err := os.Getwd(); err == nil {
		vars["EXECDIR"] = wd
	}
	return vars
}

// numberValue implements number variables such as ${42}, ${-1.5} and ${0x1F}.
func numberValue(base string) (any, bool) {
	if base == "" {
		return nil, false
	}
	c := base[0]
	if !(c >= '0' && c <= '9') && c != '-' && c != '+' && c != '.' {
		return nil, false
	}
	text := strings.TrimSpace(base)
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return int(i), true
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64); err == nil {
		return f, true
	}
	return nil, false
}
