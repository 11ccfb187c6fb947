// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package typeconv

import (
	"time"

	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/timestr"
)

// Format renders a converted value for logs and messages. Text is returned
// as is, containers use their literal form.
func Format(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case time.Duration:
		return timestr.Format(v)
	case []byte:
		return string(v)
	case []any, map[string]any:
		return literal.Repr(v)
	}
	return literal.ToString(value)
}
