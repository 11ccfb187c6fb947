// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/normalize"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Log", "log"},
		{"Should Be Equal", "shouldbeequal"},
		{"should_be_equal", "shouldbeequal"},
		{"  SHOULD be\tEQUAL ", "shouldbeequal"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, normalize.Name(tt.in))
		})
	}
}

func TestEqual(t *testing.T) {
	require.True(t, normalize.Equal("Open Browser", "open_browser"))
	require.False(t, normalize.Equal("Open Browser", "Close Browser"))
}
