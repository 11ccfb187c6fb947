// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package timestr_test

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/timestr"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input string
		want  time.Duration
	}{
		{"1", time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"-2", -2 * time.Second},
		{"100ms", 100 * time.Millisecond},
		{"1 minute 30 seconds", 90 * time.Second},
		{"1min 30s", 90 * time.Second},
		{"1 hour", time.Hour},
		{"2 days 1h", 49 * time.Hour},
		{"1.5 minutes", 90 * time.Second},
		{"- 1 second", -time.Second},
		{"1:30", 90 * time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"00:01.5", 1500 * time.Millisecond},
		{"-1:00", -time.Minute},
		{"5 us", 5 * time.Microsecond},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := timestr.Parse(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1 fortnight", "1:2:3:4", "-"} {
		t.Run(input, func(t *testing.T) {
			_, err := timestr.Parse(input)
			require.Error(t, err)
		})
	}
}

func TestIsNone(t *testing.T) {
	require.True(t, timestr.IsNone(""))
	require.True(t, timestr.IsNone(" NONE "))
	require.True(t, timestr.IsNone("none"))
	require.False(t, timestr.IsNone("1s"))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "0s", timestr.Format(0))
	require.Equal(t, "1min 30s", timestr.Format(90*time.Second))
	require.Equal(t, "1d 1h", timestr.Format(25*time.Hour))
	require.Equal(t, "-1s 500ms", timestr.Format(-1500*time.Millisecond))
}

func TestFormat_RoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("parse inverts format", prop.ForAll(
		func(n int64) bool {
			d := time.Duration(n)
			got, err := timestr.Parse(timestr.Format(d))
			return err == nil && got == d
		},
		gen.Int64Range(-int64(1000*time.Hour), int64(1000*time.Hour)),
	))
	properties.TestingRun(t)
}
