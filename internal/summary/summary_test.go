// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/result"
)

func TestFormatter_Format(t *testing.T) {
	// --- Arrange ---
	run := result.NewRun("Root")
	child := run.Suite.Add(result.KindSuite, "Login")
	child.Add(result.KindTest, "Valid").Finish(result.StatusPass, "")
	child.Add(result.KindTest, "Invalid").Finish(result.StatusFail, "Expected 200\nbut got 401")
	child.Add(result.KindTest, "Later").Finish(result.StatusSkip, "not yet")
	child.Finish(result.StatusFail, "")
	run.Suite.Finish(result.StatusFail, "")
	run.End = run.Suite.End

	// --- Act ---
	out := (&Formatter{ShowTests: true}).Format(run)

	// --- Assert ---
	require.Contains(t, out, "Root (run "+run.ID.String()+")")
	require.Contains(t, out, "├── Login")
	require.Contains(t, out, "├── Invalid")
	require.Contains(t, out, "Expected 200 ...")
	require.NotContains(t, out, "but got 401")

	footer := out[strings.LastIndex(out, "TOTAL"):]
	require.Contains(t, footer, "FAIL")
}

func TestOverall(t *testing.T) {
	require.Equal(t, result.StatusPass, overall(result.Stats{}))
	require.Equal(t, result.StatusSkip, overall(result.Stats{Total: 2, Skipped: 2}))
	require.Equal(t, result.StatusPass, overall(result.Stats{Total: 2, Passed: 1, Skipped: 1}))
	require.Equal(t, result.StatusFail, overall(result.Stats{Total: 2, Failed: 1, Passed: 1}))
}
