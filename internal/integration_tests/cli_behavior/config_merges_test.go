// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package integration_tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/app"
	"github.com/vk/kwgrid/internal/cli"
	"github.com/vk/kwgrid/internal/hcl_adapter"
	"github.com/vk/kwgrid/internal/testutil"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestCLI_VariablePrecedence validates that later variable files override
// earlier ones, command line variables override files, and both override
// the variable table of a suite.
func TestCLI_VariablePrecedence(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	write(t, dir, "suites/env.hcl", `
suite "Env" {
  variables = { HOST = "table-host", PORT = "1", USER = "table-user" }

  test "Sees Merged Variables" {
    call "Should Be Equal" { args = ["${HOST}", "cli-host"] }
    call "Should Be Equal" { args = ["${PORT}", "${2}"] }
    call "Should Be Equal" { args = ["${USER}", "table-user"] }
    call "Should Be Equal" { args = ["${ZONE}", "base-zone"] }
  }
}
`)
	base := write(t, dir, "base.yaml", "HOST: base-host\nPORT: 1\nZONE: base-zone\n")
	override := write(t, dir, "override.yaml", "HOST: file-host\nPORT: 2\n")

	var out app.SafeBuffer
	cfg, shouldExit, err := cli.Parse([]string{
		"-V", base, "-V", override,
		"-v", "HOST:cli-host",
		"--log-level", "debug",
		filepath.Join(dir, "suites"),
	}, &out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	// --- Act ---
	a, err := app.NewApp(&out, cfg, hcl_adapter.NewLoader())
	require.NoError(t, err)
	run, err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Empty(t, run.Failed(), out.String())
	require.Equal(t, 1, run.Stats().Passed)
}

// TestCLI_MergesHCL_FromDirectoryPath validates that every suite file found
// below a directory becomes a child of one root suite.
func TestCLI_MergesHCL_FromDirectoryPath(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"suites/a.hcl": `suite "Alpha" {
  test "From A" {
    call "Log To Console" { args = ["ran a"] }
  }
}`,
		"suites/nested/b.hcl": `suite "Beta" {
  test "From B" {
    call "Log To Console" { args = ["ran b"] }
  }
}`,
	}

	// --- Act ---
	res := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.NoError(t, res.Err, "app.Run() returned an unexpected error")
	require.Equal(t, "Alpha & Beta", res.Run.Suite.Name)
	testutil.AssertTestPassed(t, res, "From A")
	testutil.AssertTestPassed(t, res, "From B")
	require.Contains(t, res.LogOutput, "ran a\n")
	require.Contains(t, res.LogOutput, "ran b\n")
}
