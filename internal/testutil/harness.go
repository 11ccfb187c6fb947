// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package testutil runs suites written in HCL through the whole application
// for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/app"
	"github.com/vk/kwgrid/internal/hcl_adapter"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/modules/builtin"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// LogOutput holds the logs, console output and summary table.
	LogOutput string
	Err       error
	Run       *result.Run
	App       *app.App
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, modules...)
}

// RunIntegrationTestWithContext writes files below a temporary root and
// runs the suites found in its "suites" directory. Files ending in .yaml
// are used as variable files in name order. Given modules are registered
// next to BuiltIn; without modules the core libraries are used.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	suitesDir := filepath.Join(tmpDir, "suites")
	require.NoError(t, os.MkdirAll(suitesDir, 0o755))

	var varFiles []string
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
		if strings.HasSuffix(name, ".yaml") {
			varFiles = append(varFiles, filePath)
		}
	}
	sort.Strings(varFiles)

	cfg := &app.Config{
		SuitePaths:    []string{suitesDir},
		VariableFiles: varFiles,
		LogLevel:      "debug",
		LogFormat:     "text",
		Grace:         50 * time.Millisecond,
		ShowTests:     true,
	}

	logBuffer := &app.SafeBuffer{}
	if len(modules) > 0 {
		modules = append([]registry.Module{&builtin.Module{Stdout: logBuffer, Stderr: logBuffer}}, modules...)
	}

	var testApp *app.App
	var startErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				startErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp, startErr = app.NewApp(logBuffer, cfg, hcl_adapter.NewLoader(), modules...)
	}()

	res := &HarnessResult{App: testApp, Err: startErr}
	if startErr == nil {
		res.Run, res.Err = testApp.Run(ctx)
	}
	res.LogOutput = logBuffer.String()

	if os.Getenv("KWGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
	}
	return res
}
