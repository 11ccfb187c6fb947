// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/exitcodes"
	"github.com/vk/kwgrid/internal/hcl_adapter"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/result"
)

const checkoutSuite = `
suite "Checkout" {
  test "Uses Variables" {
    call "Should Be Equal" { args = ["${CURRENCY}", "EUR"] }
    call "Should Be Equal" { args = ["${REGION}", "eu-west"] }
    call "Length Should Be" { args = ["${ITEMS}", "2"] }
  }

  test "Fails" {
    call "Fail" { args = ["Out of stock."] }
  }
}
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Config{SuitePaths: []string{"x"}}},
		{name: "no suites", cfg: Config{}, wantErr: "at least one suite path is required"},
		{name: "bad format", cfg: Config{SuitePaths: []string{"x"}, LogFormat: "xml"}, wantErr: "invalid log format 'xml'"},
		{name: "bad level", cfg: Config{SuitePaths: []string{"x"}, LogLevel: "loud"}, wantErr: "invalid log level 'loud'"},
		{name: "bad port", cfg: Config{SuitePaths: []string{"x"}, HealthcheckPort: 70000}, wantErr: "invalid healthcheck port 70000"},
		{name: "negative grace", cfg: Config{SuitePaths: []string{"x"}, Grace: -time.Second}, wantErr: "timeout grace cannot be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "text", cfg.LogFormat)
			require.Equal(t, "info", cfg.LogLevel)
		})
	}
}

func TestApp_Run(t *testing.T) {
	// --- Arrange ---
	suitePath := writeTemp(t, "checkout.hcl", checkoutSuite)
	varsPath := writeTemp(t, "vars.yaml", "CURRENCY: USD\nREGION: eu-west\n\"@{ITEMS}\": [book, pen]\n")
	cfg, err := NewConfig(Config{
		SuitePaths:    []string{suitePath},
		VariableFiles: []string{varsPath},
		Variables:     []string{"CURRENCY:EUR"},
		LogLevel:      "info",
		ShowTests:     true,
	})
	require.NoError(t, err)
	a, logs := SetupAppTest(t, cfg)

	// --- Act ---
	run, err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	stats := run.Stats()
	require.Equal(t, result.Stats{Total: 2, Passed: 1, Failed: 1}, stats)
	require.Equal(t, "Out of stock.", run.Failed()[0].Message)
	require.Equal(t, 1, ExitCode(context.Background(), run))

	out := logs.String()
	require.Contains(t, out, "Run finished.")
	require.Contains(t, out, "TOTAL")
	require.Contains(t, out, "Uses Variables")

	// The health server exposes the metrics of the finished run.
	rec := httptest.NewRecorder()
	a.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `kwgrid_tests_total{status="FAIL"} 1`)
}

func TestApp_HealthHandler(t *testing.T) {
	cfg, err := NewConfig(Config{SuitePaths: []string{writeTemp(t, "s.hcl", checkoutSuite)}})
	require.NoError(t, err)
	a, _ := SetupAppTest(t, cfg)

	rec := httptest.NewRecorder()
	a.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK\n", rec.Body.String())
	require.NoError(t, a.closeHealthcheckServer())
}

func TestNewApp_Errors(t *testing.T) {
	var logs SafeBuffer
	cfg := &Config{SuitePaths: []string{filepath.Join(t.TempDir(), "missing")}}
	_, err := NewApp(&logs, cfg, failingLoader{})
	require.ErrorContains(t, err, "failed to load suites")

	cfg = &Config{SuitePaths: []string{"x"}, Variables: []string{"broken"}}
	_, err = NewApp(&logs, cfg, failingLoader{})
	require.ErrorContains(t, err, "expected format 'name:value'")
}

type failingLoader struct{}

func (failingLoader) Load(context.Context, ...string) (*model.Suite, error) {
	return nil, errors.New("path does not exist")
}

type brokenModule struct{}

func (brokenModule) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  "Broken",
		Scope: library.ScopeGlobal,
		New: func(context.Context) (library.Library, error) {
			return nil, errors.New("no backend")
		},
	})
}

func TestNewApp_PanicsOnInvalidRegistry(t *testing.T) {
	cfg := &Config{SuitePaths: []string{writeTemp(t, "s.hcl", checkoutSuite)}}
	require.PanicsWithError(t,
		"registry validation failed:\n- library 'Broken': creating instance failed: no backend",
		func() { _, _ = NewApp(&SafeBuffer{}, cfg, hcl_adapter.NewLoader(), brokenModule{}) })
}

func TestExitCode(t *testing.T) {
	run := result.NewRun("Root")
	for i := 0; i < 300; i++ {
		run.Suite.Add(result.KindTest, "t").Finish(result.StatusFail, "x")
	}
	require.Equal(t, exitcodes.MaxFailed, ExitCode(context.Background(), run))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, exitcodes.Interrupted, ExitCode(ctx, run))
}
