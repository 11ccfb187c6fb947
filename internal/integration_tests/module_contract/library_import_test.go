// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package module_contract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/testutil"
)

// Test for: library keywords are only visible in suites importing the
// library, unless the library is preloaded.
func TestModuleContract_LibraryImport(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	created := 0
	greeter := &testutil.SimpleModule{
		Name:    "Greeter",
		Scope:   library.ScopeGlobal,
		Preload: true,
		Created: &created,
		Keywords: []*library.Keyword{{
			Name: "Greeting For",
			Args: []string{"name", "punctuation=!"},
			Run: func(_ context.Context, c library.Call) (any, error) {
				return "Hello " + c.Arg(0).(string) + c.Arg(1).(string), nil
			},
		}},
	}
	suiteHCL := `
		suite "Imports" {
			suite "Importer" {
				library "NoOp" {
					alias = "Quiet"
				}
				test "Uses Imported Library" {
					call "No Op" {}
					call "Quiet.No Op" {}
				}
			}

			suite "Forgetful" {
				test "Library Not Imported" {
					call "No Op" {}
				}
				test "Preloaded Library" {
					call "Greeting For" {
						args   = ["Ann"]
						assign = ["${g}"]
					}
					call "Should Be Equal" { args = ["${g}", "Hello Ann!"] }
				}
			}
		}
	`

	// --- Act ---
	res := testutil.RunHCLSuiteTest(t, suiteHCL, &testutil.NoOpModule{}, greeter)

	// --- Assert ---
	require.NoError(t, res.Err)
	testutil.AssertTestPassed(t, res, "Uses Imported Library")
	testutil.AssertKeywordRan(t, res, "Uses Imported Library", "No Op")
	testutil.AssertTestPassed(t, res, "Preloaded Library")

	missing := testutil.FindTest(t, res, "Library Not Imported")
	require.Equal(t, result.StatusFail, missing.Status)
	require.Contains(t, missing.Message, "No keyword with name 'No Op' found.")

	// One instance for registry validation and one shared by the run.
	require.Equal(t, 2, created)
}
