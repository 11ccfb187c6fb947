// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/testutil"
)

// Test for: suite level defaults apply to every test, and tests can
// override them.
func TestHCL_SuiteDefaults(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	suiteHCL := `
		suite "Defaults" {
			doc          = "Checks defaults."
			metadata     = { owner = "qa" }
			test_tags    = ["regression"]
			test_setup   = ["Log To Console", "default setup"]
			test_timeout = "5s"

			test "Inherits" {
				tags = ["own"]
				call "Should Be Equal" { args = ["${SUITE_NAME}", "Defaults"] }
				call "Should Be Equal" { args = ["${SUITE_METADATA}[owner]", "qa"] }
			}

			test "Overrides Setup" {
				setup = ["Log To Console", "own setup"]
				call "No Operation" {}
			}

			test "Skipped By Tag" {
				tags = ["robot:skip"]
				call "Fail" { args = ["not run"] }
			}
		}
	`

	// --- Act ---
	res := testutil.RunHCLSuiteTest(t, suiteHCL)

	// --- Assert ---
	require.NoError(t, res.Err)
	inherits := testutil.FindTest(t, res, "Inherits")
	require.Equal(t, result.StatusPass, inherits.Status, inherits.Message)
	require.ElementsMatch(t, []string{"regression", "own"}, inherits.Tags)
	require.Equal(t, result.KindSetup, inherits.Children[0].Kind)

	testutil.AssertTestPassed(t, res, "Overrides Setup")
	require.Contains(t, res.LogOutput, "own setup\n")
	require.Contains(t, res.LogOutput, "default setup\n")

	skipped := testutil.FindTest(t, res, "Skipped By Tag")
	require.Equal(t, result.StatusSkip, skipped.Status)
	require.Equal(t, "Test skipped using 'robot:skip' tag.", skipped.Message)
	require.Equal(t, result.Stats{Total: 3, Passed: 2, Skipped: 1}, res.Run.Stats())
}

// Test for: nested suite blocks build a suite tree whose tests run in
// definition order, and heredoc strings keep their lines.
func TestHCL_NestedSuitesAndHeredocs(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	suiteHCL := `
		suite "Root" {
			test "Root Test" {
				call "Log To Console" {
					args = [<<-EOT
						line one
						line two
						EOT
					]
				}
			}

			suite "Child" {
				test "Child Test" {
					call "Log To Console" { args = ["child ${SUITE_NAME}"] }
				}

				suite "Grandchild" {
					test "Deepest" {
						call "Log To Console" { args = ["grandchild ${SUITE_NAME}"] }
					}
				}
			}
		}
	`

	// --- Act ---
	res := testutil.RunHCLSuiteTest(t, suiteHCL)

	// --- Assert ---
	require.NoError(t, res.Err)
	var names []string
	for _, test := range res.Run.Suite.Tests() {
		names = append(names, test.Name)
	}
	require.Equal(t, []string{"Root Test", "Child Test", "Deepest"}, names)
	require.Contains(t, res.LogOutput, "line one\nline two\n")
	require.Contains(t, res.LogOutput, "child Root.Child\n")
	require.Contains(t, res.LogOutput, "grandchild Root.Child.Grandchild\n")

	var suites []string
	for _, s := range res.Run.Suite.Suites() {
		suites = append(suites, s.Name)
	}
	require.Equal(t, []string{"Root", "Child", "Grandchild"}, suites)
}
