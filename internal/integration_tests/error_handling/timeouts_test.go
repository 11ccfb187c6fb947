// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package integration_tests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/testutil"
)

// Test for: a test timeout fails the test and the next test still runs.
func TestErrorHandling_TestTimeout_FailsTest(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sleeper := testutil.NewMockSleeperModule(nil, time.Second)
	suiteHCL := `
		suite "Slow" {
			test "Too Slow" {
				timeout = "50ms"
				call "Sleep And Record" { args = ["slow"] }
				call "Log To Console" { args = ["not reached"] }
			}
			test "Next" {
				call "Log To Console" { args = ["next ran"] }
			}
		}
	`

	// --- Act ---
	start := time.Now()
	res := testutil.RunHCLSuiteTest(t, suiteHCL, sleeper)
	elapsed := time.Since(start)

	// --- Assert ---
	require.NoError(t, res.Err)
	testutil.AssertTestFailed(t, res, "Too Slow", "Test timeout 50ms exceeded.")
	testutil.AssertTestPassed(t, res, "Next")
	require.NotContains(t, res.LogOutput, "not reached")
	require.Contains(t, res.LogOutput, "next ran\n")
	require.Less(t, elapsed, 900*time.Millisecond, "the run should not wait for the sleeper")

	rec, ok := sleeper.Record("slow")
	require.True(t, ok, "the keyword should record its cancelled run")
	require.Less(t, rec.End.Sub(rec.Start), 900*time.Millisecond)
}

// Test for: a keyword timeout on a user keyword is reported with the
// keyword's own limit, even inside a test with a longer timeout.
func TestErrorHandling_KeywordTimeout_FailsTest(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	sleeper := testutil.NewMockSleeperModule(nil, time.Second)
	suiteHCL := `
		suite "Slow" {
			keyword "Bounded Sleep" {
				timeout = "30ms"
				call "Sleep And Record" { args = ["bounded"] }
			}
			test "Keyword Too Slow" {
				timeout = "5s"
				call "Bounded Sleep" {}
			}
		}
	`

	// --- Act ---
	res := testutil.RunHCLSuiteTest(t, suiteHCL, sleeper)

	// --- Assert ---
	testutil.AssertTestFailed(t, res, "Keyword Too Slow", "Keyword timeout 30ms exceeded.")
}

// Test for: a unit that ignores cancellation is abandoned after the grace
// period and the run still finishes.
func TestErrorHandling_TimeoutIgnoredByKeyword_IsAbandoned(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	done := make(chan string, 1)
	sleeper := testutil.NewMockSleeperModule(done, 300*time.Millisecond)
	sleeper.IgnoreCancel = true
	suiteHCL := `
		suite "Stubborn" {
			test "Ignores Cancel" {
				timeout = "20ms"
				call "Sleep And Record" { args = ["stubborn"] }
			}
		}
	`

	// --- Act ---
	res := testutil.RunHCLSuiteTest(t, suiteHCL, sleeper)

	// --- Assert ---
	testutil.AssertTestFailed(t, res, "Ignores Cancel", "Test timeout 20ms exceeded.")
	require.Contains(t, res.LogOutput, "Unit still running in the background after timeout.")

	select {
	case id := <-done:
		require.Equal(t, "stubborn", id)
	case <-time.After(2 * time.Second):
		t.Fatal("the abandoned keyword never finished")
	}
}
