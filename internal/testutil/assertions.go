// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/result"
)

// FindTest returns the result of the named test.
func FindTest(t *testing.T, res *HarnessResult, name string) *result.Result {
	t.Helper()
	require.NoError(t, res.Err)
	require.NotNil(t, res.Run)
	for _, test := range res.Run.Suite.Tests() {
		if test.Name == name {
			return test
		}
	}
	require.FailNow(t, "test not found", "no test named '%s' in the run", name)
	return nil
}

// AssertTestPassed checks that the named test passed.
func AssertTestPassed(t *testing.T, res *HarnessResult, name string) {
	t.Helper()
	test := FindTest(t, res, name)
	require.Equal(t, result.StatusPass, test.Status, "test '%s' failed: %s", name, test.Message)
}

// AssertTestFailed checks that the named test failed with message.
func AssertTestFailed(t *testing.T, res *HarnessResult, name, message string) {
	t.Helper()
	test := FindTest(t, res, name)
	require.Equal(t, result.StatusFail, test.Status)
	require.Equal(t, message, test.Message)
}

// AssertKeywordRan checks that a keyword with the given name ran and
// passed somewhere inside the named test.
func AssertKeywordRan(t *testing.T, res *HarnessResult, testName, keyword string) {
	t.Helper()
	found := false
	FindTest(t, res, testName).Walk(func(r *result.Result) bool {
		if r.Name == keyword && r.Status == result.StatusPass {
			found = true
		}
		return !found
	})
	require.True(t, found, "keyword '%s' did not pass in test '%s'", keyword, testName)
}
