// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package kwerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTimeout struct{}

func (fakeTimeout) Error() string { return "Test timeout 1s exceeded." }
func (fakeTimeout) Timeout() bool { return true }

type fakeDefinition struct{}

func (fakeDefinition) Error() string         { return "bad args" }
func (fakeDefinition) DefinitionError() bool { return true }

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "plain error", err: errors.New("boom"), expected: KindFailure},
		{name: "failure", err: Failf("x"), expected: KindFailure},
		{name: "fatal", err: &Fatal{Message: "x"}, expected: KindFatal},
		{name: "wrapped fatal", err: fmt.Errorf("ctx: %w", &Fatal{Message: "x"}), expected: KindFatal},
		{name: "skip", err: &Skip{Message: "x"}, expected: KindSkip},
		{name: "definition", err: Definitionf("No keyword with name '%s' found.", "X"), expected: KindDefinition},
		{name: "definition by method", err: fakeDefinition{}, expected: KindDefinition},
		{name: "timeout", err: fakeTimeout{}, expected: KindTimeout},
		{name: "multiple with fatal", err: Join(Continuef("a"), &Fatal{Message: "b"}), expected: KindFatal},
		{name: "multiple skips", err: &Multiple{Errors: []error{&Skip{Message: "a"}, &Skip{Message: "b"}}}, expected: KindSkip},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Classify(tc.err))
		})
	}
}

func TestContinuable(t *testing.T) {
	require.True(t, IsContinuable(Continuef("a")))
	require.False(t, IsContinuable(Failf("a")))
	require.False(t, IsContinuable(errors.New("a")))
	require.True(t, IsContinuable(Join(Continuef("a"), Continuef("b"))))
	require.False(t, IsContinuable(Join(Continuef("a"), Failf("b"))))
}

func TestJoin(t *testing.T) {
	require.NoError(t, Join(nil, nil))

	single := Failf("only")
	require.Same(t, single, Join(nil, single))

	err := Join(Join(Continuef("first"), Continuef("second")), Failf("third"))
	require.Equal(t, "Several failures occurred:\n\n1) first\n\n2) second\n\n3) third", err.Error())
}

func TestWithTeardown(t *testing.T) {
	require.NoError(t, WithTeardown(nil, nil))

	err := WithTeardown(nil, Failf("td"))
	require.EqualError(t, err, "Teardown failed:\ntd")

	err = WithTeardown(&Skip{Message: "body"}, Failf("td"))
	require.EqualError(t, err, "body\n\nAlso teardown failed:\ntd")
	require.False(t, IsSkip(err))

	err = WithTeardown(Failf("body"), &Fatal{Message: "td"})
	require.True(t, IsFatal(err))
}

func TestPrefixed(t *testing.T) {
	err := Prefixed("Parent suite setup failed:\n", &Fatal{Message: "boom"})
	require.EqualError(t, err, "Parent suite setup failed:\nboom")
	require.True(t, IsFatal(err))
	require.NoError(t, Prefixed("x", nil))
}
