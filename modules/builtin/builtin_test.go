// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package builtin_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/internal/typeconv"
	"github.com/vk/kwgrid/modules/builtin"
)

func call(name string, args ...string) model.Node { return model.N(model.Call(name, args...)) }

func assign(target, name string, args ...string) model.Node {
	return model.N(model.Call(name, args...).WithAssign(target))
}

func run(t *testing.T, s *model.Suite) (*result.Run, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r := registry.New()
	r.RegisterAll(&builtin.Module{Stdout: &out, Stderr: &out})
	e := engine.New(engine.Options{Libraries: r.Imports(), Preload: r.Preloaded()})
	res, err := e.Run(context.Background(), s)
	require.NoError(t, err)
	return res, &out
}

func TestRegistry_ValidatesBuiltIn(t *testing.T) {
	r := registry.New()
	r.RegisterAll(&builtin.Module{})
	require.NoError(t, r.ValidateRegistry(context.Background(), typeconv.NewConverter()))
	require.Equal(t, []string{builtin.LibraryName}, r.Preloaded())
}

func TestBuiltIn_Verification(t *testing.T) {
	testCases := []struct {
		name    string
		body    []model.Node
		status  result.Status
		message string
	}{
		{"equal", []model.Node{call("Should Be Equal", "a", "a")}, result.StatusPass, ""},
		{"unequal", []model.Node{call("Should Be Equal", "a", "b")}, result.StatusFail, "a != b"},
		{"custom message with values", []model.Node{call("Should Be Equal", "a", "b", "custom")}, result.StatusFail, "custom: a != b"},
		{"custom message only", []model.Node{call("Should Be Equal", "a", "b", "custom", "values=False")}, result.StatusFail, "custom"},
		{"ignore case", []model.Node{call("Should Be Equal", "ABC", "abc", "ignore_case=True")}, result.StatusPass, ""},
		{"types differ", []model.Node{call("Should Be Equal", "${1}", "1")}, result.StatusFail, "1 (integer) != 1 (string)"},
		{"not equal", []model.Node{call("Should Not Be Equal", "x", "x")}, result.StatusFail, "x == x"},
		{"as integers", []model.Node{call("Should Be Equal As Integers", "0x10", "16")}, result.StatusPass, ""},
		{"true", []model.Node{call("Should Be True", "1 < 2 and len('ab') == 2")}, result.StatusPass, ""},
		{"not true", []model.Node{call("Should Be True", "1 > 2")}, result.StatusFail, "'1 > 2' should be true."},
		{"contains", []model.Node{call("Should Contain", "abc", "x")}, result.StatusFail, "'abc' does not contain 'x'"},
		{"empty", []model.Node{call("Should Be Empty", "abc")}, result.StatusFail, "'abc' should be empty."},
		{"length", []model.Node{call("Length Should Be", "abc", "2")}, result.StatusFail, "Length of 'abc' should be 2 but is 3."},
		{"fail default", []model.Node{call("Fail")}, result.StatusFail, "AssertionError"},
		{"skip", []model.Node{call("Skip")}, result.StatusSkip, "Skipped with Skip keyword."},
		{"skip if", []model.Node{call("Skip If", "1 == 1")}, result.StatusSkip, "1 == 1"},
		{"skip if false", []model.Node{call("Skip If", "1 == 2")}, result.StatusPass, ""},
		{"expect error glob", []model.Node{call("Run Keyword And Expect Error", "*boom*", "Fail", "big boom")}, result.StatusPass, ""},
		{"expect error starts", []model.Node{call("Run Keyword And Expect Error", "STARTS: big", "Fail", "big boom")}, result.StatusPass, ""},
		{"expect error mismatch", []model.Node{call("Run Keyword And Expect Error", "nope", "Fail", "boom")}, result.StatusFail, "Expected error 'nope' but got 'boom'."},
		{"expect error missing", []model.Node{call("Run Keyword And Expect Error", "*", "No Operation")}, result.StatusFail, "Expected error '*' did not occur."},
		{"nested unknown keyword", []model.Node{call("Run Keyword", "Xyzzy Qwv")}, result.StatusFail, "No keyword with name 'Xyzzy Qwv' found."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := model.NewSuite("Root")
			s.AddTest("T", tc.body...)

			res, _ := run(t, s)

			test := res.Suite.Tests()[0]
			require.Equal(t, tc.status, test.Status, test.Message)
			require.Equal(t, tc.message, test.Message)
		})
	}
}

func TestBuiltIn_Variables(t *testing.T) {
	s := model.NewSuite("Root")
	s.AddTest("Sets",
		assign("${list}", "Set Variable", "a", "b"),
		call("Length Should Be", "${list}", "2"),
		assign("&{d}", "Create Dictionary", "k", "v", "other=1"),
		call("Should Be Equal", "${d}[k]", "v"),
		call("Should Be Equal", "${d}[other]", "1"),
		assign("${joined}", "Catenate", "SEPARATOR=-", "a", "b"),
		call("Should Be Equal", "${joined}", "a-b"),
		assign("${n}", "Convert To Integer", "ff", "16"),
		call("Should Be Equal", "${n}", "${255}"),
		assign("${sum}", "Evaluate", "$n + 1"),
		call("Should Be Equal", "${sum}", "${256}"),
		assign("${missing}", "Get Variable Value", `\${nothing}`, "fallback"),
		call("Should Be Equal", "${missing}", "fallback"),
		call("Set Suite Variable", `\${shared}`, "hello"),
		call("Set Global Variable", `\${everywhere}`, "yes"),
	)
	s.AddTest("Reads",
		call("Should Be Equal", "${shared}", "hello"),
		call("Variable Should Exist", `\${everywhere}`),
		call("Variable Should Exist", `\${list}`),
	)

	res, _ := run(t, s)

	tests := res.Suite.Tests()
	require.Equal(t, result.StatusPass, tests[0].Status, tests[0].Message)
	require.Equal(t, result.StatusFail, tests[1].Status)
	require.Equal(t, "Variable '${list}' does not exist.", tests[1].Message)
}

func TestBuiltIn_RunKeywordVariants(t *testing.T) {
	s := model.NewSuite("Root")
	s.AddTest("Ignore",
		model.N(model.Call("Run Keyword And Ignore Error", "Fail", "oops").WithAssign("${status}", "${msg}")),
		call("Should Be Equal", "${status}", "FAIL"),
		call("Should Be Equal", "${msg}", "oops"),
		assign("${ok}", "Run Keyword And Return Status", "Should Be Equal", "a", "a"),
		call("Should Be True", "${ok}"),
	)
	s.AddTest("Continue",
		call("Run Keyword And Continue On Failure", "Fail", "one"),
		call("Log To Console", "after"),
		call("Run Keyword And Continue On Failure", "Fail", "two"),
	)
	s.AddTest("Fatal not ignored",
		call("Run Keyword And Ignore Error", "Fatal Error", "stop"),
	)
	s.AddTest("Stopped", call("No Operation"))

	res, out := run(t, s)

	tests := res.Suite.Tests()
	require.Equal(t, result.StatusPass, tests[0].Status, tests[0].Message)
	require.Equal(t, result.StatusFail, tests[1].Status)
	require.Equal(t, "Several failures occurred:\n\n1) one\n\n2) two", tests[1].Message)
	require.Equal(t, "after\n", out.String())
	require.Equal(t, "stop", tests[2].Message)
	require.Equal(t, "Test execution stopped due to a fatal error.", tests[3].Message)
}

func TestBuiltIn_TestVariableOutsideTest(t *testing.T) {
	s := model.NewSuite("Root")
	s.Setup = s.Fixture("Set Test Variable", `\${x}`, "1")
	s.AddTest("T", call("No Operation"))

	res, _ := run(t, s)

	require.Equal(t, "Parent suite setup failed:\nCannot set test variable when no test is started.", res.Suite.Tests()[0].Message)
}
