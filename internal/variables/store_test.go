// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package variables_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/variables"
)

func TestBuiltins(t *testing.T) {
	s := variables.New()
	testCases := []struct {
		ref  string
		want any
	}{
		{"${EMPTY}", ""},
		{"@{EMPTY}", []any{}},
		{"&{EMPTY}", map[string]any{}},
		{"${SPACE}", " "},
		{"${True}", true},
		{"${FALSE}", false},
		{"${None}", nil},
		{`${\n}`, "\n"},
		{"${42}", 42},
		{"${-1.5}", -1.5},
		{"${0x1F}", 31},
		{"${0b101}", 5},
		{"${SPACE * 3}", "   "},
	}
	for _, tc := range testCases {
		t.Run(tc.ref, func(t *testing.T) {
			got, err := s.Get(tc.ref)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSetAndGet_Normalization(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("${My Var}", "value"))

	for _, ref := range []string{"${my var}", "${MY_VAR}", "${myvar}"} {
		got, err := s.Get(ref)
		require.NoError(t, err)
		require.Equal(t, "value", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("${username}", "bob"))

	_, err := s.Get("${usrname}")
	require.Error(t, err)
	require.True(t, errors.Is(err, variables.ErrNotFound))
	require.Contains(t, err.Error(), "Variable '${usrname}' not found.")
	require.Contains(t, err.Error(), "Did you mean:\n    ${username}")

	var varErr *variables.VariableError
	require.ErrorAs(t, err, &varErr)
	require.Equal(t, "${usrname}", varErr.Name)
}

func TestScopes_InnerShadowsOuter(t *testing.T) {
	suite := variables.New().Child(variables.Suite)
	require.NoError(t, suite.Set("${x}", "suite"))

	test := suite.Child(variables.Test)
	require.NoError(t, test.Set("${x}", "test"))

	got, err := test.Get("${x}")
	require.NoError(t, err)
	require.Equal(t, "test", got)

	got, err = suite.Get("${x}")
	require.NoError(t, err)
	require.Equal(t, "suite", got, "dropping the child pops the test scope")
}

func TestScopes_KeywordDoesNotSeeCallerLocals(t *testing.T) {
	test := variables.New().Child(variables.Suite).Child(variables.Test)
	require.NoError(t, test.Set("${local}", 1))
	require.NoError(t, test.SetScoped(variables.Test, "${shared}", 2))

	kw := test.Child(variables.Keyword)
	_, err := kw.Get("${local}")
	require.ErrorIs(t, err, variables.ErrNotFound)

	got, err := kw.Get("${shared}")
	require.NoError(t, err)
	require.Equal(t, 2, got)
}

func TestSetScoped_UpdatesEveryInnerScope(t *testing.T) {
	suite := variables.New().Child(variables.Suite)
	test := suite.Child(variables.Test)
	kw := test.Child(variables.Keyword)
	require.NoError(t, kw.Set("${x}", "shadow"))

	// --- Act ---
	require.NoError(t, kw.SetScoped(variables.Suite, "${x}", "new"))

	// --- Assert ---
	for _, s := range []*variables.Store{suite, test, kw} {
		got, err := s.Get("${x}")
		require.NoError(t, err)
		require.Equal(t, "new", got)
	}
}

func TestSetScoped_NoTestStarted(t *testing.T) {
	suite := variables.New().Child(variables.Suite)
	err := suite.SetScoped(variables.Test, "${x}", 1)
	require.EqualError(t, err, "Cannot set test variable when no test is started.")
}

func TestChildSuite_Inheritance(t *testing.T) {
	parent := variables.New().Child(variables.Suite)
	require.NoError(t, parent.Set("${own}", 1))
	require.NoError(t, parent.SetSuites("${inherited}", 2))
	require.NoError(t, parent.SetScoped(variables.Global, "${global}", 3))

	child := parent.Child(variables.Suite)
	require.False(t, child.Contains("${own}"))
	require.True(t, child.Contains("${inherited}"))
	require.True(t, child.Contains("${global}"))
	require.Equal(t, 2, child.Depth())
}

func TestLocalScope_WritesThroughToEnclosingScope(t *testing.T) {
	test := variables.New().Child(variables.Suite).Child(variables.Test)
	iteration := test.Child(variables.Local)
	require.NoError(t, iteration.SetLocal("${item}", "a"))
	require.NoError(t, iteration.Set("${found}", true))
	require.NoError(t, iteration.Set("${item}", "b"))

	require.True(t, test.Contains("${found}"))
	require.False(t, test.Contains("${item}"))
	got, err := iteration.Get("${item}")
	require.NoError(t, err)
	require.Equal(t, "b", got)
}

func TestSigilShapes(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("@{list}", []string{"a", "b"}))
	require.NoError(t, s.Set("&{dict}", map[string]any{"k": "v"}))

	got, err := s.Get("@{list}")
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, got)

	err = s.Set("@{bad}", "text")
	require.ErrorIs(t, err, variables.ErrInvalid)
	require.Contains(t, err.Error(), "is not list or list-like")

	err = s.Set("&{bad}", []any{1})
	require.Contains(t, err.Error(), "is not dictionary or dictionary-like")

	_, err = s.Get("&{list}")
	require.Error(t, err)
}

func TestItemAccess(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("${list}", []any{"a", "b", "c", "d"}))
	require.NoError(t, s.Set("${dict}", map[string]any{"key": "v", "nested": []any{1, 2}}))
	require.NoError(t, s.Set("${i}", 1))
	require.NoError(t, s.Set("${name}", "key"))
	require.NoError(t, s.Set("${text}", "hello"))

	testCases := []struct {
		ref  string
		want any
	}{
		{"${list}[0]", "a"},
		{"${list}[-1]", "d"},
		{"${list}[${i}]", "b"},
		{"${list}[1:3]", []any{"b", "c"}},
		{"${list}[::2]", []any{"a", "c"}},
		{"${list}[::-1]", []any{"d", "c", "b", "a"}},
		{"${dict}[key]", "v"},
		{"${dict}[${name}]", "v"},
		{"${dict}[nested][1]", 2},
		{"${text}[1]", "e"},
		{"${text}[1:3]", "el"},
	}
	for _, tc := range testCases {
		t.Run(tc.ref, func(t *testing.T) {
			got, err := s.Get(tc.ref)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := s.Get("${list}[10]")
	require.EqualError(t, err, "List '${list}' has no item in index 10.")
	_, err = s.Get("${dict}[missing]")
	require.EqualError(t, err, "Dictionary '${dict}' has no key 'missing'.")
	_, err = s.Get("${list}[x]")
	require.EqualError(t, err, "List '${list}' used with invalid index 'x'.")
}

type account struct {
	Name  string
	Count int
}

type recorder struct{ attrs map[string]any }

func (r *recorder) SetAttribute(name string, value any) error {
	if name == "locked" {
		return fmt.Errorf("attribute is read-only")
	}
	r.attrs[name] = value
	return nil
}

func TestExtendedSyntax(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	acc := &account{Name: "alice"}
	require.NoError(t, s.Set("${acc}", acc))
	require.NoError(t, s.Set("${cfg}", map[string]any{"host": "localhost", "db": map[string]any{"port": 5432}}))

	t.Run("read attribute and key", func(t *testing.T) {
		got, err := s.Get("${acc.name}")
		require.NoError(t, err)
		require.Equal(t, "alice", got)

		got, err = s.Get("${cfg.db.port}")
		require.NoError(t, err)
		require.Equal(t, 5432, got)
	})

	t.Run("missing attribute", func(t *testing.T) {
		_, err := s.Get("${acc.missing}")
		require.ErrorIs(t, err, variables.ErrAttribute)
	})

	t.Run("set struct field", func(t *testing.T) {
		require.NoError(t, s.SetExtended("${acc.Count}", 3))
		require.Equal(t, 3, acc.Count)
	})

	t.Run("set map key", func(t *testing.T) {
		require.NoError(t, s.SetExtended("${cfg.host}", "example.com"))
		got, err := s.Get("${cfg.host}")
		require.NoError(t, err)
		require.Equal(t, "example.com", got)
	})

	t.Run("undefined base is a name error", func(t *testing.T) {
		err := s.SetExtended("${nope.attr}", 1)
		require.ErrorIs(t, err, variables.ErrNotFound)
	})

	t.Run("rejected mutation is an attribute error", func(t *testing.T) {
		require.NoError(t, s.Set("${text}", "immutable"))
		err := s.SetExtended("${text.attr}", 1)
		require.ErrorIs(t, err, variables.ErrAttribute)

		err = s.SetExtended("${acc.Count}", "not a number")
		require.ErrorIs(t, err, variables.ErrAttribute)

		rec := &recorder{attrs: map[string]any{}}
		require.NoError(t, s.Set("${rec}", rec))
		require.NoError(t, s.SetExtended("${rec.open}", 1))
		require.Equal(t, 1, rec.attrs["open"])
		err = s.SetExtended("${rec.locked}", 1)
		require.ErrorIs(t, err, variables.ErrAttribute)
		require.Contains(t, err.Error(), "attribute is read-only")
	})
}

func TestAssign(t *testing.T) {
	s := variables.New().Child(variables.Suite).Child(variables.Test)
	require.NoError(t, s.Assign("${x} =", 1))
	require.NoError(t, s.Assign("@{l}=", []any{1, 2}))
	require.NoError(t, s.Assign("&{d}", map[string]any{}))
	require.NoError(t, s.Assign("${d}[k] =", "v"))
	require.NoError(t, s.Assign("${l}[-1]", 9))
	require.NoError(t, s.Assign("${undefined.attr}", "plain"))

	got, err := s.Get("${d}[k]")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	got, err = s.Get("@{l}")
	require.NoError(t, err)
	require.Equal(t, []any{1, 9}, got)

	got, err = s.Get("${undefined.attr}")
	require.NoError(t, err)
	require.Equal(t, "plain", got)

	require.Error(t, s.Assign("not a variable", 1))
}

func TestReplaceString(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("${name}", "world"))
	require.NoError(t, s.Set("${n}", 3))
	require.NoError(t, s.Set("@{items}", []any{"a", 1}))
	require.NoError(t, s.Set("${key}", "na"))

	testCases := []struct {
		input string
		want  any
	}{
		{"${n}", 3},
		{"@{items}", []any{"a", 1}},
		{"Hello, ${name}!", "Hello, world!"},
		{"n=${n}", "n=3"},
		{"list: @{items}", "list: ['a', 1]"},
		{"${${key}me}", "world"},
		{`\${name}`, "${name}"},
		{`tab\there`, "tab\there"},
		{"${None} and ${True}", "None and True"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := s.ReplaceString(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestReplaceList(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("@{items}", []any{"a", "b"}))
	require.NoError(t, s.Set("${x}", 1))
	require.NoError(t, s.Set("${nested}", []any{[]any{"y", "z"}}))

	got, err := s.ReplaceList([]string{"first", "@{items}", "${x}", "@{nested}[0]"})
	require.NoError(t, err)
	require.Equal(t, []any{"first", "a", "b", 1, "y", "z"}, got)

	_, err = s.ReplaceList([]string{"@{items}[0]"})
	require.ErrorIs(t, err, variables.ErrInvalid)
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv("KWGRID_TEST_VALUE", "from env")
	s := variables.New()

	got, err := s.ReplaceString("%{KWGRID_TEST_VALUE}")
	require.NoError(t, err)
	require.Equal(t, "from env", got)

	got, err = s.ReplaceString("%{KWGRID_TEST_MISSING=fallback}")
	require.NoError(t, err)
	require.Equal(t, "fallback", got)

	_, err = s.ReplaceString("%{KWGRID_TEST_MISSING}")
	require.EqualError(t, err, "Environment variable '%{KWGRID_TEST_MISSING}' not found.")
}

func TestLookup_ForExpressions(t *testing.T) {
	s := variables.New().Child(variables.Suite)
	require.NoError(t, s.Set("${count}", 2))
	got, err := s.Lookup("count")
	require.NoError(t, err)
	require.Equal(t, 2, got)

	all := s.All()
	require.Equal(t, 2, all["count"])
}

func TestToMap(t *testing.T) {
	type header string

	got, ok := variables.ToMap(map[string]string{"a": "1"})
	require.True(t, ok)
	require.Equal(t, map[string]any{"a": "1"}, got)

	got, ok = variables.ToMap(map[header]int{"x": 2})
	require.True(t, ok)
	require.Equal(t, map[string]any{"x": 2}, got)

	_, ok = variables.ToMap(map[int]string{1: "a"})
	require.False(t, ok)
	_, ok = variables.ToMap("not a map")
	require.False(t, ok)
}
