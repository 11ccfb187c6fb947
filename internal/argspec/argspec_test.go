// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package argspec

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/typeconv"
)

func mustUser(t *testing.T, decls ...string) *Spec {
	t.Helper()
	spec, err := ParseUser(typeconv.NewConverter(), "KW", decls)
	require.NoError(t, err)
	return spec
}

func bind(t *testing.T, spec *Spec, tokens ...string) (*Bound, error) {
	t.Helper()
	positional, named, err := Split(spec, tokens)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(positional))
	for i, p := range positional {
		values[i] = p
	}
	bound, err := Resolve(spec, values, named)
	if err != nil {
		return nil, err
	}
	return Convert(context.Background(), typeconv.NewConverter(), spec, bound)
}

func TestParseUser(t *testing.T) {
	spec := mustUser(t, "${a: int}", "${b}=two", "@{rest}", "${k}", "${opt}=x", "&{kw}")

	require.Equal(t, []string{"a", "b"}, spec.Positional)
	require.Equal(t, "rest", spec.VarPositional)
	require.Equal(t, []string{"k", "opt"}, spec.NamedOnly)
	require.Equal(t, "kw", spec.VarNamed)
	require.Equal(t, map[string]any{"b": "two", "opt": "x"}, spec.Defaults)
	require.Equal(t, typeconv.KindInt, spec.TypeOf("a").Kind)
	require.Equal(t, 1, spec.MinArgs())
	require.Equal(t, -1, spec.MaxArgs())
	require.Equal(t, "a: int, b=two, *rest, k, opt=x, **kw", spec.String())
}

func TestParseUser_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		decls    []string
		expected string
	}{
		{name: "not a variable", decls: []string{"a"}, expected: "Invalid argument syntax 'a'."},
		{name: "items", decls: []string{"${a}[0]"}, expected: "Invalid argument syntax"},
		{name: "default for list", decls: []string{"@{a}=x"}, expected: "Invalid argument syntax"},
		{name: "required after default", decls: []string{"${a}=1", "${b}"}, expected: "Non-default argument after default arguments."},
		{name: "two varargs", decls: []string{"@{a}", "@{b}"}, expected: "Cannot have multiple varargs."},
		{name: "after kwargs", decls: []string{"&{kw}", "${a}"}, expected: "Only last argument can be kwargs."},
		{name: "duplicate", decls: []string{"${a}", "${a}"}, expected: "multiple parameters named 'a'"},
		{name: "bad type", decls: []string{"${a: nope}"}, expected: "Invalid type in '${a: nope}'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseUser(typeconv.NewConverter(), "KW", tc.decls)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestParseDynamic(t *testing.T) {
	spec, err := ParseDynamic(typeconv.NewConverter(), "Lib KW",
		[]string{"a", "b: float=1.5", "*", "flag=False", "**options"},
		map[string]string{"flag": "bool", "a": "int"})
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b"}, spec.Positional)
	require.Equal(t, "", spec.VarPositional)
	require.Equal(t, []string{"flag"}, spec.NamedOnly)
	require.Equal(t, "options", spec.VarNamed)
	require.Equal(t, typeconv.KindFloat, spec.TypeOf("b").Kind)
	require.Equal(t, typeconv.KindBool, spec.TypeOf("flag").Kind)
	require.Equal(t, typeconv.KindInt, spec.TypeOf("a").Kind)
	require.Equal(t, 2, spec.MaxArgs())

	_, err = ParseDynamic(nil, "X", []string{"*a", "*b"}, nil)
	require.ErrorContains(t, err, "Cannot have multiple varargs.")
	_, err = ParseDynamic(nil, "X", []string{"a"}, map[string]string{"zz": "int"})
	require.Error(t, err)
}

func TestResolve_DefaultsAndTypes(t *testing.T) {
	spec := mustUser(t, "${a: int}", "${b}=two")

	bound, err := bind(t, spec, "1")
	require.NoError(t, err)
	require.Equal(t, []any{1, "two"}, bound.Positional)
	require.Equal(t, []string{"b"}, bound.Defaulted)

	bound, err = bind(t, spec, "b=x", "a=2")
	require.NoError(t, err)
	require.Equal(t, []any{2, "x"}, bound.Positional)
	require.Empty(t, bound.Defaulted)
}

func TestResolve_VarPositionalAndNamedOnly(t *testing.T) {
	spec := mustUser(t, "@{varargs}", "${k}")

	bound, err := bind(t, spec, "1", "2", "3", "k=4")
	require.NoError(t, err)
	require.Equal(t, []any{"1", "2", "3"}, bound.Positional)
	require.Equal(t, []Named{{Name: "k", Value: "4"}}, bound.Named)

	vars := bound.Variables(spec)
	require.Equal(t, []Assignment{
		{Target: "@{varargs}", Value: []any{"1", "2", "3"}},
		{Target: "${k}", Value: "4"},
	}, vars)
}

func TestSplit(t *testing.T) {
	spec := mustUser(t, "${a}", "${b}=2")

	positional, named, err := Split(spec, []string{`x\=y`, "b=4", "c=3"})
	require.Error(t, err)
	require.Nil(t, positional)
	require.Nil(t, named)

	positional, named, err = Split(spec, []string{`x\=y`, "b=4"})
	require.NoError(t, err)
	require.Equal(t, []string{`x\=y`}, positional)
	require.Equal(t, []Named{{Name: "b", Value: "4"}}, named)

	_, named, err = Split(spec, []string{"&{dict}"})
	require.NoError(t, err)
	require.Equal(t, []Named{{Name: "", Value: "&{dict}"}}, named)

	kwargs := mustUser(t, "&{kw}")
	_, named, err = Split(kwargs, []string{"any=thing", "${x}=no"})
	require.ErrorContains(t, err, "got positional argument '${x}=no' after named arguments.")
	require.Nil(t, named)
}

func TestResolve_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		decls    []string
		tokens   []string
		expected string
	}{
		{name: "too many", decls: []string{"${a}"}, tokens: []string{"1", "2"}, expected: "Keyword 'KW' expected 1 argument, got 2."},
		{name: "too few", decls: []string{"${a}", "${b}"}, tokens: []string{"1"}, expected: "expected 2 arguments, got 1."},
		{name: "range", decls: []string{"${a}", "${b}=1"}, tokens: nil, expected: "expected 1 to 2 arguments, got 0."},
		{name: "at least", decls: []string{"${a}", "@{r}"}, tokens: nil, expected: "expected at least 1 argument, got 0."},
		{name: "none expected", decls: nil, tokens: []string{"x"}, expected: "expected 0 arguments, got 1."},
		{name: "duplicate", decls: []string{"${a}"}, tokens: []string{"1", "a=2"}, expected: "got multiple values for argument 'a'."},
		{name: "named before positional", decls: []string{"${a}", "${b}"}, tokens: []string{"a=1", "2"}, expected: "got positional argument '2' after named arguments."},
		{name: "missing named-only", decls: []string{"@{}", "${k}"}, tokens: nil, expected: "missing named-only argument 'k'."},
		{name: "conversion", decls: []string{"${n: int}"}, tokens: []string{"x"}, expected: "Argument 'n' got value 'x' that cannot be converted to integer."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bind(t, mustUser(t, tc.decls...), tc.tokens...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestResolve_UnexpectedNamed(t *testing.T) {
	spec := mustUser(t, "${a}")
	_, err := Resolve(spec, nil, []Named{{Name: "zz", Value: 1}})
	require.EqualError(t, err, "Keyword 'KW' got unexpected named argument 'zz'.")
}

func TestConvert_OnlyRawText(t *testing.T) {
	spec := mustUser(t, "${a: int}", "@{rest: float}", "&{kw: bool}")
	bound, err := Resolve(spec, []any{7.0, "1", 2}, []Named{{Name: "x", Value: "yes"}, {Name: "y", Value: 0}})
	require.NoError(t, err)

	out, err := Convert(context.Background(), typeconv.NewConverter(), spec, bound)
	require.NoError(t, err)
	require.Equal(t, []any{7.0, 1.0, 2}, out.Positional)
	require.Equal(t, []Named{{Name: "x", Value: true}, {Name: "y", Value: 0}}, out.Named)
}

func TestDestructure(t *testing.T) {
	testCases := []struct {
		name     string
		targets  []string
		value    any
		expected []Assignment
		err      string
	}{
		{name: "single scalar", targets: []string{"${a}"}, value: []any{1, 2}, expected: []Assignment{{Target: "${a}", Value: []any{1, 2}}}},
		{name: "two scalars", targets: []string{"${a}", "${b} ="}, value: []any{1, 2}, expected: []Assignment{{Target: "${a}", Value: 1}, {Target: "${b} =", Value: 2}}},
		{name: "list only", targets: []string{"@{all}"}, value: []any{1, 2}, expected: []Assignment{{Target: "@{all}", Value: []any{1, 2}}}},
		{name: "trailing list", targets: []string{"${a}", "@{rest}"}, value: []any{1, 2, 3}, expected: []Assignment{{Target: "${a}", Value: 1}, {Target: "@{rest}", Value: []any{2, 3}}}},
		{name: "middle list", targets: []string{"${a}", "@{mid}", "${z}"}, value: []any{1, 2, 3, 4}, expected: []Assignment{{Target: "${a}", Value: 1}, {Target: "@{mid}", Value: []any{2, 3}}, {Target: "${z}", Value: 4}}},
		{name: "empty catch-all", targets: []string{"${a}", "@{rest}"}, value: []any{1}, expected: []Assignment{{Target: "${a}", Value: 1}, {Target: "@{rest}", Value: []any{}}}},
		{name: "none to scalars", targets: []string{"${a}", "${b}"}, value: nil, expected: []Assignment{{Target: "${a}", Value: nil}, {Target: "${b}", Value: nil}}},
		{name: "count mismatch", targets: []string{"${a}", "${b}"}, value: []any{1, 2, 3}, err: "Cannot set variables: Expected 2 return values, got 3."},
		{name: "too few for list", targets: []string{"${a}", "${b}", "@{c}"}, value: []any{1}, err: "Expected 2 or more return values, got 1."},
		{name: "not a list", targets: []string{"${a}", "${b}"}, value: 5, err: "Expected list-like value, got int."},
		{name: "two lists", targets: []string{"@{a}", "@{b}"}, value: []any{}, err: "only one list"},
		{name: "dict with others", targets: []string{"&{a}", "${b}"}, value: nil, err: "Dictionary variable cannot be assigned with other variables."},
		{name: "invalid", targets: []string{"nope"}, value: nil, err: "Invalid assignment target 'nope'."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Destructure(tc.targets, tc.value)
			if tc.err != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	specs := []*Spec{
		mustUser(t, "${a}", "${b}=2"),
		mustUser(t, "${a}", "@{rest}", "${k}=x"),
		mustUser(t, "${a}=1", "&{kw}"),
	}
	candidates := []string{"a", "b", "k", "x", "y"}
	properties := gopter.NewProperties(nil)

	properties.Property("re-resolving a binding yields the same binding", prop.ForAll(
		func(which int, positional []string, nameIdx []int) bool {
			spec := specs[which]
			values := make([]any, len(positional))
			for i, p := range positional {
				values[i] = p
			}
			var named []Named
			for i, n := range nameIdx {
				named = append(named, Named{Name: candidates[n], Value: fmt.Sprint(i)})
			}
			first, err := Resolve(spec, values, named)
			if err != nil {
				return true
			}
			second, err := Resolve(spec, first.Positional, first.Named)
			if err != nil {
				return false
			}
			return reflect.DeepEqual(first.Positional, second.Positional) && reflect.DeepEqual(first.Named, second.Named)
		},
		gen.IntRange(0, len(specs)-1),
		gen.SliceOfN(3, gen.AlphaString()),
		gen.SliceOfN(2, gen.IntRange(0, len(candidates)-1)),
	))

	properties.TestingRun(t)
}

func TestConvertGiven_LeavesDefaults(t *testing.T) {
	spec := mustUser(t, "${a: int}", "${b: int}=${a}")
	bound, err := Resolve(spec, []any{"1"}, nil)
	require.NoError(t, err)

	out, err := ConvertGiven(context.Background(), typeconv.NewConverter(), spec, bound)
	require.NoError(t, err)
	require.Equal(t, []any{1, "${a}"}, out.Positional)

	_, err = Convert(context.Background(), typeconv.NewConverter(), spec, bound)
	require.Error(t, err, "the raw default is not an integer")

	v, err := ConvertValue(context.Background(), typeconv.NewConverter(), spec, "b", "7")
	require.NoError(t, err)
	require.Equal(t, 7, v)
}
