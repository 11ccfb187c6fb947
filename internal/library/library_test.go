// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	lib := NewStatic("Demo",
		&Keyword{
			Name:  "Add Numbers",
			Args:  []string{"a", "b"},
			Types: map[string]string{"a": "int", "b": "int"},
			Tags:  []string{"math"},
			Doc:   "Adds.",
			Run: func(ctx context.Context, call Call) (any, error) {
				return call.Arg(0).(int) + call.Arg(1).(int), nil
			},
		},
	)

	require.Equal(t, "Demo", lib.Name())
	require.Equal(t, []string{"Add Numbers"}, lib.KeywordNames())
	require.Equal(t, []string{"a", "b"}, lib.KeywordArguments("add_numbers"))
	require.Equal(t, map[string]string{"a": "int", "b": "int"}, lib.KeywordTypes("ADD NUMBERS"))
	require.Equal(t, []string{"math"}, lib.KeywordTags("Add Numbers"))
	require.Equal(t, "Adds.", lib.KeywordDoc("Add Numbers"))
	require.Nil(t, lib.KeywordArguments("missing"))

	got, err := lib.RunKeyword(context.Background(), "addnumbers", []any{2, 3}, nil)
	require.NoError(t, err)
	require.Equal(t, 5, got)

	_, err = lib.RunKeyword(context.Background(), "missing", nil, nil)
	require.Error(t, err)

	require.Panics(t, func() {
		NewStatic("Dup", &Keyword{Name: "A"}, &Keyword{Name: "a"})
	})
	require.Nil(t, Call{}.Arg(3))
}

type greeter struct {
	closed bool
}

func (g *greeter) Greet(name string) string             { return "Hello, " + name }
func (g *greeter) RepeatText(text string, n int) string { return strings.Repeat(text, n) }
func (g *greeter) SumAll(nums ...float64) float64 {
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total
}
func (g *greeter) FailWith(ctx context.Context, msg string) error {
	if ctx == nil {
		return errors.New("no context")
	}
	return errors.New(msg)
}
func (g *greeter) WaitFor(d time.Duration) (string, error) { return d.String(), nil }
func (g *greeter) Close(context.Context) error {
	g.closed = true
	return nil
}

func TestReflect(t *testing.T) {
	g := &greeter{}
	lib, err := NewReflect("Greeter", g)
	require.NoError(t, err)

	require.ElementsMatch(t, []string{"Greet", "Repeat Text", "Sum All", "Fail With", "Wait For"}, lib.KeywordNames())
	require.Equal(t, []string{"arg1", "arg2"}, lib.KeywordArguments("Repeat Text"))
	require.Equal(t, map[string]string{"arg1": "str", "arg2": "int"}, lib.KeywordTypes("Repeat Text"))
	require.Equal(t, []string{"*args"}, lib.KeywordArguments("Sum All"))
	require.Equal(t, map[string]string{"args": "float"}, lib.KeywordTypes("Sum All"))
	require.Equal(t, []string{"arg1"}, lib.KeywordArguments("Fail With"))
	require.Equal(t, map[string]string{"arg1": "timedelta"}, lib.KeywordTypes("Wait For"))

	ctx := context.Background()
	got, err := lib.RunKeyword(ctx, "Greet", []any{"Bob"}, nil)
	require.NoError(t, err)
	require.Equal(t, "Hello, Bob", got)

	got, err = lib.RunKeyword(ctx, "repeat text", []any{"ab", 3}, nil)
	require.NoError(t, err)
	require.Equal(t, "ababab", got)

	got, err = lib.RunKeyword(ctx, "Sum All", []any{1, 2.5}, nil)
	require.NoError(t, err)
	require.Equal(t, 3.5, got)

	got, err = lib.RunKeyword(ctx, "Fail With", []any{"boom"}, nil)
	require.EqualError(t, err, "boom")
	require.Nil(t, got)

	_, err = lib.RunKeyword(ctx, "Greet", []any{1}, nil)
	require.ErrorContains(t, err, "cannot use int as string")

	_, err = lib.RunKeyword(ctx, "Greet", []any{"a", "b"}, nil)
	require.ErrorContains(t, err, "expected 1 arguments, got 2")

	require.NoError(t, lib.Close(ctx))
	require.True(t, g.closed)
}

func TestSplitCamel(t *testing.T) {
	for in, expected := range map[string]string{
		"Log":            "Log",
		"ShouldBeEqual":  "Should Be Equal",
		"GetHTTPStatus":  "Get HTTP Status",
		"ConvertTo2Ints": "Convert To2 Ints",
		"URL":            "URL",
	} {
		require.Equal(t, expected, SplitCamel(in), in)
	}
}

type closingLib struct {
	*Static
	id     int
	closed *[]string
}

func (c *closingLib) Close(context.Context) error {
	*c.closed = append(*c.closed, fmt.Sprintf("%s#%d", c.Name(), c.id))
	return nil
}

func TestInstances(t *testing.T) {
	var closed []string
	created := map[string]int{}
	factory := func(name string) func(context.Context) (Library, error) {
		return func(context.Context) (Library, error) {
			created[name]++
			return &closingLib{Static: NewStatic(name), id: created[name], closed: &closed}, nil
		}
	}
	in := NewInstances(
		&Import{Name: "G", Scope: ScopeGlobal, New: factory("G")},
		&Import{Name: "S", Scope: ScopeSuite, New: factory("S")},
		&Import{Name: "T", Scope: ScopeTest, New: factory("T")},
	)
	ctx := context.Background()
	t1 := Keys{Suite: "s1", Test: "t1"}
	t2 := Keys{Suite: "s1", Test: "t2"}

	g1, err := in.Get(ctx, "G", t1)
	require.NoError(t, err)
	g2, err := in.Get(ctx, "g", t2)
	require.NoError(t, err)
	require.Same(t, g1, g2)

	s1, _ := in.Get(ctx, "S", t1)
	s2, _ := in.Get(ctx, "S", t2)
	require.Same(t, s1, s2)

	tt1, _ := in.Get(ctx, "T", t1)
	require.NoError(t, in.Release(ctx, "test:t1"))
	require.Equal(t, []string{"T#1"}, closed)
	tt2, _ := in.Get(ctx, "T", t2)
	require.NotSame(t, tt1, tt2)
	require.Equal(t, 1, in.Live("test:t2"))

	// Test scoped libraries outside tests live at suite level.
	_, _ = in.Get(ctx, "T", Keys{Suite: "s1"})
	require.Equal(t, 2, in.Live("suite:s1"))

	require.NoError(t, in.CloseAll(ctx))
	require.Equal(t, []string{"T#1", "T#2", "T#3", "S#1", "G#1"}, closed)

	_, err = in.Get(ctx, "Nope", t1)
	require.ErrorContains(t, err, "no library 'Nope' found")
	require.Panics(t, func() { in.Add(&Import{Name: "g"}) })
}

type signalLib struct {
	*Static
	closed chan struct{}
}

func (s *signalLib) Close(context.Context) error {
	close(s.closed)
	return nil
}

func TestInstances_ReleaseAfterWaitsForStoppedUnits(t *testing.T) {
	lib := &signalLib{Static: NewStatic("T"), closed: make(chan struct{})}
	in := NewInstances(&Import{Name: "T", Scope: ScopeTest, New: func(context.Context) (Library, error) {
		return lib, nil
	}})
	ctx := context.Background()
	keys := Keys{Suite: "s1", Test: "t1"}
	_, err := in.Get(ctx, "T", keys)
	require.NoError(t, err)

	stopped := make(chan struct{})
	in.ReleaseAfter(ctx, "test:t1", stopped)
	require.True(t, in.Held("test:t1"))

	// CloseAll leaves held instances to ReleaseAfter.
	require.NoError(t, in.CloseAll(ctx))
	select {
	case <-lib.closed:
		t.Fatal("library closed while a unit still uses it")
	case <-time.After(20 * time.Millisecond):
	}
	require.Equal(t, 1, in.Live("test:t1"))

	close(stopped)
	select {
	case <-lib.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("library not closed after the unit stopped")
	}
	require.Eventually(t, func() bool { return !in.Held("test:t1") }, time.Second, 5*time.Millisecond)
}

func TestInstances_FactoryError(t *testing.T) {
	in := NewInstances(&Import{Name: "Broken", New: func(context.Context) (Library, error) {
		return nil, errors.New("no backend")
	}})
	_, err := in.Get(context.Background(), "Broken", Keys{})
	require.EqualError(t, err, "initializing library 'Broken' failed: no backend")
}

func TestParseScope(t *testing.T) {
	for text, expected := range map[string]Scope{"": ScopeGlobal, "suite": ScopeSuite, " TEST ": ScopeTest, "Global": ScopeGlobal} {
		got, err := ParseScope(text)
		require.NoError(t, err)
		require.Equal(t, expected, got)
	}
	_, err := ParseScope("module")
	require.Error(t, err)
}
