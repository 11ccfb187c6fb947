// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/typeconv"
)

func lib(name string, kws ...*library.Keyword) library.Library {
	return library.NewStatic(name, kws...)
}

func kw(name string, args ...string) *library.Keyword {
	return &library.Keyword{Name: name, Args: args}
}

func newCatalog(t *testing.T, libs ...library.Library) *Catalog {
	t.Helper()
	c := New(typeconv.NewConverter())
	for _, l := range libs {
		require.NoError(t, c.AddLibrary(l.Name(), "", l))
	}
	return c
}

func TestCompileEmbedded(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		call     string
		want     []string
		noMatch  bool
	}{
		{name: "two placeholders", template: "Select ${item} from ${list}", call: "Select apple from fruits", want: []string{"apple", "fruits"}},
		{name: "case insensitive literals", template: "Select ${item} from ${list}", call: "select apple FROM fruits", want: []string{"apple", "fruits"}},
		{name: "custom pattern", template: "Wait ${n:\\d+} seconds", call: "Wait 10 seconds", want: []string{"10"}},
		{name: "custom pattern rejects", template: "Wait ${n:\\d+} seconds", call: "Wait ten seconds", noMatch: true},
		{name: "braces in pattern", template: "Year ${y:\\d{4}}", call: "Year 2025", want: []string{"2025"}},
		{name: "groups do not capture", template: "Pick ${c:(red|blue)} car", call: "Pick blue car", want: []string{"blue"}},
		{name: "named groups do not capture", template: "Pick ${c:(?P<color>red|blue)} ${m:\\w+}", call: "Pick blue ford", want: []string{"blue", "ford"}},
		{name: "short named groups do not capture", template: "Pick ${c:(?<color>red|blue)} ${m:\\w+}", call: "Pick red fiat", want: []string{"red", "fiat"}},
		{name: "literal metacharacters", template: "Sum (${a}+${b})", call: "Sum (1+2)", want: []string{"1", "2"}},
		{name: "anchored", template: "Open ${x}", call: "Please Open door", noMatch: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := CompileEmbedded(tc.template)
			require.NoError(t, err)
			require.NotNil(t, e)
			got, ok := e.Match(tc.call)
			if tc.noMatch {
				require.False(t, ok)
				return
			}
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}

	e, err := CompileEmbedded("No placeholders")
	require.NoError(t, err)
	require.Nil(t, e)

	_, err = CompileEmbedded("Bad ${x:[} pattern")
	require.Error(t, err)
}

func TestFind_Embedded(t *testing.T) {
	c := newCatalog(t, lib("Shop", kw("Select ${item} from ${list}", "item", "list")))

	m, err := c.Find("Select apple from fruits")
	require.NoError(t, err)
	require.Equal(t, "Shop.Select ${item} from ${list}", m.Keyword.FullName())
	require.Equal(t, []string{"apple", "fruits"}, m.Args)
	require.Equal(t, []string{"item", "list"}, m.Keyword.Embedded.Names)
}

func TestFind_ExactBeatsEmbedded(t *testing.T) {
	c := newCatalog(t, lib("Shop",
		kw("Select ${item} from ${list}", "item", "list"),
		kw("Select all from list"),
	))

	m, err := c.Find("select all from list")
	require.NoError(t, err)
	require.Equal(t, "Select all from list", m.Keyword.Name)
	require.Empty(t, m.Args)
}

func TestFind_Ambiguous(t *testing.T) {
	c := newCatalog(t, lib("A", kw("Log", "msg")), lib("B", kw("Log", "msg")))

	_, err := c.Find("Log")
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
	require.Equal(t, []string{"A.Log", "B.Log"}, amb.Candidates)
	require.Equal(t, "Multiple keywords with name 'Log' found. Give the full name of the keyword you want to use:\n    A.Log\n    B.Log", err.Error())

	m, err := c.Find("b.log")
	require.NoError(t, err)
	require.Equal(t, "B", m.Keyword.Owner)
	require.Equal(t, "B", m.Keyword.Library)
}

func TestFind_AmbiguousEmbedded(t *testing.T) {
	c := newCatalog(t, lib("L",
		kw("Go to ${place}", "place"),
		kw("Go ${how} ${where}", "how", "where"),
	))

	_, err := c.Find("Go to town")
	var amb *AmbiguousError
	require.ErrorAs(t, err, &amb)
	require.Len(t, amb.Candidates, 2)
}

func TestFind_QualifiedEmbeddedAndAlias(t *testing.T) {
	c := New(typeconv.NewConverter())
	require.NoError(t, c.AddLibrary("Browser", "Web", lib("Browser", kw("Open ${page}", "page"))))

	m, err := c.Find("Web.Open home")
	require.NoError(t, err)
	require.Equal(t, []string{"home"}, m.Keyword.Embedded.Names)
	require.Equal(t, []string{"home"}, m.Args)
	require.Equal(t, "Browser", m.Keyword.Library)

	_, err = c.Find("Browser.Open home")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf, "an alias replaces the import name")
}

func TestFind_UserPrecedence(t *testing.T) {
	parent := newCatalog(t, lib("BuiltIn", kw("Log", "msg")))
	_, err := parent.AddUser("Common", model.NewKeyword("Setup Env"))
	require.NoError(t, err)

	child := parent.Child()
	_, err = child.AddUser("Suite", model.NewKeyword("Log", "${msg}"))
	require.NoError(t, err)
	_, err = child.AddUser("Suite", model.NewKeyword("Setup Env"))
	require.NoError(t, err)

	m, err := child.Find("Log")
	require.NoError(t, err)
	require.True(t, m.Keyword.IsUser())
	require.Equal(t, "Suite.Log", m.Keyword.FullName())

	m, err = child.Find("Setup Env")
	require.NoError(t, err)
	require.Equal(t, "Suite", m.Keyword.Owner)

	m, err = child.Find("BuiltIn.Log")
	require.NoError(t, err)
	require.False(t, m.Keyword.IsUser())

	m, err = parent.Find("Log")
	require.NoError(t, err)
	require.Equal(t, "BuiltIn", m.Keyword.Owner)
}

func TestAddUser(t *testing.T) {
	c := New(typeconv.NewConverter())

	k, err := c.AddUser("S", model.NewKeyword("Add ${a} and ${b}"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, k.Spec.Positional)

	m, err := c.Find("Add 1 and 2")
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, m.Args)

	_, err = c.AddUser("S", model.NewKeyword("Mixed ${a}", "${b}"))
	require.EqualError(t, err, "Keyword 'Mixed ${a}' cannot have both embedded and normal arguments.")

	_, err = c.AddUser("S", model.NewKeyword("Plain", "${a}=1", "${b}"))
	require.Error(t, err)
	require.True(t, isDefinition(err))

	_, err = c.AddUser("S", model.NewKeyword("Twice"))
	require.NoError(t, err)
	_, err = c.AddUser("S", model.NewKeyword("twice"))
	require.EqualError(t, err, "Keyword 'twice' is defined multiple times.")
}

func TestAddLibrary_EmbeddedArity(t *testing.T) {
	c := New(typeconv.NewConverter())
	err := c.AddLibrary("L", "", lib("L", kw("Click ${x} and ${y}", "x")))
	require.EqualError(t, err, "Keyword 'L.Click ${x} and ${y}' has 2 embedded arguments but accepts only 1 positional arguments.")
	require.True(t, isDefinition(err))

	err = c.AddLibrary("M", "", lib("M", kw("Bad", "a=1", "b")))
	require.Error(t, err)
}

func TestAddLibrary_Metadata(t *testing.T) {
	c := New(typeconv.NewConverter())
	require.NoError(t, c.AddLibrary("Math", "", lib("Math", &library.Keyword{
		Name:  "Add",
		Args:  []string{"a", "b=1"},
		Types: map[string]string{"a": "int", "b": "int"},
		Tags:  []string{"pure"},
		Doc:   "Adds two numbers.",
	})))

	m, err := c.Find("add")
	require.NoError(t, err)
	require.Equal(t, typeconv.KindInt, m.Keyword.Spec.TypeOf("a").Kind)
	require.Equal(t, []string{"pure"}, m.Keyword.Tags)
	require.Equal(t, "Adds two numbers.", m.Keyword.Doc)
	require.Equal(t, []string{"Math.Add"}, c.Names())
	require.Len(t, c.Keywords(), 1)
}

func TestFind_NotFound(t *testing.T) {
	c := newCatalog(t, lib("BuiltIn", kw("Log", "msg"), kw("Log Many", "*msgs")))

	_, err := c.Find("Logg")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "No keyword with name 'Logg' found.\nDid you mean:\n    Log", err.Error())
	require.True(t, isDefinition(err))

	_, err = c.Find("Completely Unknown")
	require.EqualError(t, err, "No keyword with name 'Completely Unknown' found.")

	_, err = c.Find("  ")
	require.EqualError(t, err, "Keyword name cannot be empty.")
}

func isDefinition(err error) bool {
	var d interface{ DefinitionError() bool }
	return errors.As(err, &d) && d.DefinitionError()
}
