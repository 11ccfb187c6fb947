// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/hcl_adapter"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/result"
	"github.com/vk/kwgrid/modules/builtin"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const loginSuite = `
suite "Login" {
  doc       = "Login scenarios."
  metadata  = { owner = "qa" }
  variables = { HOST = "example.com", "@{USERS}" = ["alice", "bob"] }
  setup     = ["Log", "Starting ${HOST}."]
  test_tags = ["smoke"]
  unknown   = 1

  library "HttpClient" {
    alias = "Http"
  }

  keyword "Greet" {
    args   = ["${name}", "${greeting}=Hello"]
    return = ["${greeting}, ${name}!"]
    call "No Operation" {}
  }

  test "Greets Everyone" {
    tags    = ["positive"]
    timeout = "1 min"

    for {
      vars = ["${user}"]
      in   = ["@{USERS}"]
      call "Greet" {
        args   = ["${user}"]
        named  = { greeting = "Hi" }
        assign = ["${msg}"]
      }
    }
    if {
      condition = "len($USERS) == 2"
      call "Log" { args = ["two"] }
    }
    else {
      call "Fail" {}
    }
    var {
      name  = "${done}"
      value = "yes"
      scope = "TEST"
    }
  }
}
`

func TestLoader_Load(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	path := writeFile(t, dir, "login.hcl", loginSuite)

	// --- Act ---
	s, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, "Login", s.Name)
	require.Equal(t, path, s.Source)
	require.Equal(t, "Login scenarios.", s.Doc)
	require.Equal(t, map[string]string{"owner": "qa"}, s.Metadata)
	require.Equal(t, []model.Variable{
		{Name: "${HOST}", Values: []string{"example.com"}},
		{Name: "@{USERS}", Values: []string{"alice", "bob"}},
	}, s.Variables)
	require.Equal(t, []model.LibraryImport{{Name: "HttpClient", Alias: "Http"}}, s.Libraries)
	require.Equal(t, []string{"smoke"}, s.TestTags)

	setup, ok := s.Arena.Get(s.Setup).(*model.KeywordCall)
	require.True(t, ok)
	require.Equal(t, []string{"Starting ${HOST}."}, setup.Args)

	require.Len(t, s.Keywords, 1)
	kw := s.Keywords[0]
	require.Equal(t, []string{"${name}", "${greeting}=Hello"}, kw.Args)
	require.Equal(t, []string{"${greeting}, ${name}!"}, kw.Return)
	require.Equal(t, "Login", kw.Owner)

	require.Len(t, s.Tests, 1)
	test := s.Tests[0]
	require.Equal(t, []string{"positive"}, test.Tags)
	require.Equal(t, "1 min", test.Timeout)
	require.Len(t, test.Body, 3)

	loop, ok := s.Arena.Get(test.Body[0]).(*model.ForLoop)
	require.True(t, ok)
	require.Equal(t, model.ForIn, loop.Mode)
	require.Equal(t, []string{"@{USERS}"}, loop.Values)
	inner, ok := s.Arena.Get(loop.Body[0]).(*model.KeywordCall)
	require.True(t, ok)
	want := &model.KeywordCall{
		Name:   "Greet",
		Args:   []string{"${user}"},
		Named:  map[string]string{"greeting": "Hi"},
		Assign: []string{"${msg}"},
		Lineno: inner.Lineno,
	}
	if diff := cmp.Diff(want, inner); diff != "" {
		t.Errorf("call mismatch (-want +got):\n%s", diff)
	}
	require.Greater(t, inner.Lineno, 0)

	chain, ok := s.Arena.Get(test.Body[1]).(*model.IfChain)
	require.True(t, ok)
	require.Len(t, chain.Branches, 2)
	require.Equal(t, model.BranchElse, s.Arena.Get(chain.Branches[1]).(*model.IfBranch).Type)

	v, ok := s.Arena.Get(test.Body[2]).(*model.VarAssign)
	require.True(t, ok)
	require.Equal(t, &model.VarAssign{Name: "${done}", Values: []string{"yes"}, Scope: "TEST"}, v)
}

func TestLoader_MalformedItemsBecomeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.hcl", `
suite "Bad" {
  test "Orphans" {
    else_if { condition = "True" }
    except {}
    for { vars = ["${i}"] }
    call "Log" { bogus = 1 }
    dance {}
  }
}
`)

	s, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	var messages []string
	for _, id := range s.Tests[0].Body {
		e, ok := s.Arena.Get(id).(*model.Error)
		require.True(t, ok, "item %d is %T", id, s.Arena.Get(id))
		messages = append(messages, e.Message)
	}
	require.Len(t, messages, 5)
	require.Equal(t, "ELSE IF without IF.", messages[0])
	require.Equal(t, "EXCEPT without TRY.", messages[1])
	require.Equal(t, "FOR loop has no 'in', 'in_range', 'in_enumerate' or 'in_zip' values.", messages[2])
	require.Contains(t, messages[3], "Invalid keyword call: unsupported setting 'bogus' at ")
	require.Contains(t, messages[3], "bad.hcl:7,")
	require.Equal(t, "Unrecognized block 'dance'.", messages[4])
}

func TestLoader_SeveralFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.hcl", `suite "A" {
  test "One" {}
}`)
	writeFile(t, dir, "b.hcl", `suite "B" {
  test "Two" {}
}`)

	s, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "A & B", s.Name)
	require.Len(t, s.Suites, 2)
	require.Equal(t, 2, s.TestCount())
	require.Same(t, s.Arena, s.Suites[1].Arena)
}

func TestLoader_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.ErrorContains(t, err, "no suites found")

	writeFile(t, dir, "broken.hcl", `suite "X" {`)
	_, err = hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.ErrorContains(t, err, "failed to parse HCL file")
}

func TestLoader_HeredocAndEscapes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.hcl", `suite "Doc" {
  doc = <<-EOT
    First line.
    Second line.
    EOT
  test "T" {
    call "Log" { args = ["tab\there", "$${kept}", "%%{pct}"] }
  }
}`)

	s, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, "First line.\nSecond line.\n", s.Doc)
	c := s.Arena.Get(s.Tests[0].Body[0]).(*model.KeywordCall)
	require.Equal(t, []string{"tab\there", "${kept}", "%{pct}"}, c.Args)
}

func TestLoader_RunsThroughEngine(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	writeFile(t, dir, "flow.hcl", `suite "Flow" {
  variables = { LIMIT = "3" }

  keyword "Double" {
    args   = ["$${n: int}"]
    return = ["${r}"]
    call "Evaluate" {
      args   = ["$n * 2"]
      assign = ["${r}"]
    }
  }

  test "Loops And Branches" {
    call "Set Variable" {
      args   = ["${0}"]
      assign = ["${total}"]
    }
    for {
      vars     = ["${i}"]
      in_range = ["${LIMIT}"]
      call "Double" {
        args   = ["${i}"]
        assign = ["${d}"]
      }
      call "Evaluate" {
        args   = ["$total + $d"]
        assign = ["${total}"]
      }
    }
    if {
      condition = "$total == 6"
      call "Log To Console" { args = ["total ${total}"] }
    }
    else {
      call "Fail" { args = ["unexpected ${total}"] }
    }
  }

  test "Recovers" {
    try {
      call "Fail" { args = ["boom"] }
    }
    except {
      patterns = ["boom"]
      assign   = "${err}"
      call "Log To Console" { args = ["caught ${err}"] }
    }
  }

  test "Orphan Fails" {
    else {}
  }
}`)
	s, err := hcl_adapter.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	var out bytes.Buffer
	r := registry.New()
	r.RegisterAll(&builtin.Module{Stdout: &out, Stderr: &out})
	e := engine.New(engine.Options{Libraries: r.Imports(), Preload: r.Preloaded()})

	// --- Act ---
	res, err := e.Run(context.Background(), s)

	// --- Assert ---
	require.NoError(t, err)
	tests := res.Suite.Tests()
	require.Len(t, tests, 3)
	require.Equal(t, result.StatusPass, tests[0].Status, tests[0].Message)
	require.Equal(t, result.StatusPass, tests[1].Status, tests[1].Message)
	require.Equal(t, result.StatusFail, tests[2].Status)
	require.Equal(t, "ELSE without IF or TRY.", tests[2].Message)
	require.Equal(t, "total 6\ncaught boom\n", out.String())
}
