// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/testutil"
)

func TestHCL_ItemParsing(t *testing.T) {
	t.Parallel()

	testutil.RunItemParsingTests(t, []testutil.ItemTestCase{
		{
			Name: "call with name attribute",
			HCL: `
				call {
					name   = "Log"
					args   = ["hello"]
					assign = ["${out}"]
				}
			`,
			Validate: func(t *testing.T, arena *model.Arena, body []model.ItemID) {
				c := arena.Get(body[0]).(*model.KeywordCall)
				require.Equal(t, "Log", c.Name)
				require.Equal(t, []string{"hello"}, c.Args)
				require.Equal(t, []string{"${out}"}, c.Assign)
			},
		},
		{
			Name: "for in zip with options",
			HCL: `
				for {
					vars   = ["${a}", "${b}"]
					in_zip = ["${xs}", "${ys}"]
					mode   = "LONGEST"
					fill   = "-"
					call "Log" { args = ["${a}${b}"] }
				}
			`,
			Validate: func(t *testing.T, arena *model.Arena, body []model.ItemID) {
				loop := arena.Get(body[0]).(*model.ForLoop)
				require.Equal(t, model.ForInZip, loop.Mode)
				require.Equal(t, []string{"${xs}", "${ys}"}, loop.Values)
				require.Equal(t, "LONGEST", loop.ZipMode)
				require.Equal(t, "-", loop.Fill)
				require.Len(t, loop.Body, 1)
			},
		},
		{
			Name: "while with limit",
			HCL: `
				while {
					condition        = "$n < 10"
					limit            = "5 s"
					on_limit         = "PASS"
					on_limit_message = "done"
					break {}
				}
			`,
			Validate: func(t *testing.T, arena *model.Arena, body []model.ItemID) {
				loop := arena.Get(body[0]).(*model.WhileLoop)
				require.Equal(t, "$n < 10", loop.Condition)
				require.Equal(t, "5 s", loop.Limit)
				require.Equal(t, "PASS", loop.OnLimit)
				require.Equal(t, "done", loop.OnLimitMessage)
				require.IsType(t, &model.Break{}, arena.Get(loop.Body[0]))
			},
		},
		{
			Name: "try chain collects branches",
			HCL: `
				try {
					call "Fail" {}
				}
				except {
					patterns = ["^E\\d+"]
					type     = "REGEXP"
					assign   = "${e}"
				}
				except {}
				else {}
				finally {}
				call "Log" { args = ["after"] }
			`,
			Validate: func(t *testing.T, arena *model.Arena, body []model.ItemID) {
				require.Len(t, body, 2)
				chain := arena.Get(body[0]).(*model.TryChain)
				var types []model.BranchType
				for _, id := range chain.Branches {
					types = append(types, arena.Get(id).(*model.TryBranch).Type)
				}
				require.Equal(t, []model.BranchType{
					model.BranchTry, model.BranchExcept, model.BranchExcept, model.BranchElse, model.BranchFinally,
				}, types)
				except := arena.Get(chain.Branches[1]).(*model.TryBranch)
				require.Equal(t, []string{`^E\d+`}, except.Patterns)
				require.Equal(t, "REGEXP", except.PatternType)
				require.Equal(t, "${e}", except.Assign)
			},
		},
		{
			Name: "var with separator",
			HCL: `
				var {
					name      = "${joined}"
					values    = ["a", "b"]
					separator = ","
				}
			`,
			Validate: func(t *testing.T, arena *model.Arena, body []model.ItemID) {
				require.Equal(t, &model.VarAssign{Name: "${joined}", Values: []string{"a", "b"}, Separator: ","}, arena.Get(body[0]))
			},
		},
		{
			Name:        "else if without if",
			HCL:         `else_if { condition = "True" }`,
			ErrContains: "ELSE IF without IF.",
		},
		{
			Name:        "unknown block",
			HCL:         `loop {}`,
			ErrContains: "Unrecognized block 'loop'.",
		},
		{
			Name:        "for without values",
			HCL:         `for { vars = ["${x}"] }`,
			ErrContains: "FOR loop has no 'in', 'in_range', 'in_enumerate' or 'in_zip' values.",
		},
	})
}
