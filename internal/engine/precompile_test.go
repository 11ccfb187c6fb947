// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/typeconv"
)

func TestPrecompile(t *testing.T) {
	cat := catalog.New(typeconv.NewConverter())
	lib := library.NewStatic("Lib", &library.Keyword{Name: "Known"})
	require.NoError(t, cat.AddLibrary("Lib", "", lib))

	s := model.NewSuite("Root")
	s.AddKeyword(model.NewKeyword("Helper"),
		model.N(&model.TryChain{},
			model.N(&model.TryBranch{Type: model.BranchTry}, call("Known")),
			model.N(&model.TryBranch{Type: model.BranchFinally}, model.N(&model.Return{})),
		),
	)
	test := s.AddTest("T",
		call("Known"),
		call("Unknown Thing Xyzzy"),
		call("Dynamic ${name}"),
		model.N(&model.Break{}),
		model.N(&model.TryChain{}, model.N(&model.TryBranch{Type: model.BranchTry}, call("Known"))),
	)

	issues := Precompile(s, cat)

	require.Len(t, issues, 4)
	messages := map[string]string{}
	for _, issue := range issues {
		messages[issue.Owner+": "+issue.Message] = issue.Message
	}
	require.Contains(t, messages, "Helper: RETURN cannot be used in FINALLY branch.")
	require.Contains(t, messages, "T: No keyword with name 'Unknown Thing Xyzzy' found.")
	require.Contains(t, messages, "T: BREAK can only be used inside a loop.")
	require.Contains(t, messages, "T: TRY structure must have EXCEPT or FINALLY branch.")

	kinds := make([]model.Kind, len(test.Body))
	for i, id := range test.Body {
		kinds[i] = s.Arena.Get(id).Kind()
	}
	require.Equal(t, []model.Kind{model.KindKeyword, model.KindError, model.KindKeyword, model.KindError, model.KindError}, kinds)
}
