// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
)

// NoOpLibrary is the name NoOpModule registers.
const NoOpLibrary = "NoOp"

// NoOpModule registers a "NoOp" library with a single "No Op" keyword that
// takes no arguments and does nothing. It is not preloaded, so suites must
// import it.
type NoOpModule struct{}

// Register implements the registry.Module interface.
func (m *NoOpModule) Register(r *registry.Registry) {
	lib := library.NewStatic(NoOpLibrary, &library.Keyword{
		Name: "No Op",
		Run:  func(context.Context, library.Call) (any, error) { return nil, nil },
	})
	r.RegisterLibrary(&library.Import{
		Name:  NoOpLibrary,
		Scope: library.ScopeGlobal,
		New:   func(context.Context) (library.Library, error) { return lib, nil },
	})
}
