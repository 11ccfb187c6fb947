// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package http_client provides the HttpClient library. Each suite gets its
// own *http.Client so connections are pooled between the keywords of one
// suite and released when the suite ends.
package http_client

import (
	"context"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
)

// LibraryName is the import name of the library.
const LibraryName = "HttpClient"

// Module implements the registry.Module interface. It's the main entrypoint
// for the http_client module.
type Module struct{}

// Register registers the suite scoped HttpClient library.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  LibraryName,
		Scope: library.ScopeSuite,
		New: func(ctx context.Context) (library.Library, error) {
			return New(ctx, defaultTimeout)
		},
	})
}
