// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package socketio provides the SocketIO library: a Socket.IO client whose
// connection lives for the suite that imported it.
package socketio

import (
	"context"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
)

// LibraryName is the import name of the library.
const LibraryName = "SocketIO"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the suite scoped SocketIO library.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  LibraryName,
		Scope: library.ScopeSuite,
		New: func(context.Context) (library.Library, error) {
			return New(), nil
		},
	})
}
