// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package testutil

import (
	"context"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single library built from a keyword table. A new instance is
// created per scope key; Created counts them when set.
type SimpleModule struct {
	Name     string
	Scope    library.Scope
	Preload  bool
	Keywords []*library.Keyword
	Created  *int
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  m.Name,
		Scope: m.Scope,
		New: func(context.Context) (library.Library, error) {
			if m.Created != nil {
				*m.Created++
			}
			return library.NewStatic(m.Name, m.Keywords...), nil
		},
	})
	if m.Preload {
		r.Preload(m.Name)
	}
}
