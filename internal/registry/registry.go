// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/normalize"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the library imports of a single application instance.
type Registry struct {
	imports map[string]*library.Import
	order   []string
	preload []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{imports: make(map[string]*library.Import)}
}

// RegisterLibrary makes a library importable by name. Duplicate names are a
// programming error and panic.
func (r *Registry) RegisterLibrary(imp *library.Import) {
	key := normalize.Name(imp.Name)
	if _, exists := r.imports[key]; exists {
		panic(fmt.Sprintf("library with name '%s' already registered", imp.Name))
	}
	slog.Debug("Registering library.", "name", imp.Name, "scope", imp.Scope)
	r.imports[key] = imp
	r.order = append(r.order, key)
}

// Preload marks a registered library as imported into every suite without
// an explicit import, the way BuiltIn is.
func (r *Registry) Preload(name string) {
	if _, ok := r.imports[normalize.Name(name)]; !ok {
		panic(fmt.Sprintf("cannot preload unregistered library '%s'", name))
	}
	r.preload = append(r.preload, name)
}

// Imports returns every registered import in registration order.
func (r *Registry) Imports() []*library.Import {
	out := make([]*library.Import, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.imports[key])
	}
	return out
}

// Preloaded returns the names of preloaded libraries.
func (r *Registry) Preloaded() []string {
	return append([]string{}, r.preload...)
}

// Lookup returns the import registered under name.
func (r *Registry) Lookup(name string) (*library.Import, bool) {
	imp, ok := r.imports[normalize.Name(name)]
	return imp, ok
}

// RegisterAll registers every module.
func (r *Registry) RegisterAll(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
