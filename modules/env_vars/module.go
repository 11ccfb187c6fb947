// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package env_vars provides the Environment library: keywords reading and
// changing the environment variables of the running process.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/registry"
)

// LibraryName is the import name of the library.
const LibraryName = "Environment"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the library with the registry.
func (m *Module) Register(r *registry.Registry) {
	lib := New()
	r.RegisterLibrary(&library.Import{
		Name:  LibraryName,
		Scope: library.ScopeGlobal,
		New:   func(context.Context) (library.Library, error) { return lib, nil },
	})
}

// New returns the Environment library.
func New() *library.Static {
	return library.NewStatic(LibraryName,
		&library.Keyword{
			Name: "Get Environment Variable",
			Args: []string{"name", "default=None"},
			Doc:  "Returns the value of an environment variable. Fails if it is not set and no default is given.",
			Run:  getEnv,
		},
		&library.Keyword{
			Name: "Set Environment Variable",
			Args: []string{"name", "value"},
			Doc:  "Sets an environment variable to a specified value.",
			Run:  setEnv,
		},
		&library.Keyword{
			Name: "Remove Environment Variable",
			Args: []string{"*names"},
			Doc:  "Deletes the specified environment variables. Missing ones are ignored.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				for _, n := range c.Positional {
					name := literal.ToString(n)
					if err := os.Unsetenv(name); err != nil {
						return nil, kwerrors.Failf("Removing environment variable '%s' failed: %s", name, err)
					}
					ctxlog.FromContext(ctx).Info("Environment variable removed.", "name", name)
				}
				return nil, nil
			},
		},
		&library.Keyword{
			Name: "Environment Variable Should Be Set",
			Args: []string{"name", "msg=None"},
			Doc:  "Fails if the specified environment variable is not set.",
			Run: func(_ context.Context, c library.Call) (any, error) {
				name := literal.ToString(c.Arg(0))
				if _, ok := os.LookupEnv(name); ok {
					return nil, nil
				}
				if msg, ok := given(c.Arg(1)); ok {
					return nil, kwerrors.Failf("%s", msg)
				}
				return nil, kwerrors.Failf("Environment variable '%s' is not set.", name)
			},
		},
		&library.Keyword{
			Name: "Get Environment Variables",
			Doc:  "Returns a dictionary containing all environment variables.",
			Run: func(context.Context, library.Call) (any, error) {
				return environ(), nil
			},
		},
	)
}

func getEnv(_ context.Context, c library.Call) (any, error) {
	name := literal.ToString(c.Arg(0))
	if v, ok := os.LookupEnv(name); ok {
		return v, nil
	}
	if def, ok := given(c.Arg(1)); ok {
		return def, nil
	}
	return nil, kwerrors.Failf("Environment variable '%s' does not exist.", name)
}

func setEnv(ctx context.Context, c library.Call) (any, error) {
	name, value := literal.ToString(c.Arg(0)), literal.ToString(c.Arg(1))
	if name == "" || strings.ContainsRune(name, '=') {
		return nil, kwerrors.Failf("Invalid environment variable name '%s'.", name)
	}
	if err := os.Setenv(name, value); err != nil {
		return nil, kwerrors.Failf("Setting environment variable '%s' failed: %s", name, err)
	}
	ctxlog.FromContext(ctx).Info("Environment variable set.", "name", name)
	return nil, nil
}

// environ returns the process environment as a map.
func environ() map[string]any {
	envMap := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

func given(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s := literal.ToString(v)
	return s, s != "None"
}
