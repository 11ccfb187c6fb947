// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package app

import (
	"io"

	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/modules/builtin"
	"github.com/vk/kwgrid/modules/env_vars"
	"github.com/vk/kwgrid/modules/http_client"
	"github.com/vk/kwgrid/modules/s3"
	"github.com/vk/kwgrid/modules/socketio"
)

// coreModules is the definitive list of all libraries that are compiled
// into the kwgrid binary. Console output of BuiltIn goes to out.
func coreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&builtin.Module{Stdout: out, Stderr: out},
		&env_vars.Module{},
		&http_client.Module{},
		&s3.Module{},
		&socketio.Module{},
	}
}
