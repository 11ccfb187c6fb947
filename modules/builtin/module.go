// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package builtin provides the BuiltIn library: logging, verification,
// variable handling, conversion and keywords that run other keywords. It is
// imported into every suite.
package builtin

import (
	"context"
	"io"
	"os"

	"github.com/vk/kwgrid/internal/engine"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/registry"
	"github.com/vk/kwgrid/internal/typeconv"
)

// LibraryName is the name BuiltIn is registered and imported under.
const LibraryName = "BuiltIn"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Stdout and Stderr receive Log To Console output. Nil means the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Register registers BuiltIn and preloads it.
func (m *Module) Register(r *registry.Registry) {
	lib := New(m.Stdout, m.Stderr)
	r.RegisterLibrary(&library.Import{
		Name:  LibraryName,
		Scope: library.ScopeGlobal,
		New:   func(context.Context) (library.Library, error) { return lib, nil },
	})
	r.Preload(LibraryName)
}

// builtIn holds the state shared by the keywords of one library instance.
type builtIn struct {
	stdout io.Writer
	stderr io.Writer
	conv   *typeconv.Converter
}

// New returns the BuiltIn library writing console output to stdout and
// stderr.
func New(stdout, stderr io.Writer) *library.Static {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	b := &builtIn{stdout: stdout, stderr: stderr, conv: typeconv.NewConverter()}

	var keywords []*library.Keyword
	keywords = append(keywords, b.loggingKeywords()...)
	keywords = append(keywords, b.verifyKeywords()...)
	keywords = append(keywords, b.variableKeywords()...)
	keywords = append(keywords, b.conversionKeywords()...)
	keywords = append(keywords, b.runKeywords()...)
	return library.NewStatic(LibraryName, keywords...)
}

// runtimeOf returns the engine runtime passed to a keyword.
func runtimeOf(ctx context.Context) (*engine.Runtime, error) {
	rt, ok := engine.RuntimeFromContext(ctx)
	if !ok {
		return nil, kwerrors.Failf("This keyword can only be used while tests are running.")
	}
	return rt, nil
}
