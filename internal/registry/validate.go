// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/typeconv"
)

// ValidateRegistry instantiates every library once and checks that the
// argument declarations and types of all its keywords parse.
func (r *Registry) ValidateRegistry(ctx context.Context, conv *typeconv.Converter) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, imp := range r.Imports() {
		lib, err := imp.New(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("library '%s': creating instance failed: %v", imp.Name, err))
			continue
		}

		names := lib.KeywordNames()
		if len(names) == 0 {
			logger.Warn("Library declares no keywords.", "library", imp.Name)
		}
		for _, name := range names {
			var types map[string]string
			if typed, ok := lib.(library.TypedLibrary); ok {
				types = typed.KeywordTypes(name)
			}
			if _, err := argspec.ParseDynamic(conv, name, lib.KeywordArguments(name), types); err != nil {
				errs = append(errs, fmt.Sprintf("library '%s', keyword '%s': %v", imp.Name, name, err))
			}
		}

		if closer, ok := lib.(library.Closer); ok {
			if err := closer.Close(ctx); err != nil {
				errs = append(errs, fmt.Sprintf("library '%s': closing validation instance failed: %v", imp.Name, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
