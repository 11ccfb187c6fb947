// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package ctxlog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/ctxlog"
)

func TestFromContext(t *testing.T) {
	t.Run("returns embedded logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		ctx := ctxlog.WithLogger(context.Background(), logger)

		ctxlog.FromContext(ctx).Info("hello")
		require.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("falls back to default logger", func(t *testing.T) {
		require.Same(t, slog.Default(), ctxlog.FromContext(context.Background()))
	})
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := ctxlog.WithLogger(context.Background(), base)

	ctx, logger := ctxlog.With(ctx, "suite", "Root")
	_, inner := ctxlog.With(ctx, "test", "T1")
	inner.Info("running")

	require.Same(t, logger, ctxlog.FromContext(ctx))
	require.Contains(t, buf.String(), "suite=Root test=T1")
}
