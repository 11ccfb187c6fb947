// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/internal/fsutil"
)

func TestCollectFiles(t *testing.T) {
	// --- Arrange ---
	dir := t.TempDir()
	write := func(rel string) string {
		p := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("suite \"x\" {}\n"), 0o644))
		return p
	}
	a := write("a.hcl")
	b := write("nested/b.hcl")
	write("nested/notes.txt")

	// --- Act ---
	files, err := fsutil.CollectFiles([]string{dir, a}, ".hcl")

	// --- Assert ---
	require.NoError(t, err)
	require.Equal(t, []string{a, b}, files)
}

func TestCollectFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(txt, nil, 0o644))

	_, err := fsutil.CollectFiles([]string{filepath.Join(dir, "missing")}, ".hcl")
	require.ErrorContains(t, err, "does not exist")

	_, err = fsutil.CollectFiles([]string{txt}, ".hcl")
	require.ErrorContains(t, err, "is not a .hcl file")
}

func TestFindFilesByExtension_PanicsOnEmptyExtension(t *testing.T) {
	require.Panics(t, func() { _, _ = fsutil.FindFilesByExtension(".", "") })
}
