// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/kwgrid/modules/s3"
)

func TestUploadFile(t *testing.T) {
	// --- Arrange ---
	var got struct {
		method, contentType, body string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got.method, got.contentType, got.body = r.Method, r.Header.Get("Content-Type"), string(b)
		if r.URL.Path == "/denied" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))
	lib := s3.New(srv.Client())
	ctx := context.Background()

	// --- Act / Assert ---
	status, err := lib.RunKeyword(ctx, "Upload File", []any{path, srv.URL + "/ok", "None"}, nil)
	require.NoError(t, err)
	require.Equal(t, "200 OK", status)
	require.Equal(t, http.MethodPut, got.method)
	require.Equal(t, "application/json", got.contentType)
	require.Equal(t, `{"a":1}`, got.body)

	_, err = lib.RunKeyword(ctx, "Upload File", []any{path, srv.URL + "/denied", "text/plain"}, nil)
	require.EqualError(t, err, "S3 upload failed with status: 403 Forbidden")
	require.Equal(t, "text/plain", got.contentType)

	_, err = lib.RunKeyword(ctx, "Upload File", []any{filepath.Join(t.TempDir(), "missing"), srv.URL, "None"}, nil)
	require.ErrorContains(t, err, "Opening source file")
}
