// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package s3 provides the S3 library: uploads to pre-signed object URLs.
package s3

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/registry"
)

// LibraryName is the import name of the library.
const LibraryName = "S3"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the library. One client is shared by the whole run to
// reuse TCP connections.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterLibrary(&library.Import{
		Name:  LibraryName,
		Scope: library.ScopeGlobal,
		New: func(context.Context) (library.Library, error) {
			return New(&http.Client{}), nil
		},
	})
}

// New returns the S3 library using client for uploads.
func New(client *http.Client) *library.Static {
	return library.NewStatic(LibraryName,
		&library.Keyword{
			Name: "Upload File",
			Args: []string{"source_path", "upload_url", "content_type=None"},
			Doc:  "Uploads a local file with PUT to a pre-signed URL and returns the response status.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				contentType := literal.ToString(c.Arg(2))
				if contentType == "None" {
					contentType = ""
				}
				return upload(ctx, client, literal.ToString(c.Arg(0)), literal.ToString(c.Arg(1)), contentType)
			},
		},
	)
}

// upload puts the file at sourcePath to uploadURL.
func upload(ctx context.Context, client *http.Client, sourcePath, uploadURL, contentType string) (string, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload")

	file, err := os.Open(sourcePath)
	if err != nil {
		return "", kwerrors.Failf("Opening source file '%s' failed: %s", sourcePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", kwerrors.Failf("Reading file stats of '%s' failed: %s", sourcePath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return "", kwerrors.Failf("Creating S3 upload request failed: %s", err)
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(sourcePath))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading file to S3.", "source", sourcePath, "size", stat.Size(), "contentType", contentType)

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", context.Cause(ctx)
		}
		return "", kwerrors.Failf("Executing S3 upload request failed: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", kwerrors.Failf("S3 upload failed with status: %s", resp.Status)
	}

	logger.Info("Successfully uploaded file.", "status", resp.Status)
	return resp.Status, nil
}
