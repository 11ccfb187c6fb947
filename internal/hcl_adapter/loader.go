// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/fsutil"
	"github.com/vk/kwgrid/internal/model"
)

// Extension is the file extension of suite files.
const Extension = ".hcl"

// Loader reads suite files into a model.Suite.
type Loader struct{}

// NewLoader creates a new HCL suite loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is used to decode the top-level blocks of a file.
type fileRoot struct {
	Suites []*suiteBlock `hcl:"suite,block"`
}

type suiteBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type parsedSuite struct {
	src   *source
	block *suiteBlock
	body  *hclsyntax.Body
}

// Load parses every suite file found under paths. A single top-level suite
// becomes the root; several become children of a root named after them,
// joined with " & ".
func (l *Loader) Load(ctx context.Context, paths ...string) (*model.Suite, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.CollectFiles(paths, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var suites []parsedSuite
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		src := &source{path: file, bytes: hclFile.Bytes}
		for _, blk := range root.Suites {
			body, ok := blk.Body.(*hclsyntax.Body)
			if !ok {
				return nil, fmt.Errorf("failed to decode HCL file %s: suite '%s' is not native HCL syntax", file, blk.Name)
			}
			suites = append(suites, parsedSuite{src: src, block: blk, body: body})
		}
	}
	if len(suites) == 0 {
		return nil, fmt.Errorf("no suites found in %s", strings.Join(paths, ", "))
	}

	var root *model.Suite
	if len(suites) == 1 {
		root = model.NewSuite(suites[0].block.Name)
		d := &decoder{ctx: ctx, src: suites[0].src}
		d.suite(root, suites[0].body)
	} else {
		names := make([]string, len(suites))
		for i, ps := range suites {
			names[i] = ps.block.Name
		}
		root = model.NewSuite(strings.Join(names, " & "))
		for _, ps := range suites {
			d := &decoder{ctx: ctx, src: ps.src}
			d.suite(root.AddSuite(ps.block.Name), ps.body)
		}
	}

	logger.Debug("HCL loading complete.", "suite", root.Name, "tests", root.TestCount())
	return root, nil
}
