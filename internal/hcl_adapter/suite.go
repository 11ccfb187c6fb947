// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl_adapter

import (
	"context"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/model"
)

// decoder translates the blocks of one file.
type decoder struct {
	ctx context.Context
	src *source
}

func sortedAttrs(body *hclsyntax.Body) []*hclsyntax.Attribute {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	return attrs
}

// ignore logs an invalid setting. Settings problems never stop loading.
func (d *decoder) ignore(owner, name string, a *hclsyntax.Attribute, err error) {
	logger := ctxlog.FromContext(d.ctx)
	if err != nil {
		logger.Warn("Ignoring invalid setting.", "owner", owner, "setting", name, "range", a.SrcRange.String(), "error", err)
		return
	}
	logger.Warn("Ignoring unknown setting.", "owner", owner, "setting", name, "range", a.SrcRange.String())
}

func (d *decoder) suite(s *model.Suite, body *hclsyntax.Body) {
	logger := ctxlog.FromContext(d.ctx)
	s.Source = d.src.path
	owner := "suite '" + s.Name + "'"

	for _, a := range sortedAttrs(body) {
		var err error
		switch a.Name {
		case "doc":
			s.Doc, err = d.src.rawString(a.Expr)
		case "metadata":
			err = d.metadata(s, a.Expr)
		case "variables":
			err = d.variables(s, a.Expr)
		case "setup":
			s.Setup, err = d.fixture(s, a.Expr)
		case "teardown":
			s.Teardown, err = d.fixture(s, a.Expr)
		case "test_setup":
			s.TestSetup, err = d.fixture(s, a.Expr)
		case "test_teardown":
			s.TestTeardown, err = d.fixture(s, a.Expr)
		case "test_tags":
			s.TestTags, err = d.src.rawStrings(a.Expr)
		case "test_timeout":
			s.TestTimeout, err = d.src.rawString(a.Expr)
		default:
			d.ignore(owner, a.Name, a, nil)
			continue
		}
		if err != nil {
			d.ignore(owner, a.Name, a, err)
		}
	}

	for _, blk := range body.Blocks {
		switch blk.Type {
		case "library":
			d.library(s, blk)
		case "keyword":
			d.keyword(s, blk)
		case "test":
			d.test(s, blk)
		case "suite":
			if len(blk.Labels) != 1 {
				logger.Warn("Ignoring suite block without a single name label.", "owner", owner, "range", blk.DefRange().String())
				continue
			}
			d.suite(s.AddSuite(blk.Labels[0]), blk.Body)
		default:
			logger.Warn("Ignoring unknown block.", "owner", owner, "block", blk.Type, "range", blk.DefRange().String())
		}
	}
	logger.Debug("Suite decoded.", "suite", s.Name, "tests", len(s.Tests), "keywords", len(s.Keywords))
}

func (d *decoder) metadata(s *model.Suite, expr hclsyntax.Expression) error {
	items, err := d.src.rawObject(expr)
	if err != nil {
		return err
	}
	for _, item := range items {
		v, err := d.src.rawString(item.value)
		if err != nil {
			return err
		}
		s.Metadata[item.key] = v
	}
	return nil
}

// variables accepts plain names, which become scalars, and decorated names
// such as "@{USERS}". A list value for a plain name is joined like a
// multi-value scalar declaration.
func (d *decoder) variables(s *model.Suite, expr hclsyntax.Expression) error {
	items, err := d.src.rawObject(expr)
	if err != nil {
		return err
	}
	for _, item := range items {
		values, err := d.src.rawStrings(item.value)
		if err != nil {
			return err
		}
		name := item.key
		if !decorated(name) {
			name = "${" + name + "}"
		}
		s.Variables = append(s.Variables, model.Variable{Name: name, Values: values})
	}
	return nil
}

func decorated(name string) bool {
	return len(name) >= 3 && strings.ContainsRune("$@&", rune(name[0])) && name[1] == '{' && strings.HasSuffix(name, "}")
}

// fixture reads ["Keyword", "arg", ...]. An empty list or "NONE" disables
// the fixture.
func (d *decoder) fixture(s *model.Suite, expr hclsyntax.Expression) (model.ItemID, error) {
	parts, err := d.src.rawStrings(expr)
	if err != nil {
		return model.NoItem, err
	}
	if len(parts) == 0 || strings.EqualFold(parts[0], "NONE") || parts[0] == "" {
		return model.NoItem, nil
	}
	return s.Fixture(parts[0], parts[1:]...), nil
}

// testFixture is fixture for tests, where a disabled fixture must still
// override the suite default and is kept as a NONE call.
func (d *decoder) testFixture(s *model.Suite, expr hclsyntax.Expression) (model.ItemID, error) {
	id, err := d.fixture(s, expr)
	if err == nil && !id.Valid() {
		id = s.Fixture("NONE")
	}
	return id, err
}

func (d *decoder) library(s *model.Suite, blk *hclsyntax.Block) {
	logger := ctxlog.FromContext(d.ctx)
	if len(blk.Labels) != 1 {
		logger.Warn("Ignoring library block without a single name label.", "suite", s.Name, "range", blk.DefRange().String())
		return
	}
	imp := model.LibraryImport{Name: blk.Labels[0]}
	for _, a := range sortedAttrs(blk.Body) {
		if a.Name != "alias" {
			d.ignore("library '"+imp.Name+"'", a.Name, a, nil)
			continue
		}
		alias, err := d.src.rawString(a.Expr)
		if err != nil {
			d.ignore("library '"+imp.Name+"'", a.Name, a, err)
			continue
		}
		imp.Alias = alias
	}
	s.Libraries = append(s.Libraries, imp)
}

func (d *decoder) test(s *model.Suite, blk *hclsyntax.Block) {
	if len(blk.Labels) != 1 {
		ctxlog.FromContext(d.ctx).Warn("Ignoring test block without a single name label.", "suite", s.Name, "range", blk.DefRange().String())
		return
	}
	t := s.AddTest(blk.Labels[0], d.items(blk.Body)...)
	t.Lineno = blk.DefRange().Start.Line
	owner := "test '" + t.Name + "'"

	for _, a := range sortedAttrs(blk.Body) {
		var err error
		switch a.Name {
		case "doc":
			t.Doc, err = d.src.rawString(a.Expr)
		case "tags":
			t.Tags, err = d.src.rawStrings(a.Expr)
		case "timeout":
			t.Timeout, err = d.src.rawString(a.Expr)
		case "setup":
			t.Setup, err = d.testFixture(s, a.Expr)
		case "teardown":
			t.Teardown, err = d.testFixture(s, a.Expr)
		default:
			d.ignore(owner, a.Name, a, nil)
			continue
		}
		if err != nil {
			d.ignore(owner, a.Name, a, err)
		}
	}
}

func (d *decoder) keyword(s *model.Suite, blk *hclsyntax.Block) {
	if len(blk.Labels) != 1 {
		ctxlog.FromContext(d.ctx).Warn("Ignoring keyword block without a single name label.", "suite", s.Name, "range", blk.DefRange().String())
		return
	}
	kw := model.NewKeyword(blk.Labels[0])
	kw.Owner = s.Name
	owner := "keyword '" + kw.Name + "'"

	for _, a := range sortedAttrs(blk.Body) {
		var err error
		switch a.Name {
		case "doc":
			kw.Doc, err = d.src.rawString(a.Expr)
		case "args":
			kw.Args, err = d.src.rawStrings(a.Expr)
		case "tags":
			kw.Tags, err = d.src.rawStrings(a.Expr)
		case "timeout":
			kw.Timeout, err = d.src.rawString(a.Expr)
		case "return":
			kw.Return, err = d.src.rawStrings(a.Expr)
		case "teardown":
			kw.Teardown, err = d.fixture(s, a.Expr)
		default:
			d.ignore(owner, a.Name, a, nil)
			continue
		}
		if err != nil {
			d.ignore(owner, a.Name, a, err)
		}
	}
	s.AddKeyword(kw, d.items(blk.Body)...)
}
