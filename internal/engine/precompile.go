// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package engine

import (
	"fmt"

	"github.com/vk/kwgrid/internal/argspec"
	"github.com/vk/kwgrid/internal/catalog"
	"github.com/vk/kwgrid/internal/model"
	"github.com/vk/kwgrid/internal/timestr"
	"github.com/vk/kwgrid/internal/varscan"
)

// Issue is a static problem found in test data.
type Issue struct {
	Owner   string
	Item    model.ItemID
	Message string
}

// Precompile checks the bodies of a suite's tests and user keywords and
// replaces invalid items with model.Error items, so a problem fails only
// the tests that reach it. Calls are resolved against cat unless their
// name contains variables. Child suites are not visited.
func Precompile(s *model.Suite, cat *catalog.Catalog) []Issue {
	c := &checker{arena: s.Arena, cat: cat}
	for _, id := range []model.ItemID{s.Setup, s.Teardown, s.TestSetup, s.TestTeardown} {
		c.owner = s.Name
		c.fixture(id)
	}
	for _, t := range s.Tests {
		c.owner = t.Name
		c.fixture(t.Setup)
		c.fixture(t.Teardown)
		c.body(t.Body, scope{})
	}
	for _, kw := range s.Keywords {
		c.owner = kw.Name
		c.fixture(kw.Teardown)
		c.body(kw.Body, scope{keyword: true})
	}
	return c.issues
}

type scope struct {
	keyword bool
	loops   int
	finally bool
}

type checker struct {
	arena  *model.Arena
	cat    *catalog.Catalog
	owner  string
	issues []Issue
}

func (c *checker) fail(id model.ItemID, msg string, values []string) {
	c.issues = append(c.issues, Issue{Owner: c.owner, Item: id, Message: msg})
	// Replace only fails for unknown IDs, which body IDs never are.
	_ = c.arena.Replace(id, &model.Error{Message: msg, Values: values})
}

func (c *checker) fixture(id model.ItemID) {
	if !id.Valid() {
		return
	}
	if call, ok := c.arena.Get(id).(*model.KeywordCall); ok && !timestr.IsNone(call.Name) {
		c.call(id, call)
	}
}

func (c *checker) call(id model.ItemID, call *model.KeywordCall) {
	if err := argspec.ValidateTargets(call.Assign); err != nil {
		c.fail(id, err.Error(), call.Args)
		return
	}
	if varscan.Search(call.Name, varscan.Options{}).Found() {
		return
	}
	if _, err := c.cat.Find(varscan.Unescape(call.Name)); err != nil {
		c.fail(id, err.Error(), call.Args)
	}
}

func (c *checker) body(ids []model.ItemID, sc scope) {
	for _, id := range ids {
		switch item := c.arena.Get(id).(type) {
		case *model.KeywordCall:
			c.call(id, item)
		case *model.ForLoop:
			c.loop(id, sc)
		case *model.WhileLoop:
			c.loop(id, sc)
		case *model.IfChain:
			c.ifChain(id, sc)
		case *model.TryChain:
			if _, err := splitTry(c.arena, item.Branches); err != nil {
				c.fail(id, err.Error(), nil)
				continue
			}
			for _, bid := range item.Branches {
				inner := sc
				inner.finally = c.arena.Get(bid).(*model.TryBranch).Type == model.BranchFinally
				c.body(c.arena.Children(bid), inner)
			}
		case *model.VarAssign:
			if _, ok := varscan.ParseAssign(item.Name, false); !ok {
				c.fail(id, fmt.Sprintf("Invalid variable name '%s'.", item.Name), item.Values)
			}
		case *model.Return:
			switch {
			case !sc.keyword:
				c.fail(id, "RETURN can only be used inside a user keyword.", item.Values)
			case sc.finally:
				c.fail(id, "RETURN cannot be used in FINALLY branch.", item.Values)
			}
		case *model.Break:
			c.loopControl(id, model.KindBreak, sc)
		case *model.Continue:
			c.loopControl(id, model.KindContinue, sc)
		}
	}
}

func (c *checker) loop(id model.ItemID, sc scope) {
	sc.loops++
	sc.finally = false
	c.body(c.arena.Children(id), sc)
}

func (c *checker) loopControl(id model.ItemID, kind model.Kind, sc scope) {
	switch {
	case sc.loops == 0:
		c.fail(id, fmt.Sprintf("%s can only be used inside a loop.", kind), nil)
	case sc.finally:
		c.fail(id, fmt.Sprintf("%s cannot be used in FINALLY branch.", kind), nil)
	}
}

func (c *checker) ifChain(id model.ItemID, sc scope) {
	branches := c.arena.Children(id)
	for i, bid := range branches {
		b, ok := c.arena.Get(bid).(*model.IfBranch)
		var msg string
		switch {
		case !ok:
			msg = "IF structure contains an invalid branch."
		case i == 0 && b.Type != model.BranchIf:
			msg = "IF structure must start with an IF branch."
		case i > 0 && b.Type == model.BranchIf:
			msg = "IF structure can have only one IF branch."
		case b.Type == model.BranchElse && i != len(branches)-1:
			msg = "ELSE branch must be last."
		case b.Type != model.BranchElse && b.Condition == "":
			msg = fmt.Sprintf("%s must have a condition.", b.Type)
		}
		if msg != "" {
			c.fail(id, msg, nil)
			return
		}
	}
	if len(branches) == 0 {
		c.fail(id, "IF structure must have an IF branch.", nil)
		return
	}
	for _, bid := range branches {
		c.body(c.arena.Children(bid), sc)
	}
}
